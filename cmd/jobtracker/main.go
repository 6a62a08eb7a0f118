package main

import (
	"log"

	"github.com/silvesterdan/job-tracker-crm/internal/config"
	"github.com/silvesterdan/job-tracker-crm/internal/db"
	"github.com/silvesterdan/job-tracker-crm/internal/logging"
	"github.com/silvesterdan/job-tracker-crm/internal/photostore/local"
	"github.com/silvesterdan/job-tracker-crm/internal/service"
	"github.com/silvesterdan/job-tracker-crm/internal/store"
	"github.com/silvesterdan/job-tracker-crm/internal/web"
	"github.com/silvesterdan/job-tracker-crm/internal/web/templates"
)

// pageCacheSize bounds the number of rendered pages kept in memory. The
// busiest pages are the property list and a handful of recent detail pages.
const pageCacheSize = 128

func main() {
	cfg := config.Load()

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	propertyStore := store.NewPropertyStore(database)
	jobStore := store.NewJobStore(database)
	paintRecordStore := store.NewPaintRecordStore(database)

	photoStg, err := local.NewLocalPhotoStore(cfg.PhotoPath)
	if err != nil {
		logger.Error("failed to initialize photo store", "error", err)
		return
	}

	pages, err := web.NewPageCache(pageCacheSize)
	if err != nil {
		logger.Error("failed to initialize page cache", "error", err)
		return
	}

	svc := service.NewTrackerService(propertyStore, jobStore, paintRecordStore, photoStg, pages, logger)
	server := web.NewServer(svc, templates.FS, photoStg, pages, logger)

	if err := server.ListenAndServe(cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
	}
}
