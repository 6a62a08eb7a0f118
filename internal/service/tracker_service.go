package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/silvesterdan/job-tracker-crm/internal/domain"
	"github.com/silvesterdan/job-tracker-crm/internal/photostore"
	"github.com/silvesterdan/job-tracker-crm/internal/store"
)

// propertyRepository is the subset of store.PropertyStore that TrackerService requires.
type propertyRepository interface {
	Create(ctx context.Context, p store.NewProperty) (*domain.Property, error)
	GetByID(ctx context.Context, id int64) (*domain.Property, error)
	List(ctx context.Context) ([]*domain.Property, error)
	Search(ctx context.Context, query string) ([]*domain.Property, error)
	UpdateAccessNotes(ctx context.Context, id int64, accessNotes string) error
}

// jobRepository is the subset of store.JobStore that TrackerService requires.
type jobRepository interface {
	Create(ctx context.Context, j store.NewJob) (*domain.Job, error)
	CreateWithPaintRecords(ctx context.Context, j store.NewJob, records []store.NewPaintRecord) (*domain.Job, error)
	GetByID(ctx context.Context, id int64) (*domain.Job, error)
	ListByPropertyID(ctx context.Context, propertyID int64) ([]*domain.Job, error)
}

// paintRecordRepository is the subset of store.PaintRecordStore that TrackerService requires.
type paintRecordRepository interface {
	Create(ctx context.Context, r store.NewPaintRecord) (*domain.PaintRecord, error)
	ListByJobID(ctx context.Context, jobID int64) ([]*domain.PaintRecord, error)
	LatestByRoom(ctx context.Context, propertyID int64) ([]*domain.RoomPaint, error)
}

type TrackerService struct {
	properties propertyRepository
	jobs       jobRepository
	paints     paintRecordRepository
	photoStg   photostore.PhotoStore
	stale      Invalidator
	logger     *slog.Logger
}

func NewTrackerService(
	properties propertyRepository,
	jobs jobRepository,
	paints paintRecordRepository,
	photoStg photostore.PhotoStore,
	stale Invalidator,
	logger *slog.Logger,
) *TrackerService {
	return &TrackerService{
		properties: properties,
		jobs:       jobs,
		paints:     paints,
		photoStg:   photoStg,
		stale:      stale,
		logger:     logger,
	}
}

// SearchProperties lists all properties, or those matching query when it is
// non-empty.
func (s *TrackerService) SearchProperties(ctx context.Context, query string) ([]*domain.Property, error) {
	if query == "" {
		return s.properties.List(ctx)
	}
	return s.properties.Search(ctx, query)
}

// PropertyDetail bundles everything the property page renders.
type PropertyDetail struct {
	Property    *domain.Property
	Jobs        []*domain.Job
	LatestPaint []*domain.RoomPaint
}

// GetPropertyDetail returns nil (and no error) when the property does not exist.
func (s *TrackerService) GetPropertyDetail(ctx context.Context, propertyID int64) (*PropertyDetail, error) {
	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}
	if property == nil {
		return nil, nil
	}

	jobs, err := s.jobs.ListByPropertyID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	latestPaint, err := s.paints.LatestByRoom(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest paint by room: %w", err)
	}

	return &PropertyDetail{Property: property, Jobs: jobs, LatestPaint: latestPaint}, nil
}

// JobDetail bundles everything the job page renders.
type JobDetail struct {
	Job          *domain.Job
	Property     *domain.Property
	PaintRecords []*domain.PaintRecord
}

// GetJobDetail returns nil (and no error) when the job does not exist.
func (s *TrackerService) GetJobDetail(ctx context.Context, jobID int64) (*JobDetail, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	if job == nil {
		return nil, nil
	}

	property, err := s.properties.GetByID(ctx, job.PropertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	records, err := s.paints.ListByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list paint records: %w", err)
	}

	return &JobDetail{Job: job, Property: property, PaintRecords: records}, nil
}

func (s *TrackerService) GetProperty(ctx context.Context, propertyID int64) (*domain.Property, error) {
	return s.properties.GetByID(ctx, propertyID)
}
