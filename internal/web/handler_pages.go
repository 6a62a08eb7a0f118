package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) handleListProperties(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	properties, err := s.service.SearchProperties(r.Context(), query)
	if err != nil {
		http.Error(w, "failed to list properties", http.StatusInternalServerError)
		s.logger.Error("list properties failed", "error", err)
		return
	}

	s.servePage(w, r, "/properties", map[string]any{
		"Properties": properties,
		"Query":      query,
		"Error":      r.URL.Query().Get("error"),
	}, "base.html", "pages/properties.html")
}

func (s *Server) handleNewPropertyForm(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, r, "", map[string]any{
		"Error": r.URL.Query().Get("error"),
	}, "base.html", "pages/property_new.html")
}

func (s *Server) handlePropertyDetail(w http.ResponseWriter, r *http.Request) {
	propertyID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}

	detail, err := s.service.GetPropertyDetail(r.Context(), propertyID)
	if err != nil {
		http.Error(w, "failed to get property", http.StatusInternalServerError)
		s.logger.Error("get property failed", "property_id", propertyID, "error", err)
		return
	}
	if detail == nil {
		http.NotFound(w, r)
		return
	}

	s.servePage(w, r, fmt.Sprintf("/properties/%d", propertyID), map[string]any{
		"Property":    detail.Property,
		"Jobs":        detail.Jobs,
		"LatestPaint": detail.LatestPaint,
	}, "base.html", "pages/property_detail.html")
}

func (s *Server) handleNewJobForm(w http.ResponseWriter, r *http.Request) {
	propertyID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid property id", http.StatusBadRequest)
		return
	}

	property, err := s.service.GetProperty(r.Context(), propertyID)
	if err != nil {
		http.Error(w, "failed to get property", http.StatusInternalServerError)
		s.logger.Error("get property failed", "property_id", propertyID, "error", err)
		return
	}
	if property == nil {
		http.NotFound(w, r)
		return
	}

	s.servePage(w, r, "", map[string]any{
		"Property": property,
		"Error":    r.URL.Query().Get("error"),
		// Blank rows offered for inline paint records.
		"Rows": 3,
	}, "base.html", "pages/job_new.html")
}

func (s *Server) handleJobDetail(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseID(r)
	if err != nil {
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	detail, err := s.service.GetJobDetail(r.Context(), jobID)
	if err != nil {
		http.Error(w, "failed to get job", http.StatusInternalServerError)
		s.logger.Error("get job failed", "job_id", jobID, "error", err)
		return
	}
	if detail == nil {
		http.NotFound(w, r)
		return
	}

	s.servePage(w, r, fmt.Sprintf("/jobs/%d", jobID), map[string]any{
		"Job":          detail.Job,
		"Property":     detail.Property,
		"PaintRecords": detail.PaintRecords,
	}, "base.html", "pages/job_detail.html")
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")

	reader, mimeType, err := s.photoStg.Get(r.Context(), file)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			s.logger.Error("failed to close photo reader", "file", file, "error", err)
		}
	}()

	w.Header().Set("Content-Type", mimeType)
	if _, err := io.Copy(w, reader); err != nil {
		s.logger.Error("write photo failed", "file", file, "error", err)
	}
}

// parseID extracts the {id} path variable and returns it as int64.
func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}
