package web

import (
	"errors"
	"io"
	"net/http"

	"github.com/silvesterdan/job-tracker-crm/internal/service"
)

const maxPhotoSize = 20 * 1024 * 1024 // 20 MB

// finishCommand translates a command result into the navigation contract:
// success and expected user-input failures both redirect; anything else is a
// generic failure page.
func (s *Server) finishCommand(w http.ResponseWriter, r *http.Request, out service.Outcome, err error) {
	if err != nil {
		var ferr *service.FormError
		if errors.As(err, &ferr) {
			http.Redirect(w, r, ferr.Location(), http.StatusSeeOther)
			return
		}
		s.logger.Error("command failed", "path", r.URL.Path, "error", err)
		http.Error(w, "something went wrong", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, out.Redirect, http.StatusSeeOther)
}

func (s *Server) handleCreateProperty(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	out, err := s.service.CreateProperty(r.Context(), r.PostForm)
	s.finishCommand(w, r, out, err)
}

func (s *Server) handleUpdateAccessNotes(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	out, err := s.service.UpdateAccessNotes(r.Context(), r.PostForm)
	s.finishCommand(w, r, out, err)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	out, err := s.service.CreateJob(r.Context(), r.PostForm)
	s.finishCommand(w, r, out, err)
}

func (s *Server) handleCreateJobWithPaintRecords(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}
	out, err := s.service.CreateJobWithPaintRecords(r.Context(), r.PostForm)
	s.finishCommand(w, r, out, err)
}

func (s *Server) handleCreatePaintRecord(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	photo, err := readUpload(r, "photo")
	if err != nil {
		http.Error(w, "failed to read upload", http.StatusBadRequest)
		s.logger.Error("read upload failed", "error", err)
		return
	}

	out, err := s.service.CreatePaintRecord(r.Context(), r.PostForm, photo)
	s.finishCommand(w, r, out, err)
}

// readUpload returns the named multipart file as an in-memory upload, or nil
// when the field was left empty.
func readUpload(r *http.Request, field string) (*service.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	return &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
