package service

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/silvesterdan/job-tracker-crm/internal/form"
	"github.com/silvesterdan/job-tracker-crm/internal/photostore"
	"github.com/silvesterdan/job-tracker-crm/internal/store"
)

// Each command is a single-shot flow: validate, write, signal stale pages,
// and return the redirect outcome. A *FormError is an expected user-input
// failure that sends the user back to the originating form; any other error
// is a contract violation surfaced as a generic failure page. No write
// happens unless validation fully passes.

func (s *TrackerService) CreateProperty(ctx context.Context, v url.Values) (Outcome, error) {
	addressLine := form.OptionalText(v, "addressLine")
	city := form.OptionalText(v, "city")

	if addressLine == "" {
		return Outcome{}, &FormError{BackTo: "/properties/new", Message: "Address line is required"}
	}
	if city == "" {
		return Outcome{}, &FormError{BackTo: "/properties/new", Message: "City is required"}
	}

	property, err := s.properties.Create(ctx, store.NewProperty{
		AddressLine: addressLine,
		City:        city,
		Postcode:    form.OptionalText(v, "postcode"),
		AccessNotes: form.OptionalText(v, "accessNotes"),
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create property: %w", err)
	}

	s.logger.Info("property created", "property_id", property.ID, "city", property.City)
	s.stale.Invalidate("/properties")
	return Outcome{Redirect: fmt.Sprintf("/properties/%d", property.ID)}, nil
}

func (s *TrackerService) UpdateAccessNotes(ctx context.Context, v url.Values) (Outcome, error) {
	propertyID, err := requireID(v, "propertyId")
	if err != nil {
		return Outcome{}, err
	}

	accessNotes := form.OptionalText(v, "accessNotes")
	if err := s.properties.UpdateAccessNotes(ctx, propertyID, accessNotes); err != nil {
		return Outcome{}, fmt.Errorf("failed to update access notes: %w", err)
	}

	propertyPath := fmt.Sprintf("/properties/%d", propertyID)
	s.stale.Invalidate(propertyPath)
	return Outcome{Redirect: propertyPath}, nil
}

func (s *TrackerService) CreateJob(ctx context.Context, v url.Values) (Outcome, error) {
	propertyID, err := requireID(v, "propertyId")
	if err != nil {
		return Outcome{}, err
	}
	title, err := form.RequireText(v, "title")
	if err != nil {
		return Outcome{}, err
	}
	jobDate, err := form.RequireDate(v, "jobDate")
	if err != nil {
		return Outcome{}, err
	}

	job, err := s.jobs.Create(ctx, store.NewJob{
		PropertyID:  propertyID,
		Title:       title,
		Description: form.OptionalText(v, "description"),
		JobDate:     jobDate,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create job: %w", err)
	}

	s.logger.Info("job created", "job_id", job.ID, "property_id", propertyID)
	s.stale.Invalidate(fmt.Sprintf("/properties/%d", propertyID))
	return Outcome{Redirect: fmt.Sprintf("/jobs/%d", job.ID)}, nil
}

func (s *TrackerService) CreateJobWithPaintRecords(ctx context.Context, v url.Values) (Outcome, error) {
	rawPropertyID := form.OptionalText(v, "propertyId")
	if rawPropertyID == "" {
		return Outcome{}, &FormError{BackTo: "/properties", Message: "Missing property id"}
	}
	propertyID, err := strconv.ParseInt(rawPropertyID, 10, 64)
	if err != nil {
		return Outcome{}, &FormError{BackTo: "/properties", Message: "Missing property id"}
	}

	backTo := fmt.Sprintf("/properties/%d/jobs/new", propertyID)

	jobDateRaw := form.OptionalText(v, "jobDate")
	if jobDateRaw == "" {
		return Outcome{}, &FormError{BackTo: backTo, Message: "Job date is required"}
	}
	summary := form.OptionalText(v, "summary")
	if summary == "" {
		return Outcome{}, &FormError{BackTo: backTo, Message: "Summary is required"}
	}
	jobDate, err := form.RequireDate(v, "jobDate")
	if err != nil {
		return Outcome{}, &FormError{BackTo: backTo, Message: "Job date is invalid"}
	}

	var records []store.NewPaintRecord
	for i, draft := range form.PaintDrafts(v) {
		if draft.Empty() {
			continue
		}
		if draft.Room == "" {
			return Outcome{}, &FormError{BackTo: backTo, Message: fmt.Sprintf("Paint record %d requires a room", i+1)}
		}
		if draft.Colour == "" {
			return Outcome{}, &FormError{BackTo: backTo, Message: fmt.Sprintf("Paint record %d requires a colour", i+1)}
		}
		records = append(records, store.NewPaintRecord{
			Area:       draft.Room,
			Brand:      draft.Brand,
			Finish:     draft.Finish,
			ColourName: draft.Colour,
			Notes:      draft.Notes,
		})
	}

	job, err := s.jobs.CreateWithPaintRecords(ctx, store.NewJob{
		PropertyID:  propertyID,
		Title:       summary,
		Description: form.OptionalText(v, "notes"),
		JobDate:     jobDate,
	}, records)
	if err != nil {
		return Outcome{}, fmt.Errorf("failed to create job with paint records: %w", err)
	}

	s.logger.Info("job created", "job_id", job.ID, "property_id", propertyID, "paint_records", len(records))
	propertyPath := fmt.Sprintf("/properties/%d", propertyID)
	s.stale.Invalidate(propertyPath)
	return Outcome{Redirect: propertyPath}, nil
}

// Upload is an in-memory uploaded file as received from a multipart form.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (s *TrackerService) CreatePaintRecord(ctx context.Context, v url.Values, photo *Upload) (Outcome, error) {
	jobID, err := requireID(v, "jobId")
	if err != nil {
		return Outcome{}, err
	}
	area, err := form.RequireText(v, "area")
	if err != nil {
		return Outcome{}, err
	}

	var photoPath, storageKey string
	if photo != nil && len(photo.Data) > 0 {
		if !strings.HasPrefix(photo.ContentType, "image/") {
			return Outcome{}, fmt.Errorf("photo must be an image, got %q", photo.ContentType)
		}
		storageKey, err = s.photoStg.Save(ctx, photo.Filename, bytes.NewReader(photo.Data))
		if err != nil {
			return Outcome{}, fmt.Errorf("failed to save photo: %w", err)
		}
		photoPath = path.Join(photostore.PublicPathPrefix, storageKey)
		s.logger.Debug("photo saved", "job_id", jobID, "storage_key", storageKey)
	}

	record, err := s.paints.Create(ctx, store.NewPaintRecord{
		JobID:       jobID,
		Area:        area,
		Brand:       form.OptionalText(v, "brand"),
		ProductName: form.OptionalText(v, "productName"),
		ColourName:  form.OptionalText(v, "colourName"),
		ColourCode:  form.OptionalText(v, "colourCode"),
		Finish:      form.OptionalText(v, "finish"),
		Notes:       form.OptionalText(v, "notes"),
		PhotoPath:   photoPath,
	})
	if err != nil {
		if storageKey != "" {
			if derr := s.photoStg.Delete(ctx, storageKey); derr != nil {
				s.logger.Error("failed to remove photo after insert error", "storage_key", storageKey, "error", derr)
			}
		}
		return Outcome{}, fmt.Errorf("failed to create paint record: %w", err)
	}

	s.logger.Info("paint record created", "paint_record_id", record.ID, "job_id", jobID, "has_photo", photoPath != "")
	jobPath := fmt.Sprintf("/jobs/%d", jobID)
	s.stale.Invalidate(jobPath)
	return Outcome{Redirect: jobPath}, nil
}

// requireID parses a required numeric identifier field, typically supplied
// by a hidden input.
func requireID(v url.Values, field string) (int64, error) {
	raw, err := form.RequireText(v, field)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &form.ValidationError{Field: field, Msg: "invalid identifier"}
	}
	return id, nil
}
