package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/silvesterdan/job-tracker-crm/internal/db"
	"github.com/silvesterdan/job-tracker-crm/internal/form"
	"github.com/silvesterdan/job-tracker-crm/internal/store"
)

// stubPhotoStore is a minimal in-memory photostore.PhotoStore for tests.
type stubPhotoStore struct {
	mu      sync.Mutex
	saved   map[string][]byte
	saveErr error
	counter int
}

func newStubPhotoStore() *stubPhotoStore {
	return &stubPhotoStore{saved: make(map[string][]byte)}
}

func (s *stubPhotoStore) Save(_ context.Context, _ string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	key := string(rune('a'+s.counter-1)) + ".jpg"
	s.saved[key] = data
	return key, nil
}

func (s *stubPhotoStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.saved[key]
	if !ok {
		return nil, "", errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), "image/jpeg", nil
}

func (s *stubPhotoStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.saved, key)
	return nil
}

func (s *stubPhotoStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

// stubInvalidator records every stale-path signal it receives.
type stubInvalidator struct {
	mu    sync.Mutex
	paths []string
}

func (s *stubInvalidator) Invalidate(paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, paths...)
}

func (s *stubInvalidator) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

type testEnv struct {
	svc    *TrackerService
	db     *sql.DB
	photos *stubPhotoStore
	stale  *stubInvalidator
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	photos := newStubPhotoStore()
	stale := &stubInvalidator{}
	svc := NewTrackerService(
		store.NewPropertyStore(d),
		store.NewJobStore(d),
		store.NewPaintRecordStore(d),
		photos,
		stale,
		slog.Default(),
	)
	return &testEnv{svc: svc, db: d, photos: photos, stale: stale}
}

func (e *testEnv) rowCount(t *testing.T, table string) int {
	t.Helper()
	var count int
	require.NoError(t, e.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
	return count
}

func (e *testEnv) createProperty(t *testing.T) int64 {
	t.Helper()
	out, err := e.svc.CreateProperty(context.Background(), url.Values{
		"addressLine": {"12 Elm Street"},
		"city":        {"Leeds"},
	})
	require.NoError(t, err)
	var id int64
	require.NoError(t, e.db.QueryRow("SELECT id FROM properties ORDER BY id DESC LIMIT 1").Scan(&id))
	require.NotEmpty(t, out.Redirect)
	return id
}

func TestCreateProperty(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.svc.CreateProperty(context.Background(), url.Values{
		"addressLine": {" 12 Elm Street "},
		"city":        {"Leeds"},
		"postcode":    {"LS1 4AB"},
		"accessNotes": {"Key under the mat"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/properties/1", out.Redirect)
	assert.Equal(t, 1, env.rowCount(t, "properties"))
	assert.Contains(t, env.stale.seen(), "/properties")
}

func TestCreatePropertyMissingFields(t *testing.T) {
	tests := []struct {
		name    string
		v       url.Values
		message string
	}{
		{"missing address line", url.Values{"city": {"Leeds"}}, "Address line is required"},
		{"blank address line", url.Values{"addressLine": {"   "}, "city": {"Leeds"}}, "Address line is required"},
		{"missing city", url.Values{"addressLine": {"12 Elm Street"}}, "City is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.svc.CreateProperty(context.Background(), tt.v)
			var ferr *FormError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, "/properties/new", ferr.BackTo)
			assert.Equal(t, tt.message, ferr.Message)
			assert.Contains(t, ferr.Location(), "/properties/new?error=")
			assert.Zero(t, env.rowCount(t, "properties"))
			assert.Empty(t, env.stale.seen())
		})
	}
}

func TestUpdateAccessNotes(t *testing.T) {
	env := newTestEnv(t)
	propertyID := env.createProperty(t)

	out, err := env.svc.UpdateAccessNotes(context.Background(), url.Values{
		"propertyId":  {"1"},
		"accessNotes": {"Lockbox code 4912"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/properties/1", out.Redirect)

	property, err := env.svc.GetProperty(context.Background(), propertyID)
	require.NoError(t, err)
	assert.Equal(t, "Lockbox code 4912", property.AccessNotes)
	assert.Contains(t, env.stale.seen(), "/properties/1")
}

func TestUpdateAccessNotesMissingID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.UpdateAccessNotes(context.Background(), url.Values{"accessNotes": {"notes"}})
	var verr *form.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "propertyId", verr.Field)
}

func TestUpdateAccessNotesUnknownPropertyIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.svc.UpdateAccessNotes(context.Background(), url.Values{
		"propertyId":  {"999"},
		"accessNotes": {"notes"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/properties/999", out.Redirect)
}

func TestCreateJob(t *testing.T) {
	env := newTestEnv(t)
	env.createProperty(t)

	out, err := env.svc.CreateJob(context.Background(), url.Values{
		"propertyId":  {"1"},
		"title":       {"Repaint hallway"},
		"description": {"Two coats"},
		"jobDate":     {"2024-03-01"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/jobs/1", out.Redirect)
	assert.Equal(t, 1, env.rowCount(t, "jobs"))
	assert.Contains(t, env.stale.seen(), "/properties/1")
}

func TestCreateJobContractErrors(t *testing.T) {
	tests := []struct {
		name string
		v    url.Values
	}{
		{"missing property id", url.Values{"title": {"Repaint"}, "jobDate": {"2024-03-01"}}},
		{"missing title", url.Values{"propertyId": {"1"}, "jobDate": {"2024-03-01"}}},
		{"bad date", url.Values{"propertyId": {"1"}, "title": {"Repaint"}, "jobDate": {"soon"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.createProperty(t)

			_, err := env.svc.CreateJob(context.Background(), tt.v)
			require.Error(t, err)
			var ferr *FormError
			assert.False(t, errors.As(err, &ferr), "contract violations must not surface as form errors")
			assert.Zero(t, env.rowCount(t, "jobs"))
		})
	}
}

func TestCreateJobWithPaintRecords(t *testing.T) {
	env := newTestEnv(t)
	env.createProperty(t)

	out, err := env.svc.CreateJobWithPaintRecords(context.Background(), url.Values{
		"propertyId":            {"1"},
		"jobDate":               {"2024-03-01"},
		"summary":               {"Full interior"},
		"notes":                 {"customer supplied paint"},
		"paintRecords.0.room":   {"Hall"},
		"paintRecords.0.colour": {"Polished Pebble"},
		"paintRecords.1.room":   {""},
		"paintRecords.1.colour": {""},
		"paintRecords.2.room":   {"Kitchen"},
		"paintRecords.2.colour": {"Timeless"},
		"paintRecords.2.brand":  {"Dulux"},
	})
	require.NoError(t, err)
	assert.Equal(t, "/properties/1", out.Redirect)
	assert.Equal(t, 1, env.rowCount(t, "jobs"))
	// The all-empty draft is dropped, not stored.
	assert.Equal(t, 2, env.rowCount(t, "paint_records"))
	assert.Contains(t, env.stale.seen(), "/properties/1")
}

func TestCreateJobWithPaintRecordsFormErrors(t *testing.T) {
	tests := []struct {
		name    string
		v       url.Values
		backTo  string
		message string
	}{
		{
			"missing property id",
			url.Values{"jobDate": {"2024-03-01"}, "summary": {"Interior"}},
			"/properties", "Missing property id",
		},
		{
			"missing job date",
			url.Values{"propertyId": {"1"}, "summary": {"Interior"}},
			"/properties/1/jobs/new", "Job date is required",
		},
		{
			"missing summary",
			url.Values{"propertyId": {"1"}, "jobDate": {"2024-03-01"}},
			"/properties/1/jobs/new", "Summary is required",
		},
		{
			"invalid job date",
			url.Values{"propertyId": {"1"}, "jobDate": {"yesterday"}, "summary": {"Interior"}},
			"/properties/1/jobs/new", "Job date is invalid",
		},
		{
			"draft missing colour",
			url.Values{
				"propertyId": {"1"}, "jobDate": {"2024-03-01"}, "summary": {"Interior"},
				"paintRecords.0.room": {"Hall"},
			},
			"/properties/1/jobs/new", "Paint record 1 requires a colour",
		},
		{
			"draft missing room",
			url.Values{
				"propertyId": {"1"}, "jobDate": {"2024-03-01"}, "summary": {"Interior"},
				"paintRecords.0.colour": {"Blue"},
			},
			"/properties/1/jobs/new", "Paint record 1 requires a room",
		},
		{
			"position counts earlier empty drafts",
			url.Values{
				"propertyId": {"1"}, "jobDate": {"2024-03-01"}, "summary": {"Interior"},
				"paintRecords.0.room": {""},
				"paintRecords.1.room": {"Hall"},
			},
			"/properties/1/jobs/new", "Paint record 2 requires a colour",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.createProperty(t)

			_, err := env.svc.CreateJobWithPaintRecords(context.Background(), tt.v)
			var ferr *FormError
			require.ErrorAs(t, err, &ferr)
			assert.Equal(t, tt.backTo, ferr.BackTo)
			assert.Equal(t, tt.message, ferr.Message)
			// Nothing may be written, the job included.
			assert.Zero(t, env.rowCount(t, "jobs"))
			assert.Zero(t, env.rowCount(t, "paint_records"))
		})
	}
}

func createJobForTest(t *testing.T, env *testEnv) {
	t.Helper()
	env.createProperty(t)
	_, err := env.svc.CreateJob(context.Background(), url.Values{
		"propertyId": {"1"},
		"title":      {"Repaint hallway"},
		"jobDate":    {"2024-03-01"},
	})
	require.NoError(t, err)
}

func TestCreatePaintRecord(t *testing.T) {
	env := newTestEnv(t)
	createJobForTest(t, env)

	out, err := env.svc.CreatePaintRecord(context.Background(), url.Values{
		"jobId":      {"1"},
		"area":       {"Kitchen walls"},
		"brand":      {"Dulux"},
		"colourName": {"Timeless"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/jobs/1", out.Redirect)
	assert.Equal(t, 1, env.rowCount(t, "paint_records"))
	assert.Contains(t, env.stale.seen(), "/jobs/1")
}

func TestCreatePaintRecordWithPhoto(t *testing.T) {
	env := newTestEnv(t)
	createJobForTest(t, env)

	photo := &Upload{Filename: "paint-can.png", ContentType: "image/png", Data: []byte("png bytes")}
	_, err := env.svc.CreatePaintRecord(context.Background(), url.Values{
		"jobId": {"1"},
		"area":  {"Kitchen walls"},
	}, photo)
	require.NoError(t, err)
	assert.Equal(t, 1, env.photos.count())

	var photoPath string
	require.NoError(t, env.db.QueryRow("SELECT photo_path FROM paint_records WHERE id = 1").Scan(&photoPath))
	assert.Contains(t, photoPath, "/uploads/paint-records/")
}

func TestCreatePaintRecordRejectsNonImage(t *testing.T) {
	env := newTestEnv(t)
	createJobForTest(t, env)

	photo := &Upload{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("not an image")}
	_, err := env.svc.CreatePaintRecord(context.Background(), url.Values{
		"jobId": {"1"},
		"area":  {"Kitchen walls"},
	}, photo)
	require.Error(t, err)
	var ferr *FormError
	assert.False(t, errors.As(err, &ferr))
	assert.Zero(t, env.rowCount(t, "paint_records"))
	assert.Zero(t, env.photos.count(), "no file may be written for a rejected upload")
}

func TestCreatePaintRecordStorageFailure(t *testing.T) {
	env := newTestEnv(t)
	createJobForTest(t, env)
	env.photos.saveErr = errors.New("disk full")

	photo := &Upload{Filename: "paint-can.jpg", ContentType: "image/jpeg", Data: []byte("jpeg bytes")}
	_, err := env.svc.CreatePaintRecord(context.Background(), url.Values{
		"jobId": {"1"},
		"area":  {"Kitchen walls"},
	}, photo)
	require.Error(t, err)
	assert.Zero(t, env.rowCount(t, "paint_records"), "record must not be created when the photo write fails")
}

func TestCreatePaintRecordMissingArea(t *testing.T) {
	env := newTestEnv(t)
	createJobForTest(t, env)

	_, err := env.svc.CreatePaintRecord(context.Background(), url.Values{"jobId": {"1"}}, nil)
	var verr *form.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "area", verr.Field)
	assert.Zero(t, env.rowCount(t, "paint_records"))
}
