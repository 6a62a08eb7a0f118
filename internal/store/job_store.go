package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/silvesterdan/job-tracker-crm/internal/domain"
)

type JobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *JobStore {
	return &JobStore{db: db}
}

// NewJob carries the fields of a job to create.
type NewJob struct {
	PropertyID  int64
	Title       string
	Description string
	JobDate     time.Time
}

func (s *JobStore) Create(ctx context.Context, j NewJob) (*domain.Job, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (property_id, title, description, job_date) VALUES (?, ?, ?, ?)
	`, j.PropertyID, j.Title, nullable(j.Description), j.JobDate)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// CreateWithPaintRecords inserts a job and its initial paint records in a
// single transaction. Either everything commits or nothing does.
func (s *JobStore) CreateWithPaintRecords(ctx context.Context, j NewJob, records []NewPaintRecord) (*domain.Job, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			slog.Error("failed to roll back transaction", "error", err)
		}
	}()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO jobs (property_id, title, description, job_date) VALUES (?, ?, ?, ?)
	`, j.PropertyID, j.Title, nullable(j.Description), j.JobDate)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	jobID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	for _, r := range records {
		r.JobID = jobID
		if _, err := tx.ExecContext(ctx, insertPaintRecordSQL, r.args()...); err != nil {
			return nil, fmt.Errorf("failed to create paint record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetByID(ctx, jobID)
}

func (s *JobStore) GetByID(ctx context.Context, id int64) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, property_id, title, description, job_date, created_at
		FROM jobs WHERE id = ?
	`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return job, nil
}

// ListByPropertyID returns a property's jobs, most recent job date first.
func (s *JobStore) ListByPropertyID(ctx context.Context, propertyID int64) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, property_id, title, description, job_date, created_at
		FROM jobs WHERE property_id = ? ORDER BY job_date DESC, id DESC
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating jobs: %w", err)
	}

	return jobs, nil
}

func scanJob(row rowScanner) (*domain.Job, error) {
	job := &domain.Job{}
	var description sql.NullString
	if err := row.Scan(
		&job.ID, &job.PropertyID, &job.Title,
		&description, &job.JobDate, &job.CreatedAt,
	); err != nil {
		return nil, err
	}
	job.Description = description.String
	return job, nil
}
