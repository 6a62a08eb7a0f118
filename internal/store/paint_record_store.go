package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/silvesterdan/job-tracker-crm/internal/domain"
)

type PaintRecordStore struct {
	db *sql.DB
}

func NewPaintRecordStore(db *sql.DB) *PaintRecordStore {
	return &PaintRecordStore{db: db}
}

// NewPaintRecord carries the fields of a paint record to create. Only JobID
// and Area are required; blank optional fields are stored as NULL.
type NewPaintRecord struct {
	JobID       int64
	Area        string
	Brand       string
	ProductName string
	ColourName  string
	ColourCode  string
	Finish      string
	Notes       string
	PhotoPath   string
}

const insertPaintRecordSQL = `
	INSERT INTO paint_records
		(job_id, area, brand, product_name, colour_name, colour_code, finish, notes, photo_path)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (r NewPaintRecord) args() []any {
	return []any{
		r.JobID, r.Area,
		nullable(r.Brand), nullable(r.ProductName),
		nullable(r.ColourName), nullable(r.ColourCode),
		nullable(r.Finish), nullable(r.Notes), nullable(r.PhotoPath),
	}
}

func (s *PaintRecordStore) Create(ctx context.Context, r NewPaintRecord) (*domain.PaintRecord, error) {
	result, err := s.db.ExecContext(ctx, insertPaintRecordSQL, r.args()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create paint record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *PaintRecordStore) GetByID(ctx context.Context, id int64) (*domain.PaintRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, job_id, area, brand, product_name, colour_name, colour_code,
		       finish, notes, photo_path, created_at
		FROM paint_records WHERE id = ?
	`, id)

	record, err := scanPaintRecord(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get paint record: %w", err)
	}

	return record, nil
}

// ListByJobID returns a job's paint records, newest first.
func (s *PaintRecordStore) ListByJobID(ctx context.Context, jobID int64) ([]*domain.PaintRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, area, brand, product_name, colour_name, colour_code,
		       finish, notes, photo_path, created_at
		FROM paint_records WHERE job_id = ? ORDER BY created_at DESC, id DESC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to list paint records: %w", err)
	}
	defer rows.Close()

	var records []*domain.PaintRecord
	for rows.Next() {
		record, err := scanPaintRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan paint record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating paint records: %w", err)
	}

	return records, nil
}

// LatestByRoom returns, for each distinct area across all of the property's
// jobs, the paint record from the most recent job date, tie-broken by the
// record's own creation time and then id. Results are ordered by area
// ascending; the colour falls back to the colour code when no colour name
// was recorded.
func (s *PaintRecordStore) LatestByRoom(ctx context.Context, propertyID int64) ([]*domain.RoomPaint, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT room, colour, brand, finish, job_date FROM (
			SELECT
				pr.area AS room,
				COALESCE(pr.colour_name, pr.colour_code) AS colour,
				pr.brand AS brand,
				pr.finish AS finish,
				j.job_date AS job_date,
				ROW_NUMBER() OVER (
					PARTITION BY pr.area
					ORDER BY j.job_date DESC, pr.created_at DESC, pr.id DESC
				) AS rn
			FROM paint_records pr
			INNER JOIN jobs j ON j.id = pr.job_id
			WHERE j.property_id = ?
		)
		WHERE rn = 1
		ORDER BY room ASC
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest paint by room: %w", err)
	}
	defer rows.Close()

	var results []*domain.RoomPaint
	for rows.Next() {
		rp := &domain.RoomPaint{}
		var colour, brand, finish sql.NullString
		if err := rows.Scan(&rp.Room, &colour, &brand, &finish, &rp.JobDate); err != nil {
			return nil, fmt.Errorf("failed to scan room paint: %w", err)
		}
		rp.Colour = colour.String
		rp.Brand = brand.String
		rp.Finish = finish.String
		results = append(results, rp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating room paint: %w", err)
	}

	return results, nil
}

func scanPaintRecord(row rowScanner) (*domain.PaintRecord, error) {
	record := &domain.PaintRecord{}
	var brand, productName, colourName, colourCode, finish, notes, photoPath sql.NullString
	if err := row.Scan(
		&record.ID, &record.JobID, &record.Area,
		&brand, &productName, &colourName, &colourCode,
		&finish, &notes, &photoPath, &record.CreatedAt,
	); err != nil {
		return nil, err
	}
	record.Brand = brand.String
	record.ProductName = productName.String
	record.ColourName = colourName.String
	record.ColourCode = colourCode.String
	record.Finish = finish.String
	record.Notes = notes.String
	record.PhotoPath = photoPath.String
	return record, nil
}
