package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/silvesterdan/job-tracker-crm/internal/domain"
)

type PropertyStore struct {
	db *sql.DB
}

func NewPropertyStore(db *sql.DB) *PropertyStore {
	return &PropertyStore{db: db}
}

// NewProperty carries the fields of a property to create. Optional fields
// left "" are stored as NULL.
type NewProperty struct {
	AddressLine string
	City        string
	Postcode    string
	AccessNotes string
}

func (s *PropertyStore) Create(ctx context.Context, p NewProperty) (*domain.Property, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO properties (address_line, city, postcode, access_notes) VALUES (?, ?, ?, ?)
	`, p.AddressLine, p.City, nullable(p.Postcode), nullable(p.AccessNotes))
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *PropertyStore) GetByID(ctx context.Context, id int64) (*domain.Property, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, address_line, city, postcode, access_notes, created_at
		FROM properties WHERE id = ?
	`, id)

	property, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	return property, nil
}

func (s *PropertyStore) List(ctx context.Context) ([]*domain.Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address_line, city, postcode, access_notes, created_at
		FROM properties ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	return collectProperties(rows)
}

// Search returns properties whose address line or postcode contains query,
// case-insensitively, newest first.
func (s *PropertyStore) Search(ctx context.Context, query string) ([]*domain.Property, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, address_line, city, postcode, access_notes, created_at
		FROM properties
		WHERE LOWER(address_line) LIKE ? OR LOWER(COALESCE(postcode, '')) LIKE ?
		ORDER BY created_at DESC, id DESC
	`, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search properties: %w", err)
	}
	return collectProperties(rows)
}

// UpdateAccessNotes sets the access notes for a property. Updating an
// unknown id affects no rows and is not an error.
func (s *PropertyStore) UpdateAccessNotes(ctx context.Context, id int64, accessNotes string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE properties SET access_notes = ? WHERE id = ?
	`, nullable(accessNotes), id)
	if err != nil {
		return fmt.Errorf("failed to update access notes: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProperty(row rowScanner) (*domain.Property, error) {
	property := &domain.Property{}
	var postcode, accessNotes sql.NullString
	if err := row.Scan(
		&property.ID, &property.AddressLine, &property.City,
		&postcode, &accessNotes, &property.CreatedAt,
	); err != nil {
		return nil, err
	}
	property.Postcode = postcode.String
	property.AccessNotes = accessNotes.String
	return property, nil
}

func collectProperties(rows *sql.Rows) ([]*domain.Property, error) {
	defer rows.Close()

	var properties []*domain.Property
	for rows.Next() {
		property, err := scanProperty(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		properties = append(properties, property)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}

	return properties, nil
}

// nullable maps "" to SQL NULL so optional text columns stay NULL rather
// than empty strings.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
