package domain

import "time"

type Property struct {
	ID          int64
	AddressLine string
	City        string
	Postcode    string
	AccessNotes string
	CreatedAt   time.Time
}

type Job struct {
	ID          int64
	PropertyID  int64
	Title       string
	Description string
	JobDate     time.Time
	CreatedAt   time.Time
}

type PaintRecord struct {
	ID          int64
	JobID       int64
	Area        string
	Brand       string
	ProductName string
	ColourName  string
	ColourCode  string
	Finish      string
	Notes       string
	PhotoPath   string
	CreatedAt   time.Time
}

// RoomPaint is one row of the "latest paint by room" summary for a property.
// Colour falls back from colour name to colour code when the name is unset.
type RoomPaint struct {
	Room    string
	Colour  string
	Brand   string
	Finish  string
	JobDate time.Time
}
