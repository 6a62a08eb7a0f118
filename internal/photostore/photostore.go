package photostore

import (
	"context"
	"io"
)

// PublicPathPrefix is the URL prefix under which stored photos are
// addressable. A record's persisted photo path is this prefix plus the
// storage key.
const PublicPathPrefix = "/uploads/paint-records"

// PhotoStore persists uploaded paint reference photos and serves them back
// by storage key.
type PhotoStore interface {
	// Save writes the full contents of r under a freshly generated,
	// collision-resistant name whose extension is derived from originalName.
	Save(ctx context.Context, originalName string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}
