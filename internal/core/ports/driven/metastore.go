package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/confsync/internal/core/domain"
)

// MetadataStore persists per-page version records and the sync watermark.
type MetadataStore interface {
	// GetPage retrieves the stored metadata for a page.
	// Returns domain.ErrNotFound when the page has never been processed.
	GetPage(ctx context.Context, pageID string) (*domain.PageMetadata, error)

	// PutPage stores or overwrites the metadata for a page.
	PutPage(ctx context.Context, meta domain.PageMetadata) error

	// Watermark returns the last successfully completed sync timestamp.
	// Returns domain.DefaultWatermark when no sync has completed yet.
	Watermark(ctx context.Context) (time.Time, error)

	// SetWatermark persists a new watermark.
	SetWatermark(ctx context.Context, t time.Time) error
}
