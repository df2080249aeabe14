// Package memory provides in-memory store implementations for tests and
// ephemeral runs.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
type MetadataStore struct {
	mu        sync.RWMutex
	pages     map[string]domain.PageMetadata
	watermark time.Time
	hasMark   bool
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		pages: make(map[string]domain.PageMetadata),
	}
}

// GetPage retrieves the stored metadata for a page.
func (s *MetadataStore) GetPage(_ context.Context, pageID string) (*domain.PageMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meta, ok := s.pages[pageID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &meta, nil
}

// PutPage stores or overwrites the metadata for a page.
func (s *MetadataStore) PutPage(_ context.Context, meta domain.PageMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[meta.PageID] = meta
	return nil
}

// Watermark returns the last completed sync timestamp, or the default
// when no sync has completed yet.
func (s *MetadataStore) Watermark(_ context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasMark {
		return domain.DefaultWatermark, nil
	}
	return s.watermark, nil
}

// SetWatermark persists a new watermark.
func (s *MetadataStore) SetWatermark(_ context.Context, t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermark = t
	s.hasMark = true
	return nil
}
