package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
	"github.com/custodia-labs/confsync/internal/logger"
)

// SyncCoordinator drives one poll cycle: fetch changed pages, gate on
// stored versions, run the normalise/chunk/embed/index pipeline per page,
// and advance the watermark once the fetch loop completes cleanly.
type SyncCoordinator struct {
	source      driven.DocumentSource
	metaStore   driven.MetadataStore
	normaliser  driven.Normaliser
	chunker     driven.Chunker
	embedder    driven.EmbeddingService
	vectorIndex driven.VectorIndex

	// now supplies the clock; overridable in tests.
	now func() time.Time
}

// NewSyncCoordinator creates a sync coordinator.
// The embedder and vectorIndex are optional; when either is nil, processed
// pages update metadata but are not embedded or indexed.
func NewSyncCoordinator(
	source driven.DocumentSource,
	metaStore driven.MetadataStore,
	normaliser driven.Normaliser,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	vectorIndex driven.VectorIndex,
) *SyncCoordinator {
	return &SyncCoordinator{
		source:      source,
		metaStore:   metaStore,
		normaliser:  normaliser,
		chunker:     chunker,
		embedder:    embedder,
		vectorIndex: vectorIndex,
		now:         time.Now,
	}
}

// Run executes one sync cycle and returns its summary.
//
// Failures while processing a single page are logged, counted and
// skipped; they never abort the run or block the watermark. A failure in
// the fetch loop itself, or persisting the watermark, is system-level:
// the run aborts with an error and the watermark stays unchanged.
func (c *SyncCoordinator) Run(ctx context.Context) (*domain.SyncSummary, error) {
	watermark, err := c.metaStore.Watermark(ctx)
	if err != nil {
		return nil, fmt.Errorf("read watermark: %w", err)
	}

	logger.Info("Starting sync from %s", watermark.UTC().Format(time.RFC3339))
	summary := &domain.SyncSummary{}

	docsCh, errsCh := c.source.FetchChangedSince(ctx, watermark)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if err != nil {
				// Fetch-level failure: fatal, watermark untouched.
				return nil, fmt.Errorf("fetch documents: %w", err)
			}

		case doc, ok := <-docsCh:
			if !ok {
				// Both channels can be ready at once when the source has
				// already shut down, and select picks arbitrarily. A
				// pending fetch error must still abort the run, so the
				// error channel is drained before the watermark moves.
				if err := drainErrors(ctx, errsCh); err != nil {
					return nil, fmt.Errorf("fetch documents: %w", err)
				}
				return summary, c.finalize(ctx, summary)
			}
			summary.Fetched++
			if err := c.processDocument(ctx, &doc, summary); err != nil {
				summary.Errors++
				logger.Warn("Failed to process page %s: %v", doc.ID, err)
			}
		}
	}
}

// drainErrors consumes the error channel to completion and returns the
// first error found, if any. A nil channel (already closed and observed)
// drains trivially.
func drainErrors(ctx context.Context, errsCh <-chan error) error {
	if errsCh == nil {
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errsCh:
			if !ok {
				return nil
			}
			if err != nil {
				return err
			}
		}
	}
}

// finalize persists the new watermark. It uses the wall-clock time at
// completion rather than the maximum last-modified seen, trading a
// possible narrow re-fetch window for immunity to client/server clock
// skew.
func (c *SyncCoordinator) finalize(ctx context.Context, summary *domain.SyncSummary) error {
	completedAt := c.now().UTC()
	if err := c.metaStore.SetWatermark(ctx, completedAt); err != nil {
		return fmt.Errorf("persist watermark: %w", err)
	}

	logger.Info("Sync complete: fetched=%d skipped=%d updated=%d errors=%d",
		summary.Fetched, summary.Skipped, summary.Updated, summary.Errors)
	return nil
}

// processDocument runs the version gate and, when the page is new or
// changed, the full pipeline for it.
func (c *SyncCoordinator) processDocument(ctx context.Context, doc *domain.RawDocument, summary *domain.SyncSummary) error {
	existing, err := c.metaStore.GetPage(ctx, doc.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get metadata: %w", err)
	}

	if existing != nil && existing.Version == doc.Version {
		logger.Debug("Skipping page %s (version %d up to date)", doc.ID, doc.Version)
		summary.Skipped++
		return nil
	}

	logger.Debug("Processing page %s (version %d)", doc.ID, doc.Version)

	canonical, err := c.normaliser.Normalise(ctx, doc)
	if err != nil {
		return fmt.Errorf("normalise: %w", err)
	}

	chunks, err := c.chunker.Chunk(canonical)
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}

	if err := c.embedAndIndex(ctx, doc.ID, existing != nil, chunks); err != nil {
		return err
	}

	if err := c.metaStore.PutPage(ctx, c.buildMetadata(doc)); err != nil {
		return fmt.Errorf("put metadata: %w", err)
	}

	summary.Updated++
	return nil
}

// embedAndIndex embeds the chunks in one ordered batch and upserts them.
// For a reindexed page the previous version's chunks are cleared first;
// chunk IDs embed the version, so an upsert alone would leave them behind.
func (c *SyncCoordinator) embedAndIndex(ctx context.Context, docID string, reindex bool, chunks []domain.Chunk) error {
	if c.embedder == nil || c.vectorIndex == nil || len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].EmbeddingText()
	}

	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	if reindex {
		if err := c.vectorIndex.DeleteDoc(ctx, docID); err != nil {
			return fmt.Errorf("clear stale chunks: %w", err)
		}
	}

	if err := c.vectorIndex.Upsert(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}
	return nil
}

// buildMetadata assembles the stored record for a processed page.
func (c *SyncCoordinator) buildMetadata(doc *domain.RawDocument) domain.PageMetadata {
	digest := sha256.Sum256(doc.Body)

	return domain.PageMetadata{
		PageID:       doc.ID,
		SpaceKey:     doc.SpaceKey,
		Title:        doc.Title,
		Version:      doc.Version,
		ContentHash:  hex.EncodeToString(digest[:]),
		AncestorIDs:  doc.AncestorIDs,
		ParentID:     doc.ParentID(),
		Depth:        len(doc.AncestorIDs),
		LastModified: doc.LastModified,
		UpdatedAt:    c.now().UTC(),
	}
}
