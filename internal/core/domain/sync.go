package domain

import "time"

// DefaultWatermark is the watermark used when none has been persisted yet.
// It is the Unix epoch, so a first run fetches everything.
var DefaultWatermark = time.Unix(0, 0).UTC()

// SyncState is the persisted synchronisation watermark.
// It is mutated only by the coordinator, and only after a poll cycle
// completes without a system-level failure.
type SyncState struct {
	// LastSync marks the last successfully completed sync.
	LastSync time.Time
}

// PageMetadata is the stored per-page record used as the skip-decision
// oracle: a fetched page whose version matches the stored one is skipped.
type PageMetadata struct {
	// PageID is the remote page identifier.
	PageID string

	// SpaceKey is the containing space key.
	SpaceKey string

	// Title is the page title at the recorded version.
	Title string

	// Version is the last processed remote version.
	Version int

	// ContentHash is the SHA-256 digest of the raw body bytes, for change
	// detection independent of the remote version counter.
	ContentHash string

	// AncestorIDs is the container chain, root first.
	AncestorIDs []string

	// ParentID is the immediate parent page ID, empty for top-level pages.
	ParentID string

	// Depth is the length of the ancestor chain.
	Depth int

	// LastModified is the remote modification timestamp.
	LastModified time.Time

	// UpdatedAt is when this record was written.
	UpdatedAt time.Time
}

// SyncSummary reports the outcome of one sync run. It is produced
// regardless of document-level errors; only a system-level failure
// prevents it.
type SyncSummary struct {
	// Fetched counts documents yielded by the source.
	Fetched int

	// Skipped counts documents whose stored version matched.
	Skipped int

	// Updated counts documents processed through the full pipeline.
	Updated int

	// Errors counts documents that failed processing and were skipped.
	Errors int
}
