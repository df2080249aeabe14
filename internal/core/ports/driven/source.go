package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/confsync/internal/core/domain"
)

// DocumentSource fetches changed documents from a remote content API.
type DocumentSource interface {
	// FetchChangedSince yields documents modified after the watermark, in
	// ascending last-modified order as reported by the API. Pagination,
	// retries and rate-limit waits are handled internally.
	//
	// The documents channel is closed when the fetch is exhausted. A
	// fetch-level failure (retries exhausted, non-retryable client error)
	// is sent on the error channel and terminates the stream; it is fatal
	// to the run. A fresh call re-issues the query from scratch.
	FetchChangedSince(ctx context.Context, watermark time.Time) (<-chan domain.RawDocument, <-chan error)

	// Validate checks the source is properly configured and reachable.
	Validate(ctx context.Context) error

	// Close releases resources.
	Close() error
}
