package confluence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
	"github.com/custodia-labs/confsync/internal/logger"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Source streams changed pages from a Confluence-style site.
type Source struct {
	client *Client
	mu     sync.Mutex
	closed bool
}

// NewSource creates a document source for the configured site.
func NewSource(cfg Config) (*Source, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &Source{client: client}, nil
}

// FetchChangedSince yields pages modified after the watermark, in the
// ascending last-modified order the API reports. The fetch follows the
// response envelope's next link until the API stops providing one.
//
// A fetch-level failure is sent on the error channel and ends the stream;
// callers treat it as fatal to the run. A fresh call restarts the query.
func (s *Source) FetchChangedSince(ctx context.Context, watermark time.Time) (<-chan domain.RawDocument, <-chan error) {
	docsChan := make(chan domain.RawDocument)
	errsChan := make(chan error, 1)

	go func() {
		defer close(docsChan)
		defer close(errsChan)

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			errsChan <- domain.ErrSourceClosed
			return
		}
		s.mu.Unlock()

		pageURL := s.client.SearchURL(watermark)
		pages := 0

		for pageURL != "" {
			select {
			case <-ctx.Done():
				return
			default:
			}

			docs, next, err := s.client.SearchPage(ctx, pageURL)
			if err != nil {
				errsChan <- fmt.Errorf("fetch page: %w", err)
				return
			}
			pages++
			logger.Debug("Fetched page %d: %d results", pages, len(docs))

			for _, doc := range docs {
				select {
				case <-ctx.Done():
					return
				case docsChan <- doc:
				}
			}

			pageURL = next
		}
	}()

	return docsChan, errsChan
}

// Validate checks connectivity and credentials with a lightweight request.
func (s *Source) Validate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return domain.ErrSourceClosed
	}

	if err := s.client.Ping(ctx); err != nil {
		if IsUnauthorized(err) {
			return fmt.Errorf("confluence: credentials rejected: %w", err)
		}
		return fmt.Errorf("confluence: validation failed: %w", err)
	}
	return nil
}

// Close releases resources.
func (s *Source) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
