package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
)

// DefaultSearchLimit is the result count used when the caller passes none.
const DefaultSearchLimit = 5

// SearchService answers similarity queries over the indexed chunks.
type SearchService struct {
	embedder    driven.EmbeddingService
	vectorIndex driven.VectorIndex
}

// NewSearchService creates a search service.
func NewSearchService(embedder driven.EmbeddingService, vectorIndex driven.VectorIndex) *SearchService {
	return &SearchService{
		embedder:    embedder,
		vectorIndex: vectorIndex,
	}
}

// Search embeds the query and returns the most similar chunks.
func (s *SearchService) Search(ctx context.Context, query string, limit int, filter *driven.VectorFilter) ([]driven.VectorHit, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.vectorIndex == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectorIndex.Search(ctx, vector, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return hits, nil
}
