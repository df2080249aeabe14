package driven

import (
	"context"

	"github.com/custodia-labs/confsync/internal/core/domain"
)

// VectorIndex stores chunk vectors and answers similarity queries.
type VectorIndex interface {
	// Upsert inserts or replaces the given chunks with their vectors.
	// chunks and vectors must have equal length and matching order.
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error

	// Search finds the chunks most similar to the query vector.
	Search(ctx context.Context, query []float32, limit int, filter *VectorFilter) ([]VectorHit, error)

	// DeleteDoc removes every chunk belonging to a document. Chunk IDs
	// embed the document version, so reindexing a changed page must
	// clear the previous version's chunks first.
	DeleteDoc(ctx context.Context, docID string) error

	// Close releases resources.
	Close() error
}

// VectorFilter narrows a similarity search.
type VectorFilter struct {
	// SpaceKey restricts results to one space when non-empty.
	SpaceKey string

	// DocID restricts results to one document when non-empty.
	DocID string
}

// VectorHit is a similarity search result.
type VectorHit struct {
	// Chunk is the matched chunk.
	Chunk domain.Chunk

	// Similarity is the cosine similarity score (higher is closer).
	Similarity float64
}
