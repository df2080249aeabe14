// Package memory provides an in-memory vector index. It holds every
// indexed chunk and its embedding in a map and answers queries with a
// brute-force cosine scan, which is plenty for a single workspace.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// point is one indexed chunk with its embedding.
type point struct {
	chunk  domain.Chunk
	vector []float32
}

// Index is an in-memory implementation of driven.VectorIndex.
type Index struct {
	mu     sync.RWMutex
	points map[string]point // chunk ID -> point
}

// NewIndex creates a new empty in-memory index.
func NewIndex() *Index {
	return &Index{
		points: make(map[string]point),
	}
}

// Upsert stores chunks with their embeddings, replacing any existing
// entries with the same chunk IDs.
func (idx *Index) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return domain.ErrInvalidInput
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for i, chunk := range chunks {
		idx.points[chunk.ID] = point{chunk: chunk, vector: vectors[i]}
	}
	return nil
}

// Search returns the chunks most similar to the query embedding,
// ordered by descending cosine similarity.
func (idx *Index) Search(_ context.Context, query []float32, limit int, filter *driven.VectorFilter) ([]driven.VectorHit, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidInput
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var hits []driven.VectorHit
	for _, p := range idx.points {
		if !matches(p.chunk, filter) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			Chunk:      p.chunk,
			Similarity: cosineSimilarity(query, p.vector),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Similarity != hits[j].Similarity {
			return hits[i].Similarity > hits[j].Similarity
		}
		return hits[i].Chunk.ID < hits[j].Chunk.ID
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// DeleteDoc removes every chunk belonging to the given document.
func (idx *Index) DeleteDoc(_ context.Context, docID string) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for id, p := range idx.points {
		if p.chunk.DocID == docID {
			delete(idx.points, id)
		}
	}
	return nil
}

// Len returns the number of indexed chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.points)
}

// Close releases resources.
func (idx *Index) Close() error {
	return nil
}

// matches reports whether a chunk passes the optional metadata filter.
func matches(chunk domain.Chunk, filter *driven.VectorFilter) bool {
	if filter == nil {
		return true
	}
	if filter.SpaceKey != "" && chunk.Metadata.SpaceKey != filter.SpaceKey {
		return false
	}
	if filter.DocID != "" && chunk.DocID != filter.DocID {
		return false
	}
	return true
}

// cosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched or zero-length vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
