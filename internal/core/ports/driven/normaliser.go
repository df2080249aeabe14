package driven

import (
	"context"

	"github.com/custodia-labs/confsync/internal/core/domain"
)

// Normaliser converts a raw document's rich-text tree into the canonical
// ordered section/block representation.
type Normaliser interface {
	// Normalise flattens the document tree. The result is deterministic:
	// the same input always yields the same ordered section/block list.
	Normalise(ctx context.Context, raw *domain.RawDocument) (*domain.CanonicalDocument, error)
}

// Chunker splits a canonical document into token-bounded chunks with
// deterministic identifiers and lineage metadata.
type Chunker interface {
	// Chunk produces the document's ordered chunk list. Chunk numbering is
	// global across the document, assigned after all sections are chunked.
	Chunk(doc *domain.CanonicalDocument) ([]domain.Chunk, error)
}
