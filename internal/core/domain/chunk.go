package domain

// Chunk is a bounded-size unit of text plus lineage metadata, the unit
// handed to embedding and indexing.
type Chunk struct {
	// ID is the deterministic chunk identifier, derived from
	// (doc ID, doc version, section index, chunk index within section).
	ID string

	// DocID is the source page identifier.
	DocID string

	// ChunkIndex is the 0-based position across the whole document's
	// chunk list (global, not per-section).
	ChunkIndex int

	// TotalChunks is the document's total chunk count.
	TotalChunks int

	// Text is the chunk content: whole blocks joined with a blank line,
	// or a fragment of a single oversized block.
	Text string

	// Metadata carries the chunk's lineage and section context.
	Metadata ChunkMetadata
}

// ChunkMetadata is the lineage metadata attached to every chunk.
type ChunkMetadata struct {
	// Title is the source page title.
	Title string

	// SpaceKey is the containing space key.
	SpaceKey string

	// Version is the page version the chunk was produced from.
	Version int

	// SectionHeading is the heading of the owning section, empty for
	// the pre-heading preamble.
	SectionHeading string

	// SectionLevel is the owning section's heading level, 0 when none.
	SectionLevel int

	// AncestorIDs is the page's container chain, root first.
	AncestorIDs []string

	// ParentID is the immediate parent page ID, empty for top-level pages.
	ParentID string

	// Depth is the length of the ancestor chain.
	Depth int

	// BlockTypes lists the types of the blocks that make up the chunk.
	BlockTypes []BlockType
}

// EmbeddingText frames the chunk for the embedding model: the page title
// and section heading are prepended so the vector carries context the raw
// text alone would lose.
func (c *Chunk) EmbeddingText() string {
	text := "Title: " + c.Metadata.Title
	if c.Metadata.SectionHeading != "" {
		text += "\nSection: " + c.Metadata.SectionHeading
	}
	return text + "\n\n" + c.Text
}
