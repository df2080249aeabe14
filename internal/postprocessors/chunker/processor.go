// Package chunker splits canonical documents into token-bounded chunks
// that respect block boundaries.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
)

// DefaultMaxTokens is the default per-chunk token budget.
const DefaultMaxTokens = 512

// blockSeparator joins whole blocks within one chunk.
const blockSeparator = "\n\n"

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor chunks documents section by section. Blocks are packed whole
// into chunks; only a block that alone exceeds the budget is partitioned,
// by the fallback splitter. Chunk IDs are deterministic, so re-running on
// identical input reproduces identical IDs.
type Processor struct {
	maxTokens int
	counter   TokenCounter
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithMaxTokens sets the per-chunk token budget.
func WithMaxTokens(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.maxTokens = n
		}
	}
}

// WithTokenCounter sets the token counting strategy for the run.
func WithTokenCounter(c TokenCounter) Option {
	return func(p *Processor) {
		if c != nil {
			p.counter = c
		}
	}
}

// New creates a chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		maxTokens: DefaultMaxTokens,
		counter:   EstimateCounter{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Chunk produces the document's ordered chunk list. Sections are chunked
// independently; a chunk never spans two sections. Global numbering is
// assigned in a final pass once the full list is known.
func (p *Processor) Chunk(doc *domain.CanonicalDocument) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}

	var chunks []domain.Chunk
	for i := range doc.Sections {
		chunks = append(chunks, p.chunkSection(doc, i)...)
	}

	total := len(chunks)
	for i := range chunks {
		chunks[i].ChunkIndex = i
		chunks[i].TotalChunks = total
	}
	return chunks, nil
}

// chunkSection packs one section's blocks into budget-sized chunks.
func (p *Processor) chunkSection(doc *domain.CanonicalDocument, sectionIdx int) []domain.Chunk {
	section := &doc.Sections[sectionIdx]

	var chunks []domain.Chunk
	var pending []domain.Block
	pendingTokens := 0
	sepTokens := p.counter.Count(blockSeparator)

	seal := func() {
		if len(pending) == 0 {
			return
		}
		texts := make([]string, len(pending))
		types := make([]domain.BlockType, len(pending))
		for i, b := range pending {
			texts[i] = b.Content
			types[i] = b.Type
		}
		chunks = append(chunks, p.newChunk(doc, sectionIdx, len(chunks), strings.Join(texts, blockSeparator), types))
		pending = nil
		pendingTokens = 0
	}

	for _, block := range section.Blocks {
		if block.Content == "" {
			continue
		}
		blockTokens := p.counter.Count(block.Content)

		// A block that alone exceeds the budget is never force-fit:
		// it becomes its own run of fallback-split fragments.
		if blockTokens > p.maxTokens {
			seal()
			for _, fragment := range splitOversized(block.Content, p.maxTokens, p.counter) {
				chunks = append(chunks, p.newChunk(doc, sectionIdx, len(chunks), fragment, []domain.BlockType{block.Type}))
			}
			continue
		}

		// The separator joining the block to the pending text counts
		// against the budget too.
		if len(pending) > 0 && pendingTokens+sepTokens+blockTokens > p.maxTokens {
			seal()
		}
		if len(pending) > 0 {
			pendingTokens += sepTokens
		}
		pending = append(pending, block)
		pendingTokens += blockTokens
	}
	seal()

	return chunks
}

// newChunk builds a chunk with its deterministic ID and lineage metadata.
// Global ChunkIndex/TotalChunks are filled in later.
func (p *Processor) newChunk(
	doc *domain.CanonicalDocument,
	sectionIdx, chunkIdx int,
	text string,
	blockTypes []domain.BlockType,
) domain.Chunk {
	section := &doc.Sections[sectionIdx]

	return domain.Chunk{
		ID:    fmt.Sprintf("%s_v%d_s%d_c%d", doc.ID, doc.Version, sectionIdx, chunkIdx),
		DocID: doc.ID,
		Text:  text,
		Metadata: domain.ChunkMetadata{
			Title:          doc.Title,
			SpaceKey:       doc.SpaceKey,
			Version:        doc.Version,
			SectionHeading: section.Heading,
			SectionLevel:   section.Level,
			AncestorIDs:    doc.AncestorIDs,
			ParentID:       doc.ParentID(),
			Depth:          doc.Depth(),
			BlockTypes:     blockTypes,
		},
	}
}
