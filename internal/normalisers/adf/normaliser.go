// Package adf normalises ADF rich-text trees into the canonical ordered
// section/block representation used for chunking.
package adf

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/confsync/internal/core/domain"
	"github.com/custodia-labs/confsync/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser flattens an ADF document tree into canonical sections.
type Normaliser struct{}

// New creates a new ADF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Normalise converts a raw page into its canonical form. The traversal
// is a pure fold over the tree, so the same input always produces the
// same ordered section/block list.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*domain.CanonicalDocument, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	var root Node
	if err := json.Unmarshal(raw.Body, &root); err != nil {
		return nil, fmt.Errorf("adf: parse body of page %s: %w", raw.ID, err)
	}

	acc := newAccumulator()
	for i := range root.Content {
		acc = walk(&root.Content[i], acc)
	}

	return &domain.CanonicalDocument{
		ID:          raw.ID,
		Version:     raw.Version,
		Title:       raw.Title,
		SpaceKey:    raw.SpaceKey,
		AncestorIDs: raw.AncestorIDs,
		Sections:    acc.finish(),
	}, nil
}

// accumulator threads the section-building state through the traversal
// as a value: sealed sections so far plus the open section being filled.
type accumulator struct {
	sections []domain.Section
	current  domain.Section
}

func newAccumulator() accumulator {
	// The implicit pre-heading section. It is dropped at the end if it
	// stays empty and heading-delimited sections exist.
	return accumulator{current: domain.Section{}}
}

// appendBlock adds a block to the open section.
func (a accumulator) appendBlock(b domain.Block) accumulator {
	a.current.Blocks = append(a.current.Blocks, b)
	return a
}

// startSection seals the open section if it holds any block, then opens
// a new one keyed by the heading.
func (a accumulator) startSection(heading string, level int) accumulator {
	if len(a.current.Blocks) > 0 {
		a.sections = append(a.sections, a.current)
	}
	a.current = domain.Section{Heading: heading, Level: level}
	return a
}

// finish seals the final open section and returns the section list.
// An empty pre-heading section exists only to hold preamble text and is
// not emitted.
func (a accumulator) finish() []domain.Section {
	if len(a.current.Blocks) > 0 || a.current.Heading != "" {
		a.sections = append(a.sections, a.current)
	}
	return a.sections
}

// walk folds one node into the accumulator, dispatching on the node kind.
func walk(n *Node, acc accumulator) accumulator {
	switch n.Type {
	case nodeHeading:
		level := n.Attrs.Level
		if level < 1 {
			level = 1
		}
		return acc.startSection(cleanText(n.PlainText()), level)

	case nodeParagraph:
		text := cleanText(n.PlainText())
		if text == "" {
			return acc
		}
		return acc.appendBlock(domain.Block{Type: domain.BlockParagraph, Content: text})

	case nodeCodeBlock:
		// Code keeps its whitespace verbatim.
		text := n.PlainText()
		if strings.TrimSpace(text) == "" {
			return acc
		}
		block := domain.Block{Type: domain.BlockCode, Content: text}
		if n.Attrs.Language != "" {
			block.Metadata = map[string]string{"language": n.Attrs.Language}
		}
		return acc.appendBlock(block)

	case nodeBulletList:
		for i := range n.Content {
			if text := cleanText(n.Content[i].PlainText()); text != "" {
				acc = acc.appendBlock(domain.Block{Type: domain.BlockListItem, Content: "- " + text})
			}
		}
		return acc

	case nodeOrderedList:
		ordinal := 0
		for i := range n.Content {
			if text := cleanText(n.Content[i].PlainText()); text != "" {
				ordinal++
				content := fmt.Sprintf("%d. %s", ordinal, text)
				acc = acc.appendBlock(domain.Block{Type: domain.BlockListItem, Content: content})
			}
		}
		return acc

	case nodeTable:
		if text := flattenTable(n); text != "" {
			return acc.appendBlock(domain.Block{Type: domain.BlockTable, Content: text})
		}
		return acc

	default:
		if n.isStructural() {
			for i := range n.Content {
				acc = walk(&n.Content[i], acc)
			}
			return acc
		}
		// Unknown node kind: extract descendant text rather than drop it.
		if text := cleanText(n.PlainText()); text != "" {
			return acc.appendBlock(domain.Block{Type: domain.BlockUnknown, Content: text})
		}
		return acc
	}
}

// flattenTable renders a table node as pipe-delimited rows, row-major,
// one line per row.
func flattenTable(n *Node) string {
	rows := make([]string, 0, len(n.Content))
	for i := range n.Content {
		row := &n.Content[i]
		if row.Type != nodeTableRow {
			continue
		}
		cells := make([]string, 0, len(row.Content))
		for j := range row.Content {
			cell := &row.Content[j]
			if cell.Type != nodeTableCell && cell.Type != nodeTableHeader {
				continue
			}
			cells = append(cells, cleanText(cell.PlainText()))
		}
		rows = append(rows, strings.Join(cells, " | "))
	}
	return strings.TrimSpace(strings.Join(rows, "\n"))
}

var spaceRuns = regexp.MustCompile(`[ \t]+`)

// cleanText applies deterministic whitespace normalisation: non-breaking
// spaces become regular spaces, runs of spaces and tabs collapse to one
// space, and the result is trimmed. Newlines survive; block structure is
// handled at the block level.
func cleanText(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\u00a0", " ")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
