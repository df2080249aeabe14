package domain

import (
	"encoding/json"
	"time"
)

// RawDocument is a versioned page as fetched from the remote content API.
// It is immutable once fetched and identified by (ID, Version).
type RawDocument struct {
	// ID is the remote page identifier.
	ID string

	// Version is the remote version counter for this page.
	Version int

	// Title is the page title.
	Title string

	// SpaceKey is the containing space (namespace) key.
	SpaceKey string

	// AncestorIDs is the container chain, ordered root first,
	// ending at the immediate parent.
	AncestorIDs []string

	// Body is the rich-text tree (ADF JSON) as returned by the API.
	Body json.RawMessage

	// LastModified is the modification timestamp reported by the API.
	LastModified time.Time
}

// ParentID returns the immediate parent page ID, or empty string for
// top-level pages.
func (d *RawDocument) ParentID() string {
	if len(d.AncestorIDs) == 0 {
		return ""
	}
	return d.AncestorIDs[len(d.AncestorIDs)-1]
}

// BlockType classifies a content block within a section.
type BlockType string

// Block types produced by normalisation.
const (
	BlockParagraph BlockType = "paragraph"
	BlockCode      BlockType = "code"
	BlockListItem  BlockType = "list_item"
	BlockTable     BlockType = "table"
	BlockUnknown   BlockType = "unknown"
)

// Block is a typed unit of content within a section.
// Content is always non-empty after whitespace normalisation; heading text
// lives on the Section, never as a body block.
type Block struct {
	// Type classifies the block.
	Type BlockType

	// Content is the extracted text.
	Content string

	// Metadata holds per-type extras (e.g. "language" for code blocks).
	Metadata map[string]string
}

// Section groups the blocks under one heading.
// A document with no headings yields exactly one section with no heading.
type Section struct {
	// Heading is the heading text, empty for the pre-heading preamble.
	Heading string

	// Level is the heading level 1..6, 0 when there is no heading.
	Level int

	// Blocks are the section's content blocks in document order.
	Blocks []Block
}

// CanonicalDocument is the normalised, source-agnostic form of a page.
// Concatenating all sections' block text in order reconstructs the
// document's readable text.
type CanonicalDocument struct {
	// ID is the remote page identifier.
	ID string

	// Version is the remote version the document was normalised from.
	Version int

	// Title is the page title.
	Title string

	// SpaceKey is the containing space key.
	SpaceKey string

	// AncestorIDs is the container chain, root first.
	AncestorIDs []string

	// Sections are the heading-delimited sections in document order.
	Sections []Section
}

// ParentID returns the immediate parent page ID, or empty string.
func (d *CanonicalDocument) ParentID() string {
	if len(d.AncestorIDs) == 0 {
		return ""
	}
	return d.AncestorIDs[len(d.AncestorIDs)-1]
}

// Depth returns the hierarchy depth (length of the ancestor chain).
func (d *CanonicalDocument) Depth() int {
	return len(d.AncestorIDs)
}
