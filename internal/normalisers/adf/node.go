package adf

import "strings"

// Node kinds the normaliser dispatches on. The set is closed: anything
// else takes the unknown fallback arm, which still extracts descendant
// text so new upstream node types degrade instead of vanishing.
const (
	nodeDoc           = "doc"
	nodeText          = "text"
	nodeHeading       = "heading"
	nodeParagraph     = "paragraph"
	nodeCodeBlock     = "codeBlock"
	nodeBulletList    = "bulletList"
	nodeOrderedList   = "orderedList"
	nodeListItem      = "listItem"
	nodeTable         = "table"
	nodeTableRow      = "tableRow"
	nodeTableCell     = "tableCell"
	nodeTableHeader   = "tableHeader"
	nodeLayoutSection = "layoutSection"
	nodeLayoutColumn  = "layoutColumn"
)

// Node is one node of an ADF (Atlassian Document Format) tree.
type Node struct {
	Type    string    `json:"type"`
	Text    string    `json:"text,omitempty"`
	Attrs   NodeAttrs `json:"attrs,omitempty"`
	Content []Node    `json:"content,omitempty"`
}

// NodeAttrs carries the node attributes the normaliser cares about.
type NodeAttrs struct {
	// Level is the heading level (1..6).
	Level int `json:"level,omitempty"`

	// Language is the declared code block language.
	Language string `json:"language,omitempty"`
}

// PlainText recursively concatenates the text leaves under the node.
func (n *Node) PlainText() string {
	if n.Type == nodeText {
		return n.Text
	}
	var sb strings.Builder
	for i := range n.Content {
		sb.WriteString(n.Content[i].PlainText())
	}
	return sb.String()
}

// isStructural reports whether the node is a pure layout container whose
// children should be walked as if they were at the parent level.
func (n *Node) isStructural() bool {
	switch n.Type {
	case nodeDoc, nodeLayoutSection, nodeLayoutColumn:
		return true
	}
	return false
}
