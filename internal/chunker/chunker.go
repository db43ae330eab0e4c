// Package chunker defines the semantic decomposition boundary: the Chunk
// model produced by an external language model, the Chunker contract, and
// helpers for getting chunk text back into structured form. The anchoring
// engine treats everything here as an opaque producer; it never validates
// semantic correctness, only location.
package chunker

import "context"

// Type categorizes a chunk of document content.
type Type string

const (
	TypeHeading   Type = "heading"
	TypeParagraph Type = "paragraph"
	TypeList      Type = "list"
	TypeTable     Type = "table"
	TypeImage     Type = "image"
)

// Valid reports whether the type is one of the known categories.
func (t Type) Valid() bool {
	switch t {
	case TypeHeading, TypeParagraph, TypeList, TypeTable, TypeImage:
		return true
	}
	return false
}

// Chunk is a semantically coherent unit of document content. PageHint is
// the page the chunker believes the content came from; 0 means absent.
type Chunk struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Type     Type     `json:"type"`
	Section  string   `json:"section,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	PageHint int      `json:"page_hint,omitempty"`
}

// Valid reports whether the chunk carries the fields anchoring depends on.
func (c Chunk) Valid() bool {
	return c.Text != "" && c.Type.Valid()
}

// PageText is one page's plain text, the input handed to the chunker.
type PageText struct {
	Page int    `json:"page"`
	Text string `json:"text"`
}

// Chunker decomposes a document's page texts into semantic chunks in
// document order. Implementations are external collaborators (an LLM call
// in production, a fixture loader in tests).
type Chunker interface {
	Chunk(ctx context.Context, pages []PageText) ([]Chunk, error)
}
