package chunker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
)

// FileSource serves chunks from a pre-computed JSON file instead of
// calling a model. Useful for offline runs and for replaying a chunking
// a model produced earlier.
type FileSource struct {
	path string
}

// NewFileSource creates a chunk source backed by a JSON file holding an
// array of chunks.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Chunk implements Chunker. The page text is ignored; the file is the
// authority.
func (f *FileSource) Chunk(_ context.Context, _ []PageText) ([]Chunk, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("chunker: read chunk file: %w", err)
	}

	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("chunker: decode chunk file %s: %w", f.path, err)
	}

	for i := range chunks {
		if chunks[i].ID == "" {
			chunks[i].ID = uuid.NewString()
		}
		if !chunks[i].Type.Valid() {
			chunks[i].Type = TypeParagraph
		}
	}
	return chunks, nil
}
