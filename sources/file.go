package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/weftworks/loom/core"
)

// FileSource reads content items from a JSON file holding an array of
// items. The file is re-read on every fetch, so a crawler can keep
// appending to it between polling rounds.
type FileSource struct {
	name string
	path string
}

// NewFileSource creates a source backed by the given JSON file. The source
// name defaults to the file's base name.
func NewFileSource(path string) *FileSource {
	return &FileSource{
		name: filepath.Base(path),
		path: path,
	}
}

// Name identifies the source.
func (s *FileSource) Name() string { return s.name }

// Fetch parses the file and returns its items.
func (s *FileSource) Fetch(ctx context.Context) ([]*core.ContentItem, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("reading source file %s: %w", s.path, err)
	}

	var items []*core.ContentItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing source file %s: %w", s.path, err)
	}
	return items, nil
}
