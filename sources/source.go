package sources

import (
	"context"

	"github.com/weftworks/loom/core"
)

// Source produces content items from an external origin such as a crawler,
// feed, or export file. Implementations must be safe for concurrent use by
// the scheduler.
type Source interface {
	// Name identifies the source in logs and configuration.
	Name() string

	// Fetch returns the currently available items. Fetch is called
	// repeatedly; returning previously seen items is fine, the ingestion
	// path deduplicates by URL.
	Fetch(ctx context.Context) ([]*core.ContentItem, error)
}

// StaticSource is a Source over a fixed set of items, useful for imports
// and tests.
type StaticSource struct {
	name  string
	items []*core.ContentItem
}

// NewStaticSource creates a source that always returns the given items.
func NewStaticSource(name string, items []*core.ContentItem) *StaticSource {
	return &StaticSource{name: name, items: items}
}

// Name identifies the source.
func (s *StaticSource) Name() string { return s.name }

// Fetch returns the fixed item set.
func (s *StaticSource) Fetch(ctx context.Context) ([]*core.ContentItem, error) {
	return s.items, nil
}
