package storage

import (
	"context"
	"time"

	"github.com/weftworks/loom/core"
)

// DocumentFilter selects content items by attribute. Zero-valued fields are
// ignored; a filter with all fields zero matches every item.
type DocumentFilter struct {
	Platform        string
	Source          string
	Topic           string
	PublishedAfter  time.Time
	PublishedBefore time.Time
	NeedsEnrichment *bool
}

// Matches reports whether the item satisfies every set field of the filter.
func (f DocumentFilter) Matches(item *core.ContentItem) bool {
	if item == nil {
		return false
	}
	if f.Platform != "" && item.Platform != f.Platform {
		return false
	}
	if f.Source != "" && item.Source != f.Source {
		return false
	}
	if f.Topic != "" {
		found := false
		for _, topic := range item.Topics {
			if topic == f.Topic {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.PublishedAfter.IsZero() && !item.PublishTime.After(f.PublishedAfter) {
		return false
	}
	if !f.PublishedBefore.IsZero() && !item.PublishTime.Before(f.PublishedBefore) {
		return false
	}
	if f.NeedsEnrichment != nil && item.NeedsEnrichment != *f.NeedsEnrichment {
		return false
	}
	return true
}

// DocumentStore persists and retrieves full content records by identity.
// Implementations must be thread-safe and support concurrent access.
type DocumentStore interface {
	// Put persists the item and returns its canonical id. Items without an
	// id are assigned one; an item whose fingerprint matches an existing
	// record updates that record in place and returns the existing id.
	// Sets InsertedAt/UpdatedAt timestamps.
	Put(ctx context.Context, item *core.ContentItem) (core.ID, error)

	// Get retrieves a single item by id.
	// Returns ErrNotFound if the item doesn't exist.
	Get(ctx context.Context, id core.ID) (*core.ContentItem, error)

	// Find retrieves items matching the filter, ordered by publish time
	// descending, honoring skip and limit. limit <= 0 means no limit.
	Find(ctx context.Context, filter DocumentFilter, skip, limit int) ([]*core.ContentItem, error)

	// Exists reports whether any item matches the filter.
	Exists(ctx context.Context, filter DocumentFilter) (bool, error)

	// SearchText retrieves items whose title or text contains all query
	// words, up to limit results.
	SearchText(ctx context.Context, query string, limit int) ([]*core.ContentItem, error)

	// Close closes the store and releases resources.
	Close() error
}

// VectorPayload is the lightweight mirror stored beside each embedding so
// similarity hits can be pre-filtered without a join back to the document
// store.
type VectorPayload struct {
	Title       string    `json:"title"`
	Platform    string    `json:"platform"`
	PublishTime time.Time `json:"publish_time"`
}

// VectorHit is a single similarity-search result.
type VectorHit struct {
	Id      core.ID
	Score   float32
	Payload VectorPayload
}

// VectorIndex persists one embedding per content id and supports k-nearest
// neighbor search. Implementations must be thread-safe.
type VectorIndex interface {
	// Upsert stores the embedding under the given id, superseding any
	// previous embedding for the same id. The vector dimension is fixed at
	// first upsert; vectors of a different dimension are rejected with
	// ErrDimensionMismatch.
	Upsert(ctx context.Context, id core.ID, vector []float32, payload VectorPayload) error

	// Search returns the k entries nearest to the query vector, ordered by
	// cosine similarity descending.
	Search(ctx context.Context, vector []float32, k int) ([]VectorHit, error)

	// Delete removes the embedding for the given id. Missing ids are a no-op.
	Delete(ctx context.Context, id core.ID) error

	// Close closes the index and releases resources.
	Close() error
}

// Direction selects edge orientation relative to a node in graph queries.
type Direction int

const (
	// DirectionOutgoing selects edges whose source is the given node.
	DirectionOutgoing Direction = iota
	// DirectionIncoming selects edges whose target is the given node.
	DirectionIncoming
	// DirectionBoth selects edges touching the node in either role.
	DirectionBoth
)

// GraphStore persists typed, attributed directed edges between content ids.
// Implementations must be thread-safe and must enforce triple uniqueness
// atomically so concurrent writers cannot duplicate an edge.
type GraphStore interface {
	// EnsureNode registers a content id as a graph node. Idempotent.
	EnsureNode(ctx context.Context, id core.ID) error

	// CreateEdgeIfAbsent persists the edge unless one with the same
	// (source, target, type) triple already exists. Returns true when a new
	// edge was created, false when the triple was already present.
	// Assigns the edge's surface Id and CreatedAt on creation.
	CreateEdgeIfAbsent(ctx context.Context, edge *core.Edge) (bool, error)

	// EdgesByType returns all edges of the given type in insertion order,
	// regardless of direction; per-node direction filtering is Relations.
	// An empty graph yields an empty slice, not an error.
	EdgesByType(ctx context.Context, relType core.RelationType) ([]*core.Edge, error)

	// Relations returns edges touching the given node, optionally filtered
	// by type (pass 0 for any type), oriented per direction.
	Relations(ctx context.Context, id core.ID, relType core.RelationType, dir Direction) ([]*core.Edge, error)

	// Close closes the store and releases resources.
	Close() error
}
