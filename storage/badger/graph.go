package badger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

// GraphStore implements storage.GraphStore for BadgerDB.
//
// Each edge is stored once under a (type, insertion-sequence) key so per-type
// scans follow insertion order, with a second key on the (source, target,
// type) triple enforcing natural-key uniqueness. Both keys are written in one
// transaction; the triple check and the write therefore behave as a single
// create-if-absent.
type GraphStore struct {
	backend *Backend
	edgeSeq *badger.Sequence
	logger  *slog.Logger
}

var _ storage.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates a new GraphStore on the shared backend.
//
// Returns storage.GraphStore interface to enforce abstraction.
func NewGraphStore(backend *Backend) (storage.GraphStore, error) {
	edgeSeq, err := backend.GetSequence(edgeIDSeq)
	if err != nil {
		return nil, err
	}
	return &GraphStore{
		backend: backend,
		edgeSeq: edgeSeq,
		logger:  slog.Default().With("component", "graph-store"),
	}, nil
}

// Close releases the edge sequence. The shared backend is closed by its owner.
func (g *GraphStore) Close() error {
	return g.edgeSeq.Release()
}

// EnsureNode registers a content id as a graph node. Idempotent.
func (g *GraphStore) EnsureNode(ctx context.Context, id core.ID) error {
	if id == 0 {
		return core.ErrMissingEdgeEndpoint
	}
	return g.backend.Update(func(tx *badger.Txn) error {
		return tx.Set(makeGraphNodeKey(id), marshalID(id))
	})
}

// CreateEdgeIfAbsent persists the edge unless its triple already exists.
func (g *GraphStore) CreateEdgeIfAbsent(ctx context.Context, edge *core.Edge) (bool, error) {
	if err := core.ValidateEdge(edge); err != nil {
		return false, err
	}

	created := false
	err := g.backend.Update(func(tx *badger.Txn) error {
		created = false

		tripleKey := makeEdgeTripleKey(edge.SourceId, edge.TargetId, edge.Type)
		_, err := tx.Get(tripleKey)
		if err == nil {
			return nil // triple already present, suppress the duplicate
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		seq, err := g.edgeSeq.Next()
		if err != nil {
			return err
		}

		edge.Id = uuid.NewString()
		if edge.CreatedAt.IsZero() {
			edge.CreatedAt = time.Now().UTC()
		}

		value, err := storage.MarshalEdge(edge)
		if err != nil {
			return err
		}
		if err := tx.Set(makeEdgeRecordKey(edge.Type, seq), value); err != nil {
			return err
		}
		if err := tx.Set(tripleKey, marshalID(core.ID(seq))); err != nil {
			return err
		}

		created = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if created {
		g.logger.Debug("edge created",
			"source", edge.SourceId, "target", edge.TargetId, "type", edge.Type.String())
	}
	return created, nil
}

// EdgesByType returns all edges of the given type in insertion order.
func (g *GraphStore) EdgesByType(ctx context.Context, relType core.RelationType) ([]*core.Edge, error) {
	return g.scanEdges(makeEdgeTypePrefix(relType))
}

// Relations returns edges touching the given node, optionally filtered by
// type (pass 0 for any type), oriented per direction.
func (g *GraphStore) Relations(ctx context.Context, id core.ID, relType core.RelationType, dir storage.Direction) ([]*core.Edge, error) {
	prefix := []byte(edgeRecordPrefix + ":")
	if relType != 0 {
		prefix = makeEdgeTypePrefix(relType)
	}

	all, err := g.scanEdges(prefix)
	if err != nil {
		return nil, err
	}

	matches := []*core.Edge{}
	for _, edge := range all {
		outgoing := edge.SourceId == id
		incoming := edge.TargetId == id
		switch dir {
		case storage.DirectionOutgoing:
			if outgoing {
				matches = append(matches, edge)
			}
		case storage.DirectionIncoming:
			if incoming {
				matches = append(matches, edge)
			}
		default:
			if outgoing || incoming {
				matches = append(matches, edge)
			}
		}
	}
	return matches, nil
}

// scanEdges reads all edge records under a key prefix in key order, which by
// construction is insertion order within each type.
func (g *GraphStore) scanEdges(prefix []byte) ([]*core.Edge, error) {
	edges := []*core.Edge{}
	err := g.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var edge *core.Edge
			err := iter.Item().Value(func(val []byte) error {
				var err error
				edge, err = storage.UnmarshalEdge(val)
				return err
			})
			if err != nil {
				return err
			}
			edges = append(edges, edge)
		}
		return nil
	})
	return edges, err
}
