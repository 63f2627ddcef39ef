package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

// VectorIndex implements storage.VectorIndex for BadgerDB with brute-force
// cosine similarity search. One embedding is kept per content id; upserting
// supersedes the previous vector for that id.
type VectorIndex struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates a new VectorIndex on the shared backend.
//
// Returns storage.VectorIndex interface to enforce abstraction.
func NewVectorIndex(backend *Backend) (storage.VectorIndex, error) {
	return &VectorIndex{
		backend: backend,
		logger:  slog.Default().With("component", "vector-index"),
	}, nil
}

// Close releases resources. VectorIndex has no resources of its own.
func (v *VectorIndex) Close() error {
	return nil
}

// Upsert stores the embedding under the given id. The first upsert fixes the
// index dimension; later vectors of a different dimension are rejected so
// embeddings from different models cannot be mixed.
func (v *VectorIndex) Upsert(ctx context.Context, id core.ID, vector []float32, payload storage.VectorPayload) error {
	if len(vector) == 0 {
		return storage.ErrEmptyVector
	}

	return v.backend.Update(func(tx *badger.Txn) error {
		if err := v.checkDimension(tx, len(vector), true); err != nil {
			return err
		}

		value, err := storage.MarshalVectorEntry(vector, payload)
		if err != nil {
			return err
		}
		return tx.Set(makeVectorKey(id), value)
	})
}

// Search returns the k entries nearest to the query vector, ordered by
// cosine similarity descending.
func (v *VectorIndex) Search(ctx context.Context, vector []float32, k int) ([]storage.VectorHit, error) {
	if len(vector) == 0 {
		return nil, storage.ErrEmptyVector
	}
	if k <= 0 {
		return []storage.VectorHit{}, nil
	}

	hits := []storage.VectorHit{}
	err := v.backend.View(func(tx *badger.Txn) error {
		if err := v.checkDimension(tx, len(vector), false); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(vectorPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()

			id, err := idFromVectorKey(item.Key())
			if err != nil {
				return err
			}

			var stored []float32
			var payload storage.VectorPayload
			if err := item.Value(func(val []byte) error {
				var err error
				stored, payload, err = storage.UnmarshalVectorEntry(val)
				return err
			}); err != nil {
				return err
			}

			hits = append(hits, storage.VectorHit{
				Id:      id,
				Score:   float32(cosineSimilarity(vector, stored)),
				Payload: payload,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(hits, func(a, b storage.VectorHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return 0
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Delete removes the embedding for the given id.
func (v *VectorIndex) Delete(ctx context.Context, id core.ID) error {
	return v.backend.Update(func(tx *badger.Txn) error {
		return tx.Delete(makeVectorKey(id))
	})
}

// checkDimension enforces the fixed-dimension invariant. When record is true
// and no dimension has been fixed yet, the given one becomes the index's.
func (v *VectorIndex) checkDimension(tx *badger.Txn, dim int, record bool) error {
	entry, err := tx.Get([]byte(vectorDimKey))
	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if !record {
			return nil // empty index accepts any query dimension
		}
		return tx.Set([]byte(vectorDimKey), marshalID(core.ID(dim)))
	}

	var fixed core.ID
	if err := entry.Value(func(val []byte) error {
		var err error
		fixed, err = unmarshalID(val)
		return err
	}); err != nil {
		return err
	}
	if int(fixed) != dim {
		return fmt.Errorf("%w: index holds %d-dimensional vectors, got %d", storage.ErrDimensionMismatch, fixed, dim)
	}
	return nil
}

// idFromVectorKey parses the content id out of a "vec:<id>" key.
func idFromVectorKey(key []byte) (core.ID, error) {
	raw := strings.TrimPrefix(string(key), vectorPrefix+":")
	parsed, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed vector key %q: %w", key, err)
	}
	return core.ID(parsed), nil
}

// cosineSimilarity calculates cosine similarity between two float32 vectors.
// Returns value in range [-1, 1]. Uses float64 accumulation for precision.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProd, normA, normB float64
	for i := range a {
		dotProd += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProd / (math.Sqrt(normA) * math.Sqrt(normB))
}
