package enrich

import (
	"context"

	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

const (
	// DefaultBatchSize is the default number of items to process in each batch
	DefaultBatchSize = 50
)

// ItemIterator iterates over all items flagged for enrichment, in batches.
// The flagged set is snapshotted up front, so clearing flags while iterating
// does not disturb the traversal.
type ItemIterator struct {
	docs      storage.DocumentStore
	batchSize int
}

// NewItemIterator creates a new item iterator.
// batchSize: number of items per batch (must be > 0)
func NewItemIterator(docs storage.DocumentStore, batchSize int) *ItemIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ItemIterator{
		docs:      docs,
		batchSize: batchSize,
	}
}

// Collect returns all items currently flagged for enrichment.
func (it *ItemIterator) Collect(ctx context.Context) ([]*core.ContentItem, error) {
	needs := true
	filter := storage.DocumentFilter{NeedsEnrichment: &needs}

	var all []*core.ContentItem
	for skip := 0; ; skip += it.batchSize {
		page, err := it.docs.Find(ctx, filter, skip, it.batchSize)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < it.batchSize {
			return all, nil
		}
	}
}

// ForEach iterates over all flagged items, calling fn for each batch.
// Iteration stops on first error from fn or when all items are processed.
// Context cancellation is checked between batches.
func (it *ItemIterator) ForEach(ctx context.Context, fn func([]*core.ContentItem) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := it.Collect(ctx)
	if err != nil {
		return err
	}

	for i := 0; i < len(items); i += it.batchSize {
		end := i + it.batchSize
		if end > len(items) {
			end = len(items)
		}

		if err := fn(items[i:end]); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	return nil
}
