package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/weftworks/loom/ai"
	"github.com/weftworks/loom/backoff"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/ingest"
	"github.com/weftworks/loom/storage"
)

// BatchProcessor re-enriches batches of flagged items.
type BatchProcessor struct {
	docs           storage.DocumentStore
	vectors        storage.VectorIndex
	provider       ai.Provider
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchProcessor creates a new batch processor.
// maxRetries: maximum number of retry attempts for AI calls
// retryBaseDelay: base delay for exponential backoff
func NewBatchProcessor(docs storage.DocumentStore, vectors storage.VectorIndex, provider ai.Provider, maxRetries int, retryBaseDelay time.Duration) *BatchProcessor {
	return &BatchProcessor{
		docs:           docs,
		vectors:        vectors,
		provider:       provider,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         slog.Default().With("component", "enrich"),
	}
}

// Process re-enriches a batch of items, refreshing their embeddings and
// clearing the NeedsEnrichment flag on success.
//
// AI failures for one item leave its flag set and move on; a later run picks
// it up again. Storage failures abort the batch. Returns the number of items
// successfully enriched.
func (bp *BatchProcessor) Process(ctx context.Context, items []*core.ContentItem) (int, error) {
	enriched := 0

	for _, item := range items {
		var enrichment *ai.Enrichment
		err := backoff.Retry(ctx, func() error {
			var err error
			enrichment, err = bp.provider.Enricher().Enrich(ctx, item.Title, item.RawText)
			return err
		}, bp.maxRetries, bp.retryBaseDelay)
		if err != nil {
			if ctx.Err() != nil {
				return enriched, ctx.Err()
			}
			bp.logger.Warn("enrichment still failing, leaving item flagged", "id", item.Id, "err", err)
			continue
		}

		ingest.ApplyEnrichment(item, enrichment)
		item.NeedsEnrichment = false

		if _, err := bp.docs.Put(ctx, item); err != nil {
			return enriched, fmt.Errorf("failed to update item %d: %w", item.Id, err)
		}

		if err := bp.reindex(ctx, item); err != nil {
			bp.logger.Warn("re-embedding failed, document updated without fresh vector", "id", item.Id, "err", err)
		}

		enriched++
	}

	return enriched, nil
}

// reindex refreshes the item's embedding after its processed text changed.
func (bp *BatchProcessor) reindex(ctx context.Context, item *core.ContentItem) error {
	return backoff.Retry(ctx, func() error {
		vector, err := bp.provider.Embedder().EmbedText(ctx, item.EmbeddingText())
		if err != nil {
			return err
		}
		return bp.vectors.Upsert(ctx, item.Id, vector, storage.VectorPayload{
			Title:       item.Title,
			Platform:    item.Platform,
			PublishTime: item.PublishTime,
		})
	}, bp.maxRetries, bp.retryBaseDelay)
}
