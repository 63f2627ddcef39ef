package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/weftworks/loom/ai"
	"github.com/weftworks/loom/backoff"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

// Hook is invoked after an item has been stored and indexed. The engine in
// the relate package registers itself here to analyze fresh arrivals.
type Hook func(ctx context.Context, id core.ID)

// Coordinator orchestrates ingestion of content items: enrichment, document
// persistence, vector indexing, and post-ingest dispatch.
//
// The document write is the commit point. Enrichment failures degrade the
// item (NeedsEnrichment is set) and vector failures degrade search, but
// neither loses the content.
type Coordinator struct {
	docs     storage.DocumentStore
	vectors  storage.VectorIndex
	provider ai.Provider

	hook     Hook
	hookPool *ants.Pool

	scoreValue    bool
	retryAttempts int
	retryBase     time.Duration
	logger        *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator) error

// WithHook registers a post-ingest hook. The hook runs synchronously unless
// async dispatch is enabled.
func WithHook(hook Hook) Option {
	return func(c *Coordinator) error {
		c.hook = hook
		return nil
	}
}

// WithAsyncDispatch runs the post-ingest hook on a worker pool instead of
// inline. Size defaults to half the CPU count, with a minimum of 1.
func WithAsyncDispatch(size int) Option {
	return func(c *Coordinator) error {
		if size < 1 {
			size = runtime.NumCPU() / 2
		}
		if size < 1 {
			size = 1
		}

		if c.hookPool != nil {
			c.hookPool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		c.hookPool = pool
		return nil
	}
}

// WithValueScoring enables content value scoring during enrichment.
func WithValueScoring() Option {
	return func(c *Coordinator) error {
		c.scoreValue = true
		return nil
	}
}

// WithVectorRetry tunes the retry policy for vector indexing.
// Defaults are 3 attempts with a 200ms base delay.
func WithVectorRetry(attempts int, baseDelay time.Duration) Option {
	return func(c *Coordinator) error {
		if attempts < 1 {
			return backoff.ErrInvalidMaxAttempts
		}
		c.retryAttempts = attempts
		c.retryBase = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// NewCoordinator creates a new ingestion coordinator.
func NewCoordinator(
	docs storage.DocumentStore,
	vectors storage.VectorIndex,
	provider ai.Provider,
	opts ...Option,
) (*Coordinator, error) {
	if docs == nil {
		return nil, ErrDocumentStoreRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	c := &Coordinator{
		docs:          docs,
		vectors:       vectors,
		provider:      provider,
		retryAttempts: 3,
		retryBase:     200 * time.Millisecond,
		logger:        slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			c.Release()
			return nil, err
		}
	}

	return c, nil
}

// Ingest stores a content item and indexes it for semantic search.
//
// Enrichment runs first and is non-fatal: if it fails, the item is stored
// with NeedsEnrichment set so a later batch pass can fill the gap. The
// document write is fatal on error. Vector indexing is retried with backoff;
// if it still fails, the assigned ID is returned together with
// ErrVectorDegraded and the post-ingest hook is skipped.
func (c *Coordinator) Ingest(ctx context.Context, item *core.ContentItem) (core.ID, error) {
	if item == nil {
		return 0, ErrNilItem
	}
	if err := core.ValidateContentItem(item); err != nil {
		return 0, err
	}

	c.enrich(ctx, item)

	id, err := c.docs.Put(ctx, item)
	if err != nil {
		return 0, fmt.Errorf("storing content: %w", err)
	}

	if err := c.index(ctx, item); err != nil {
		c.logger.Error("vector indexing failed, item stored without embedding",
			"id", id, "err", err)
		return id, fmt.Errorf("%w: %v", ErrVectorDegraded, err)
	}

	c.dispatch(ctx, id)

	return id, nil
}

// enrich fills derived fields in place. Failures are logged and flag the
// item for later re-enrichment instead of failing the ingest.
func (c *Coordinator) enrich(ctx context.Context, item *core.ContentItem) {
	enrichment, err := c.provider.Enricher().Enrich(ctx, item.Title, item.RawText)
	if err != nil {
		c.logger.Warn("enrichment failed, storing raw item", "title", item.Title, "err", err)
		item.NeedsEnrichment = true
		return
	}

	ApplyEnrichment(item, enrichment)
	item.NeedsEnrichment = false

	if !c.scoreValue {
		return
	}

	score, err := c.provider.ValueScorer().ScoreValue(ctx, item.Title, item.EmbeddingText(), nil)
	if err != nil {
		c.logger.Warn("value scoring failed", "title", item.Title, "err", err)
		item.NeedsEnrichment = true
		return
	}
	item.Value = &core.ValueAssessment{
		Overall:  score.Score,
		Criteria: score.CriteriaScores,
	}
}

// index embeds the item and upserts the vector, retrying transient failures.
func (c *Coordinator) index(ctx context.Context, item *core.ContentItem) error {
	return backoff.Retry(ctx, func() error {
		vector, err := c.provider.Embedder().EmbedText(ctx, item.EmbeddingText())
		if err != nil {
			return err
		}
		payload := storage.VectorPayload{
			Title:       item.Title,
			Platform:    item.Platform,
			PublishTime: item.PublishTime,
		}
		return c.vectors.Upsert(ctx, item.Id, vector, payload)
	}, c.retryAttempts, c.retryBase)
}

// dispatch invokes the post-ingest hook, inline or on the worker pool.
func (c *Coordinator) dispatch(ctx context.Context, id core.ID) {
	if c.hook == nil {
		return
	}

	if c.hookPool == nil {
		c.hook(ctx, id)
		return
	}

	if err := c.hookPool.Submit(func() {
		c.hook(context.Background(), id)
	}); err != nil {
		c.logger.Error("error submitting post-ingest hook", "id", id, "err", err)
	}
}

// Release releases the worker pool, if any.
// The coordinator should not be used after calling Release.
func (c *Coordinator) Release() {
	if c.hookPool != nil {
		c.hookPool.Release()
	}
}

// ApplyEnrichment copies derived fields onto the item. Shared by ingestion
// and batch re-enrichment.
func ApplyEnrichment(item *core.ContentItem, enrichment *ai.Enrichment) {
	if enrichment == nil {
		return
	}
	if enrichment.ProcessedText != "" {
		item.ProcessedText = enrichment.ProcessedText
	}
	item.Summary = enrichment.Summary
	item.Topics = enrichment.Topics
	item.Keywords = enrichment.Keywords
	item.Sentiment = &core.Sentiment{
		Score: enrichment.SentimentScore,
		Label: enrichment.SentimentLabel,
	}
	item.Entities = item.Entities[:0]
	for _, ent := range enrichment.Entities {
		item.Entities = append(item.Entities, core.Entity{Text: ent.Text, Type: ent.Type})
	}
}
