package relate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/weftworks/loom/ai"
	"github.com/weftworks/loom/backoff"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

// Engine infers relationships between content items. For a given item it
// finds the nearest neighbors in embedding space, asks the classifier to
// judge each pair, and records accepted judgments as graph edges.
//
// Edge creation is idempotent: re-analyzing an item never duplicates the
// (source, target, type) triple.
type Engine struct {
	docs     storage.DocumentStore
	vectors  storage.VectorIndex
	graph    storage.GraphStore
	provider ai.Provider

	neighborCount   int
	minConfidence   float64
	classifyTimeout time.Duration
	retryAttempts   int
	retryBase       time.Duration
	logger          *slog.Logger
}

// Report summarizes one analysis run.
type Report struct {
	// Analyzed is the number of neighbor pairs the classifier judged.
	Analyzed int

	// EdgesCreated is the number of new edges written to the graph.
	EdgesCreated int

	// Skipped is the number of pairs dropped before a judgment was recorded:
	// stale neighbors, classifier failures, or confidence below threshold.
	Skipped int
}

// Option configures an Engine.
type Option func(*Engine) error

// WithNeighborCount sets how many nearest neighbors are considered per item.
// Default is 10.
func WithNeighborCount(k int) Option {
	return func(e *Engine) error {
		if k < 1 {
			return fmt.Errorf("neighbor count must be at least 1, got %d", k)
		}
		e.neighborCount = k
		return nil
	}
}

// WithMinConfidence sets the confidence threshold below which judgments are
// discarded. Default is 0 (accept everything the classifier asserts).
func WithMinConfidence(threshold float64) Option {
	return func(e *Engine) error {
		if threshold < 0 || threshold > 1 {
			return core.ErrInvalidConfidence
		}
		e.minConfidence = threshold
		return nil
	}
}

// WithClassifyTimeout bounds each classifier call. Default is 30s.
func WithClassifyTimeout(timeout time.Duration) Option {
	return func(e *Engine) error {
		if timeout <= 0 {
			return fmt.Errorf("classify timeout must be positive, got %s", timeout)
		}
		e.classifyTimeout = timeout
		return nil
	}
}

// WithRetry tunes the retry policy for classifier calls.
// Defaults are 2 attempts with a 500ms base delay.
func WithRetry(attempts int, baseDelay time.Duration) Option {
	return func(e *Engine) error {
		if attempts < 1 {
			return backoff.ErrInvalidMaxAttempts
		}
		e.retryAttempts = attempts
		e.retryBase = baseDelay
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEngine creates a relationship inference engine.
func NewEngine(
	docs storage.DocumentStore,
	vectors storage.VectorIndex,
	graph storage.GraphStore,
	provider ai.Provider,
	opts ...Option,
) (*Engine, error) {
	if docs == nil {
		return nil, ErrDocumentStoreRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if graph == nil {
		return nil, ErrGraphStoreRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	e := &Engine{
		docs:            docs,
		vectors:         vectors,
		graph:           graph,
		provider:        provider,
		neighborCount:   10,
		classifyTimeout: 30 * time.Second,
		retryAttempts:   2,
		retryBase:       500 * time.Millisecond,
		logger:          slog.Default().With("component", "relate"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// AnalyzeConnections infers and records relationships between the given item
// and its nearest neighbors. An unknown id is a no-op, not an error: the item
// may have been deleted between ingestion and analysis.
func (e *Engine) AnalyzeConnections(ctx context.Context, id core.ID) (*Report, error) {
	report := &Report{}

	item, err := e.docs.Get(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			e.logger.Debug("item vanished before analysis", "id", id)
			return report, nil
		}
		return nil, err
	}

	neighbors, err := e.nearestItems(ctx, item, e.neighborCount, report)
	if err != nil {
		return nil, err
	}

	for _, neighbor := range neighbors {
		judgment, err := e.classify(ctx, item, neighbor)
		if err != nil {
			e.logger.Warn("classification failed, skipping pair",
				"source", item.Id, "target", neighbor.Id, "err", err)
			report.Skipped++
			continue
		}

		report.Analyzed++
		if !judgment.HasRelation {
			continue
		}

		confidence := ai.DefaultConfidence
		if judgment.Confidence != nil {
			confidence = core.ClampConfidence(*judgment.Confidence)
		}
		if confidence < e.minConfidence {
			report.Skipped++
			continue
		}

		edge := &core.Edge{
			SourceId:    item.Id,
			TargetId:    neighbor.Id,
			Type:        core.ParseRelationType(judgment.RelationType),
			Description: judgment.Description,
			Confidence:  confidence,
		}

		if err := e.graph.EnsureNode(ctx, item.Id); err != nil {
			return nil, err
		}
		if err := e.graph.EnsureNode(ctx, neighbor.Id); err != nil {
			return nil, err
		}

		created, err := e.graph.CreateEdgeIfAbsent(ctx, edge)
		if err != nil {
			return nil, err
		}
		if created {
			report.EdgesCreated++
		}
	}

	e.logger.Info("analyzed connections",
		"id", id,
		"analyzed", report.Analyzed,
		"edges_created", report.EdgesCreated,
		"skipped", report.Skipped)

	return report, nil
}

// FindSimilar returns the full records of up to k items nearest to the
// given one in embedding space, excluding the item itself. Hits whose
// documents have vanished are dropped.
func (e *Engine) FindSimilar(ctx context.Context, id core.ID, k int) ([]*core.ContentItem, error) {
	item, err := e.docs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	vector, err := e.provider.Embedder().EmbedText(ctx, item.EmbeddingText())
	if err != nil {
		return nil, err
	}

	hits, err := e.vectors.Search(ctx, vector, k+1)
	if err != nil {
		return nil, err
	}

	similar := make([]*core.ContentItem, 0, k)
	for _, hit := range hits {
		if hit.Id == item.Id {
			continue
		}
		neighbor, err := e.docs.Get(ctx, hit.Id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				e.logger.Debug("stale vector hit, document gone", "id", hit.Id)
				continue
			}
			return nil, err
		}
		similar = append(similar, neighbor)
		if len(similar) == k {
			break
		}
	}
	return similar, nil
}

// nearestItems resolves the item's nearest neighbors to documents. Hits
// whose documents have vanished are counted as skipped.
func (e *Engine) nearestItems(ctx context.Context, item *core.ContentItem, k int, report *Report) ([]*core.ContentItem, error) {
	vector, err := e.provider.Embedder().EmbedText(ctx, item.EmbeddingText())
	if err != nil {
		return nil, err
	}

	// One extra so the item itself can be dropped from its own results.
	hits, err := e.vectors.Search(ctx, vector, k+1)
	if err != nil {
		return nil, err
	}

	neighbors := make([]*core.ContentItem, 0, k)
	for _, hit := range hits {
		if hit.Id == item.Id {
			continue
		}
		neighbor, err := e.docs.Get(ctx, hit.Id)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				e.logger.Debug("stale vector hit, document gone", "id", hit.Id)
				report.Skipped++
				continue
			}
			return nil, err
		}
		neighbors = append(neighbors, neighbor)
		if len(neighbors) == k {
			break
		}
	}
	return neighbors, nil
}

// classify judges one pair with a per-call timeout and retry on failure.
func (e *Engine) classify(ctx context.Context, item, neighbor *core.ContentItem) (*ai.RelationJudgment, error) {
	a := ai.PairItem{Title: item.Title, Text: item.EmbeddingText()}
	b := ai.PairItem{Title: neighbor.Title, Text: neighbor.EmbeddingText()}

	var judgment *ai.RelationJudgment
	err := backoff.Retry(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.classifyTimeout)
		defer cancel()

		result, err := e.provider.RelationClassifier().ClassifyPair(callCtx, a, b)
		if err != nil {
			return err
		}
		judgment = result
		return nil
	}, e.retryAttempts, e.retryBase)
	if err != nil {
		return nil, err
	}
	return judgment, nil
}
