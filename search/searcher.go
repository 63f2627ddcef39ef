package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/weftworks/loom/ai"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

// Result is a scored search hit.
type Result struct {
	Item  *core.ContentItem
	Score float32
}

// Searcher provides hybrid semantic and keyword search over content items.
type Searcher struct {
	docs          storage.DocumentStore
	vectors       storage.VectorIndex
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithMinSimilarity sets the cosine similarity floor for semantic hits.
// Default is 0.6.
func WithMinSimilarity(threshold float32) Option {
	return func(s *Searcher) error {
		s.minSimilarity = threshold
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(
	docs storage.DocumentStore,
	vectors storage.VectorIndex,
	provider ai.Provider,
	opts ...Option,
) (*Searcher, error) {
	if docs == nil {
		return nil, ErrDocumentStoreRequired
	}
	if vectors == nil {
		return nil, ErrVectorIndexRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		docs:          docs,
		vectors:       vectors,
		embedder:      provider.Embedder(),
		minSimilarity: 0.6,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search finds content items matching the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) Search(ctx context.Context, query string, maxHits int) ([]*Result, error) {
	return s.SearchWithMonitor(ctx, query, maxHits, nil)
}

// SearchWithMonitor finds content items matching the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query string, maxHits int, monitor Monitor) ([]*Result, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	// 1. Semantic search over embeddings
	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, err
	}

	hits, err := s.vectors.Search(ctx, embedding, maxHits)
	if err != nil {
		s.logger.Error("error querying for similar items", "err", err)
		return nil, err
	}

	semanticScores := make(map[core.ID]float32)
	semanticIds := make([]core.ID, 0, len(hits))
	for _, hit := range hits {
		if hit.Score < s.minSimilarity {
			continue
		}
		semanticScores[hit.Id] = hit.Score
		semanticIds = append(semanticIds, hit.Id)
	}
	monitor.AfterSemanticSearch(semanticIds)

	// 2. Keyword search over stored text
	textMatches, err := s.docs.SearchText(ctx, query, maxHits)
	if err != nil {
		s.logger.Error("error querying by keywords", "err", err)
		return nil, err
	}

	textSet := make(map[core.ID]bool, len(textMatches))
	items := make(map[core.ID]*core.ContentItem, len(textMatches))
	textIds := make([]core.ID, 0, len(textMatches))
	for _, item := range textMatches {
		textSet[item.Id] = true
		items[item.Id] = item
		textIds = append(textIds, item.Id)
	}
	monitor.AfterTextSearch(textIds)

	// Resolve semantic-only hits to documents; drop stale vectors.
	for id := range semanticScores {
		if _, ok := items[id]; ok {
			continue
		}
		item, err := s.docs.Get(ctx, id)
		if err != nil {
			s.logger.Warn("vector hit without document", "id", id, "err", err)
			continue
		}
		items[id] = item
	}

	if len(items) == 0 {
		return []*Result{}, nil
	}

	// 3. Combine and score
	results := make([]*Result, 0, len(items))
	for id, item := range items {
		similarity, inSemantic := semanticScores[id]
		inText := textSet[id]

		var score float32
		switch {
		case inSemantic && inText:
			score = 1.5 * similarity
			monitor.SemanticAndTextHit(item)
		case inText:
			score = 1.2
			monitor.TextHit(item)
		default:
			score = 1.0 * similarity
			monitor.SemanticHit(item)
		}

		// Exact phrase match boost
		if containsPhrase(item, query) {
			score += 0.3
		}

		results = append(results, &Result{Item: item, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score == results[j].Score {
			return results[i].Item.Id < results[j].Item.Id
		}
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	return results, nil
}

// containsPhrase reports whether the query appears verbatim in the item's
// title or text.
func containsPhrase(item *core.ContentItem, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	return strings.Contains(strings.ToLower(item.Title), q) ||
		strings.Contains(strings.ToLower(item.EmbeddingText()), q)
}
