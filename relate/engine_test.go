package relate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/loom/ai"
	"github.com/weftworks/loom/ai/mock"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
	"github.com/weftworks/loom/storage/badger"
)

type engineFixture struct {
	engine        *Engine
	docs          storage.DocumentStore
	vectors       storage.VectorIndex
	graph         storage.GraphStore
	provider      *mock.MockProvider
	vectorsByText map[string][]float32
}

func setupEngine(t *testing.T, opts ...Option) *engineFixture {
	t.Helper()

	docs, vectors, graph, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		graph.Close()
		vectors.Close()
		docs.Close()
		backend.Close()
	})

	provider := mock.NewMockProvider().(*mock.MockProvider)

	// Embeddings keyed by text so neighbor geometry is controlled per test.
	vectorsByText := map[string][]float32{}
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if v, ok := vectorsByText[text]; ok {
			return v, nil
		}
		return []float32{0, 0, 1}, nil
	}

	opts = append([]Option{WithRetry(2, time.Millisecond)}, opts...)
	engine, err := NewEngine(docs, vectors, graph, provider, opts...)
	require.NoError(t, err)

	fixture := &engineFixture{
		engine:   engine,
		docs:     docs,
		vectors:  vectors,
		graph:    graph,
		provider: provider,
	}
	fixture.vectorsByText = vectorsByText
	return fixture
}

// addItem stores a document and indexes it under the given vector.
func (f *engineFixture) addItem(t *testing.T, title string, vector []float32) core.ID {
	t.Helper()
	ctx := context.Background()

	item := &core.ContentItem{
		Title:       title,
		RawText:     "text of " + title,
		Source:      "test feed",
		Platform:    "weibo",
		OriginalURL: "https://example.com/" + title,
		PublishTime: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	id, err := f.docs.Put(ctx, item)
	require.NoError(t, err)
	f.vectorsByText[item.EmbeddingText()] = vector
	require.NoError(t, f.vectors.Upsert(ctx, id, vector, storage.VectorPayload{Title: title}))
	return id
}

func alwaysRelated(relType string, confidence *float64) func(ctx context.Context, a, b ai.PairItem) (*ai.RelationJudgment, error) {
	return func(ctx context.Context, a, b ai.PairItem) (*ai.RelationJudgment, error) {
		return &ai.RelationJudgment{
			HasRelation:  true,
			RelationType: relType,
			Description:  "test relation",
			Confidence:   confidence,
		}, nil
	}
}

func ptr(v float64) *float64 { return &v }

func TestEngineAnalyzeConnectionsCreatesEdges(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	source := f.addItem(t, "policy announced", []float32{1, 0, 0})
	target := f.addItem(t, "markets react", []float32{0.95, 0.05, 0})

	f.provider.GetMockClassifier().ClassifyPairFunc = alwaysRelated("CAUSES", ptr(0.9))

	report, err := f.engine.AnalyzeConnections(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Analyzed)
	assert.Equal(t, 1, report.EdgesCreated)
	assert.Zero(t, report.Skipped)

	edges, err := f.graph.EdgesByType(ctx, core.RelationCauses)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, source, edges[0].SourceId)
	assert.Equal(t, target, edges[0].TargetId)
	assert.Equal(t, 0.9, edges[0].Confidence)
}

func TestEngineAnalyzeConnectionsIdempotent(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	source := f.addItem(t, "a", []float32{1, 0, 0})
	f.addItem(t, "b", []float32{0.9, 0.1, 0})

	f.provider.GetMockClassifier().ClassifyPairFunc = alwaysRelated("FOLLOWS", ptr(0.8))

	first, err := f.engine.AnalyzeConnections(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, 1, first.EdgesCreated)

	second, err := f.engine.AnalyzeConnections(ctx, source)
	require.NoError(t, err)
	assert.Zero(t, second.EdgesCreated, "re-analysis must not duplicate edges")
	assert.Equal(t, 1, second.Analyzed)

	edges, err := f.graph.EdgesByType(ctx, core.RelationFollows)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestEngineAnalyzeConnectionsUnknownID(t *testing.T) {
	f := setupEngine(t)

	report, err := f.engine.AnalyzeConnections(context.Background(), 424242)
	require.NoError(t, err)
	assert.Zero(t, report.Analyzed)
	assert.Zero(t, report.EdgesCreated)
}

func TestEngineAnalyzeConnectionsNoRelation(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	source := f.addItem(t, "a", []float32{1, 0, 0})
	f.addItem(t, "b", []float32{0.9, 0.1, 0})

	// Default mock classifier judges every pair unrelated.
	report, err := f.engine.AnalyzeConnections(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Analyzed)
	assert.Zero(t, report.EdgesCreated)
}

func TestEngineDefaultConfidence(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	source := f.addItem(t, "a", []float32{1, 0, 0})
	f.addItem(t, "b", []float32{0.9, 0.1, 0})

	// Judgment asserts a relation but omits the confidence score.
	f.provider.GetMockClassifier().ClassifyPairFunc = alwaysRelated("SIMILAR_TO", nil)

	_, err := f.engine.AnalyzeConnections(ctx, source)
	require.NoError(t, err)

	edges, err := f.graph.EdgesByType(ctx, core.RelationSimilarTo)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, ai.DefaultConfidence, edges[0].Confidence)
	assert.Equal(t, source, edges[0].SourceId)
}

func TestEngineConfidenceThreshold(t *testing.T) {
	f := setupEngine(t, WithMinConfidence(0.8))
	ctx := context.Background()

	source := f.addItem(t, "a", []float32{1, 0, 0})
	f.addItem(t, "b", []float32{0.9, 0.1, 0})

	f.provider.GetMockClassifier().ClassifyPairFunc = alwaysRelated("CAUSES", ptr(0.4))

	report, err := f.engine.AnalyzeConnections(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Analyzed)
	assert.Zero(t, report.EdgesCreated)
	assert.Equal(t, 1, report.Skipped)
}

func TestEngineUnknownLabelFallsBack(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	source := f.addItem(t, "a", []float32{1, 0, 0})
	f.addItem(t, "b", []float32{0.9, 0.1, 0})

	f.provider.GetMockClassifier().ClassifyPairFunc = alwaysRelated("SPIRITUALLY_ADJACENT", ptr(0.7))

	_, err := f.engine.AnalyzeConnections(ctx, source)
	require.NoError(t, err)

	edges, err := f.graph.EdgesByType(ctx, core.RelationRelatedTo)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
}

func TestEngineClassifierFailureSkipsPair(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	source := f.addItem(t, "a", []float32{1, 0, 0})
	f.addItem(t, "b", []float32{0.9, 0.1, 0})

	attempts := 0
	f.provider.GetMockClassifier().ClassifyPairFunc = func(ctx context.Context, a, b ai.PairItem) (*ai.RelationJudgment, error) {
		attempts++
		return nil, errors.New("model down")
	}

	report, err := f.engine.AnalyzeConnections(ctx, source)
	require.NoError(t, err, "one failing pair must not abort the run")
	assert.Equal(t, 2, attempts, "classifier calls are retried")
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.EdgesCreated)
}

func TestEngineStaleVectorHitSkipped(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	source := f.addItem(t, "a", []float32{1, 0, 0})
	// A vector with no backing document, as after a lost document write.
	require.NoError(t, f.vectors.Upsert(ctx, 999, []float32{0.9, 0.1, 0}, storage.VectorPayload{}))

	f.provider.GetMockClassifier().ClassifyPairFunc = alwaysRelated("CAUSES", ptr(0.9))

	report, err := f.engine.AnalyzeConnections(ctx, source)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Analyzed)
	assert.Zero(t, report.EdgesCreated)
}

func TestEngineClassifierTimeoutSkipsPair(t *testing.T) {
	f := setupEngine(t, WithClassifyTimeout(20*time.Millisecond))
	ctx := context.Background()

	source := f.addItem(t, "a", []float32{1, 0, 0})
	f.addItem(t, "b", []float32{0.9, 0.1, 0})

	// The classifier never answers; every attempt runs into the per-call
	// deadline.
	f.provider.GetMockClassifier().ClassifyPairFunc = func(ctx context.Context, a, b ai.PairItem) (*ai.RelationJudgment, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	report, err := f.engine.AnalyzeConnections(ctx, source)
	require.NoError(t, err, "a hung classifier must not abort the run")
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.EdgesCreated)

	for _, relType := range []core.RelationType{
		core.RelationCauses, core.RelationFollows, core.RelationContradicts,
		core.RelationSimilarTo, core.RelationRefersTo, core.RelationRelatedTo,
	} {
		edges, err := f.graph.EdgesByType(ctx, relType)
		require.NoError(t, err)
		assert.Empty(t, edges)
	}
}

func TestEngineFindSimilar(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	source := f.addItem(t, "query item", []float32{1, 0, 0})
	near := f.addItem(t, "near", []float32{0.95, 0.05, 0})
	f.addItem(t, "far", []float32{0, 1, 0})

	items, err := f.engine.FindSimilar(ctx, source, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, near, items[0].Id)
	assert.Equal(t, "near", items[0].Title)
	assert.Equal(t, "text of near", items[0].RawText)

	_, err = f.engine.FindSimilar(ctx, 424242, 3)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestEngineFindSimilarDropsStaleHits(t *testing.T) {
	f := setupEngine(t)
	ctx := context.Background()

	source := f.addItem(t, "query item", []float32{1, 0, 0})
	near := f.addItem(t, "near", []float32{0.9, 0.1, 0})
	// A vector with no backing document, as after a lost document write.
	require.NoError(t, f.vectors.Upsert(ctx, 999, []float32{0.95, 0.05, 0}, storage.VectorPayload{}))

	items, err := f.engine.FindSimilar(ctx, source, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, near, items[0].Id)
}

func TestNewEngineValidation(t *testing.T) {
	docs, vectors, graph, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider()

	_, err = NewEngine(nil, vectors, graph, provider)
	assert.ErrorIs(t, err, ErrDocumentStoreRequired)

	_, err = NewEngine(docs, nil, graph, provider)
	assert.ErrorIs(t, err, ErrVectorIndexRequired)

	_, err = NewEngine(docs, vectors, nil, provider)
	assert.ErrorIs(t, err, ErrGraphStoreRequired)

	_, err = NewEngine(docs, vectors, graph, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)

	_, err = NewEngine(docs, vectors, graph, provider, WithNeighborCount(0))
	assert.Error(t, err)

	_, err = NewEngine(docs, vectors, graph, provider, WithMinConfidence(1.5))
	assert.ErrorIs(t, err, core.ErrInvalidConfidence)
}
