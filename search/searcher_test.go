package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/loom/ai/mock"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
	"github.com/weftworks/loom/storage/badger"
)

type searchFixture struct {
	searcher      *Searcher
	docs          storage.DocumentStore
	vectors       storage.VectorIndex
	vectorsByText map[string][]float32
}

func setupSearcher(t *testing.T, opts ...Option) *searchFixture {
	t.Helper()

	docs, vectors, graph, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		graph.Close()
		vectors.Close()
		docs.Close()
		backend.Close()
	})

	vectorsByText := map[string][]float32{}
	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockEmbedder().EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if v, ok := vectorsByText[text]; ok {
			return v, nil
		}
		return []float32{0, 0, 1}, nil
	}

	searcher, err := NewSearcher(docs, vectors, provider, opts...)
	require.NoError(t, err)

	return &searchFixture{
		searcher:      searcher,
		docs:          docs,
		vectors:       vectors,
		vectorsByText: vectorsByText,
	}
}

func (f *searchFixture) addItem(t *testing.T, title, text string, vector []float32) core.ID {
	t.Helper()
	ctx := context.Background()

	item := &core.ContentItem{
		Title:         title,
		RawText:       text,
		ProcessedText: text,
		Source:        "test feed",
		Platform:      "weibo",
		OriginalURL:   "https://example.com/" + title,
		PublishTime:   time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	id, err := f.docs.Put(ctx, item)
	require.NoError(t, err)
	require.NoError(t, f.vectors.Upsert(ctx, id, vector, storage.VectorPayload{Title: title}))
	return id
}

func TestSearcherSemanticHit(t *testing.T) {
	f := setupSearcher(t)
	ctx := context.Background()

	// Semantically near the query vector but sharing no query words.
	near := f.addItem(t, "chip shortage eases", "fabs report recovering output", []float32{0.98, 0.02, 0})
	f.addItem(t, "weather report", "sunny all week", []float32{0, 1, 0})

	f.vectorsByText["semiconductors"] = []float32{1, 0, 0}

	results, err := f.searcher.Search(ctx, "semiconductors", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, near, results[0].Item.Id)
}

func TestSearcherTextHit(t *testing.T) {
	f := setupSearcher(t)
	ctx := context.Background()

	// Keyword match with a query vector far from everything.
	match := f.addItem(t, "central bank raises rates", "the decision surprised analysts", []float32{0, 1, 0})
	f.vectorsByText["raises rates"] = []float32{1, 0, 0}

	results, err := f.searcher.Search(ctx, "raises rates", 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match, results[0].Item.Id)
	// Text-only score plus the verbatim phrase boost.
	assert.InDelta(t, 1.5, float64(results[0].Score), 1e-6)
}

func TestSearcherHybridScoring(t *testing.T) {
	f := setupSearcher(t)
	ctx := context.Background()

	// Hit in both stages outranks a text-only hit.
	both := f.addItem(t, "electric cars surge", "electric cars sales doubled", []float32{1, 0, 0})
	textOnly := f.addItem(t, "electric cars history", "a look back at electric cars", []float32{0, 1, 0})

	f.vectorsByText["electric cars"] = []float32{1, 0, 0}

	results, err := f.searcher.Search(ctx, "electric cars", 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, both, results[0].Item.Id)
	assert.Equal(t, textOnly, results[1].Item.Id)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearcherSimilarityFloor(t *testing.T) {
	f := setupSearcher(t, WithMinSimilarity(0.9))
	ctx := context.Background()

	f.addItem(t, "loosely related", "nothing in common", []float32{0.5, 0.5, 0})
	f.vectorsByText["query"] = []float32{1, 0, 0}

	results, err := f.searcher.Search(ctx, "query", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearcherMaxHits(t *testing.T) {
	f := setupSearcher(t)
	ctx := context.Background()

	f.addItem(t, "shared topic one", "common words here", []float32{1, 0, 0})
	f.addItem(t, "shared topic two", "common words here", []float32{0.9, 0.1, 0})
	f.addItem(t, "shared topic three", "common words here", []float32{0.8, 0.2, 0})

	f.vectorsByText["shared topic"] = []float32{1, 0, 0}

	results, err := f.searcher.Search(ctx, "shared topic", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearcherNoHits(t *testing.T) {
	f := setupSearcher(t)

	results, err := f.searcher.Search(context.Background(), "nothing stored", 10)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestNewSearcherValidation(t *testing.T) {
	docs, vectors, _, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })

	provider := mock.NewMockProvider()

	_, err = NewSearcher(nil, vectors, provider)
	assert.ErrorIs(t, err, ErrDocumentStoreRequired)

	_, err = NewSearcher(docs, nil, provider)
	assert.ErrorIs(t, err, ErrVectorIndexRequired)

	_, err = NewSearcher(docs, vectors, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}
