package enrich

import (
	"bytes"
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

func setupStores(t *testing.T) (storage.DocumentStore, storage.VectorIndex) {
	t.Helper()

	docs, vectors, graph, backend, err := badger.NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		graph.Close()
		vectors.Close()
		docs.Close()
		backend.Close()
	})
	return docs, vectors
}

func flaggedItem(t *testing.T, docs storage.DocumentStore, title string) core.ID {
	t.Helper()
	id, err := docs.Put(context.Background(), &core.ContentItem{
		Title:           title,
		RawText:         "raw text of " + title,
		Source:          "test feed",
		Platform:        "weibo",
		OriginalURL:     "https://example.com/" + title,
		PublishTime:     time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		NeedsEnrichment: true,
	})
	require.NoError(t, err)
	return id
}

func quickConfig() *Config {
	return &Config{
		BatchSize:      2,
		ReportInterval: 1,
		MaxRetries:     2,
		RetryDelay:     time.Millisecond,
	}
}

func TestRunnerEnrichesFlaggedItems(t *testing.T) {
	docs, vectors := setupStores(t)
	ctx := context.Background()

	ids := []core.ID{
		flaggedItem(t, docs, "one"),
		flaggedItem(t, docs, "two"),
		flaggedItem(t, docs, "three"),
	}

	var out bytes.Buffer
	runner := NewRunner(docs, vectors, mock.NewMockProvider(), quickConfig(), &out)
	require.NoError(t, runner.Run(ctx))

	for _, id := range ids {
		item, err := docs.Get(ctx, id)
		require.NoError(t, err)
		assert.False(t, item.NeedsEnrichment)
		assert.NotEmpty(t, item.Summary)
	}

	// Embeddings were refreshed as part of the sweep.
	vector, err := mock.NewMockEmbedder().EmbedText(ctx, "raw text of one")
	require.NoError(t, err)
	hits, err := vectors.Search(ctx, vector, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, ids[0], hits[0].Id)

	assert.Contains(t, out.String(), "Enrichment complete")
}

func TestRunnerSkipsUnflaggedItems(t *testing.T) {
	docs, vectors := setupStores(t)
	ctx := context.Background()

	clean := &core.ContentItem{
		Title:       "already enriched",
		RawText:     "raw",
		Summary:     "existing summary",
		Source:      "test feed",
		Platform:    "weibo",
		OriginalURL: "https://example.com/clean",
		PublishTime: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	id, err := docs.Put(ctx, clean)
	require.NoError(t, err)

	provider := mock.NewMockProvider().(*mock.MockProvider)
	var out bytes.Buffer
	runner := NewRunner(docs, vectors, provider, quickConfig(), &out)
	require.NoError(t, runner.Run(ctx))

	assert.Zero(t, provider.GetMockEnricher().CallCount())
	item, err := docs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "existing summary", item.Summary)
	assert.Contains(t, out.String(), "No items flagged")
}

func TestRunnerLeavesFailingItemsFlagged(t *testing.T) {
	docs, vectors := setupStores(t)
	ctx := context.Background()

	stubborn := flaggedItem(t, docs, "stubborn")
	fine := flaggedItem(t, docs, "fine")

	provider := mock.NewMockProvider().(*mock.MockProvider)
	provider.GetMockEnricher().EnrichFunc = func(ctx context.Context, title, text string) (*ai.Enrichment, error) {
		if title == "stubborn" {
			return nil, errors.New("model refuses")
		}
		return &ai.Enrichment{ProcessedText: text, Summary: "summary of " + title}, nil
	}

	var out bytes.Buffer
	runner := NewRunner(docs, vectors, provider, quickConfig(), &out)
	require.NoError(t, runner.Run(ctx), "per-item AI failures must not abort the sweep")

	still, err := docs.Get(ctx, stubborn)
	require.NoError(t, err)
	assert.True(t, still.NeedsEnrichment)

	done, err := docs.Get(ctx, fine)
	require.NoError(t, err)
	assert.False(t, done.NeedsEnrichment)
	assert.Equal(t, "summary of fine", done.Summary)
}

func TestItemIteratorBatches(t *testing.T) {
	docs, _ := setupStores(t)
	ctx := context.Background()

	for _, title := range []string{"a", "b", "c", "d", "e"} {
		flaggedItem(t, docs, title)
	}

	iterator := NewItemIterator(docs, 2)
	var batchSizes []int
	err := iterator.ForEach(ctx, func(items []*core.ContentItem) error {
		batchSizes = append(batchSizes, len(items))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, batchSizes)
}

func TestItemIteratorStopsOnError(t *testing.T) {
	docs, _ := setupStores(t)
	ctx := context.Background()

	flaggedItem(t, docs, "a")
	flaggedItem(t, docs, "b")
	flaggedItem(t, docs, "c")

	iterator := NewItemIterator(docs, 1)
	calls := 0
	err := iterator.ForEach(ctx, func(items []*core.ContentItem) error {
		calls++
		return errors.New("stop here")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
