package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

func setupStores(t *testing.T) (storage.DocumentStore, storage.VectorIndex, storage.GraphStore) {
	t.Helper()
	docs, vectors, graph, backend, err := NewMemoryStores()
	require.NoError(t, err)
	t.Cleanup(func() {
		graph.Close()
		vectors.Close()
		docs.Close()
		backend.Close()
	})
	return docs, vectors, graph
}

func testItem(title, url string) *core.ContentItem {
	return &core.ContentItem{
		Title:       title,
		RawText:     "raw text for " + title,
		Source:      "test source",
		Platform:    "weibo",
		OriginalURL: url,
		PublishTime: time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestDocumentStorePutAssignsID(t *testing.T) {
	docs, _, _ := setupStores(t)
	ctx := context.Background()

	item := testItem("first", "https://example.com/1")
	id, err := docs.Put(ctx, item)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, id, item.Id)
	assert.False(t, item.InsertedAt.IsZero())
	assert.False(t, item.UpdatedAt.IsZero())

	got, err := docs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)
}

func TestDocumentStoreGetMissing(t *testing.T) {
	docs, _, _ := setupStores(t)

	_, err := docs.Get(context.Background(), 9999)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDocumentStoreFingerprintDedupe(t *testing.T) {
	docs, _, _ := setupStores(t)
	ctx := context.Background()

	first := testItem("original crawl", "https://example.com/article")
	id1, err := docs.Put(ctx, first)
	require.NoError(t, err)

	// Re-crawl of the same URL must update in place, not mint a second id.
	second := testItem("re-crawled with new title", "https://example.com/article")
	id2, err := docs.Put(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	got, err := docs.Get(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "re-crawled with new title", got.Title)
	assert.Equal(t, first.InsertedAt, got.InsertedAt)
}

func TestDocumentStoreDistinctURLsDistinctIDs(t *testing.T) {
	docs, _, _ := setupStores(t)
	ctx := context.Background()

	id1, err := docs.Put(ctx, testItem("a", "https://example.com/a"))
	require.NoError(t, err)
	id2, err := docs.Put(ctx, testItem("b", "https://example.com/b"))
	require.NoError(t, err)
	assert.NotEqual(t, id1, id2)
}

func TestDocumentStoreUpdateByID(t *testing.T) {
	docs, _, _ := setupStores(t)
	ctx := context.Background()

	item := testItem("before", "")
	id, err := docs.Put(ctx, item)
	require.NoError(t, err)

	item.Title = "after"
	item.Summary = "now summarized"
	id2, err := docs.Put(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	got, err := docs.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Equal(t, "now summarized", got.Summary)
}

func TestDocumentStoreFind(t *testing.T) {
	docs, _, _ := setupStores(t)
	ctx := context.Background()

	older := testItem("older", "https://example.com/old")
	older.PublishTime = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := testItem("newer", "https://example.com/new")
	newer.PublishTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	wechat := testItem("other platform", "https://example.com/w")
	wechat.Platform = "wechat"
	wechat.PublishTime = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, item := range []*core.ContentItem{older, newer, wechat} {
		_, err := docs.Put(ctx, item)
		require.NoError(t, err)
	}

	t.Run("ordered newest first", func(t *testing.T) {
		all, err := docs.Find(ctx, storage.DocumentFilter{}, 0, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "newer", all[0].Title)
		assert.Equal(t, "other platform", all[1].Title)
		assert.Equal(t, "older", all[2].Title)
	})

	t.Run("platform filter", func(t *testing.T) {
		weibo, err := docs.Find(ctx, storage.DocumentFilter{Platform: "weibo"}, 0, 0)
		require.NoError(t, err)
		assert.Len(t, weibo, 2)
	})

	t.Run("skip and limit", func(t *testing.T) {
		page, err := docs.Find(ctx, storage.DocumentFilter{}, 1, 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "other platform", page[0].Title)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := docs.Exists(ctx, storage.DocumentFilter{Platform: "wechat"})
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = docs.Exists(ctx, storage.DocumentFilter{Platform: "bilibili"})
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestDocumentStoreFindNeedsEnrichment(t *testing.T) {
	docs, _, _ := setupStores(t)
	ctx := context.Background()

	flagged := testItem("flagged", "https://example.com/f")
	flagged.NeedsEnrichment = true
	_, err := docs.Put(ctx, flagged)
	require.NoError(t, err)

	clean := testItem("clean", "https://example.com/c")
	_, err = docs.Put(ctx, clean)
	require.NoError(t, err)

	needs := true
	matches, err := docs.Find(ctx, storage.DocumentFilter{NeedsEnrichment: &needs}, 0, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "flagged", matches[0].Title)
}

func TestDocumentStoreSearchText(t *testing.T) {
	docs, _, _ := setupStores(t)
	ctx := context.Background()

	medical := testItem("AI transforms medical diagnosis", "https://example.com/m")
	medical.ProcessedText = "Hospitals adopt machine learning for radiology."
	_, err := docs.Put(ctx, medical)
	require.NoError(t, err)

	sports := testItem("Championship finals recap", "https://example.com/s")
	sports.ProcessedText = "The home team won in overtime."
	_, err = docs.Put(ctx, sports)
	require.NoError(t, err)

	hits, err := docs.SearchText(ctx, "medical diagnosis", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, medical.Title, hits[0].Title)

	none, err := docs.SearchText(ctx, "cryptocurrency", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
