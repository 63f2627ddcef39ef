package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weftworks/loom/core"
	"github.com/weftworks/loom/storage"
)

func testEdge(source, target core.ID, relType core.RelationType) *core.Edge {
	return &core.Edge{
		SourceId:    source,
		TargetId:    target,
		Type:        relType,
		Description: "test edge",
		Confidence:  0.8,
	}
}

func TestGraphStoreEnsureNodeIdempotent(t *testing.T) {
	_, _, graph := setupStores(t)
	ctx := context.Background()

	require.NoError(t, graph.EnsureNode(ctx, 1))
	require.NoError(t, graph.EnsureNode(ctx, 1))
	assert.ErrorIs(t, graph.EnsureNode(ctx, 0), core.ErrMissingEdgeEndpoint)
}

func TestGraphStoreCreateEdgeIfAbsent(t *testing.T) {
	_, _, graph := setupStores(t)
	ctx := context.Background()

	created, err := graph.CreateEdgeIfAbsent(ctx, testEdge(1, 2, core.RelationCauses))
	require.NoError(t, err)
	assert.True(t, created)

	// Same triple again is suppressed.
	created, err = graph.CreateEdgeIfAbsent(ctx, testEdge(1, 2, core.RelationCauses))
	require.NoError(t, err)
	assert.False(t, created)

	// Different type on the same pair is a different fact.
	created, err = graph.CreateEdgeIfAbsent(ctx, testEdge(1, 2, core.RelationFollows))
	require.NoError(t, err)
	assert.True(t, created)

	// Reversed direction is a different fact.
	created, err = graph.CreateEdgeIfAbsent(ctx, testEdge(2, 1, core.RelationCauses))
	require.NoError(t, err)
	assert.True(t, created)

	causal, err := graph.EdgesByType(ctx, core.RelationCauses)
	require.NoError(t, err)
	assert.Len(t, causal, 2)
}

func TestGraphStoreEdgeValidation(t *testing.T) {
	_, _, graph := setupStores(t)
	ctx := context.Background()

	_, err := graph.CreateEdgeIfAbsent(ctx, testEdge(3, 3, core.RelationCauses))
	assert.ErrorIs(t, err, core.ErrSelfEdge)

	bad := testEdge(1, 2, core.RelationCauses)
	bad.Confidence = 1.7
	_, err = graph.CreateEdgeIfAbsent(ctx, bad)
	assert.ErrorIs(t, err, core.ErrInvalidConfidence)
}

func TestGraphStoreAssignsSurfaceIdentity(t *testing.T) {
	_, _, graph := setupStores(t)
	ctx := context.Background()

	edge := testEdge(1, 2, core.RelationRefersTo)
	created, err := graph.CreateEdgeIfAbsent(ctx, edge)
	require.NoError(t, err)
	require.True(t, created)
	assert.NotEmpty(t, edge.Id)
	assert.False(t, edge.CreatedAt.IsZero())
}

func TestGraphStoreEdgesByTypeInsertionOrder(t *testing.T) {
	_, _, graph := setupStores(t)
	ctx := context.Background()

	pairs := [][2]core.ID{{5, 6}, {1, 2}, {3, 4}}
	for _, pair := range pairs {
		_, err := graph.CreateEdgeIfAbsent(ctx, testEdge(pair[0], pair[1], core.RelationFollows))
		require.NoError(t, err)
	}

	edges, err := graph.EdgesByType(ctx, core.RelationFollows)
	require.NoError(t, err)
	require.Len(t, edges, 3)
	for i, pair := range pairs {
		assert.Equal(t, pair[0], edges[i].SourceId)
		assert.Equal(t, pair[1], edges[i].TargetId)
	}
}

func TestGraphStoreEdgesByTypeEmpty(t *testing.T) {
	_, _, graph := setupStores(t)

	edges, err := graph.EdgesByType(context.Background(), core.RelationCauses)
	require.NoError(t, err)
	assert.NotNil(t, edges)
	assert.Empty(t, edges)
}

func TestGraphStoreRelations(t *testing.T) {
	_, _, graph := setupStores(t)
	ctx := context.Background()

	_, err := graph.CreateEdgeIfAbsent(ctx, testEdge(1, 2, core.RelationCauses))
	require.NoError(t, err)
	_, err = graph.CreateEdgeIfAbsent(ctx, testEdge(3, 1, core.RelationFollows))
	require.NoError(t, err)
	_, err = graph.CreateEdgeIfAbsent(ctx, testEdge(2, 3, core.RelationCauses))
	require.NoError(t, err)

	outgoing, err := graph.Relations(ctx, 1, 0, storage.DirectionOutgoing)
	require.NoError(t, err)
	require.Len(t, outgoing, 1)
	assert.Equal(t, core.ID(2), outgoing[0].TargetId)

	incoming, err := graph.Relations(ctx, 1, 0, storage.DirectionIncoming)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, core.ID(3), incoming[0].SourceId)

	both, err := graph.Relations(ctx, 1, 0, storage.DirectionBoth)
	require.NoError(t, err)
	assert.Len(t, both, 2)

	causalOnly, err := graph.Relations(ctx, 1, core.RelationCauses, storage.DirectionBoth)
	require.NoError(t, err)
	assert.Len(t, causalOnly, 1)
}
