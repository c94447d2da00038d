package reconciler_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/social-graph/internal/cache"
	"github.com/weiawesome/social-graph/internal/config"
	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/internal/reconciler"
	"github.com/weiawesome/social-graph/internal/relation"
	"github.com/weiawesome/social-graph/internal/store"
	"github.com/weiawesome/social-graph/internal/testutil"
)

func setup(t *testing.T) (*relation.Graph, *store.RedisHotKeyStore) {
	t.Helper()

	db := testutil.NewDB(t)
	backend, err := cache.NewMemoryBackend(100)
	require.NoError(t, err)
	graph := relation.NewGraph(db, backend, nil, relation.DefaultConfig())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return graph, store.NewRedisHotKeyStoreFromClient(client, "")
}

func TestReconcileWarmsHotUsers(t *testing.T) {
	ctx := context.Background()
	graph, hotKeys := setup(t)

	_, err := graph.Follows.Follow(ctx, "1", domain.ID("2"))
	require.NoError(t, err)
	_, err = graph.Follows.Follow(ctx, "3", domain.ID("1"))
	require.NoError(t, err)
	_, err = graph.Blocks.Block(ctx, "1", domain.ID("4"))
	require.NoError(t, err)
	require.NoError(t, hotKeys.RecordAccess(ctx, "1"))

	rec := reconciler.New(hotKeys, graph.Engines(), config.ReconcilerConfig{TopN: 10})
	assert.Equal(t, 1, rec.Reconcile(ctx))

	assert.Equal(t, []string{"2"}, graph.Follows.FollowingCache(ctx, "1"))
	assert.Equal(t, []string{"3"}, graph.Follows.FollowersCache(ctx, "1"))
	assert.Equal(t, []string{"4"}, graph.Blocks.BlockingCache(ctx, "1"))

	top, err := hotKeys.GetTopHotKeys(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, top)

	assert.Zero(t, rec.Reconcile(ctx))
}

func TestReconcilerStops(t *testing.T) {
	graph, hotKeys := setup(t)

	rec := reconciler.New(hotKeys, graph.Engines(), config.ReconcilerConfig{Interval: 10 * time.Millisecond})
	rec.Start(context.Background())
	rec.Stop()

	select {
	case <-rec.Done():
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop")
	}
}
