package service_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/social-graph/internal/cache"
	"github.com/weiawesome/social-graph/internal/relation"
	"github.com/weiawesome/social-graph/internal/service"
	"github.com/weiawesome/social-graph/internal/store"
	"github.com/weiawesome/social-graph/internal/testutil"
)

func newService(t *testing.T) (service.SocialGraphService, *store.RedisHotKeyStore) {
	t.Helper()
	svc, hotKeys, _ := newServiceWithDB(t)
	return svc, hotKeys
}

func newServiceWithDB(t *testing.T) (service.SocialGraphService, *store.RedisHotKeyStore, *gorm.DB) {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.SeedUsers(t, db, "1", "2", "3")

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	graph := relation.NewGraph(db, cache.NewRedisBackendFromClient(client), nil, relation.DefaultConfig())
	hotKeys := store.NewRedisHotKeyStoreFromClient(client, "")
	return service.NewSocialGraphService(graph, hotKeys), hotKeys, db
}

func TestFollowValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Follow(ctx, "1", "1")
	assert.ErrorIs(t, err, service.ErrSelfFollow)

	_, err = svc.Block(ctx, "1", "1")
	assert.ErrorIs(t, err, service.ErrSelfBlock)

	_, err = svc.Follow(ctx, "1", "  ")
	assert.ErrorIs(t, err, service.ErrInvalidTarget)

	created, err := svc.Follow(ctx, "1", "2")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Follow(ctx, "1", "2")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestRelationshipCombinesRelations(t *testing.T) {
	ctx := context.Background()
	svc, hotKeys := newService(t)

	_, err := svc.Follow(ctx, "1", "2")
	require.NoError(t, err)
	_, err = svc.Follow(ctx, "2", "1")
	require.NoError(t, err)
	_, err = svc.Block(ctx, "2", "1")
	require.NoError(t, err)

	rel, err := svc.Relationship(ctx, "1", "2")
	require.NoError(t, err)
	assert.Equal(t, service.Relationship{
		UserID:       "2",
		IsFollowing:  true,
		IsFollowedBy: true,
		IsMutual:     true,
		IsBlockedBy:  true,
	}, rel)

	self, err := svc.Relationship(ctx, "1", "1")
	require.NoError(t, err)
	assert.Equal(t, service.Relationship{UserID: "1"}, self)

	top, err := hotKeys.GetTopHotKeys(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, top)
}

func TestWarmAndClearCache(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Follow(ctx, "1", "2")
	require.NoError(t, err)
	_, err = svc.Follow(ctx, "3", "1")
	require.NoError(t, err)
	_, err = svc.Block(ctx, "1", "3")
	require.NoError(t, err)

	snap, err := svc.WarmCache(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, service.CacheSnapshot{
		Following: []string{"2"},
		Followers: []string{"3"},
		Blocking:  []string{"3"},
	}, snap)

	blocking, err := svc.BlockingIDs(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, blocking)

	svc.ClearCache(ctx, "1")

	related, err := svc.RelatedIDs(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, related)
}

func TestBlockingIDsServesWarmEmptySet(t *testing.T) {
	ctx := context.Background()
	svc, _, db := newServiceWithDB(t)

	snap, err := svc.WarmCache(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, snap.Blocking)

	// Written behind the engine, so only a store read would see it.
	require.NoError(t, db.Exec("INSERT INTO blocks (user_id, blocking_id, created_at, updated_at) VALUES ('1', '2', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)").Error)

	blocking, err := svc.BlockingIDs(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, blocking)

	svc.ClearCache(ctx, "1")
	blocking, err = svc.BlockingIDs(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, blocking)
}
