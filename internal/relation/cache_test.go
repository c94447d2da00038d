package relation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/social-graph/internal/domain"
)

func TestCacheRoundTripAndClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)

	assert.Empty(t, f.follows.FollowingCache(ctx, "A"))

	ids, err := f.follows.CacheFollowing(ctx, "A", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids)
	assert.Equal(t, []string{"B"}, f.follows.FollowingCache(ctx, "A"))

	f.follows.ClearFollowingCacheFor(ctx, "A")
	assert.Empty(t, f.follows.FollowingCache(ctx, "A"))
}

func TestMutationInvalidatesBothEndpoints(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	_, err = f.follows.CacheFollowing(ctx, "A", 0)
	require.NoError(t, err)
	_, err = f.follows.CacheFollowers(ctx, "C", 0)
	require.NoError(t, err)
	_, err = f.follows.CacheFollowers(ctx, "B", 0)
	require.NoError(t, err)

	_, err = f.follows.Follow(ctx, "A", domain.ID("C"))
	require.NoError(t, err)

	assert.Empty(t, f.follows.FollowingCache(ctx, "A"))
	assert.Empty(t, f.follows.FollowersCache(ctx, "C"))
	// Unrelated entries survive.
	assert.Equal(t, []string{"A"}, f.follows.FollowersCache(ctx, "B"))

	following, err := f.follows.IsFollowing(ctx, "A", domain.ID("C"))
	require.NoError(t, err)
	assert.True(t, following)
}

func TestReadsNeverPopulateCache(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)

	_, err = f.follows.IsFollowing(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	_, err = f.follows.Status(ctx, "A", domain.ID("B"))
	require.NoError(t, err)

	assert.Empty(t, f.follows.FollowingCache(ctx, "A"))
}

func TestCachesAreNamespacedPerRelation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	_, err = f.blocks.Block(ctx, "A", domain.ID("C"))
	require.NoError(t, err)

	_, err = f.follows.CacheFollowing(ctx, "A", 0)
	require.NoError(t, err)
	_, err = f.blocks.CacheBlocking(ctx, "A", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"B"}, f.follows.FollowingCache(ctx, "A"))
	assert.Equal(t, []string{"C"}, f.blocks.BlockingCache(ctx, "A"))

	f.blocks.ClearBlockingCacheFor(ctx, "A")
	assert.Equal(t, []string{"B"}, f.follows.FollowingCache(ctx, "A"))
}

func TestLookupReportsWarmEmptySet(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ids, hit := f.blocks.LookupBlocking(ctx, "A")
	assert.False(t, hit)
	assert.Empty(t, ids)

	_, err := f.blocks.CacheBlocking(ctx, "A", 0)
	require.NoError(t, err)

	ids, hit = f.blocks.LookupBlocking(ctx, "A")
	assert.True(t, hit)
	assert.Empty(t, ids)
}
