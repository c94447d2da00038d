package relation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/internal/events"
	"github.com/weiawesome/social-graph/internal/relation"
)

type user struct{ id string }

func (u *user) IdentityID() string { return u.id }

func TestFollowIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	created, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.follows.Follow(ctx, "A", domain.Ref(&user{id: "B"}))
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, int64(1), f.followRows(t))
	assert.Len(t, f.recorder.Events(), 1)
}

func TestFollowRejectsSelfAndUnresolved(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	var nobody *user

	for _, target := range []domain.Target{domain.ID("A"), domain.ID(" A "), domain.ID(""), domain.Ref(nobody), {}} {
		created, err := f.follows.Follow(ctx, "A", target)
		require.NoError(t, err)
		assert.False(t, created, target.String())
	}

	created, err := f.follows.Follow(ctx, "", domain.ID("B"))
	require.NoError(t, err)
	assert.False(t, created)

	assert.Zero(t, f.followRows(t))
	assert.Empty(t, f.recorder.Events())
}

func TestUnfollowRemovesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)

	removed, err := f.follows.Unfollow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = f.follows.Unfollow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = f.follows.Unfollow(ctx, "A", domain.ID(""))
	require.NoError(t, err)
	assert.False(t, removed)

	assert.Zero(t, f.followRows(t))
	assert.Equal(t, []events.Recorded{
		{Relation: "follow", Kind: domain.EventFollowed, SourceID: "A", TargetID: "B"},
		{Relation: "follow", Kind: domain.EventUnfollowed, SourceID: "A", TargetID: "B"},
	}, f.recorder.Events())
}

func TestToggleFollowReturnsStateAfterCall(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	following, err := f.follows.ToggleFollow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.True(t, following)

	following, err = f.follows.ToggleFollow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.False(t, following)

	following, err = f.follows.ToggleFollow(ctx, "A", domain.ID("A"))
	require.NoError(t, err)
	assert.False(t, following)
}

func TestPredicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)

	cases := []struct {
		name string
		fn   func(context.Context, string, domain.Target) (bool, error)
		self string
		want bool
	}{
		{"A follows B", f.follows.IsFollowing, "A", true},
		{"B follows A", f.follows.IsFollowing, "B", false},
		{"B followed by A", f.follows.IsFollowedBy, "B", true},
		{"A followed by B", f.follows.IsFollowedBy, "A", false},
		{"not mutual yet", f.follows.IsMutual, "A", false},
		{"any relationship", f.follows.HasAnyRelationship, "B", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			other := "B"
			if tc.self == "B" {
				other = "A"
			}
			got, err := tc.fn(ctx, tc.self, domain.ID(other))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err = f.follows.Follow(ctx, "B", domain.ID("A"))
	require.NoError(t, err)
	mutual, err := f.follows.IsMutual(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.True(t, mutual)

	related, err := f.follows.HasAnyRelationship(ctx, "A", domain.ID("C"))
	require.NoError(t, err)
	assert.False(t, related)
}

func TestEventsCanBeDisabled(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(c *relation.Config) { c.EventsEnabled = false })

	created, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, int64(1), f.followRows(t))
	assert.Empty(t, f.recorder.Events())
}

func TestFollowAndBlockAreIndependent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.blocks.Block(ctx, "A", domain.ID("B"))
	require.NoError(t, err)

	// Blocking does not remove or prevent follows.
	created, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.True(t, created)

	blocking, err := f.blocks.IsBlocking(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.True(t, blocking)

	blockedBy, err := f.blocks.IsBlockedBy(ctx, "B", domain.ID("A"))
	require.NoError(t, err)
	assert.True(t, blockedBy)

	status, err := f.blocks.Status(ctx, "B", domain.ID("A"))
	require.NoError(t, err)
	assert.Equal(t, relation.BlockStatus{IsBlockedBy: true}, status)

	evs := f.recorder.Events()
	require.Len(t, evs, 2)
	assert.Equal(t, events.Recorded{Relation: "block", Kind: domain.EventBlocked, SourceID: "A", TargetID: "B"}, evs[0])

	unblocked, err := f.blocks.Unblock(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.True(t, unblocked)

	following, err := f.follows.IsFollowing(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	assert.True(t, following)
}

func TestRelatableCapability(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	alice := f.follows.As(&user{id: "A"})
	created, err := alice.Follow(ctx, domain.Ref(&user{id: "B"}))
	require.NoError(t, err)
	assert.True(t, created)

	following, err := alice.IsFollowing(ctx, domain.ID("B"))
	require.NoError(t, err)
	assert.True(t, following)

	var nobody *user
	ghost := f.follows.As(nobody)
	created, err = ghost.Follow(ctx, domain.ID("B"))
	require.NoError(t, err)
	assert.False(t, created)

	toggled, err := alice.ToggleFollow(ctx, domain.ID("B"))
	require.NoError(t, err)
	assert.False(t, toggled)
}

func TestPurgeIdentity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	require.NoError(t, err)
	_, err = f.follows.Follow(ctx, "C", domain.ID("A"))
	require.NoError(t, err)
	_, err = f.follows.Follow(ctx, "B", domain.ID("C"))
	require.NoError(t, err)
	_, err = f.blocks.Block(ctx, "D", domain.ID("A"))
	require.NoError(t, err)

	_, err = f.follows.CacheFollowers(ctx, "B", 0)
	require.NoError(t, err)
	_, err = f.follows.CacheFollowing(ctx, "C", 0)
	require.NoError(t, err)

	n, err := f.graph.PurgeIdentity(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, int64(1), f.followRows(t))

	assert.Empty(t, f.follows.FollowersCache(ctx, "B"))
	assert.Empty(t, f.follows.FollowingCache(ctx, "C"))

	following, err := f.follows.IsFollowing(ctx, "C", domain.ID("A"))
	require.NoError(t, err)
	assert.False(t, following)
}

func TestStoreFailuresSurface(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	created, err := f.follows.Follow(ctx, "A", domain.ID("B"))
	assert.Error(t, err)
	assert.False(t, created)

	removed, err := f.follows.Unfollow(ctx, "A", domain.ID("B"))
	assert.Error(t, err)
	assert.False(t, removed)

	_, err = f.follows.ToggleFollow(ctx, "A", domain.ID("B"))
	assert.Error(t, err)

	statuses, err := f.follows.StatusBatch(ctx, "A", []string{"B", "C"})
	assert.Error(t, err)
	assert.Nil(t, statuses)

	related, err := f.follows.RelatedIDs(ctx, "A")
	assert.Error(t, err)
	assert.Nil(t, related)

	assert.Empty(t, f.recorder.Events())
}

func TestStatusBatchEmptyInputSkipsStore(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	statuses, err := f.follows.StatusBatch(ctx, "A", nil)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}
