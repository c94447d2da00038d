package relation

import (
	"context"
	"time"

	"github.com/weiawesome/social-graph/internal/domain"
)

// Relatable is the follow capability of one acting identity, e.g. a user
// record that wants user.Follow(ctx, other) style calls.
type Relatable interface {
	Follow(ctx context.Context, target domain.Target) (bool, error)
	Unfollow(ctx context.Context, target domain.Target) (bool, error)
	ToggleFollow(ctx context.Context, target domain.Target) (bool, error)
	IsFollowing(ctx context.Context, target domain.Target) (bool, error)
	IsFollowedBy(ctx context.Context, target domain.Target) (bool, error)
	IsMutual(ctx context.Context, target domain.Target) (bool, error)
	HasAnyRelationship(ctx context.Context, target domain.Target) (bool, error)
}

// Follows exposes the follow relation in its own vocabulary.
type Follows struct {
	engine *Engine
	query  *Query
}

// NewFollows wraps an engine and query built for domain.Follow.
func NewFollows(engine *Engine, query *Query) *Follows {
	return &Follows{engine: engine, query: query}
}

func (f *Follows) Engine() *Engine { return f.engine }
func (f *Follows) Query() *Query   { return f.query }

func (f *Follows) Follow(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return f.engine.Create(ctx, selfID, target)
}

func (f *Follows) Unfollow(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return f.engine.Remove(ctx, selfID, target)
}

// ToggleFollow returns true when selfID follows target after the call.
func (f *Follows) ToggleFollow(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return f.engine.Toggle(ctx, selfID, target)
}

func (f *Follows) IsFollowing(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return f.engine.HasOutgoing(ctx, selfID, target)
}

func (f *Follows) IsFollowedBy(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return f.engine.HasIncoming(ctx, selfID, target)
}

func (f *Follows) IsMutual(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return f.engine.IsMutual(ctx, selfID, target)
}

func (f *Follows) HasAnyRelationship(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return f.engine.HasAny(ctx, selfID, target)
}

func (f *Follows) Status(ctx context.Context, selfID string, target domain.Target) (domain.Status, error) {
	return f.engine.Status(ctx, selfID, target)
}

func (f *Follows) StatusBatch(ctx context.Context, selfID string, ids []string) (map[string]domain.Status, error) {
	return f.engine.StatusBatch(ctx, selfID, ids)
}

// RelatedIDs returns everyone selfID follows or is followed by.
func (f *Follows) RelatedIDs(ctx context.Context, selfID string) ([]string, error) {
	return f.engine.RelatedIDs(ctx, selfID)
}

func (f *Follows) Exclusion(ctx context.Context, actorID string) (ExclusionFilter, error) {
	return f.engine.Exclusion(ctx, actorID)
}

func (f *Follows) FollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return f.engine.IDs(ctx, userID, domain.Outgoing)
}

func (f *Follows) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return f.engine.IDs(ctx, userID, domain.Incoming)
}

func (f *Follows) Following(ctx context.Context, userID string, page domain.Page) ([]domain.Connection, error) {
	return f.query.List(ctx, userID, domain.Outgoing, page)
}

func (f *Follows) Followers(ctx context.Context, userID string, page domain.Page) ([]domain.Connection, error) {
	return f.query.List(ctx, userID, domain.Incoming, page)
}

// LatestFollowers returns the n most recent followers of userID.
func (f *Follows) LatestFollowers(ctx context.Context, userID string, n int) ([]domain.Connection, error) {
	return f.query.Latest(ctx, userID, domain.Incoming, n)
}

func (f *Follows) FollowingCount(ctx context.Context, userID string) (int64, error) {
	return f.query.Count(ctx, userID, domain.Outgoing)
}

func (f *Follows) FollowersCount(ctx context.Context, userID string) (int64, error) {
	return f.query.Count(ctx, userID, domain.Incoming)
}

// StreamFollowers hands userID's follower ids to yield in batches.
func (f *Follows) StreamFollowers(ctx context.Context, userID string, batchSize int, yield func([]string) error) error {
	return f.query.Stream(ctx, userID, domain.Incoming, batchSize, yield)
}

func (f *Follows) CacheFollowing(ctx context.Context, userID string, ttl time.Duration) ([]string, error) {
	return f.engine.Warm(ctx, userID, domain.Outgoing, ttl)
}

func (f *Follows) CacheFollowers(ctx context.Context, userID string, ttl time.Duration) ([]string, error) {
	return f.engine.Warm(ctx, userID, domain.Incoming, ttl)
}

func (f *Follows) FollowingCache(ctx context.Context, userID string) []string {
	return f.engine.Cached(ctx, userID, domain.Outgoing)
}

func (f *Follows) FollowersCache(ctx context.Context, userID string) []string {
	return f.engine.Cached(ctx, userID, domain.Incoming)
}

func (f *Follows) ClearFollowingCacheFor(ctx context.Context, userID string) {
	f.engine.Forget(ctx, userID, domain.Outgoing)
}

func (f *Follows) ClearFollowersCacheFor(ctx context.Context, userID string) {
	f.engine.Forget(ctx, userID, domain.Incoming)
}

// As binds the follow capability to self. Calls made through an unresolved
// self answer false.
func (f *Follows) As(self domain.Identity) Relatable {
	return &follower{follows: f, self: domain.Ref(self)}
}

type follower struct {
	follows *Follows
	self    domain.Target
}

func (a *follower) id() string {
	id, _ := a.self.Resolve()
	return id
}

func (a *follower) Follow(ctx context.Context, target domain.Target) (bool, error) {
	return a.follows.Follow(ctx, a.id(), target)
}

func (a *follower) Unfollow(ctx context.Context, target domain.Target) (bool, error) {
	return a.follows.Unfollow(ctx, a.id(), target)
}

func (a *follower) ToggleFollow(ctx context.Context, target domain.Target) (bool, error) {
	return a.follows.ToggleFollow(ctx, a.id(), target)
}

func (a *follower) IsFollowing(ctx context.Context, target domain.Target) (bool, error) {
	return a.follows.IsFollowing(ctx, a.id(), target)
}

func (a *follower) IsFollowedBy(ctx context.Context, target domain.Target) (bool, error) {
	return a.follows.IsFollowedBy(ctx, a.id(), target)
}

func (a *follower) IsMutual(ctx context.Context, target domain.Target) (bool, error) {
	return a.follows.IsMutual(ctx, a.id(), target)
}

func (a *follower) HasAnyRelationship(ctx context.Context, target domain.Target) (bool, error) {
	return a.follows.HasAnyRelationship(ctx, a.id(), target)
}

var _ Relatable = (*follower)(nil)
