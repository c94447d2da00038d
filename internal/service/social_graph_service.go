package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/internal/relation"
	"github.com/weiawesome/social-graph/internal/store"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
)

// socialGraphService implements SocialGraphService.
type socialGraphService struct {
	graph *relation.Graph
	store store.HotKeyStore
}

// NewSocialGraphService creates a new SocialGraphService instance. hotKeys
// may be nil when access tracking is off.
func NewSocialGraphService(graph *relation.Graph, hotKeys store.HotKeyStore) SocialGraphService {
	return &socialGraphService{
		graph: graph,
		store: hotKeys,
	}
}

func target(actorID, targetID string, self error) (domain.Target, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return domain.Target{}, ErrInvalidTarget
	}
	if targetID == actorID {
		return domain.Target{}, self
	}
	return domain.ID(targetID), nil
}

// Follow makes actorID follow targetID. It reports false when the follow
// already existed.
func (s *socialGraphService) Follow(ctx context.Context, actorID, targetID string) (bool, error) {
	t, err := target(actorID, targetID, ErrSelfFollow)
	if err != nil {
		return false, err
	}
	return s.graph.Follows.Follow(ctx, actorID, t)
}

// Unfollow reports false when there was nothing to remove.
func (s *socialGraphService) Unfollow(ctx context.Context, actorID, targetID string) (bool, error) {
	t, err := target(actorID, targetID, ErrSelfFollow)
	if err != nil {
		return false, err
	}
	return s.graph.Follows.Unfollow(ctx, actorID, t)
}

// ToggleFollow returns whether actorID follows targetID afterwards.
func (s *socialGraphService) ToggleFollow(ctx context.Context, actorID, targetID string) (bool, error) {
	t, err := target(actorID, targetID, ErrSelfFollow)
	if err != nil {
		return false, err
	}
	return s.graph.Follows.ToggleFollow(ctx, actorID, t)
}

func (s *socialGraphService) Block(ctx context.Context, actorID, targetID string) (bool, error) {
	t, err := target(actorID, targetID, ErrSelfBlock)
	if err != nil {
		return false, err
	}
	return s.graph.Blocks.Block(ctx, actorID, t)
}

func (s *socialGraphService) Unblock(ctx context.Context, actorID, targetID string) (bool, error) {
	t, err := target(actorID, targetID, ErrSelfBlock)
	if err != nil {
		return false, err
	}
	return s.graph.Blocks.Unblock(ctx, actorID, t)
}

// recordAccess feeds hot key tracking (best-effort).
func (s *socialGraphService) recordAccess(ctx context.Context, userID string) {
	if s.store == nil {
		return
	}
	if err := s.store.RecordAccess(ctx, userID); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str(pkglog.FieldUserID, userID).Msg("failed to record hot key access")
	}
}

// Relationship resolves the follow and block status between actorID and
// targetID concurrently.
func (s *socialGraphService) Relationship(ctx context.Context, actorID, targetID string) (Relationship, error) {
	targetID = strings.TrimSpace(targetID)
	rel := Relationship{UserID: targetID}
	if targetID == "" {
		return rel, ErrInvalidTarget
	}
	if targetID == actorID {
		return rel, nil
	}
	t := domain.ID(targetID)

	s.recordAccess(ctx, actorID)

	var follow domain.Status
	var block relation.BlockStatus
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		follow, err = s.graph.Follows.Status(gctx, actorID, t)
		return err
	})
	g.Go(func() error {
		var err error
		block, err = s.graph.Blocks.Status(gctx, actorID, t)
		return err
	})
	if err := g.Wait(); err != nil {
		return rel, err
	}

	rel.IsFollowing = follow.IsFollowing
	rel.IsFollowedBy = follow.IsFollowedBy
	rel.IsMutual = follow.Mutual()
	rel.IsBlocking = block.IsBlocking
	rel.IsBlockedBy = block.IsBlockedBy
	return rel, nil
}

// BatchStatus returns the follow status of userID against every target.
func (s *socialGraphService) BatchStatus(ctx context.Context, userID string, targetIDs []string) (map[string]domain.Status, error) {
	s.recordAccess(ctx, userID)
	return s.graph.Follows.StatusBatch(ctx, userID, targetIDs)
}

func (s *socialGraphService) Following(ctx context.Context, userID string, page domain.Page) ([]domain.Connection, error) {
	return s.graph.Follows.Following(ctx, userID, page)
}

func (s *socialGraphService) Followers(ctx context.Context, userID string, page domain.Page) ([]domain.Connection, error) {
	return s.graph.Follows.Followers(ctx, userID, page)
}

func (s *socialGraphService) LatestFollowers(ctx context.Context, userID string, n int) ([]domain.Connection, error) {
	return s.graph.Follows.LatestFollowers(ctx, userID, n)
}

func (s *socialGraphService) FollowingCount(ctx context.Context, userID string) (int64, error) {
	return s.graph.Follows.FollowingCount(ctx, userID)
}

func (s *socialGraphService) FollowersCount(ctx context.Context, userID string) (int64, error) {
	return s.graph.Follows.FollowersCount(ctx, userID)
}

// RelatedIDs returns everyone actorID follows or is followed by.
func (s *socialGraphService) RelatedIDs(ctx context.Context, actorID string) ([]string, error) {
	return s.graph.Follows.RelatedIDs(ctx, actorID)
}

// BlockingIDs serves from the cache when warm, even when the warm set is
// empty, and falls back to the DB.
func (s *socialGraphService) BlockingIDs(ctx context.Context, actorID string) ([]string, error) {
	if ids, hit := s.graph.Blocks.LookupBlocking(ctx, actorID); hit {
		return ids, nil
	}
	return s.graph.Blocks.BlockingIDs(ctx, actorID)
}

// WarmCache loads actorID's following, followers and blocking sets into the
// cache with the default TTL.
func (s *socialGraphService) WarmCache(ctx context.Context, actorID string) (CacheSnapshot, error) {
	var snap CacheSnapshot
	var err error

	if snap.Following, err = s.graph.Follows.CacheFollowing(ctx, actorID, 0); err != nil {
		return CacheSnapshot{}, err
	}
	if snap.Followers, err = s.graph.Follows.CacheFollowers(ctx, actorID, 0); err != nil {
		return CacheSnapshot{}, err
	}
	if snap.Blocking, err = s.graph.Blocks.CacheBlocking(ctx, actorID, 0); err != nil {
		return CacheSnapshot{}, err
	}
	return snap, nil
}

// ClearCache drops every cache entry owned by actorID.
func (s *socialGraphService) ClearCache(ctx context.Context, actorID string) {
	s.graph.Follows.ClearFollowingCacheFor(ctx, actorID)
	s.graph.Follows.ClearFollowersCacheFor(ctx, actorID)
	s.graph.Blocks.ClearBlockingCacheFor(ctx, actorID)
	s.graph.Blocks.ClearBlockersCacheFor(ctx, actorID)
}

// Ensure interface is satisfied at compile time.
var _ SocialGraphService = (*socialGraphService)(nil)
