package service

import (
	"context"
	"errors"

	"github.com/weiawesome/social-graph/internal/domain"
)

var (
	ErrSelfFollow    = errors.New("cannot follow yourself")
	ErrSelfBlock     = errors.New("cannot block yourself")
	ErrInvalidTarget = errors.New("invalid target user")
)

// Relationship is everything the actor and one other user have between them.
type Relationship struct {
	UserID       string `json:"user_id"`
	IsFollowing  bool   `json:"is_following"`
	IsFollowedBy bool   `json:"is_followed_by"`
	IsMutual     bool   `json:"is_mutual"`
	IsBlocking   bool   `json:"is_blocking"`
	IsBlockedBy  bool   `json:"is_blocked_by"`
}

// CacheSnapshot lists the ids loaded into a user's caches.
type CacheSnapshot struct {
	Following []string `json:"following"`
	Followers []string `json:"followers"`
	Blocking  []string `json:"blocking"`
}

// SocialGraphService defines the business logic for the social graph.
type SocialGraphService interface {
	Follow(ctx context.Context, actorID, targetID string) (bool, error)
	Unfollow(ctx context.Context, actorID, targetID string) (bool, error)
	ToggleFollow(ctx context.Context, actorID, targetID string) (bool, error)
	Block(ctx context.Context, actorID, targetID string) (bool, error)
	Unblock(ctx context.Context, actorID, targetID string) (bool, error)

	Relationship(ctx context.Context, actorID, targetID string) (Relationship, error)
	BatchStatus(ctx context.Context, userID string, targetIDs []string) (map[string]domain.Status, error)

	Following(ctx context.Context, userID string, page domain.Page) ([]domain.Connection, error)
	Followers(ctx context.Context, userID string, page domain.Page) ([]domain.Connection, error)
	LatestFollowers(ctx context.Context, userID string, n int) ([]domain.Connection, error)
	FollowingCount(ctx context.Context, userID string) (int64, error)
	FollowersCount(ctx context.Context, userID string) (int64, error)

	RelatedIDs(ctx context.Context, actorID string) ([]string, error)
	BlockingIDs(ctx context.Context, actorID string) ([]string, error)

	WarmCache(ctx context.Context, actorID string) (CacheSnapshot, error)
	ClearCache(ctx context.Context, actorID string)
}
