package relation

import (
	"context"
	"time"

	"github.com/weiawesome/social-graph/internal/domain"
)

// BlockStatus is the block relation between an actor and one other identity.
type BlockStatus struct {
	IsBlocking  bool `json:"is_blocking"`
	IsBlockedBy bool `json:"is_blocked_by"`
}

func blockStatus(s domain.Status) BlockStatus {
	return BlockStatus{IsBlocking: s.IsFollowing, IsBlockedBy: s.IsFollowedBy}
}

// Blocks exposes the block relation in its own vocabulary. It never
// consults the follow relation.
type Blocks struct {
	engine *Engine
	query  *Query
}

// NewBlocks wraps an engine and query built for domain.Block.
func NewBlocks(engine *Engine, query *Query) *Blocks {
	return &Blocks{engine: engine, query: query}
}

func (b *Blocks) Engine() *Engine { return b.engine }
func (b *Blocks) Query() *Query   { return b.query }

func (b *Blocks) Block(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return b.engine.Create(ctx, selfID, target)
}

func (b *Blocks) Unblock(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return b.engine.Remove(ctx, selfID, target)
}

// ToggleBlock returns true when selfID blocks target after the call.
func (b *Blocks) ToggleBlock(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return b.engine.Toggle(ctx, selfID, target)
}

func (b *Blocks) IsBlocking(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return b.engine.HasOutgoing(ctx, selfID, target)
}

func (b *Blocks) IsBlockedBy(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	return b.engine.HasIncoming(ctx, selfID, target)
}

func (b *Blocks) Status(ctx context.Context, selfID string, target domain.Target) (BlockStatus, error) {
	s, err := b.engine.Status(ctx, selfID, target)
	if err != nil {
		return BlockStatus{}, err
	}
	return blockStatus(s), nil
}

func (b *Blocks) StatusBatch(ctx context.Context, selfID string, ids []string) (map[string]BlockStatus, error) {
	statuses, err := b.engine.StatusBatch(ctx, selfID, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]BlockStatus, len(statuses))
	for id, s := range statuses {
		out[id] = blockStatus(s)
	}
	return out, nil
}

// RelatedIDs returns everyone selfID blocks or is blocked by.
func (b *Blocks) RelatedIDs(ctx context.Context, selfID string) ([]string, error) {
	return b.engine.RelatedIDs(ctx, selfID)
}

// Exclusion filters out everyone actorID blocks or is blocked by.
func (b *Blocks) Exclusion(ctx context.Context, actorID string) (ExclusionFilter, error) {
	return b.engine.Exclusion(ctx, actorID)
}

func (b *Blocks) BlockingIDs(ctx context.Context, userID string) ([]string, error) {
	return b.engine.IDs(ctx, userID, domain.Outgoing)
}

func (b *Blocks) BlockerIDs(ctx context.Context, userID string) ([]string, error) {
	return b.engine.IDs(ctx, userID, domain.Incoming)
}

func (b *Blocks) Blocking(ctx context.Context, userID string, page domain.Page) ([]domain.Connection, error) {
	return b.query.List(ctx, userID, domain.Outgoing, page)
}

func (b *Blocks) Blockers(ctx context.Context, userID string, page domain.Page) ([]domain.Connection, error) {
	return b.query.List(ctx, userID, domain.Incoming, page)
}

func (b *Blocks) BlockingCount(ctx context.Context, userID string) (int64, error) {
	return b.query.Count(ctx, userID, domain.Outgoing)
}

func (b *Blocks) BlockersCount(ctx context.Context, userID string) (int64, error) {
	return b.query.Count(ctx, userID, domain.Incoming)
}

func (b *Blocks) CacheBlocking(ctx context.Context, userID string, ttl time.Duration) ([]string, error) {
	return b.engine.Warm(ctx, userID, domain.Outgoing, ttl)
}

func (b *Blocks) CacheBlockers(ctx context.Context, userID string, ttl time.Duration) ([]string, error) {
	return b.engine.Warm(ctx, userID, domain.Incoming, ttl)
}

func (b *Blocks) BlockingCache(ctx context.Context, userID string) []string {
	return b.engine.Cached(ctx, userID, domain.Outgoing)
}

// LookupBlocking returns userID's cached blocking ids and whether the entry
// was warm.
func (b *Blocks) LookupBlocking(ctx context.Context, userID string) ([]string, bool) {
	return b.engine.Lookup(ctx, userID, domain.Outgoing)
}

func (b *Blocks) BlockersCache(ctx context.Context, userID string) []string {
	return b.engine.Cached(ctx, userID, domain.Incoming)
}

func (b *Blocks) ClearBlockingCacheFor(ctx context.Context, userID string) {
	b.engine.Forget(ctx, userID, domain.Outgoing)
}

func (b *Blocks) ClearBlockersCacheFor(ctx context.Context, userID string) {
	b.engine.Forget(ctx, userID, domain.Incoming)
}
