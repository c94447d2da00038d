package cache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/weiawesome/social-graph/internal/domain"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
)

// DefaultTTL applies when neither configuration nor the caller sets one.
const DefaultTTL = 24 * time.Hour

// IDSet is an unordered set of identity ids.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids, dropping duplicates.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the ids sorted.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// EdgeCache caches, per owner and direction, the set of counterpart ids of one
// relation. It never fails a caller: backend errors degrade to misses.
type EdgeCache struct {
	backend Backend
	rel     domain.Relation
	ttl     time.Duration
}

// NewEdgeCache creates a cache for rel. A nil backend disables caching.
func NewEdgeCache(backend Backend, rel domain.Relation, ttl time.Duration) *EdgeCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &EdgeCache{backend: backend, rel: rel, ttl: ttl}
}

// TTL returns the default entry lifetime.
func (c *EdgeCache) TTL() time.Duration {
	return c.ttl
}

// Key builds "{relation}:{label}.{owner}", e.g. "follow:following.42".
func (c *EdgeCache) Key(ownerID string, dir domain.Direction) string {
	return fmt.Sprintf("%s:%s.%s", c.rel.Name, c.rel.Label(dir), ownerID)
}

// Get returns the cached set, or false on a miss or backend failure.
func (c *EdgeCache) Get(ctx context.Context, ownerID string, dir domain.Direction) (IDSet, bool) {
	if c.backend == nil {
		return nil, false
	}

	key := c.Key(ownerID, dir)
	ids, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str(pkglog.FieldCacheKey, key).Msg("cache get failed, treating as miss")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return NewIDSet(ids...), true
}

// Put replaces the entry for owner and direction with ids. The old entry is
// removed first so a refresh never merges with stale contents. A
// non-positive ttl uses the default.
func (c *EdgeCache) Put(ctx context.Context, ownerID string, dir domain.Direction, ids []string, ttl time.Duration) error {
	if c.backend == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	key := c.Key(ownerID, dir)
	if err := c.backend.Delete(ctx, key); err != nil {
		return err
	}
	return c.backend.Set(ctx, key, NewIDSet(ids...).Slice(), ttl)
}

// Invalidate drops the entry for owner and direction. Failures are logged;
// the entry still expires by TTL.
func (c *EdgeCache) Invalidate(ctx context.Context, ownerID string, dir domain.Direction) {
	if c.backend == nil {
		return
	}

	key := c.Key(ownerID, dir)
	if err := c.backend.Delete(ctx, key); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).Str(pkglog.FieldCacheKey, key).Msg("cache invalidation failed")
	}
}
