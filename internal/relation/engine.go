package relation

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/social-graph/internal/audit"
	"github.com/weiawesome/social-graph/internal/cache"
	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/internal/events"
	"github.com/weiawesome/social-graph/internal/repository"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
)

// Engine manages the edges of one relation: idempotent create and remove,
// membership checks, cached id sets and change notifications.
type Engine struct {
	rel     domain.Relation
	repo    repository.EdgeRepository
	cache   *cache.EdgeCache
	emitter events.Emitter
	cfg     Config
}

// NewEngine creates an Engine for rel. A nil cache disables caching and a
// nil emitter drops notifications.
func NewEngine(rel domain.Relation, repo repository.EdgeRepository, edgeCache *cache.EdgeCache, emitter events.Emitter, cfg Config) *Engine {
	if edgeCache == nil {
		edgeCache = cache.NewEdgeCache(nil, rel, cfg.CacheTTL)
	}
	if emitter == nil {
		emitter = events.Nop{}
	}
	return &Engine{
		rel:     rel,
		repo:    repo,
		cache:   edgeCache,
		emitter: emitter,
		cfg:     cfg,
	}
}

// Relation returns the relation this engine manages.
func (e *Engine) Relation() domain.Relation {
	return e.rel
}

// pair resolves both ends of a call. Unresolved ids and self-references
// are reported as not ok.
func pair(selfID string, target domain.Target) (string, string, bool) {
	self, ok := domain.ID(selfID).Resolve()
	if !ok {
		return "", "", false
	}
	targetID, ok := target.Resolve()
	if !ok || targetID == self {
		return "", "", false
	}
	return self, targetID, true
}

// Create inserts selfID -> target unless it already exists. It reports true
// only when a new edge was written.
func (e *Engine) Create(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	l := pkglog.Ctx(ctx)

	self, targetID, ok := pair(selfID, target)
	if !ok {
		return false, nil
	}

	created, err := e.repo.Insert(ctx, self, targetID)
	if err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldRelation, e.rel.Name).
			Str(pkglog.FieldUserID, self).
			Str(pkglog.FieldTargetID, targetID).
			Msg("failed to create edge")
		return false, err
	}
	if !created {
		return false, nil
	}

	e.changed(ctx, e.rel.Created, self, targetID)
	return true, nil
}

// Remove deletes selfID -> target. It reports true only when an edge was
// actually deleted.
func (e *Engine) Remove(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	l := pkglog.Ctx(ctx)

	self, targetID, ok := pair(selfID, target)
	if !ok {
		return false, nil
	}

	removed, err := e.repo.Delete(ctx, self, targetID)
	if err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldRelation, e.rel.Name).
			Str(pkglog.FieldUserID, self).
			Str(pkglog.FieldTargetID, targetID).
			Msg("failed to remove edge")
		return false, err
	}
	if removed == 0 {
		return false, nil
	}

	e.changed(ctx, e.rel.Removed, self, targetID)
	return true, nil
}

// Toggle flips selfID -> target and returns whether the edge exists after
// the call. The current state is read from the store, not the cache.
func (e *Engine) Toggle(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	self, targetID, ok := pair(selfID, target)
	if !ok {
		return false, nil
	}

	exists, err := e.repo.Exists(ctx, self, targetID)
	if err != nil {
		return false, err
	}
	if exists {
		_, err := e.Remove(ctx, self, domain.ID(targetID))
		return false, err
	}

	// A concurrent create of the same pair still leaves the edge in place.
	if _, err := e.Create(ctx, self, domain.ID(targetID)); err != nil {
		return false, err
	}
	return true, nil
}

// changed runs the post-commit steps of a mutation.
func (e *Engine) changed(ctx context.Context, kind domain.EventKind, sourceID, targetID string) {
	e.cache.Invalidate(ctx, sourceID, domain.Outgoing)
	e.cache.Invalidate(ctx, targetID, domain.Incoming)

	audit.Relation(ctx, e.rel, kind, sourceID, targetID)

	if e.cfg.EventsEnabled {
		e.emitter.Emit(ctx, e.rel, kind, sourceID, targetID)
	}
}

// HasOutgoing reports whether selfID -> target exists, answering from
// selfID's cached outgoing set when present.
func (e *Engine) HasOutgoing(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	self, targetID, ok := pair(selfID, target)
	if !ok {
		return false, nil
	}

	if ids, hit := e.cache.Get(ctx, self, domain.Outgoing); hit {
		return ids.Has(targetID), nil
	}
	return e.repo.Exists(ctx, self, targetID)
}

// HasIncoming reports whether target -> selfID exists, answering from
// selfID's cached incoming set when present.
func (e *Engine) HasIncoming(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	self, targetID, ok := pair(selfID, target)
	if !ok {
		return false, nil
	}

	if ids, hit := e.cache.Get(ctx, self, domain.Incoming); hit {
		return ids.Has(targetID), nil
	}
	return e.repo.Exists(ctx, targetID, self)
}

// IsMutual reports whether the relation holds both ways.
func (e *Engine) IsMutual(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	status, err := e.Status(ctx, selfID, target)
	if err != nil {
		return false, err
	}
	return status.Mutual(), nil
}

// HasAny reports whether the relation holds in at least one direction.
func (e *Engine) HasAny(ctx context.Context, selfID string, target domain.Target) (bool, error) {
	status, err := e.Status(ctx, selfID, target)
	if err != nil {
		return false, err
	}
	return status.Any(), nil
}

// RelatedIDs returns every identity connected to selfID in either direction,
// sorted and without selfID itself.
func (e *Engine) RelatedIDs(ctx context.Context, selfID string) ([]string, error) {
	self, ok := domain.ID(selfID).Resolve()
	if !ok {
		return []string{}, nil
	}

	var outgoing, incoming []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ids, err := e.repo.IDs(gctx, self, domain.Outgoing)
		outgoing = ids
		return err
	})
	g.Go(func() error {
		ids, err := e.repo.IDs(gctx, self, domain.Incoming)
		incoming = ids
		return err
	})
	if err := g.Wait(); err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).Str(pkglog.FieldRelation, e.rel.Name).Str(pkglog.FieldUserID, self).Msg("failed to load related ids")
		return nil, err
	}

	set := cache.NewIDSet(outgoing...)
	for _, id := range incoming {
		set[id] = struct{}{}
	}
	delete(set, self)
	return set.Slice(), nil
}

// IDs returns the counterpart ids of ownerID in dir, straight from the store.
func (e *Engine) IDs(ctx context.Context, ownerID string, dir domain.Direction) ([]string, error) {
	owner, ok := domain.ID(ownerID).Resolve()
	if !ok {
		return []string{}, nil
	}
	ids, err := e.repo.IDs(ctx, owner, dir)
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// Exists reports whether sourceID -> targetID is stored, bypassing the cache.
func (e *Engine) Exists(ctx context.Context, sourceID, targetID string) (bool, error) {
	source, target, ok := pair(sourceID, domain.ID(targetID))
	if !ok {
		return false, nil
	}
	return e.repo.Exists(ctx, source, target)
}

// PurgeIdentity deletes every edge touching id and drops the cache entries
// of id and of everyone on the other end. It returns how many edges went.
func (e *Engine) PurgeIdentity(ctx context.Context, id string) (int, error) {
	l := pkglog.Ctx(ctx)

	owner, ok := domain.ID(id).Resolve()
	if !ok {
		return 0, nil
	}

	targets, sources, err := e.repo.DeleteInvolving(ctx, owner)
	if err != nil {
		l.Error().Err(err).Str(pkglog.FieldRelation, e.rel.Name).Str(pkglog.FieldUserID, owner).Msg("failed to purge identity edges")
		return 0, err
	}

	e.cache.Invalidate(ctx, owner, domain.Outgoing)
	e.cache.Invalidate(ctx, owner, domain.Incoming)
	for _, t := range targets {
		e.cache.Invalidate(ctx, t, domain.Incoming)
	}
	for _, s := range sources {
		e.cache.Invalidate(ctx, s, domain.Outgoing)
	}

	l.Info().
		Str(pkglog.FieldRelation, e.rel.Name).
		Str(pkglog.FieldUserID, owner).
		Int("edges", len(targets)+len(sources)).
		Msg("purged identity edges")
	return len(targets) + len(sources), nil
}

// Warm loads ownerID's ids in dir from the store into the cache and returns
// them. A non-positive ttl uses the configured default. A cache write
// failure is logged and the ids are still returned.
func (e *Engine) Warm(ctx context.Context, ownerID string, dir domain.Direction, ttl time.Duration) ([]string, error) {
	owner, ok := domain.ID(ownerID).Resolve()
	if !ok {
		return []string{}, nil
	}

	ids, err := e.IDs(ctx, owner, dir)
	if err != nil {
		return nil, err
	}

	if err := e.cache.Put(ctx, owner, dir, ids, ttl); err != nil {
		l := pkglog.Ctx(ctx)
		l.Warn().Err(err).
			Str(pkglog.FieldCacheKey, e.cache.Key(owner, dir)).
			Msg("failed to warm cache")
	}
	return ids, nil
}

// Cached returns ownerID's cached ids in dir, or an empty slice on a miss.
// It never reads the store.
func (e *Engine) Cached(ctx context.Context, ownerID string, dir domain.Direction) []string {
	ids, _ := e.Lookup(ctx, ownerID, dir)
	return ids
}

// Lookup is Cached with the hit flag, so a warm empty set can be told apart
// from a miss.
func (e *Engine) Lookup(ctx context.Context, ownerID string, dir domain.Direction) ([]string, bool) {
	owner, ok := domain.ID(ownerID).Resolve()
	if !ok {
		return []string{}, false
	}
	ids, hit := e.cache.Get(ctx, owner, dir)
	if !hit {
		return []string{}, false
	}
	return ids.Slice(), true
}

// Forget drops ownerID's cache entry in dir.
func (e *Engine) Forget(ctx context.Context, ownerID string, dir domain.Direction) {
	owner, ok := domain.ID(ownerID).Resolve()
	if !ok {
		return
	}
	e.cache.Invalidate(ctx, owner, dir)
}
