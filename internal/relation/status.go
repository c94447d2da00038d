package relation

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/weiawesome/social-graph/internal/domain"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
)

// Status derives both directions between selfID and target. Warm cache
// entries are used where available; otherwise the store is asked once.
func (e *Engine) Status(ctx context.Context, selfID string, target domain.Target) (domain.Status, error) {
	self, targetID, ok := pair(selfID, target)
	if !ok {
		return domain.Status{}, nil
	}

	outgoing, outHit := e.cache.Get(ctx, self, domain.Outgoing)
	incoming, inHit := e.cache.Get(ctx, self, domain.Incoming)

	var status domain.Status
	var err error
	switch {
	case outHit && inHit:
		status.IsFollowing = outgoing.Has(targetID)
		status.IsFollowedBy = incoming.Has(targetID)
	case outHit:
		status.IsFollowing = outgoing.Has(targetID)
		status.IsFollowedBy, err = e.repo.Exists(ctx, targetID, self)
	case inHit:
		status.IsFollowedBy = incoming.Has(targetID)
		status.IsFollowing, err = e.repo.Exists(ctx, self, targetID)
	default:
		status.IsFollowing, status.IsFollowedBy, err = e.repo.Pair(ctx, self, targetID)
	}
	if err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).
			Str(pkglog.FieldRelation, e.rel.Name).
			Str(pkglog.FieldUserID, self).
			Str(pkglog.FieldTargetID, targetID).
			Msg("failed to load relationship status")
		return domain.Status{}, err
	}
	return status, nil
}

// StatusBatch derives the status of selfID against every id in ids with at
// most two store queries. Every requested id appears in the result under the
// key it was passed with; ids are matched after trimming, the same way
// Create resolves them. Ids that match nothing, including unknown
// identities, are all false.
func (e *Engine) StatusBatch(ctx context.Context, selfID string, ids []string) (map[string]domain.Status, error) {
	result := make(map[string]domain.Status, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	// cleaned id -> the raw forms it was requested as
	requested := make(map[string][]string, len(ids))
	candidates := make([]string, 0, len(ids))
	for _, raw := range ids {
		if _, dup := result[raw]; dup {
			continue
		}
		result[raw] = domain.Status{}

		id, ok := domain.ID(raw).Resolve()
		if !ok {
			continue
		}
		if _, seen := requested[id]; !seen {
			candidates = append(candidates, id)
		}
		requested[id] = append(requested[id], raw)
	}

	self, ok := domain.ID(selfID).Resolve()
	if !ok || len(candidates) == 0 {
		return result, nil
	}

	var outgoing, incoming []string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		found, err := e.repo.IDsAmong(gctx, self, domain.Outgoing, candidates)
		outgoing = found
		return err
	})
	g.Go(func() error {
		found, err := e.repo.IDsAmong(gctx, self, domain.Incoming, candidates)
		incoming = found
		return err
	})
	if err := g.Wait(); err != nil {
		l := pkglog.Ctx(ctx)
		l.Error().Err(err).
			Str(pkglog.FieldRelation, e.rel.Name).
			Str(pkglog.FieldUserID, self).
			Int("targets", len(candidates)).
			Msg("failed to load batch relationship status")
		return nil, err
	}

	for _, id := range outgoing {
		for _, raw := range requested[id] {
			s := result[raw]
			s.IsFollowing = true
			result[raw] = s
		}
	}
	for _, id := range incoming {
		for _, raw := range requested[id] {
			s := result[raw]
			s.IsFollowedBy = true
			result[raw] = s
		}
	}
	return result, nil
}
