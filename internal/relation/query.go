package relation

import (
	"context"

	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/internal/repository"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
)

// Query lists the edges of one relation. Nothing here is cached.
type Query struct {
	rel        domain.Relation
	repo       repository.EdgeRepository
	identities repository.IdentityLoader
}

// NewQuery creates a Query. identities may be nil, in which case listings
// carry no identity records.
func NewQuery(rel domain.Relation, repo repository.EdgeRepository, identities repository.IdentityLoader) *Query {
	return &Query{rel: rel, repo: repo, identities: identities}
}

// List returns ownerID's connections in dir, newest first.
func (q *Query) List(ctx context.Context, ownerID string, dir domain.Direction, page domain.Page) ([]domain.Connection, error) {
	l := pkglog.Ctx(ctx)

	owner, ok := domain.ID(ownerID).Resolve()
	if !ok {
		return []domain.Connection{}, nil
	}

	edges, err := q.repo.List(ctx, owner, dir, page)
	if err != nil {
		l.Error().Err(err).
			Str(pkglog.FieldRelation, q.rel.Name).
			Str(pkglog.FieldDirection, dir.String()).
			Str(pkglog.FieldUserID, owner).
			Msg("failed to list edges")
		return nil, err
	}

	conns := make([]domain.Connection, 0, len(edges))
	ids := make([]string, 0, len(edges))
	for _, edge := range edges {
		counterpart := edge.TargetID
		if dir == domain.Incoming {
			counterpart = edge.SourceID
		}
		conns = append(conns, domain.Connection{Edge: edge, CounterpartID: counterpart})
		ids = append(ids, counterpart)
	}

	if q.identities == nil || len(ids) == 0 {
		return conns, nil
	}

	records, err := q.identities.Load(ctx, ids)
	if err != nil {
		// Listings stay usable without identity records.
		l.Warn().Err(err).Str(pkglog.FieldRelation, q.rel.Name).Msg("failed to load identity records")
		return conns, nil
	}
	for i := range conns {
		conns[i].Identity = records[conns[i].CounterpartID]
	}
	return conns, nil
}

// Latest returns ownerID's n most recent connections in dir.
func (q *Query) Latest(ctx context.Context, ownerID string, dir domain.Direction, n int) ([]domain.Connection, error) {
	if n <= 0 {
		return []domain.Connection{}, nil
	}
	return q.List(ctx, ownerID, dir, domain.Page{Limit: n})
}

// Count returns how many edges ownerID has in dir.
func (q *Query) Count(ctx context.Context, ownerID string, dir domain.Direction) (int64, error) {
	owner, ok := domain.ID(ownerID).Resolve()
	if !ok {
		return 0, nil
	}
	return q.repo.Count(ctx, owner, dir)
}

// Stream hands ownerID's counterpart ids in dir to yield in batches of at
// most batchSize. An error from yield stops the walk and is returned.
func (q *Query) Stream(ctx context.Context, ownerID string, dir domain.Direction, batchSize int, yield func([]string) error) error {
	owner, ok := domain.ID(ownerID).Resolve()
	if !ok {
		return nil
	}
	return q.repo.StreamIDs(ctx, owner, dir, batchSize, yield)
}
