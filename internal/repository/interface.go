package repository

import (
	"context"

	"github.com/weiawesome/social-graph/internal/domain"
)

// EdgeRepository defines persistence operations for one relation table.
// Absence is never an error: lookups report false or an empty slice.
type EdgeRepository interface {
	// Insert creates (source, target) unless it already exists and reports
	// whether a row was actually written.
	Insert(ctx context.Context, sourceID, targetID string) (bool, error)
	// Delete removes (source, target) and returns the number of rows deleted.
	Delete(ctx context.Context, sourceID, targetID string) (int64, error)
	Exists(ctx context.Context, sourceID, targetID string) (bool, error)
	// Pair checks a->b and b->a in a single query.
	Pair(ctx context.Context, a, b string) (aToB, bToA bool, err error)

	// IDs returns the counterpart ids of ownerID's edges in dir.
	IDs(ctx context.Context, ownerID string, dir domain.Direction) ([]string, error)
	// IDsAmong is IDs restricted to candidates.
	IDsAmong(ctx context.Context, ownerID string, dir domain.Direction, candidates []string) ([]string, error)
	List(ctx context.Context, ownerID string, dir domain.Direction, page domain.Page) ([]domain.Edge, error)
	Count(ctx context.Context, ownerID string, dir domain.Direction) (int64, error)
	StreamIDs(ctx context.Context, ownerID string, dir domain.Direction, batchSize int, yield func([]string) error) error

	// DeleteInvolving removes every edge touching id, returning the ids that
	// id pointed at and the ids that pointed at id.
	DeleteInvolving(ctx context.Context, id string) (targets, sources []string, err error)
}

// IdentityLoader fetches identity records owned by the identity subsystem.
type IdentityLoader interface {
	Load(ctx context.Context, ids []string) (map[string]map[string]any, error)
}
