package relation

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/weiawesome/social-graph/internal/cache"
	"github.com/weiawesome/social-graph/internal/domain"
)

// ExclusionFilter removes identities related to an actor from candidate
// lists. The zero value excludes nothing.
type ExclusionFilter struct {
	ids cache.IDSet
}

// Exclusion builds a filter over every identity related to actorID in
// either direction. An empty actorID yields a filter that excludes nothing.
func (e *Engine) Exclusion(ctx context.Context, actorID string) (ExclusionFilter, error) {
	actor, ok := domain.ID(actorID).Resolve()
	if !ok {
		return ExclusionFilter{}, nil
	}

	related, err := e.RelatedIDs(ctx, actor)
	if err != nil {
		return ExclusionFilter{}, err
	}
	return ExclusionFilter{ids: cache.NewIDSet(related...)}, nil
}

// Excludes reports whether id is filtered out.
func (f ExclusionFilter) Excludes(id string) bool {
	return f.ids.Has(id)
}

// IDs returns the excluded ids, sorted.
func (f ExclusionFilter) IDs() []string {
	return f.ids.Slice()
}

// Len returns the number of excluded ids.
func (f ExclusionFilter) Len() int {
	return len(f.ids)
}

// Apply returns ids without the excluded ones, keeping order.
func (f ExclusionFilter) Apply(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !f.ids.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// Scope returns a GORM scope adding "column NOT IN (excluded)". With nothing
// to exclude the query is left untouched.
//
//	db.Table("users").Scopes(filter.Scope("users.id")).Find(&users)
func (f ExclusionFilter) Scope(column string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(f.ids) == 0 {
			return db
		}
		if column == "" {
			column = "id"
		}
		return db.Where("? NOT IN ?", clause.Column{Name: column}, f.IDs())
	}
}
