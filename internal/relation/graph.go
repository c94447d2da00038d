package relation

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/weiawesome/social-graph/internal/cache"
	"github.com/weiawesome/social-graph/internal/consumer"
	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/internal/events"
	"github.com/weiawesome/social-graph/internal/repository"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
)

// Graph holds the follow and block relations of one database.
type Graph struct {
	Follows *Follows
	Blocks  *Blocks
}

// NewGraph wires both relations over db. backend may be nil to run without
// a cache and emitter may be nil to drop notifications.
func NewGraph(db *gorm.DB, backend cache.Backend, emitter events.Emitter, cfg Config) *Graph {
	var identities repository.IdentityLoader
	if cfg.IdentityTable != "" {
		identities = repository.NewGormIdentityLoader(db, cfg.IdentityTable, cfg.IdentityColumns)
	}

	build := func(rel domain.Relation) (*Engine, *Query) {
		repo := repository.NewGormEdgeRepository(db, rel)
		edgeCache := cache.NewEdgeCache(backend, rel, cfg.CacheTTL)
		return NewEngine(rel, repo, edgeCache, emitter, cfg), NewQuery(rel, repo, identities)
	}

	followEngine, followQuery := build(domain.Follow)
	blockEngine, blockQuery := build(domain.Block)

	return &Graph{
		Follows: NewFollows(followEngine, followQuery),
		Blocks:  NewBlocks(blockEngine, blockQuery),
	}
}

// Engines returns the engine of every relation.
func (g *Graph) Engines() []*Engine {
	return []*Engine{g.Follows.Engine(), g.Blocks.Engine()}
}

// PurgeIdentity removes every follow and block edge touching id.
func (g *Graph) PurgeIdentity(ctx context.Context, id string) (int, error) {
	total := 0
	for _, e := range g.Engines() {
		n, err := e.PurgeIdentity(ctx, id)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Relations lists the relation of every engine.
func (g *Graph) Relations() []domain.Relation {
	engines := g.Engines()
	rels := make([]domain.Relation, 0, len(engines))
	for _, e := range engines {
		rels = append(rels, e.Relation())
	}
	return rels
}

// HandleEdgeChange drops the cache entries of both endpoints of an edge the
// store changed. It covers writes the engines never saw, like FK cascades.
func (g *Graph) HandleEdgeChange(ctx context.Context, change consumer.EdgeChange) error {
	for _, e := range g.Engines() {
		if e.Relation().Name != change.Relation.Name {
			continue
		}
		e.Forget(ctx, change.SourceID, domain.Outgoing)
		e.Forget(ctx, change.TargetID, domain.Incoming)

		l := pkglog.Ctx(ctx)
		l.Debug().
			Str(pkglog.FieldRelation, change.Relation.Name).
			Str(pkglog.FieldUserID, change.SourceID).
			Str(pkglog.FieldTargetID, change.TargetID).
			Str("op", change.Op).
			Msg("edge cache dropped after store change")
		return nil
	}
	return fmt.Errorf("no engine for relation %q", change.Relation.Name)
}

var _ consumer.EdgeChangeHandler = (*Graph)(nil)
