package relation_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/weiawesome/social-graph/internal/cache"
	"github.com/weiawesome/social-graph/internal/events"
	"github.com/weiawesome/social-graph/internal/relation"
	"github.com/weiawesome/social-graph/internal/testutil"
)

type fixture struct {
	db       *gorm.DB
	graph    *relation.Graph
	follows  *relation.Follows
	blocks   *relation.Blocks
	recorder *events.Recorder
}

func newFixture(t *testing.T, mutate ...func(*relation.Config)) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	testutil.SeedUsers(t, db, "A", "B", "C", "D")

	backend, err := cache.NewMemoryBackend(100)
	require.NoError(t, err)

	cfg := relation.DefaultConfig()
	cfg.IdentityColumns = []string{"username", "display_name"}
	for _, m := range mutate {
		m(&cfg)
	}

	recorder := events.NewRecorder()
	graph := relation.NewGraph(db, backend, recorder, cfg)
	return &fixture{
		db:       db,
		graph:    graph,
		follows:  graph.Follows,
		blocks:   graph.Blocks,
		recorder: recorder,
	}
}

func (f *fixture) followRows(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Table("follows").Count(&n).Error)
	return n
}
