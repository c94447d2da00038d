package reconciler

import (
	"context"
	"time"

	"github.com/weiawesome/social-graph/internal/config"
	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/internal/relation"
	"github.com/weiawesome/social-graph/internal/store"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
)

// Reconciler periodically re-warms the cached id sets of the most read
// identities from the database.
type Reconciler struct {
	store   store.HotKeyStore
	engines []*relation.Engine
	cfg     config.ReconcilerConfig
	quit    chan struct{}
	doneCh  chan struct{}
}

// New creates a new Reconciler.
func New(store store.HotKeyStore, engines []*relation.Engine, cfg config.ReconcilerConfig) *Reconciler {
	return &Reconciler{
		store:   store,
		engines: engines,
		cfg:     cfg,
		quit:    make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start launches the reconciler in a background goroutine.
func (r *Reconciler) Start(ctx context.Context) {
	go r.run(ctx)
}

// Stop signals the reconciler to stop and returns immediately.
// Call Done() to wait for it to exit.
func (r *Reconciler) Stop() {
	close(r.quit)
}

// Done returns a channel that is closed when the reconciler has fully stopped.
func (r *Reconciler) Done() <-chan struct{} {
	return r.doneCh
}

func (r *Reconciler) run(ctx context.Context) {
	defer close(r.doneCh)

	interval := r.cfg.Interval
	if interval <= 0 {
		interval = 60 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.quit:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Reconcile(ctx)
		}
	}
}

// Reconcile runs one warming cycle and returns how many identities were
// warmed.
func (r *Reconciler) Reconcile(ctx context.Context) int {
	l := pkglog.L()
	l.Info().Msg("reconciler: starting cache warm-up")

	topN := int64(r.cfg.TopN)
	if topN <= 0 {
		topN = 100
	}

	// 1. Fetch top-N hot keys
	userIDs, err := r.store.GetTopHotKeys(ctx, topN)
	if err != nil {
		l.Error().Err(err).Msg("reconciler: failed to get top hot keys")
		return 0
	}

	if len(userIDs) == 0 {
		l.Info().Msg("reconciler: no hot keys to warm")
		return 0
	}

	// 2. Reload both directions of every relation from the DB
	for _, userID := range userIDs {
		for _, e := range r.engines {
			for _, dir := range []domain.Direction{domain.Outgoing, domain.Incoming} {
				if _, err := e.Warm(ctx, userID, dir, r.cfg.TTL); err != nil {
					l.Error().Err(err).
						Str(pkglog.FieldUserID, userID).
						Str(pkglog.FieldRelation, e.Relation().Name).
						Str(pkglog.FieldDirection, dir.String()).
						Msg("reconciler: failed to warm cache")
				}
			}
		}
	}

	// 3. Reset hot key scores for the next cycle
	if err := r.store.ResetHotKeyScores(ctx); err != nil {
		l.Error().Err(err).Msg("reconciler: failed to reset hot key scores")
	}

	l.Info().Int("count", len(userIDs)).Msg("reconciler: cache warm-up complete")
	return len(userIDs)
}
