package events

import (
	"context"
	"sync"
	"time"

	"github.com/weiawesome/social-graph/internal/domain"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
	"github.com/weiawesome/social-graph/pkg/pubsub"
)

const defaultPublishTimeout = 5 * time.Second

// Emitter dispatches relationship change notifications. Emit must return
// promptly and never report delivery failures to the caller.
type Emitter interface {
	Emit(ctx context.Context, rel domain.Relation, kind domain.EventKind, sourceID, targetID string)
}

// Payload is the body of a relationship change event.
type Payload struct {
	Relation   string    `json:"relation"`
	SourceID   string    `json:"source_id"`
	TargetID   string    `json:"target_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// PubSubEmitter publishes events on a pubsub.Publisher from a background
// goroutine, detached from the request's cancellation.
type PubSubEmitter struct {
	pub     pubsub.Publisher
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewPubSubEmitter creates an emitter. A non-positive timeout uses 5s.
func NewPubSubEmitter(pub pubsub.Publisher, timeout time.Duration) *PubSubEmitter {
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	return &PubSubEmitter{pub: pub, timeout: timeout}
}

func (e *PubSubEmitter) Emit(ctx context.Context, rel domain.Relation, kind domain.EventKind, sourceID, targetID string) {
	l := pkglog.Ctx(ctx)

	event, err := pubsub.NewEvent(string(kind), sourceID, Payload{
		Relation:   rel.Name,
		SourceID:   sourceID,
		TargetID:   targetID,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		l.Warn().Err(err).Str(pkglog.FieldEvent, string(kind)).Msg("failed to build relation event")
		return
	}

	channel := rel.Channel()
	pubCtx := context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				l.Error().Interface("panic", r).Str(pkglog.FieldEvent, string(kind)).Msg("relation event publisher panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(pubCtx, e.timeout)
		defer cancel()

		if err := e.pub.Publish(ctx, channel, event); err != nil {
			l.Warn().Err(err).
				Str(pkglog.FieldEvent, string(kind)).
				Str(pkglog.FieldUserID, sourceID).
				Str(pkglog.FieldTargetID, targetID).
				Msg("failed to publish relation event")
			return
		}
		l.Debug().Str(pkglog.FieldEvent, string(kind)).Str("channel", channel).Msg("relation event published")
	}()
}

// Wait blocks until in-flight publishes have finished. Used on shutdown.
func (e *PubSubEmitter) Wait() {
	e.wg.Wait()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Emit(context.Context, domain.Relation, domain.EventKind, string, string) {}

// Recorded is one event captured by a Recorder.
type Recorded struct {
	Relation string
	Kind     domain.EventKind
	SourceID string
	TargetID string
}

// Recorder keeps emitted events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(_ context.Context, rel domain.Relation, kind domain.EventKind, sourceID, targetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Relation: rel.Name, Kind: kind, SourceID: sourceID, TargetID: targetID})
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}

var (
	_ Emitter = (*PubSubEmitter)(nil)
	_ Emitter = Nop{}
	_ Emitter = (*Recorder)(nil)
)
