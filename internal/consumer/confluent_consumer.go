package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	pkglog "github.com/weiawesome/social-graph/pkg/log"
)

const pollTimeout = 100 * time.Millisecond

// ConfluentConsumer reads Debezium change events of the edge tables and
// routes the touched edges to a Router.
type ConfluentConsumer struct {
	consumer *kafka.Consumer
	topics   []string
	router   *Router
	doneCh   chan struct{}
}

// NewConfluentConsumer subscribes groupID to topics, e.g. the Debezium
// topics of the follows and blocks tables.
func NewConfluentConsumer(brokers string, topics []string, groupID string, router *Router) (*ConfluentConsumer, error) {
	if len(topics) == 0 {
		return nil, errors.New("no CDC topics configured")
	}
	if router == nil {
		return nil, errors.New("no CDC router configured")
	}

	c, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  brokers,
		"group.id":           groupID,
		"auto.offset.reset":  "latest",
		"enable.auto.commit": true,
	})
	if err != nil {
		return nil, fmt.Errorf("create cdc consumer: %w", err)
	}

	return &ConfluentConsumer{
		consumer: c,
		topics:   topics,
		router:   router,
		doneCh:   make(chan struct{}),
	}, nil
}

// Start subscribes and polls in the background until ctx is done.
func (cc *ConfluentConsumer) Start(ctx context.Context) error {
	if err := cc.consumer.SubscribeTopics(cc.topics, nil); err != nil {
		return fmt.Errorf("subscribe cdc topics %v: %w", cc.topics, err)
	}

	l := pkglog.L()
	l.Info().Strs("topics", cc.topics).Msg("edge CDC consumer started")

	go cc.poll(ctx)
	return nil
}

func (cc *ConfluentConsumer) poll(ctx context.Context) {
	defer close(cc.doneCh)

	base := pkglog.L()
	for ctx.Err() == nil {
		msg, err := cc.consumer.ReadMessage(pollTimeout)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			base.Error().Err(err).Msg("edge CDC read failed")
			continue
		}

		logger := base.With().
			Str("topic", topicOf(msg)).
			Int32("partition", msg.TopicPartition.Partition).
			Int64("offset", int64(msg.TopicPartition.Offset)).
			Logger()
		// Invalidation of a read message finishes even during shutdown.
		msgCtx := pkglog.WithLogger(context.WithoutCancel(ctx), logger)
		cc.processMessage(msgCtx, msg.Value)
	}

	base.Info().Msg("edge CDC consumer shutting down")
}

// processMessage decodes one record value and routes its edges. Tombstones
// (empty values that follow Debezium deletes) are ignored.
func (cc *ConfluentConsumer) processMessage(ctx context.Context, value []byte) {
	if len(value) == 0 {
		return
	}
	l := pkglog.Ctx(ctx)

	var event DebeziumMessage
	if err := json.Unmarshal(value, &event); err != nil {
		l.Error().Err(err).Msg("failed to decode debezium event")
		return
	}

	l.Debug().
		Str("op", event.Payload.Op).
		Str("table", event.Payload.Source.Table).
		Int64("ts_ms", event.Payload.TsMs).
		Msg("received edge CDC event")

	if err := cc.router.Route(ctx, &event); err != nil {
		l.Error().Err(err).Str("op", event.Payload.Op).Msg("failed to apply edge CDC event")
	}
}

func topicOf(msg *kafka.Message) string {
	if msg.TopicPartition.Topic == nil {
		return ""
	}
	return *msg.TopicPartition.Topic
}

// Close waits for the in-flight message, then closes the Kafka consumer.
// Start must have been called and ctx cancelled.
func (cc *ConfluentConsumer) Close() error {
	<-cc.doneCh
	if err := cc.consumer.Close(); err != nil {
		return fmt.Errorf("close cdc consumer: %w", err)
	}
	return nil
}

var _ CDCEventConsumer = (*ConfluentConsumer)(nil)
