package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
)

const headerEventType = "Event-Type"

// NATSPublisher implements Publisher on core NATS. Channels map 1:1 to subjects.
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher connects to the NATS server at cfg.URL.
func NewNATSPublisher(cfg NATSConfig) (*NATSPublisher, error) {
	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	opts := []nats.Option{}
	if cfg.Name != "" {
		opts = append(opts, nats.Name(cfg.Name))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

// Publish sends the event on the subject named by channel.
func (p *NATSPublisher) Publish(ctx context.Context, channel string, event *Event) error {
	if err := ValidateChannel(channel); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: channel,
		Data:    data,
		Header:  nats.Header{},
	}
	msg.Header.Set(headerEventType, event.Type)

	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

var _ Publisher = (*NATSPublisher)(nil)
