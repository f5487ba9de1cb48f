// Package kafka publishes session events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/papercomputeco/memhub/pkg/eventstream"
)

// Config holds Kafka connection settings.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher implements eventstream.Publisher on top of a Kafka writer.
// Messages are keyed by workspace id so each workspace's events stay ordered
// within a partition.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a new Kafka-backed publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}

	return &Publisher{writer: writer}, nil
}

// PublishSession serializes the event and writes it to the topic.
func (p *Publisher) PublishSession(ctx context.Context, event *eventstream.SessionAcceptedEvent) error {
	if event == nil {
		return eventstream.ErrNilSessionEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Source.WorkspaceID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to write session event: %w", err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
