package kafka

import (
	"context"
	"fmt"

	"moroccoin-backoffice/config"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// Writer defines the Kafka writer abstraction the publisher needs.
// *kafka.Writer satisfies it; tests substitute a fake.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements ports.EventPublisher on top of a Kafka topic.
// Events are keyed by user ID so per-user ordering is preserved within
// a partition.
type Publisher struct {
	writer Writer
	logger zerolog.Logger
}

// NewWriter creates a kafka-go writer for the configured topic.
func NewWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.Topic,
		Balancer: &kafka.Hash{},
	}
}

// NewPublisher creates a new Publisher.
func NewPublisher(writer Writer, logger zerolog.Logger) *Publisher {
	return &Publisher{writer: writer, logger: logger}
}

// Publish writes one event to the topic.
func (p *Publisher) Publish(ctx context.Context, key string, payload []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writing kafka message: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
