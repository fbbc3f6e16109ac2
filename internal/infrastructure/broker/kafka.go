// Package broker delivers outbox messages to Kafka. The relay in the worker
// process hands each pending outbox row to the Publisher here; the event key
// is the aggregate ID so all events of one document land in the same
// partition, in order.
package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"lotkeeper/internal/infrastructure/storage/postgres"
	"lotkeeper/pkg/logger"
)

// Config holds Kafka connection settings.
type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
	BatchSize    int
}

// DefaultConfig returns settings suitable for a local broker.
func DefaultConfig(brokers []string, topic string) Config {
	return Config{
		Brokers:      brokers,
		Topic:        topic,
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}
}

// Publisher writes stock events to a Kafka topic. Implements
// postgres.OutboxHandler.
type Publisher struct {
	writer *kafka.Writer
	topic  string
}

// NewPublisher creates a Kafka publisher.
func NewPublisher(cfg Config) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: cfg.BatchTimeout,
		BatchSize:    cfg.BatchSize,
		RequiredAcks: kafka.RequireAll,
	}

	return &Publisher{writer: writer, topic: cfg.Topic}
}

// Handle publishes one outbox message to Kafka.
func (p *Publisher) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	kafkaMsg := kafka.Message{
		Key:   []byte(msg.AggregateID.String()),
		Value: msg.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(msg.EventType)},
			{Key: "aggregate_type", Value: []byte(msg.AggregateType)},
			{Key: "message_id", Value: []byte(msg.ID.String())},
		},
		Time: msg.CreatedAt,
	}

	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		return fmt.Errorf("write kafka message: %w", err)
	}

	logger.Debug(ctx, "event published",
		"topic", p.topic,
		"event_type", msg.EventType,
		"aggregate_id", msg.AggregateID.String(),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Ensure interface compliance.
var _ postgres.OutboxHandler = (*Publisher)(nil)
