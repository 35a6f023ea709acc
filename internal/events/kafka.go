package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/imje/scheduled-helper/internal/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher announces finished runs on a Kafka topic.
type Publisher struct {
	writer messageWriter
	topic  string
}

// NewKafka creates a publisher for the given brokers and topic.
func NewKafka(brokers []string, topic string, maxAttempts int) *Publisher {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     brokers,
		Topic:       topic,
		MaxAttempts: maxAttempts,
		Balancer:    &kafka.Hash{},
	})
	return &Publisher{writer: w, topic: topic}
}

// Publish writes one event per run, keyed by run ID.
func (p *Publisher) Publish(ctx context.Context, result models.RunResult) error {
	value, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal run event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(result.RunID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "trigger", Value: []byte(result.Trigger)},
			{Key: "status", Value: []byte(result.Status)},
			{Key: "timestamp", Value: []byte(result.FinishedAt.UTC().Format(time.RFC3339))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run event to %s: %w", p.topic, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
