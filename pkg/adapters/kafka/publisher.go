package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer used by the Publisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements ports.SubmissionPublisher on Kafka.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPublisher creates a Publisher writing to topic on the given brokers.
func NewPublisher(brokers []string, topic string, opts ...PublisherOption) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{}, // same funnel, same partition
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		// Submissions are written one at a time; the default batch window is one second.
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		MaxAttempts:            3,
	}
	return newPublisher(w, topic, opts...), nil
}

func newPublisher(w messageWriter, topic string, opts ...PublisherOption) *Publisher {
	p := &Publisher{writer: w, topic: topic, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "kafka", "topic", topic)
	return p
}

// Publish writes one submission event, keyed by funnel id so a funnel's leads stay ordered.
func (p *Publisher) Publish(ctx context.Context, sub domain.Submission) error {
	data, err := json.Marshal(Event{Type: EventSubmissionRecorded, Submission: sub})
	if err != nil {
		return fmt.Errorf("failed to serialize submission: %w", err)
	}

	key := sub.FunnelID
	if key == "" {
		key = sub.ID
	}
	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(key),
		Value: data,
		Headers: []kafka.Header{
			{Key: HeaderEventType, Value: []byte(EventSubmissionRecorded)},
			{Key: HeaderOrigin, Value: []byte(sub.Origin)},
			{Key: HeaderFunnelID, Value: []byte(sub.FunnelID)},
		},
		Time: sub.Timestamp,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish submission: %w", err)
	}
	p.logger.DebugContext(ctx, "submission published", "id", sub.ID)
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
