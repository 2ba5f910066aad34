package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/segmentio/kafka-go"
)

// Handler processes one submission. Returning an error leaves the message uncommitted.
type Handler func(ctx context.Context, sub domain.Submission) error

// messageReader is the subset of *kafka.Reader used by the Consumer.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads submission events from a topic.
type Consumer struct {
	reader messageReader
	logger *slog.Logger
}

// NewConsumer creates a Consumer in the given consumer group.
func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger) (*Consumer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" || groupID == "" {
		return nil, fmt.Errorf("topic and group ID are required")
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return newConsumer(r, logger), nil
}

func newConsumer(r messageReader, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Consumer{reader: r, logger: logger.With("component", "kafka_consumer")}
}

// Run fetches messages until ctx is done. Malformed messages are committed and skipped;
// handler failures are logged and the message is left for redelivery.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to fetch message: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil || ev.Type != EventSubmissionRecorded {
			c.logger.WarnContext(ctx, "skipping malformed message", "offset", msg.Offset, "error", err)
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.logger.ErrorContext(ctx, "failed to commit message", "offset", msg.Offset, "error", err)
			}
			continue
		}

		if err := handle(ctx, ev.Submission); err != nil {
			c.logger.ErrorContext(ctx, "failed to process submission", "id", ev.Submission.ID, "error", err)
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.ErrorContext(ctx, "failed to commit message", "offset", msg.Offset, "error", err)
		}
	}
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
