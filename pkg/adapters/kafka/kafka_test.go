package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// topic is an in-memory log that acts as both writer and reader.
type topic struct {
	mu        sync.Mutex
	messages  []kafka.Message
	next      int
	committed []int64
	fail      error
}

func (t *topic) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.fail != nil {
		return t.fail
	}
	for _, m := range msgs {
		m.Offset = int64(len(t.messages))
		t.messages = append(t.messages, m)
	}
	return nil
}

func (t *topic) FetchMessage(ctx context.Context) (kafka.Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.next >= len(t.messages) {
		return kafka.Message{}, context.Canceled
	}
	m := t.messages[t.next]
	t.next++
	return m, nil
}

func (t *topic) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range msgs {
		t.committed = append(t.committed, m.Offset)
	}
	return nil
}

func (t *topic) Close() error { return nil }

func sampleSubmission(id, funnelID string) domain.Submission {
	return domain.Submission{
		ID:        id,
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Contact:   domain.ContactInfo{Name: "Ana"},
		FunnelID:  funnelID,
		Origin:    domain.OriginRemote,
	}
}

func TestPublisher_Publish(t *testing.T) {
	log := &topic{}
	p := newPublisher(log, "funnel.submissions")

	require.NoError(t, p.Publish(context.Background(), sampleSubmission("lead-1", "f1")))
	require.NoError(t, p.Publish(context.Background(), sampleSubmission("local-2", "")))

	require.Len(t, log.messages, 2)
	first := log.messages[0]
	assert.Equal(t, "funnel.submissions", first.Topic)
	assert.Equal(t, "f1", string(first.Key))
	assert.Equal(t, "local-2", string(log.messages[1].Key), "local submissions are keyed by id")

	headers := map[string]string{}
	for _, h := range first.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, EventSubmissionRecorded, headers[HeaderEventType])
	assert.Equal(t, "remote", headers[HeaderOrigin])

	var ev Event
	require.NoError(t, json.Unmarshal(first.Value, &ev))
	assert.Equal(t, "lead-1", ev.Submission.ID)
}

func TestPublisher_WriteFailure(t *testing.T) {
	log := &topic{fail: errors.New("broker down")}
	err := newPublisher(log, "t").Publish(context.Background(), sampleSubmission("x", "f"))
	assert.ErrorContains(t, err, "broker down")
}

func TestConsumer_Run(t *testing.T) {
	log := &topic{}
	p := newPublisher(log, "t")
	ctx := context.Background()

	require.NoError(t, p.Publish(ctx, sampleSubmission("ok-1", "f1")))
	require.NoError(t, log.WriteMessages(ctx, kafka.Message{Value: []byte("garbage")}))
	require.NoError(t, p.Publish(ctx, sampleSubmission("fails", "f1")))
	require.NoError(t, p.Publish(ctx, sampleSubmission("ok-2", "f1")))

	var handled []string
	c := newConsumer(log, nil)
	cctx, cancel := context.WithCancel(ctx)
	cancel() // FetchMessage reports cancellation once the log is drained.

	err := c.Run(cctx, func(ctx context.Context, sub domain.Submission) error {
		handled = append(handled, sub.ID)
		if sub.ID == "fails" {
			return errors.New("analysis failed")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"ok-1", "fails", "ok-2"}, handled)
	assert.Equal(t, []int64{0, 1, 3}, log.committed, "malformed messages are skipped, failed ones stay uncommitted")
}
