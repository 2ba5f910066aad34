package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Submissions implements ports.SubmissionStore using Redis.
// Submissions are stored as JSON and indexed in sorted sets scored by timestamp,
// one global and one per funnel.
type Submissions struct {
	client *backend.Client
	prefix string
}

// NewSubmissions creates a submission store on an existing client.
func NewSubmissions(client *backend.Client, opts ...Option) *Submissions {
	// Reuse Store options so callers configure both with the same knobs.
	cfg := &Store{prefix: DefaultPrefix + "submission:"}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Submissions{client: client, prefix: cfg.prefix}
}

func (s *Submissions) key(id string) string {
	return s.prefix + id
}

func (s *Submissions) indexKey(funnelID string) string {
	if funnelID == "" {
		return s.prefix + "index"
	}
	return s.prefix + "funnel:" + funnelID
}

// Save stores the submission, replacing any previous copy with the same id.
func (s *Submissions) Save(ctx context.Context, sub domain.Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal submission: %w", err)
	}

	score := float64(sub.Timestamp.UnixMilli())
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(sub.ID), data, 0)
	pipe.ZAdd(ctx, s.indexKey(""), backend.Z{Score: score, Member: sub.ID})
	if sub.FunnelID != "" {
		pipe.ZAdd(ctx, s.indexKey(sub.FunnelID), backend.Z{Score: score, Member: sub.ID})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save submission: %w", err)
	}
	return nil
}

// Get loads a submission by id.
func (s *Submissions) Get(ctx context.Context, id string) (domain.Submission, error) {
	val, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Submission{}, fmt.Errorf("submission %q: %w", id, domain.ErrSubmissionNotFound)
		}
		return domain.Submission{}, fmt.Errorf("failed to get submission: %w", err)
	}

	var sub domain.Submission
	if err := json.Unmarshal(val, &sub); err != nil {
		return domain.Submission{}, fmt.Errorf("failed to unmarshal submission: %w", err)
	}
	return sub, nil
}

// List returns submissions newest first. An empty funnelID lists all of them.
func (s *Submissions) List(ctx context.Context, funnelID string) ([]domain.Submission, error) {
	ids, err := s.client.ZRevRange(ctx, s.indexKey(funnelID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	out := make([]domain.Submission, 0, len(ids))
	for _, id := range ids {
		sub, err := s.Get(ctx, id)
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

// Annotate attaches an analysis to one answer. The read-modify-write is guarded
// with WATCH so concurrent annotations do not overwrite each other.
func (s *Submissions) Annotate(ctx context.Context, id, questionID string, analysis domain.Analysis) error {
	key := s.key(id)
	txf := func(tx *backend.Tx) error {
		val, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, backend.Nil) {
				return fmt.Errorf("submission %q: %w", id, domain.ErrSubmissionNotFound)
			}
			return err
		}

		var sub domain.Submission
		if err := json.Unmarshal(val, &sub); err != nil {
			return fmt.Errorf("failed to unmarshal submission: %w", err)
		}
		for i := range sub.Answers {
			if sub.Answers[i].QuestionID == questionID {
				a := analysis
				sub.Answers[i].Analysis = &a
			}
		}
		data, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("failed to marshal submission: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	const maxRetries = 5
	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, backend.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("annotate %q: too much contention", id)
}
