package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
)

// Submissions implements ports.SubmissionStore in memory.
type Submissions struct {
	mu   sync.RWMutex
	data map[string]domain.Submission
}

// NewSubmissions creates an empty submission store.
func NewSubmissions() *Submissions {
	return &Submissions{data: make(map[string]domain.Submission)}
}

func (s *Submissions) Save(ctx context.Context, sub domain.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sub.ID] = copySubmission(sub)
	return nil
}

func (s *Submissions) Get(ctx context.Context, id string) (domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.data[id]
	if !ok {
		return domain.Submission{}, domain.ErrSubmissionNotFound
	}
	return copySubmission(sub), nil
}

func (s *Submissions) List(ctx context.Context, funnelID string) ([]domain.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Submission, 0, len(s.data))
	for _, sub := range s.data {
		if funnelID != "" && sub.FunnelID != funnelID {
			continue
		}
		out = append(out, copySubmission(sub))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Submissions) Annotate(ctx context.Context, id, questionID string, analysis domain.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.data[id]
	if !ok {
		return domain.ErrSubmissionNotFound
	}
	sub = copySubmission(sub)
	for i := range sub.Answers {
		if sub.Answers[i].QuestionID == questionID {
			a := analysis
			sub.Answers[i].Analysis = &a
		}
	}
	s.data[id] = sub
	return nil
}

func copySubmission(src domain.Submission) domain.Submission {
	next := src
	next.Answers = append([]domain.AnalyzedAnswer(nil), src.Answers...)
	return next
}
