package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// Mask replaces masked values.
const Mask = "***"

type piiMiddleware struct {
	next     ports.SessionStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks answers whose question id matches
// one of the patterns, and contact fields (name, email, phone) whose name matches.
// Masking is one-way: a resumed run sees the masked values.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		patterns[i] = re
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	// Copy to avoid side effects on the snapshot held by the caller.
	masked := *snap

	// AnswerStore.Record returns a new store, so the caller's answers are untouched.
	for _, id := range snap.Answers.Keys() {
		if m.matches(id) {
			masked.Answers = masked.Answers.Record(id, domain.TextAnswer(Mask))
		}
	}

	if snap.Submission != nil {
		sub := *snap.Submission
		sub.Contact = m.maskContact(sub.Contact)
		sub.Answers = make([]domain.AnalyzedAnswer, len(snap.Submission.Answers))
		for i, a := range snap.Submission.Answers {
			if m.matches(a.QuestionID) {
				a.Answer = domain.TextAnswer(Mask)
			}
			sub.Answers[i] = a
		}
		masked.Submission = &sub
	}

	return m.next.Save(ctx, sessionID, &masked)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

// Helpers

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func (m *piiMiddleware) maskContact(c domain.ContactInfo) domain.ContactInfo {
	fields := []struct {
		name  string
		value *string
	}{
		{"name", &c.Name},
		{"email", &c.Email},
		{"phone", &c.Phone},
	}
	for _, f := range fields {
		if *f.value != "" && m.matches(f.name) {
			*f.value = Mask
		}
	}
	return c
}
