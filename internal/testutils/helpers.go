package testutils

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/require"
)

// SampleDocument returns a five step funnel:
//
//	welcome -> q1 (buttons, "expert" branches to q3) -> q2 (text) -> q3 (voice) -> lead
func SampleDocument() *domain.Document {
	return &domain.Document{
		Steps: []domain.Step{
			&domain.Welcome{ID: "welcome", Title: "Find your plan", ButtonText: "Start"},
			&domain.Question{
				ID:     "q1",
				Prompt: "How much experience do you have?",
				Input:  domain.AnswerInput{Type: domain.InputButtons},
				Options: []domain.Option{
					{ID: "beginner", Text: "Beginner"},
					{ID: "expert", Text: "Expert", NextStepID: "q3"},
				},
			},
			&domain.Question{ID: "q2", Prompt: "What do you want to learn?", Input: domain.AnswerInput{Type: domain.InputText}},
			&domain.Question{ID: "q3", Prompt: "Tell us about your goals", Input: domain.AnswerInput{Type: domain.InputVoice}},
			&domain.LeadCapture{
				ID:               "lead",
				Title:            "Almost there",
				NamePlaceholder:  "Your name",
				EmailPlaceholder: "you@example.com",
				ButtonText:       "Send",
			},
		},
		RedirectURL: "https://example.com/thanks",
	}
}

// QuestionsDocument returns a document made only of text questions with the given ids.
func QuestionsDocument(ids ...string) *domain.Document {
	doc := &domain.Document{}
	for _, id := range ids {
		doc.Steps = append(doc.Steps, &domain.Question{
			ID:     id,
			Prompt: "Question " + id,
			Input:  domain.AnswerInput{Type: domain.InputText},
		})
	}
	return doc
}

// ParseDocument decodes a JSON document and fails the test on error.
func ParseDocument(t *testing.T, raw string) *domain.Document {
	t.Helper()

	var doc domain.Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc), "Failed to decode document")
	return &doc
}
