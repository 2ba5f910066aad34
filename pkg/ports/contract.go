package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(sessionID string) *domain.Snapshot {
	doc := &domain.Document{Steps: []domain.Step{
		&domain.Question{ID: "q1", Prompt: "Why?", Input: domain.AnswerInput{Type: domain.InputText}},
		&domain.LeadCapture{ID: "lead", Title: "Contact"},
	}}
	return &domain.Snapshot{
		SessionID:  sessionID,
		Document:   doc,
		Navigation: domain.NavigationState{CurrentStepID: "lead", History: []string{"q1", "lead"}},
		Answers:    domain.NewAnswerStore().Record("q1", domain.TextAnswer("because")),
		Phase:      domain.PhaseInProgress,
		UpdatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore implementation
// adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot(sessionID)

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.Navigation, loaded.Navigation)
		assert.Equal(t, snap.Phase, loaded.Phase)
		require.NotNil(t, loaded.Document)
		assert.Equal(t, 2, loaded.Document.Len())

		answer, ok := loaded.Answers.Get("q1")
		require.True(t, ok, "answers must survive persistence")
		assert.Equal(t, "because", answer.Text)
	})

	t.Run("Load Returns Independent Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		loaded.Navigation.History[0] = "tampered"

		again, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, "q1", again.Navigation.History[0])
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		require.NoError(t, store.Save(ctx, id1, contractSnapshot(id1)))
		require.NoError(t, store.Save(ctx, id2, contractSnapshot(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunSubmissionStoreContract verifies a SubmissionStore implementation.
func RunSubmissionStoreContract(t *testing.T, store SubmissionStore) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	older := domain.Submission{
		ID:        "local-1",
		Timestamp: base,
		Contact:   domain.ContactInfo{Name: "Ana", Email: "ana@example.com", Consent: true},
		Answers: []domain.AnalyzedAnswer{
			{QuestionID: "q1", QuestionText: "Why?", Answer: domain.TextAnswer("because")},
		},
		FunnelID: "f1",
		Origin:   domain.OriginLocal,
	}
	newer := domain.Submission{
		ID:        "remote-2",
		Timestamp: base.Add(time.Hour),
		Contact:   domain.ContactInfo{Name: "Bo"},
		FunnelID:  "f2",
		Origin:    domain.OriginRemote,
	}

	t.Run("Save and Get", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, older))

		got, err := store.Get(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, older.Contact, got.Contact)
		assert.True(t, older.Timestamp.Equal(got.Timestamp))
		require.Len(t, got.Answers, 1)
		assert.Equal(t, "because", got.Answers[0].Answer.Text)
		assert.Equal(t, domain.OriginLocal, got.Origin)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
	})

	t.Run("List Newest First", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, newer))

		all, err := store.List(ctx, "")
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(all), 2)
		assert.Equal(t, newer.ID, all[0].ID)

		filtered, err := store.List(ctx, "f1")
		require.NoError(t, err)
		require.Len(t, filtered, 1)
		assert.Equal(t, older.ID, filtered[0].ID)
	})

	t.Run("Annotate", func(t *testing.T) {
		analysis := domain.Analysis{Sentiment: domain.SentimentPositive, Keywords: []string{"growth"}, Summary: "Optimistic"}
		require.NoError(t, store.Annotate(ctx, older.ID, "q1", analysis))

		got, err := store.Get(ctx, older.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Answers[0].Analysis)
		assert.Equal(t, analysis, *got.Answers[0].Analysis)

		err = store.Annotate(ctx, "missing", "q1", analysis)
		assert.ErrorIs(t, err, domain.ErrSubmissionNotFound)
	})
}
