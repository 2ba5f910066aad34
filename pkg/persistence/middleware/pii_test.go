package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPIIMiddleware_Masking(t *testing.T) {
	// Setup
	underlyingStore := memory.NewStore()
	// Mask questions about income and the contact email/phone
	mw, err := middleware.NewPIIMiddleware([]string{"income", "^email$", "^phone$"})
	require.NoError(t, err)
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	sessionID := "pii-session"

	snap := secretSnapshot(sessionID, "120k")
	snap.Answers = snap.Answers.Record("goal", domain.TextAnswer("learn go"))
	snap.Phase = domain.PhaseLeadConfirmed
	snap.Submission = &domain.Submission{
		ID:      "local-1",
		Contact: domain.ContactInfo{Name: "Ada", Email: "ada@example.com", Phone: "555"},
		Answers: []domain.AnalyzedAnswer{
			{QuestionID: "income", Answer: domain.TextAnswer("120k")},
			{QuestionID: "goal", Answer: domain.TextAnswer("learn go")},
		},
	}

	require.NoError(t, secureStore.Save(ctx, sessionID, snap))

	stored, err := underlyingStore.Load(ctx, sessionID)
	require.NoError(t, err)

	income, _ := stored.Answers.Get("income")
	goal, _ := stored.Answers.Get("goal")
	assert.Equal(t, middleware.Mask, income.Text)
	assert.Equal(t, "learn go", goal.Text)

	require.NotNil(t, stored.Submission)
	assert.Equal(t, "Ada", stored.Submission.Contact.Name)
	assert.Equal(t, middleware.Mask, stored.Submission.Contact.Email)
	assert.Equal(t, middleware.Mask, stored.Submission.Contact.Phone)
	assert.Equal(t, middleware.Mask, stored.Submission.Answers[0].Answer.Text)
	assert.Equal(t, "learn go", stored.Submission.Answers[1].Answer.Text)

	// The caller's snapshot is untouched
	original, _ := snap.Answers.Get("income")
	assert.Equal(t, "120k", original.Text)
	assert.Equal(t, "ada@example.com", snap.Submission.Contact.Email)
	assert.Equal(t, "120k", snap.Submission.Answers[0].Answer.Text)
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	underlyingStore := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"income"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	// PII runs first, then the masked snapshot is sealed
	store := middleware.Chain(underlyingStore, pii, enc)

	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "s", secretSnapshot("s", "120k")))

	raw, err := underlyingStore.Load(ctx, "s")
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Sealed)

	loaded, err := store.Load(ctx, "s")
	require.NoError(t, err)
	income, _ := loaded.Answers.Get("income")
	assert.Equal(t, middleware.Mask, income.Text)

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s"}, ids)
	require.NoError(t, store.Delete(ctx, "s"))
}
