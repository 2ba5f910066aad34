package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/internal/testutils"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_Start(t *testing.T) {
	engine := runtime.NewEngine()
	ctx := context.Background()

	t.Run("First Step", func(t *testing.T) {
		state, err := engine.Start(ctx, testutils.SampleDocument())
		require.NoError(t, err)
		assert.Equal(t, "welcome", state.CurrentStepID)
		assert.Equal(t, []string{"welcome"}, state.History)
		assert.False(t, state.Completed)
	})

	t.Run("Empty Document", func(t *testing.T) {
		_, err := engine.Start(ctx, &domain.Document{})
		if !errors.Is(err, domain.ErrEmptyDocument) {
			t.Fatalf("Expected ErrEmptyDocument, got %v", err)
		}
		assert.Equal(t, domain.ErrorKindEmptyDocument, domain.KindOf(err))
	})

	t.Run("Duplicate Step ID", func(t *testing.T) {
		_, err := engine.Start(ctx, testutils.QuestionsDocument("a", "b", "a", "c"))
		var idErr *domain.StepIDError
		require.ErrorAs(t, err, &idErr)
		assert.Equal(t, "a", idErr.StepID)
		assert.Equal(t, 2, idErr.Index)
		assert.Equal(t, domain.ErrorKindInvalidStepID, domain.KindOf(err))
	})

	t.Run("Empty Step ID", func(t *testing.T) {
		_, err := engine.Start(ctx, testutils.QuestionsDocument("a", ""))
		assert.ErrorIs(t, err, domain.ErrInvalidStepID)
	})
}

func TestEngine_AdvanceSequential(t *testing.T) {
	engine := runtime.NewEngine()
	ctx := context.Background()
	doc := testutils.QuestionsDocument("q1", "q2")

	state, err := engine.Start(ctx, doc)
	require.NoError(t, err)

	state, err = engine.Advance(ctx, state, doc, "")
	require.NoError(t, err)
	assert.Equal(t, "q2", state.CurrentStepID)
	assert.Equal(t, []string{"q1", "q2"}, state.History)
	assert.Equal(t, 1, runtime.CurrentIndex(state, doc))

	state, err = engine.Advance(ctx, state, doc, "")
	require.NoError(t, err)
	assert.True(t, state.Completed)
	assert.Empty(t, state.CurrentStepID)
	assert.Equal(t, doc.Len(), runtime.CurrentIndex(state, doc))
	assert.True(t, engine.IsTerminal(state, doc))

	_, err = engine.Advance(ctx, state, doc, "")
	assert.ErrorIs(t, err, domain.ErrRunCompleted)
}

func TestEngine_AdvanceBranch(t *testing.T) {
	engine := runtime.NewEngine()
	ctx := context.Background()
	doc := testutils.QuestionsDocument("q1", "q2", "q3")

	state, _ := engine.Start(ctx, doc)

	t.Run("Valid Target", func(t *testing.T) {
		next, err := engine.Advance(ctx, state, doc, "q3")
		require.NoError(t, err)
		assert.Equal(t, "q3", next.CurrentStepID)
		assert.Equal(t, []string{"q1", "q3"}, next.History)
	})

	t.Run("Invalid Target", func(t *testing.T) {
		next, err := engine.Advance(ctx, state, doc, "missing")

		var branchErr *domain.BranchError
		require.ErrorAs(t, err, &branchErr)
		assert.Equal(t, "q1", branchErr.StepID)
		assert.Equal(t, "missing", branchErr.Target)
		assert.ErrorIs(t, err, domain.ErrInvalidBranchTarget)
		assert.Equal(t, state, next, "state must not change on failure")
	})

	t.Run("Target Equals Current", func(t *testing.T) {
		next, err := engine.Advance(ctx, state, doc, "q1")
		require.NoError(t, err)
		assert.Equal(t, []string{"q1", "q1"}, next.History)
	})
}

func TestEngine_AdvanceDoesNotMutateInput(t *testing.T) {
	engine := runtime.NewEngine()
	ctx := context.Background()
	doc := testutils.QuestionsDocument("q1", "q2", "q3")

	state := domain.NavigationState{CurrentStepID: "q1", History: make([]string, 1, 8)}
	state.History[0] = "q1"

	a, err := engine.Advance(ctx, state, doc, "q2")
	require.NoError(t, err)
	b, err := engine.Advance(ctx, state, doc, "q3")
	require.NoError(t, err)

	assert.Equal(t, []string{"q1"}, state.History)
	assert.Equal(t, []string{"q1", "q2"}, a.History)
	assert.Equal(t, []string{"q1", "q3"}, b.History)
}

func TestEngine_Retreat(t *testing.T) {
	engine := runtime.NewEngine()
	ctx := context.Background()
	doc := testutils.SampleDocument()

	t.Run("No-op At First Step", func(t *testing.T) {
		state, _ := engine.Start(ctx, doc)
		assert.Equal(t, state, engine.Retreat(ctx, state, doc))
	})

	t.Run("Pops Literal History After Branch", func(t *testing.T) {
		state, _ := engine.Start(ctx, doc)
		state, _ = engine.Advance(ctx, state, doc, "")
		state, err := engine.Advance(ctx, state, doc, "q3")
		require.NoError(t, err)
		require.Equal(t, []string{"welcome", "q1", "q3"}, state.History)

		back := engine.Retreat(ctx, state, doc)
		assert.Equal(t, "q1", back.CurrentStepID, "back returns to the branching question, not q2")
		assert.Equal(t, []string{"welcome", "q1"}, back.History)
	})

	t.Run("No-op When Completed", func(t *testing.T) {
		short := testutils.QuestionsDocument("only")
		state, _ := engine.Start(ctx, short)
		state, err := engine.Advance(ctx, state, short, "")
		require.NoError(t, err)
		require.True(t, state.Completed)

		assert.Equal(t, state, engine.Retreat(ctx, state, short))
	})
}

func TestEngine_JumpTo(t *testing.T) {
	engine := runtime.NewEngine()
	ctx := context.Background()
	doc := testutils.SampleDocument()

	state, _ := engine.Start(ctx, doc)
	state, _ = engine.Advance(ctx, state, doc, "")

	jumped, err := engine.JumpTo(ctx, state, doc, "lead")
	require.NoError(t, err)
	assert.Equal(t, "lead", jumped.CurrentStepID)
	assert.Equal(t, []string{"lead"}, jumped.History)

	_, err = engine.JumpTo(ctx, state, doc, "nowhere")
	assert.ErrorIs(t, err, domain.ErrStepNotFound)
}

func TestEngine_IsTerminalOnInconsistentState(t *testing.T) {
	engine := runtime.NewEngine()
	doc := testutils.SampleDocument()

	state := domain.NavigationState{CurrentStepID: "ghost", History: []string{"ghost"}}
	assert.False(t, engine.IsTerminal(state, doc))
	assert.Equal(t, -1, runtime.CurrentIndex(state, doc))

	_, err := engine.Advance(context.Background(), state, doc, "")
	assert.ErrorIs(t, err, domain.ErrStepNotFound)
}

func TestResolve(t *testing.T) {
	doc := testutils.ParseDocument(t, `{"steps": [{"id": "w", "type": 0, "title": "Hi"}, {"id": "x", "type": 9}]}`)

	step, err := runtime.Resolve(domain.NavigationState{CurrentStepID: "w"}, doc)
	require.NoError(t, err)
	assert.Equal(t, domain.KindWelcome, step.Kind())

	_, err = runtime.Resolve(domain.NavigationState{CurrentStepID: "x"}, doc)
	var typeErr *domain.StepTypeError
	require.ErrorAs(t, err, &typeErr)
	assert.Equal(t, "9", typeErr.Type)
	assert.Equal(t, domain.ErrorKindUnknownStepType, domain.KindOf(err))

	step, err = runtime.Resolve(domain.NavigationState{Completed: true}, doc)
	assert.NoError(t, err)
	assert.Nil(t, step)
}
