package runner

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockIOHandler records prompts and answers Confirm from a script.
type MockIOHandler struct {
	Prompts  []string
	Answers  []bool
	System   []string
	InputErr error
}

func (m *MockIOHandler) Output(ctx context.Context, frame Frame) error { return nil }

func (m *MockIOHandler) Input(ctx context.Context, frame Frame) (controller.Intent, error) {
	return controller.Intent{}, m.InputErr
}

func (m *MockIOHandler) Confirm(ctx context.Context, prompt string) (bool, error) {
	m.Prompts = append(m.Prompts, prompt)
	if len(m.Answers) == 0 {
		return false, errors.New("no scripted answer")
	}
	ok := m.Answers[0]
	m.Answers = m.Answers[1:]
	return ok, nil
}

func (m *MockIOHandler) SystemOutput(ctx context.Context, msg string) error {
	m.System = append(m.System, msg)
	return nil
}

func leadFrame() Frame {
	return Frame{
		View: controller.View{Phase: domain.PhaseInProgress},
		Step: &domain.LeadCapture{ID: "lead", Title: "Almost there"},
	}
}

func TestConfirmationMiddleware(t *testing.T) {
	mock := &MockIOHandler{Answers: []bool{true, false}}
	mw := ConfirmationMiddleware(mock)

	submit := controller.Intent{Type: controller.IntentSubmit}
	allowed, err := mw(t.Context(), leadFrame(), submit)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = mw(t.Context(), leadFrame(), controller.Intent{Type: controller.IntentRestart})
	require.NoError(t, err)
	assert.False(t, allowed)

	require.Len(t, mock.Prompts, 2)
	assert.Equal(t, "Almost there: send your answers and contact info?", mock.Prompts[0])
	assert.Equal(t, "Start over and discard your answers?", mock.Prompts[1])
}

func TestConfirmationMiddleware_PassThrough(t *testing.T) {
	mock := &MockIOHandler{}
	mw := ConfirmationMiddleware(mock)

	allowed, err := mw(t.Context(), leadFrame(), controller.Intent{Type: controller.IntentBack})
	require.NoError(t, err)
	assert.True(t, allowed)

	done := Frame{View: controller.View{Phase: domain.PhaseCompleted, Completed: true}}
	allowed, err = mw(t.Context(), done, controller.Intent{Type: controller.IntentRestart})
	require.NoError(t, err)
	assert.True(t, allowed)

	assert.Empty(t, mock.Prompts)
}

func TestConfirmationMiddleware_Error(t *testing.T) {
	mw := ConfirmationMiddleware(&MockIOHandler{})
	_, err := mw(t.Context(), leadFrame(), controller.Intent{Type: controller.IntentSubmit})
	assert.Error(t, err)
}

func TestMultiInterceptor(t *testing.T) {
	deny := func(ctx context.Context, frame Frame, in controller.Intent) (bool, error) {
		return in.Type != controller.IntentSubmit, nil
	}
	calls := 0
	count := func(ctx context.Context, frame Frame, in controller.Intent) (bool, error) {
		calls++
		return true, nil
	}

	chain := MultiInterceptor(AutoApproveMiddleware(), deny, count)

	allowed, err := chain(t.Context(), leadFrame(), controller.Intent{Type: controller.IntentSubmit})
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 0, calls)

	allowed, err = chain(t.Context(), leadFrame(), controller.Intent{Type: controller.IntentBack})
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, calls)
}
