package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
)

// Advance moves forward from the current step. A non-empty target jumps to that
// step id; otherwise the run moves to the next step in document order, or
// completes when the current step is the last one.
func (e *Engine) Advance(ctx context.Context, state domain.NavigationState, doc *domain.Document, target string) (domain.NavigationState, error) {
	if state.Completed {
		return state, domain.ErrRunCompleted
	}

	idx := doc.IndexOf(state.CurrentStepID)
	if idx < 0 {
		return state, fmt.Errorf("current step %q: %w", state.CurrentStepID, domain.ErrStepNotFound)
	}

	if target != "" {
		if doc.IndexOf(target) < 0 {
			e.logger.Error("branch target not found", "step", state.CurrentStepID, "target", target)
			return state, &domain.BranchError{StepID: state.CurrentStepID, Target: target}
		}
		return e.transitionTo(ctx, state, doc, target), nil
	}

	if idx+1 >= doc.Len() {
		next := state.Clone()
		next.CurrentStepID = ""
		next.Completed = true

		e.logger.Debug("run completed", "last_step", state.CurrentStepID)
		e.emitStepLeave(ctx, doc, state.CurrentStepID)
		e.emitCompleted(ctx, doc, state.CurrentStepID)
		return next, nil
	}

	return e.transitionTo(ctx, state, doc, doc.Steps[idx+1].StepID()), nil
}

// Retreat returns to the previously visited step. It is a no-op when there is
// no previous step or when the run is completed.
func (e *Engine) Retreat(ctx context.Context, state domain.NavigationState, doc *domain.Document) domain.NavigationState {
	if state.Completed || len(state.History) <= 1 {
		return state
	}

	next := state.Clone()
	next.History = next.History[:len(next.History)-1]
	next.CurrentStepID = next.History[len(next.History)-1]

	e.logger.Debug("step back", "from", state.CurrentStepID, "to", next.CurrentStepID)
	e.emitStepLeave(ctx, doc, state.CurrentStepID)
	e.emitStepEnter(ctx, doc, next.CurrentStepID)
	return next
}

// JumpTo moves to an arbitrary step and resets history to just that step.
func (e *Engine) JumpTo(ctx context.Context, state domain.NavigationState, doc *domain.Document, stepID string) (domain.NavigationState, error) {
	if doc.IndexOf(stepID) < 0 {
		return state, fmt.Errorf("jump to %q: %w", stepID, domain.ErrStepNotFound)
	}

	if !state.Completed && state.CurrentStepID != "" {
		e.emitStepLeave(ctx, doc, state.CurrentStepID)
	}

	e.logger.Debug("jump", "to", stepID)
	e.emitStepEnter(ctx, doc, stepID)
	return domain.NavigationState{
		CurrentStepID: stepID,
		History:       []string{stepID},
	}, nil
}

func (e *Engine) transitionTo(ctx context.Context, state domain.NavigationState, doc *domain.Document, stepID string) domain.NavigationState {
	next := state.Clone()
	next.CurrentStepID = stepID
	next.History = append(next.History, stepID)

	e.logger.Debug("step", "from", state.CurrentStepID, "to", stepID)
	e.emitStepLeave(ctx, doc, state.CurrentStepID)
	e.emitStepEnter(ctx, doc, stepID)
	return next
}
