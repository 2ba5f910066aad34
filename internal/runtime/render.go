package runtime

import (
	"fmt"

	"github.com/aretw0/funnel/pkg/domain"
)

// Resolve returns the step the run is positioned on. It fails with
// ErrUnknownStepType when that step is not one of the known variants, and
// returns (nil, nil) for a completed run.
func Resolve(state domain.NavigationState, doc *domain.Document) (domain.Step, error) {
	if state.Completed {
		return nil, nil
	}

	step, ok := doc.StepByID(state.CurrentStepID)
	if !ok {
		return nil, fmt.Errorf("current step %q: %w", state.CurrentStepID, domain.ErrStepNotFound)
	}

	switch v := step.(type) {
	case *domain.Welcome, *domain.Question, *domain.Message, *domain.LeadCapture:
		return step, nil
	case *domain.UnknownStep:
		return nil, &domain.StepTypeError{StepID: v.ID, Type: v.RawType}
	default:
		return nil, &domain.StepTypeError{StepID: step.StepID(), Type: fmt.Sprintf("%T", step)}
	}
}
