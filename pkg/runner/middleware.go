package runner

import (
	"context"
	"fmt"

	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
)

// IntentInterceptor is a middleware that can block an intent before it reaches the controller.
// It returns true if the intent should be dispatched.
type IntentInterceptor func(ctx context.Context, frame Frame, in controller.Intent) (bool, error)

// MultiInterceptor chains multiple interceptors.
func MultiInterceptor(interceptors ...IntentInterceptor) IntentInterceptor {
	return func(ctx context.Context, frame Frame, in controller.Intent) (bool, error) {
		for _, interceptor := range interceptors {
			allowed, err := interceptor(ctx, frame, in)
			if err != nil {
				return false, err // System Error
			}
			if !allowed {
				return false, nil // Blocked by policy
			}
		}
		return true, nil
	}
}

// ConfirmationMiddleware asks the respondent before contact info is sent.
// Restart is confirmed too, because it discards every answer.
func ConfirmationMiddleware(handler IOHandler) IntentInterceptor {
	return func(ctx context.Context, frame Frame, in controller.Intent) (bool, error) {
		var prompt string
		switch in.Type {
		case controller.IntentSubmit:
			prompt = "Send your answers and contact info?"
			if lead, ok := frame.Step.(*domain.LeadCapture); ok && lead.Title != "" {
				prompt = fmt.Sprintf("%s: send your answers and contact info?", lead.Title)
			}
		case controller.IntentRestart:
			if frame.View.Phase != domain.PhaseInProgress {
				return true, nil
			}
			prompt = "Start over and discard your answers?"
		default:
			return true, nil
		}
		return handler.Confirm(ctx, prompt)
	}
}

// AutoApproveMiddleware allows everything.
func AutoApproveMiddleware() IntentInterceptor {
	return func(ctx context.Context, frame Frame, in controller.Intent) (bool, error) {
		return true, nil
	}
}
