package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/funnel/pkg/domain"
)

// LogHooks returns lifecycle hooks that write one structured line per event.
// Step events go to DEBUG, phase changes and submissions to INFO, errors to ERROR.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_enter", "step_id", e.StepID, "kind", e.StepKind, "index", e.Index)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "step_id", e.StepID, "kind", e.StepKind, "index", e.Index)
		},
		OnCompleted: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "run_completed", "last_step", e.StepID)
		},
		OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
			if e.To == domain.PhaseError {
				logger.ErrorContext(ctx, "phase_change", "from", e.From, "to", e.To, "error_kind", e.ErrorKind)
				return
			}
			logger.InfoContext(ctx, "phase_change", "from", e.From, "to", e.To)
		},
		OnSubmission: func(ctx context.Context, e *domain.SubmissionEvent) {
			logger.InfoContext(ctx, "submission", "id", e.SubmissionID, "origin", e.Origin, "funnel", e.FunnelID)
		},
	}
}
