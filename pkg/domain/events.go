package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter   EventType = "step_enter"
	EventStepLeave   EventType = "step_leave"
	EventCompleted   EventType = "completed"
	EventPhaseChange EventType = "phase_change"
	EventSubmission  EventType = "submission"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// StepEvent represents entry or exit from a step.
type StepEvent struct {
	EventBase
	StepID   string   `json:"step_id"`
	StepKind StepKind `json:"step_kind"`
	Index    int      `json:"index"`
}

// PhaseEvent represents a controller phase transition.
type PhaseEvent struct {
	EventBase
	From      Phase     `json:"from"`
	To        Phase     `json:"to"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

// SubmissionEvent is emitted once a submission has been finalized.
type SubmissionEvent struct {
	EventBase
	SubmissionID string `json:"submission_id"`
	Origin       Origin `json:"origin"`
	FunnelID     string `json:"funnel_id,omitempty"`
}

// LifecycleHooks defines callbacks for runtime observability.
type LifecycleHooks struct {
	OnStepEnter   func(context.Context, *StepEvent)
	OnStepLeave   func(context.Context, *StepEvent)
	OnCompleted   func(context.Context, *StepEvent)
	OnPhaseChange func(context.Context, *PhaseEvent)
	OnSubmission  func(context.Context, *SubmissionEvent)
}

// Merge returns hooks that call h first and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnStepEnter:   chain(h.OnStepEnter, other.OnStepEnter),
		OnStepLeave:   chain(h.OnStepLeave, other.OnStepLeave),
		OnCompleted:   chain(h.OnCompleted, other.OnCompleted),
		OnPhaseChange: chain(h.OnPhaseChange, other.OnPhaseChange),
		OnSubmission:  chain(h.OnSubmission, other.OnSubmission),
	}
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
