package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
)

// Engine is the navigation state machine of a funnel run.
// It holds no run state: every operation takes a NavigationState and returns a new one.
type Engine struct {
	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates a new engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start positions a run on the first step of doc.
// Step ids must be non-empty and unique, since navigation is tracked by id.
func (e *Engine) Start(ctx context.Context, doc *domain.Document) (domain.NavigationState, error) {
	if doc.Len() == 0 {
		return domain.NavigationState{}, domain.ErrEmptyDocument
	}
	if err := checkStepIDs(doc); err != nil {
		e.logger.Error("invalid step ids", "error", err)
		return domain.NavigationState{}, err
	}

	first := doc.Steps[0]
	state := domain.NavigationState{
		CurrentStepID: first.StepID(),
		History:       []string{first.StepID()},
	}

	e.logger.Debug("run started", "step", first.StepID(), "steps", doc.Len())
	e.emitStepEnter(ctx, doc, first.StepID())
	return state, nil
}

func checkStepIDs(doc *domain.Document) error {
	seen := make(map[string]struct{}, doc.Len())
	for i, step := range doc.Steps {
		id := step.StepID()
		if _, dup := seen[id]; dup || id == "" {
			return &domain.StepIDError{StepID: id, Index: i}
		}
		seen[id] = struct{}{}
	}
	return nil
}

// IsTerminal reports whether the run has moved past the last step.
func (e *Engine) IsTerminal(state domain.NavigationState, doc *domain.Document) bool {
	return state.Completed || CurrentIndex(state, doc) >= doc.Len()
}

// CurrentIndex returns the position of the current step. A completed run is
// positioned at len(steps). An inconsistent state returns -1.
func CurrentIndex(state domain.NavigationState, doc *domain.Document) int {
	if state.Completed {
		return doc.Len()
	}
	return doc.IndexOf(state.CurrentStepID)
}

func (e *Engine) event(t domain.EventType, doc *domain.Document, stepID string) *domain.StepEvent {
	ev := &domain.StepEvent{
		EventBase: domain.EventBase{Timestamp: e.now(), Type: t},
		StepID:    stepID,
		Index:     doc.IndexOf(stepID),
	}
	if s, ok := doc.StepByID(stepID); ok {
		ev.StepKind = s.Kind()
	}
	return ev
}

func (e *Engine) emitStepEnter(ctx context.Context, doc *domain.Document, stepID string) {
	if e.hooks.OnStepEnter != nil {
		e.hooks.OnStepEnter(ctx, e.event(domain.EventStepEnter, doc, stepID))
	}
}

func (e *Engine) emitStepLeave(ctx context.Context, doc *domain.Document, stepID string) {
	if e.hooks.OnStepLeave != nil {
		e.hooks.OnStepLeave(ctx, e.event(domain.EventStepLeave, doc, stepID))
	}
}

func (e *Engine) emitCompleted(ctx context.Context, doc *domain.Document, lastStepID string) {
	if e.hooks.OnCompleted != nil {
		e.hooks.OnCompleted(ctx, e.event(domain.EventCompleted, doc, lastStepID))
	}
}
