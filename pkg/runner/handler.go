package runner

import (
	"context"

	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
)

// Frame is what a handler presents: the projection of the run plus the decoded current step.
type Frame struct {
	View controller.View
	// Step is nil when there is nothing to render (completed, error).
	Step domain.Step
}

// NewFrame captures the current state of c.
func NewFrame(c *controller.Controller) Frame {
	f := Frame{View: c.View()}
	if step, ok := c.CurrentStep(); ok {
		f.Step = step
	}
	return f
}

// Terminal reports whether the run has nothing left to ask.
func (f Frame) Terminal() bool {
	return f.View.Completed || f.View.Phase == domain.PhaseLeadConfirmed
}

// IOHandler defines the strategy for interacting with the respondent.
// This allows switching between Text (CLI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the frame to the respondent.
	Output(ctx context.Context, frame Frame) error

	// Input reads the respondent's next intent for the frame.
	// It returns io.EOF when the respondent quits.
	Input(ctx context.Context, frame Frame) (controller.Intent, error)

	// Confirm asks a yes/no question outside the funnel content.
	Confirm(ctx context.Context, prompt string) (bool, error)

	// SystemOutput presents a meta-message (rejected input, status updates).
	// This is distinct from content rendering.
	SystemOutput(ctx context.Context, msg string) error
}

// ContentRenderer transforms titles and prompts before they are printed.
// This allows markdown rendering (glamour) without coupling this package to it.
type ContentRenderer func(string) (string, error)
