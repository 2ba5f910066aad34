package controller

import (
	"encoding/json"

	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/domain"
)

// CurrentStep returns the step to render. It is false before start, after
// completion and in the Error phase.
func (c *Controller) CurrentStep() (domain.Step, bool) {
	switch c.phase {
	case domain.PhaseInProgress, domain.PhaseLeadConfirmed:
	default:
		return nil, false
	}
	step, err := runtime.Resolve(c.nav, c.doc)
	if err != nil || step == nil {
		return nil, false
	}
	return step, true
}

// CurrentStepIndex returns the position of the current step, len(steps) once
// completed, and -1 before start.
func (c *Controller) CurrentStepIndex() int {
	if c.phase == domain.PhaseIdle {
		return -1
	}
	return runtime.CurrentIndex(c.nav, c.doc)
}

// IsCompleted reports whether the run moved past the last step.
func (c *Controller) IsCompleted() bool { return c.nav.Completed }

// CanGoBack reports whether OnBack would move.
func (c *Controller) CanGoBack() bool {
	return c.phase == domain.PhaseInProgress && !c.editing && len(c.nav.History) > 1
}

// Progress returns the 1-based position of the current step and the number of steps.
func (c *Controller) Progress() (current, total int) {
	total = c.doc.Len()
	idx := c.CurrentStepIndex()
	switch {
	case idx < 0:
		return 0, total
	case idx >= total:
		return total, total
	}
	return idx + 1, total
}

func (c *Controller) Phase() domain.Phase { return c.phase }

// Err returns the structural error that put the run in the Error phase.
func (c *Controller) Err() error { return c.err }

func (c *Controller) ErrorKind() domain.ErrorKind { return domain.KindOf(c.err) }

// ErrorDetail describes the structural error for the recovery screen, or nil.
func (c *Controller) ErrorDetail() *domain.ErrorDetail { return domain.DetailOf(c.err) }

func (c *Controller) Answers() domain.AnswerStore { return c.answers }

func (c *Controller) Navigation() domain.NavigationState { return c.nav.Clone() }

func (c *Controller) Document() *domain.Document { return c.doc }

func (c *Controller) Editing() bool { return c.editing }

func (c *Controller) RemoteFunnelID() string { return c.remoteFunnelID }

// Submission returns the confirmed submission, if any.
func (c *Controller) Submission() (domain.Submission, bool) {
	if c.submission == nil {
		return domain.Submission{}, false
	}
	return *c.submission, true
}

// RedirectTarget is where the host should send the lead once confirmed.
func (c *Controller) RedirectTarget() string {
	if c.phase != domain.PhaseLeadConfirmed {
		return ""
	}
	return c.doc.RedirectTarget()
}

// View is the renderable projection of a run.
type View struct {
	SessionID  string              `json:"sessionId,omitempty"`
	Phase      domain.Phase        `json:"phase"`
	ErrorKind  domain.ErrorKind    `json:"errorKind,omitempty"`
	Error      *domain.ErrorDetail `json:"error,omitempty"`
	Step       json.RawMessage     `json:"step,omitempty"`
	StepIndex  int                 `json:"stepIndex"`
	Position   int                 `json:"position"`
	TotalSteps int                 `json:"totalSteps"`
	CanGoBack  bool                `json:"canGoBack"`
	Completed  bool                `json:"completed"`
	Editing    bool                `json:"editing,omitempty"`
	Submission *domain.Submission  `json:"submission,omitempty"`
	Redirect   string              `json:"redirect,omitempty"`
}

// View builds the projection consumed by hosts.
func (c *Controller) View() View {
	pos, total := c.Progress()
	v := View{
		SessionID:  c.sessionID,
		Phase:      c.phase,
		ErrorKind:  c.ErrorKind(),
		Error:      c.ErrorDetail(),
		StepIndex:  c.CurrentStepIndex(),
		Position:   pos,
		TotalSteps: total,
		CanGoBack:  c.CanGoBack(),
		Completed:  c.IsCompleted(),
		Editing:    c.editing,
		Submission: c.submission,
		Redirect:   c.RedirectTarget(),
	}
	if step, ok := c.CurrentStep(); ok {
		if raw, err := domain.EncodeStep(step); err == nil {
			v.Step = raw
		}
	}
	return v
}

// Snapshot captures the run for persistence.
func (c *Controller) Snapshot() *domain.Snapshot {
	snap := &domain.Snapshot{
		SessionID:      c.sessionID,
		Document:       c.doc,
		Navigation:     c.nav.Clone(),
		Answers:        c.answers,
		Phase:          c.phase,
		ErrorKind:      c.ErrorKind(),
		ErrorDetail:    c.ErrorDetail(),
		RemoteFunnelID: c.remoteFunnelID,
		Editing:        c.editing,
		UpdatedAt:      c.now().UTC(),
	}
	if c.submission != nil {
		sub := *c.submission
		snap.Submission = &sub
	}
	return snap
}

// Restore rebuilds a Controller from a snapshot. Options other than the
// document, session and remote funnel id apply as in New.
func Restore(snap *domain.Snapshot, opts ...Option) *Controller {
	c := New(snap.Document, append(opts, WithSessionID(snap.SessionID), WithRemoteFunnelID(snap.RemoteFunnelID))...)
	c.nav = snap.Navigation.Clone()
	c.answers = snap.Answers
	c.phase = snap.Phase
	c.err = snap.ErrorKind.Err()
	if snap.ErrorDetail != nil {
		c.err = snap.ErrorDetail.Err()
	}
	c.editing = snap.Editing
	if snap.Submission != nil {
		sub := *snap.Submission
		c.submission = &sub
	}
	if c.phase == "" {
		c.phase = domain.PhaseIdle
	}
	return c
}
