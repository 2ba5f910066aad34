// Package controller orchestrates a funnel run.
//
// A Controller owns one run: the document, the navigation position, the answers
// and the lifecycle phase. Presentation layers send intents (OnStart, OnAnswer,
// OnBack, ...) and read projections (CurrentStep, Progress, View). Instances are
// independent and not safe for concurrent use; hosts that share runs across
// goroutines serialize access through pkg/session.
package controller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/runtime"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/recorder"
)

// Controller is the runtime of a single funnel run.
type Controller struct {
	engine   *runtime.Engine
	recorder *recorder.Recorder
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	now      func() time.Time

	sessionID      string
	doc            *domain.Document
	remoteFunnelID string

	nav        domain.NavigationState
	answers    domain.AnswerStore
	phase      domain.Phase
	err        error
	submission *domain.Submission
	editing    bool
}

// Option configures the Controller.
type Option func(*Controller)

// WithEngine sets the navigation engine.
func WithEngine(e *runtime.Engine) Option {
	return func(c *Controller) {
		c.engine = e
	}
}

// WithRecorder sets the submission recorder.
func WithRecorder(r *recorder.Recorder) Option {
	return func(c *Controller) {
		c.recorder = r
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLifecycleHooks registers lifecycle hooks. They also reach the default engine and
// recorder; instances given through WithEngine or WithRecorder keep their own hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Controller) {
		c.hooks = hooks
	}
}

// WithRemoteFunnelID binds the run to a published funnel so leads are sent to the persistence service.
func WithRemoteFunnelID(id string) Option {
	return func(c *Controller) {
		c.remoteFunnelID = id
	}
}

// WithSessionID labels the run in logs and snapshots.
func WithSessionID(id string) Option {
	return func(c *Controller) {
		c.sessionID = id
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New creates an idle Controller for doc.
func New(doc *domain.Document, opts ...Option) *Controller {
	c := &Controller{
		doc:     doc,
		logger:  logging.NewNop(),
		now:     time.Now,
		answers: domain.NewAnswerStore(),
		phase:   domain.PhaseIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = runtime.NewEngine(runtime.WithLogger(c.logger), runtime.WithLifecycleHooks(c.hooks))
	}
	if c.recorder == nil {
		c.recorder = recorder.New(recorder.WithLogger(c.logger), recorder.WithLifecycleHooks(c.hooks))
	}
	if c.sessionID != "" {
		c.logger = c.logger.With("session_id", c.sessionID)
	}
	return c
}

// Load replaces the document and returns the run to Idle with no answers.
func (c *Controller) Load(doc *domain.Document, remoteFunnelID string) {
	c.doc = doc
	c.remoteFunnelID = remoteFunnelID
	c.reset()
	c.setPhase(context.Background(), domain.PhaseIdle)
}

// OnStart begins the run. On a Welcome step it confirms the welcome screen
// and moves to the next step.
func (c *Controller) OnStart(ctx context.Context) error {
	if c.editing {
		return ErrEditing
	}

	switch c.phase {
	case domain.PhaseIdle:
		return c.start(ctx)
	case domain.PhaseInProgress:
		if _, ok := c.currentStep().(*domain.Welcome); ok {
			return c.advance(ctx, "")
		}
	}
	return fmt.Errorf("start in phase %s: %w", c.phase, ErrInvalidIntent)
}

// OnContinue confirms a Welcome or Message step.
func (c *Controller) OnContinue(ctx context.Context) error {
	if c.editing {
		return ErrEditing
	}
	if c.phase != domain.PhaseInProgress {
		return fmt.Errorf("continue in phase %s: %w", c.phase, ErrInvalidIntent)
	}

	switch c.currentStep().(type) {
	case *domain.Welcome, *domain.Message:
		return c.advance(ctx, "")
	}
	return fmt.Errorf("continue on step %q: %w", c.nav.CurrentStepID, ErrInvalidIntent)
}

// OnAnswer records an answer and, when questionID is the current step, advances.
// A non-empty optionID selects a buttons option whose nextStepId overrides
// sequential advance. Answering a previously visited question only replaces
// its answer.
func (c *Controller) OnAnswer(ctx context.Context, questionID string, value domain.AnswerValue, optionID string) error {
	if c.editing {
		return ErrEditing
	}
	if c.phase != domain.PhaseInProgress && c.phase != domain.PhaseCompleted {
		return fmt.Errorf("answer in phase %s: %w", c.phase, ErrInvalidIntent)
	}

	step, ok := c.doc.StepByID(questionID)
	q, isQuestion := step.(*domain.Question)
	if !ok || !isQuestion {
		return fmt.Errorf("%w: %q", ErrUnknownQuestion, questionID)
	}

	isCurrent := c.phase == domain.PhaseInProgress && c.nav.CurrentStepID == questionID
	if !isCurrent && !visited(c.nav, questionID) {
		return fmt.Errorf("question %q not reached: %w", questionID, ErrInvalidIntent)
	}

	opt, err := c.resolveOption(q, value, optionID)
	if err != nil {
		return c.fail(ctx, err)
	}
	if opt.ID != "" && value.Text == "" && !value.IsRecording() {
		value = domain.TextAnswer(opt.Text)
	}

	c.answers = c.answers.Record(questionID, value)
	c.logger.Debug("answer recorded", "question", questionID, "option", opt.ID, "current", isCurrent)

	if !isCurrent {
		return nil
	}

	if err := c.advance(ctx, opt.NextStepID); err != nil {
		var branchErr *domain.BranchError
		if errors.As(err, &branchErr) {
			branchErr.OptionID = opt.ID
		}
		return err
	}
	return nil
}

// OnBack returns to the previously visited step. It is a no-op at the first step.
func (c *Controller) OnBack(ctx context.Context) error {
	if c.editing {
		return ErrEditing
	}
	if c.phase != domain.PhaseInProgress {
		return nil
	}
	c.nav = c.engine.Retreat(ctx, c.nav, c.doc)
	return nil
}

// OnRestart clears answers, history, completion, error and submission, and
// starts again from the first step.
func (c *Controller) OnRestart(ctx context.Context) error {
	c.reset()
	c.setPhase(ctx, domain.PhaseIdle)
	return c.start(ctx)
}

// OnJumpTo repositions the run on stepID with a fresh history, as the builder
// does when previewing an edited step. Answers are kept, an editing freeze and a
// previous error are cleared. A confirmed lead cannot be repositioned.
func (c *Controller) OnJumpTo(ctx context.Context, stepID string) error {
	if c.phase == domain.PhaseLeadConfirmed {
		return fmt.Errorf("jump in phase %s: %w", c.phase, ErrInvalidIntent)
	}
	nav, err := c.engine.JumpTo(ctx, c.nav, c.doc, stepID)
	if err != nil {
		return c.fail(ctx, err)
	}
	c.nav = nav
	c.err = nil
	c.editing = false
	c.setPhase(ctx, domain.PhaseInProgress)
	return c.checkStep(ctx)
}

// OnRetry is the recovery affordance of the Error phase.
func (c *Controller) OnRetry(ctx context.Context) error {
	if c.phase != domain.PhaseError {
		return fmt.Errorf("retry in phase %s: %w", c.phase, ErrInvalidIntent)
	}
	return c.OnRestart(ctx)
}

// OnEditRequested freezes navigation so the builder can edit the document. Answers are kept.
func (c *Controller) OnEditRequested() {
	c.editing = true
	c.logger.Debug("run frozen for editing")
}

// OnResume lifts the freeze set by OnEditRequested.
func (c *Controller) OnResume() {
	c.editing = false
}

// OnSubmitLead sends contact info and answers to the recorder and confirms the lead.
// It runs at most once per run; later calls return the existing submission.
func (c *Controller) OnSubmitLead(ctx context.Context, contact domain.ContactInfo) (domain.Submission, error) {
	if c.phase == domain.PhaseLeadConfirmed && c.submission != nil {
		return *c.submission, nil
	}
	if c.editing {
		return domain.Submission{}, ErrEditing
	}
	if c.phase != domain.PhaseInProgress {
		return domain.Submission{}, fmt.Errorf("submit in phase %s: %w", c.phase, ErrNotLeadCapture)
	}
	if _, ok := c.currentStep().(*domain.LeadCapture); !ok {
		return domain.Submission{}, fmt.Errorf("step %q: %w", c.nav.CurrentStepID, ErrNotLeadCapture)
	}
	if err := validateContact(contact); err != nil {
		return domain.Submission{}, err
	}

	sub := c.recorder.Submit(ctx, contact, c.answers, c.doc, c.remoteFunnelID)
	c.submission = &sub
	c.setPhase(ctx, domain.PhaseLeadConfirmed)
	return sub, nil
}

func (c *Controller) start(ctx context.Context) error {
	nav, err := c.engine.Start(ctx, c.doc)
	if err != nil {
		return c.fail(ctx, err)
	}
	c.nav = nav
	c.setPhase(ctx, domain.PhaseInProgress)
	return c.checkStep(ctx)
}

func (c *Controller) advance(ctx context.Context, target string) error {
	nav, err := c.engine.Advance(ctx, c.nav, c.doc, target)
	if err != nil {
		return c.fail(ctx, err)
	}
	c.nav = nav
	if nav.Completed {
		c.setPhase(ctx, domain.PhaseCompleted)
		return nil
	}
	return c.checkStep(ctx)
}

// checkStep fails the run when it lands on a step it cannot render.
func (c *Controller) checkStep(ctx context.Context) error {
	if _, err := runtime.Resolve(c.nav, c.doc); err != nil {
		return c.fail(ctx, err)
	}
	return nil
}

func (c *Controller) fail(ctx context.Context, err error) error {
	if domain.KindOf(err) == domain.ErrorKindNone {
		c.logger.Warn("intent rejected", "step", c.nav.CurrentStepID, "error", err)
		return err
	}
	c.logger.Error("run failed", "step", c.nav.CurrentStepID, "error", err)
	c.err = err
	c.setPhase(ctx, domain.PhaseError)
	return err
}

func (c *Controller) reset() {
	c.nav = domain.NavigationState{}
	c.answers = domain.NewAnswerStore()
	c.err = nil
	c.submission = nil
	c.editing = false
}

func (c *Controller) setPhase(ctx context.Context, to domain.Phase) {
	from := c.phase
	if from == to {
		return
	}
	c.phase = to
	c.logger.Debug("phase change", "from", from, "to", to)
	if c.hooks.OnPhaseChange != nil {
		c.hooks.OnPhaseChange(ctx, &domain.PhaseEvent{
			EventBase: domain.EventBase{Timestamp: c.now(), Type: domain.EventPhaseChange},
			From:      from,
			To:        to,
			ErrorKind: domain.KindOf(c.err),
		})
	}
}

func (c *Controller) currentStep() domain.Step {
	if c.nav.Completed {
		return nil
	}
	step, _ := c.doc.StepByID(c.nav.CurrentStepID)
	return step
}

// resolveOption finds the option an answer selects. A buttons question only
// accepts one of its options, by id or by text.
func (c *Controller) resolveOption(q *domain.Question, value domain.AnswerValue, optionID string) (domain.Option, error) {
	if q.Input.Type == domain.InputButtons && len(q.Options) == 0 {
		return domain.Option{}, &domain.OptionsError{StepID: q.ID}
	}
	if optionID != "" {
		opt, ok := q.OptionByID(optionID)
		if !ok {
			return domain.Option{}, fmt.Errorf("%w: %q on question %q", ErrUnknownOption, optionID, q.ID)
		}
		return opt, nil
	}
	if q.Input.Type != domain.InputButtons {
		return domain.Option{}, nil
	}
	if opt, ok := q.OptionByText(value.Text); ok && value.Text != "" {
		return opt, nil
	}
	return domain.Option{}, fmt.Errorf("%w: answer %q on question %q", ErrUnknownOption, value.Text, q.ID)
}

func visited(nav domain.NavigationState, id string) bool {
	for _, h := range nav.History {
		if h == id {
			return true
		}
	}
	return false
}
