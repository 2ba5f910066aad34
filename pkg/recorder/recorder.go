// Package recorder finalizes lead submissions.
//
// Submit never fails from the lead's point of view: when the persistence
// service is unavailable, or the funnel was opened from a share link and has no
// remote id, the submission gets a locally generated id and is kept in the
// local store.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// DefaultTimeout bounds the single remote call made per submission.
// Local saves and background publishes share the same bound.
const DefaultTimeout = 10 * time.Second

// Recorder turns contact info and answers into a Submission.
type Recorder struct {
	leads     ports.LeadService
	local     ports.SubmissionStore
	publisher ports.SubmissionPublisher
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	now       func() time.Time
	timeout   time.Duration

	mu      sync.Mutex
	lastID  int64
	pending sync.WaitGroup
}

// Option configures the Recorder.
type Option func(*Recorder)

// WithLeadService sets the remote persistence service.
func WithLeadService(svc ports.LeadService) Option {
	return func(r *Recorder) {
		r.leads = svc
	}
}

// WithLocalStore sets where finalized submissions are kept.
func WithLocalStore(store ports.SubmissionStore) Option {
	return func(r *Recorder) {
		r.local = store
	}
}

// WithPublisher sets a downstream notifier for finalized submissions.
func WithPublisher(p ports.SubmissionPublisher) Option {
	return func(r *Recorder) {
		r.publisher = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(r *Recorder) {
		r.hooks = hooks
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithTimeout bounds the remote call, the local save and each publish. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		r.timeout = d
	}
}

// New creates a Recorder. Without a lead service every submission is local.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		logger:  logging.NewNop(),
		now:     time.Now,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "recorder")
	return r
}

// LocalID builds the id of a submission that was not acknowledged by the service.
func LocalID(t time.Time) string {
	return fmt.Sprintf("local-%d", t.UnixMilli())
}

// nextLocalID returns a local id strictly greater than any issued before,
// so two leads finalized in the same millisecond never share an id.
func (r *Recorder) nextLocalID(t time.Time) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := t.UnixMilli()
	if n <= r.lastID {
		n = r.lastID + 1
	}
	r.lastID = n
	return fmt.Sprintf("local-%d", n)
}

// Submit finalizes a submission. At most one remote call is made; any failure
// falls back to a local id. It always returns a usable submission.
// The local save is bounded by the recorder timeout and publishing runs in the
// background, so neither can hold the confirmation back.
func (r *Recorder) Submit(ctx context.Context, contact domain.ContactInfo, answers domain.AnswerStore, doc *domain.Document, remoteFunnelID string) domain.Submission {
	now := r.now()
	sub := domain.Submission{
		ID:        r.nextLocalID(now),
		Timestamp: now,
		Contact:   contact,
		Answers:   answers.Analyze(doc),
		FunnelID:  remoteFunnelID,
		Origin:    domain.OriginLocal,
	}

	switch {
	case remoteFunnelID == "":
		r.logger.Debug("no remote funnel id, keeping submission local", "id", sub.ID)
	case r.leads == nil:
		r.logger.Debug("no lead service configured, keeping submission local", "id", sub.ID, "funnel", remoteFunnelID)
	default:
		receipt, err := r.createLead(ctx, contact, answers, remoteFunnelID)
		if err != nil {
			r.logger.Warn("remote submission failed, using local id", "funnel", remoteFunnelID, "id", sub.ID, "error", err)
			break
		}
		if receipt.ID != "" {
			sub.ID = receipt.ID
			sub.Origin = domain.OriginRemote
		}
		if !receipt.CreatedAt.IsZero() {
			sub.Timestamp = receipt.CreatedAt
		}
	}

	if r.local != nil {
		saveCtx, cancel := r.bounded(ctx)
		if err := r.local.Save(saveCtx, sub); err != nil {
			r.logger.Error("failed to keep submission locally", "id", sub.ID, "error", err)
		}
		cancel()
	}

	if r.publisher != nil {
		r.publish(context.WithoutCancel(ctx), sub)
	}

	r.logger.Info("submission recorded", "id", sub.ID, "origin", sub.Origin, "answers", len(sub.Answers))
	if r.hooks.OnSubmission != nil {
		r.hooks.OnSubmission(ctx, &domain.SubmissionEvent{
			EventBase:    domain.EventBase{Timestamp: r.now(), Type: domain.EventSubmission},
			SubmissionID: sub.ID,
			Origin:       sub.Origin,
			FunnelID:     remoteFunnelID,
		})
	}
	return sub
}

// Close waits for background publishes to finish.
func (r *Recorder) Close() error {
	r.pending.Wait()
	return nil
}

func (r *Recorder) publish(ctx context.Context, sub domain.Submission) {
	r.pending.Add(1)
	go func() {
		defer r.pending.Done()
		ctx, cancel := r.bounded(ctx)
		defer cancel()
		if err := r.publisher.Publish(ctx, sub); err != nil {
			r.logger.Warn("failed to publish submission", "id", sub.ID, "error", err)
		}
	}()
}

func (r *Recorder) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}

func (r *Recorder) createLead(ctx context.Context, contact domain.ContactInfo, answers domain.AnswerStore, funnelID string) (ports.LeadReceipt, error) {
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	receipt, err := r.leads.CreateLead(ctx, ports.LeadRequest{
		Name:       contact.Name,
		Email:      contact.Email,
		Phone:      contact.Phone,
		Subscribed: contact.Consent,
		Answers:    answers,
		FunnelID:   funnelID,
	})
	if err != nil {
		var te *domain.TransportError
		if errors.As(err, &te) {
			return ports.LeadReceipt{}, err
		}
		return ports.LeadReceipt{}, &domain.TransportError{FunnelID: funnelID, Err: err}
	}
	return receipt, nil
}
