package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/google/uuid"
)

// Result is what a host returns after applying an intent.
type Result struct {
	View controller.View      `json:"view"`
	Diff *domain.SnapshotDiff `json:"diff,omitempty"`
}

// Service runs funnel sessions on top of a Manager.
type Service struct {
	manager *Manager
	funnels ports.FunnelSource
	opts    []controller.Option
	logger  *slog.Logger
}

// ServiceOption configures the Service.
type ServiceOption func(*Service)

// WithFunnelSource lets sessions be created from published funnel ids.
func WithFunnelSource(src ports.FunnelSource) ServiceOption {
	return func(s *Service) {
		s.funnels = src
	}
}

// WithControllerOptions applies options (recorder, hooks, logger) to every restored controller.
func WithControllerOptions(opts ...controller.Option) ServiceOption {
	return func(s *Service) {
		s.opts = append(s.opts, opts...)
	}
}

// WithServiceLogger sets a structured logger.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service.
func NewService(manager *Manager, opts ...ServiceOption) *Service {
	s := &Service{
		manager: manager,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "session")
	return s
}

// Create starts a session for an inline document. A non-empty remoteFunnelID
// binds the session to a published funnel for lead submission.
func (s *Service) Create(ctx context.Context, doc *domain.Document, remoteFunnelID string) (*Result, error) {
	id := uuid.NewString()
	c := controller.New(doc, append(s.controllerOptions(), controller.WithSessionID(id), controller.WithRemoteFunnelID(remoteFunnelID))...)

	// Structural errors leave the run in the Error phase; they are part of the view.
	if err := c.OnStart(ctx); err != nil && domain.KindOf(err) == domain.ErrorKindNone {
		return nil, err
	}

	snap := c.Snapshot()
	if err := s.manager.Save(ctx, id, snap); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	s.logger.Info("session created", "session_id", id, "funnel", remoteFunnelID, "phase", snap.Phase)
	return &Result{View: c.View(), Diff: domain.Diff(nil, snap)}, nil
}

// CreateFromFunnel loads a published funnel and starts a session bound to it.
func (s *Service) CreateFromFunnel(ctx context.Context, funnelID string) (*Result, error) {
	if s.funnels == nil {
		return nil, fmt.Errorf("funnel %q: %w", funnelID, domain.ErrFunnelNotFound)
	}
	f, err := s.funnels.GetPublishedFunnel(ctx, funnelID)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, f.Document, f.ID)
}

// Apply loads a session, applies the intent and persists the result under the session lock.
// Structural run errors are reported in the view, not returned.
func (s *Service) Apply(ctx context.Context, sessionID string, in controller.Intent) (*Result, error) {
	var res *Result
	err := s.manager.WithLock(ctx, sessionID, func(ctx context.Context) error {
		before, err := s.manager.Store().Load(ctx, sessionID)
		if err != nil {
			return err
		}

		c := controller.Restore(before, s.controllerOptions()...)
		if err := c.Dispatch(ctx, in); err != nil && domain.KindOf(err) == domain.ErrorKindNone {
			return err
		}

		after := c.Snapshot()
		if err := s.manager.Store().Save(ctx, sessionID, after); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
		res = &Result{View: c.View(), Diff: domain.Diff(before, after)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// View returns the current projection of a session.
func (s *Service) View(ctx context.Context, sessionID string) (controller.View, error) {
	snap, err := s.manager.Load(ctx, sessionID)
	if err != nil {
		return controller.View{}, err
	}
	return controller.Restore(snap, s.controllerOptions()...).View(), nil
}

// Delete ends a session.
func (s *Service) Delete(ctx context.Context, sessionID string) error {
	return s.manager.Delete(ctx, sessionID)
}

// List returns active session ids.
func (s *Service) List(ctx context.Context) ([]string, error) {
	return s.manager.List(ctx)
}

func (s *Service) controllerOptions() []controller.Option {
	return append([]controller.Option(nil), s.opts...)
}
