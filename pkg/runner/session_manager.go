package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// SessionManager handles the lifecycle of a durable terminal run.
// It coordinates between the Runner, the Controller and the SessionStore.
type SessionManager struct {
	Store ports.SessionStore
}

// NewSessionManager creates a new SessionManager.
func NewSessionManager(store ports.SessionStore) *SessionManager {
	return &SessionManager{
		Store: store,
	}
}

// LoadOrStart restores the run saved under sessionID, or creates an idle controller for doc.
// Returns the controller and a boolean indicating if it was loaded (true) or new (false).
// A resumed run keeps the document it was started with.
func (sm *SessionManager) LoadOrStart(
	ctx context.Context,
	doc *domain.Document,
	sessionID string,
	opts ...controller.Option,
) (*controller.Controller, bool, error) {
	opts = append(opts, controller.WithSessionID(sessionID))
	if sessionID == "" || sm.Store == nil {
		return controller.New(doc, opts...), false, nil
	}

	snap, err := sm.Store.Load(ctx, sessionID)
	if err == nil {
		return controller.Restore(snap, opts...), true, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, false, fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	c := controller.New(doc, opts...)
	// Save immediately to reserve the ID
	if err := sm.Save(ctx, sessionID, c); err != nil {
		return nil, false, fmt.Errorf("failed to initialize session %s: %w", sessionID, err)
	}
	return c, false, nil
}

// Save persists the controller snapshot.
func (sm *SessionManager) Save(ctx context.Context, sessionID string, c *controller.Controller) error {
	if sessionID == "" || sm.Store == nil {
		return nil
	}
	return sm.Store.Save(ctx, sessionID, c.Snapshot())
}
