package ports

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

// SessionStore defines the interface for persisting run snapshots.
// This allows a run to survive across requests and process restarts.
type SessionStore interface {
	// Save persists the snapshot for a given session ID.
	Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error

	// Load retrieves the snapshot for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Snapshot, error)

	// Delete removes the snapshot for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all active session IDs.
	List(ctx context.Context) ([]string, error)
}

// SubmissionStore keeps finalized submissions on the client side.
// It is the source of the results list and is written even when the remote call succeeds.
type SubmissionStore interface {
	// Save appends or replaces a submission by id.
	Save(ctx context.Context, sub domain.Submission) error

	// Get returns the submission with the given id, or domain.ErrSubmissionNotFound.
	Get(ctx context.Context, id string) (domain.Submission, error)

	// List returns submissions, newest first. An empty funnelID lists all of them.
	List(ctx context.Context, funnelID string) ([]domain.Submission, error)

	// Annotate attaches an analysis to one answer of a stored submission.
	Annotate(ctx context.Context, id, questionID string, analysis domain.Analysis) error
}
