package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// RunOptions contains all the configuration for the Run command.
type RunOptions struct {
	// Source is a file path, a share link or "funnel:<id>".
	Source    string
	Headless  bool
	Watch     bool
	JSON      bool
	Debug     bool
	SessionID string
	Fresh     bool

	// Stdin and Stdout default to the process streams.
	Stdin  io.Reader
	Stdout io.Writer
}

func (o RunOptions) stdin() io.Reader {
	if o.Stdin == nil {
		return os.Stdin
	}
	return o.Stdin
}

func (o RunOptions) stdout() io.Writer {
	if o.Stdout == nil {
		return os.Stdout
	}
	return o.Stdout
}

// quiet suppresses banners and system messages on machine-facing output.
func (o RunOptions) quiet() bool {
	return o.JSON || o.Headless
}

// Execute handles the 'run' command logic, dispatching to Session or Watch mode.
func Execute(cfg config.Config, opts RunOptions) error {
	if opts.Watch {
		if opts.Headless || opts.JSON {
			return fmt.Errorf("--watch cannot be combined with --headless or --json")
		}
		return RunWatch(cfg, opts)
	}
	return RunSession(cfg, opts)
}

// ResetSession clears the saved run for the given ID. A missing session is not an error.
func ResetSession(ctx context.Context, store ports.SessionStore, sessionID string) error {
	if sessionID == "" || store == nil {
		return nil
	}
	if err := store.Delete(ctx, sessionID); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("failed to reset session %s: %w", sessionID, err)
	}
	return nil
}
