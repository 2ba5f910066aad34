package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/ports"
)

// Runner handles the execution loop of a funnel run using the provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler on Stdin/Stdout is used.
	Handler IOHandler

	// Interceptor gates intents before dispatch.
	// If nil, defaults to ConfirmationMiddleware (AutoApprove when headless).
	Interceptor IntentInterceptor

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// Store is the persistence adapter for resumable runs.
	// If nil, sessions are ephemeral.
	Store ports.SessionStore

	SessionID string
	Headless  bool
	Renderer  ContentRenderer
}

// NewRunner creates a new Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run drives c until the run completes, the lead is confirmed, or the respondent quits.
// An interrupt saves the session and returns nil so it can be resumed later.
func (r *Runner) Run(ctx context.Context, c *controller.Controller) error {
	handler := r.resolveHandler()
	interceptor := r.resolveInterceptor(handler)
	sessions := NewSessionManager(r.Store)

	if c.Phase() == domain.PhaseIdle {
		if err := c.OnStart(ctx); err != nil && domain.KindOf(err) == domain.ErrorKindNone {
			return fmt.Errorf("start: %w", err)
		}
		if err := sessions.Save(ctx, r.SessionID, c); err != nil {
			return fmt.Errorf("critical persistence error: %w", err)
		}
	}

	interrupted := watchInterrupts(interruptGrace)
	defer interrupted.Stop()

	for {
		frame := NewFrame(c)
		if err := handler.Output(ctx, frame); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
		if frame.Terminal() {
			r.Logger.Debug("run finished", "session_id", r.SessionID, "phase", frame.View.Phase)
			return nil
		}

		inputCtx, cancel := mergeContext(ctx, interrupted.Context())
		in, err := handler.Input(inputCtx, frame)
		cancel()
		if err != nil {
			if ctx.Err() != nil || interrupted.Settle() {
				r.Logger.Debug("runner input: context cancelled", "session_id", r.SessionID)
				if saveErr := sessions.Save(context.Background(), r.SessionID, c); saveErr != nil {
					return fmt.Errorf("critical persistence error: %w", saveErr)
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if r.SessionID != "" {
					_ = handler.SystemOutput(context.Background(), fmt.Sprintf("Interrupted. Resume with --session %s", r.SessionID))
				}
				return nil
			}
			if errors.Is(err, io.EOF) {
				return sessions.Save(context.Background(), r.SessionID, c)
			}
			return fmt.Errorf("input error: %w", err)
		}

		allowed, err := interceptor(ctx, frame, in)
		if err != nil {
			return fmt.Errorf("intent interceptor error: %w", err)
		}
		if !allowed {
			r.Logger.Debug("intent blocked", "type", in.Type)
			continue
		}

		if err := c.Dispatch(ctx, in); err != nil {
			if domain.KindOf(err) == domain.ErrorKindNone {
				_ = handler.SystemOutput(ctx, err.Error())
				continue
			}
			// Structural errors move the run to the error phase, which the next frame shows.
		}

		if err := sessions.Save(ctx, r.SessionID, c); err != nil {
			return fmt.Errorf("critical persistence error: %w", err)
		}
	}
}

// mergeContext returns a context cancelled when either parent is.
func mergeContext(a, b context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(a)
	stop := context.AfterFunc(b, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(os.Stdin, os.Stdout, WithTextHandlerRenderer(r.Renderer))
	if !r.Headless {
		fmt.Fprintln(th.Writer, "--- Funnel CLI (Runner) ---")
	}
	// Memoize to prevent creating new Pumps on subsequent Run() calls
	r.Handler = th
	return th
}

// resolveInterceptor returns the configured or default interceptor.
func (r *Runner) resolveInterceptor(h IOHandler) IntentInterceptor {
	if r.Interceptor != nil {
		return r.Interceptor
	}
	if r.Headless {
		return AutoApproveMiddleware()
	}
	return ConfirmationMiddleware(h)
}
