package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aretw0/funnel/internal/logging"
	"github.com/aretw0/funnel/internal/presentation/tui"
	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/observability"
	"github.com/aretw0/funnel/pkg/ports"
	"github.com/aretw0/funnel/pkg/runner"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// CreateLogger configures the application logger.
// In debug mode everything goes to Stderr; otherwise only the configured level and above.
// Interactive runs stay quiet unless debug is set, so logs never interleave with the prompt.
func CreateLogger(level string, debug, interactive bool) (*slog.Logger, error) {
	if debug {
		return logging.New(slog.LevelDebug), nil
	}
	if interactive {
		return logging.NewNop(), nil
	}
	lvl, err := logging.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return logging.New(lvl), nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}

func logSessionStatus(w io.Writer, logger *slog.Logger, sessionID string, c *controller.Controller, loaded, quiet bool) {
	stepID := currentStepID(c)
	if loaded {
		logger.Info("Session Resumed", "session_id", sessionID, "step", stepID, "phase", c.Phase())
		if !quiet {
			printSystemMessage(w, "Resuming at '%s' step...", stepID)
		}
	} else if sessionID != "" {
		logger.Info("Session Created", "session_id", sessionID)
		if !quiet {
			printSystemMessage(w, "Session '%s' active.", sessionID)
		}
	}
}

// createRunnerOptions prepares the functional options for the Runner.
// A nil handler selects JSON lines or text IO from opts.
func createRunnerOptions(logger *slog.Logger, opts RunOptions, store ports.SessionStore, handler runner.IOHandler) []runner.Option {
	rOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithHeadless(opts.Headless),
	}

	if opts.SessionID != "" && store != nil {
		rOpts = append(rOpts, runner.WithSessionID(opts.SessionID))
		rOpts = append(rOpts, runner.WithStore(store))
	}

	if handler == nil {
		handler = newHandler(opts)
	}
	return append(rOpts, runner.WithInputHandler(handler))
}

func newHandler(opts RunOptions) runner.IOHandler {
	if opts.JSON {
		return runner.NewJSONHandler(opts.stdin(), opts.stdout())
	}
	var tOpts []runner.TextHandlerOption
	if !opts.Headless {
		tOpts = append(tOpts, runner.WithTextHandlerRenderer(tui.NewRenderer()))
	}
	return runner.NewTextHandler(opts.stdin(), opts.stdout(), tOpts...)
}

// createHooks logs lifecycle events. Debug mode adds step-level tracing.
func createHooks(logger *slog.Logger, debug bool) domain.LifecycleHooks {
	hooks := observability.LogHooks(logger)
	if !debug {
		return hooks
	}
	return hooks.Merge(domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.Debug("Enter Step", "step_id", e.StepID, "kind", e.StepKind)
		},
		OnPhaseChange: func(ctx context.Context, e *domain.PhaseEvent) {
			logger.Debug("Phase", "from", e.From, "to", e.To, "error_kind", e.ErrorKind)
		},
	})
}

// currentStepID is the visible step, or the last visited one when nothing is shown.
func currentStepID(c *controller.Controller) string {
	if step, ok := c.CurrentStep(); ok {
		return step.StepID()
	}
	return c.Navigation().CurrentStepID
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, io.EOF)
}

func handleExecutionError(err error) error {
	if err == nil {
		return nil
	}
	if isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}

func logCompletion(w io.Writer, c *controller.Controller, err error, quiet bool, sig os.Signal) {
	if quiet {
		return
	}
	stepID := currentStepID(c)

	switch {
	case err == nil && c.Phase() == domain.PhaseLeadConfirmed:
		printSystemMessage(w, "Lead submitted at '%s' step.", stepID)
	case err == nil && c.IsCompleted():
		printSystemMessage(w, "Finished at '%s' step.", stepID)
	case err == nil:
		printSystemMessage(w, "Paused at '%s' step.", stepID)
	case isInterrupted(err):
		if sig == os.Interrupt {
			fmt.Fprintf(w, "[CTRL+C]\n")
			printSystemMessage(w, "Interrupted at '%s' step.", stepID)
		} else {
			fmt.Fprintf(w, "\n")
			printSystemMessage(w, "Terminated at '%s' step.", stepID)
		}
	}
}
