package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/internal/presentation/tui"
	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/runner"
)

// RunSession executes a single terminal run of a funnel.
func RunSession(cfg config.Config, opts RunOptions) error {
	logger, err := CreateLogger(cfg.LogLevel, opts.Debug, !opts.quiet())
	if err != nil {
		return err
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	stack, err := Build(sigCtx, cfg, logger, WithEvents())
	if err != nil {
		return fmt.Errorf("error initializing funnel: %w", err)
	}
	defer stack.Close()
	stack.Hooks = createHooks(logger, opts.Debug)

	src, err := ResolveSource(sigCtx, opts.Source, stack.Funnels)
	if err != nil {
		return fmt.Errorf("error loading funnel: %w", err)
	}

	out := opts.stdout()
	if !opts.quiet() {
		tui.PrintBanner(out)
	}

	if opts.Fresh {
		if err := ResetSession(sigCtx, stack.Sessions, opts.SessionID); err != nil {
			return err
		}
	}

	sessionManager := runner.NewSessionManager(stack.Sessions)
	cOpts := append(stack.ControllerOptions(), controller.WithRemoteFunnelID(src.RemoteFunnelID))
	c, loaded, err := sessionManager.LoadOrStart(sigCtx, src.Document, opts.SessionID, cOpts...)
	if err != nil {
		return fmt.Errorf("failed to init session: %w", err)
	}
	logSessionStatus(out, logger, opts.SessionID, c, loaded, opts.quiet())

	r := runner.NewRunner(createRunnerOptions(logger, opts, stack.Sessions, nil)...)
	runErr := r.Run(sigCtx, c)

	// A signal may land after the runner returned cleanly
	if sigCtx.Err() != nil && runErr == nil {
		runErr = sigCtx.Err()
	}

	logCompletion(out, c, runErr, opts.quiet(), sigCtx.Signal())

	return handleExecutionError(runErr)
}
