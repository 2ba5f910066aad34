package cli

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/funnel/internal/config"
	"github.com/aretw0/funnel/internal/presentation/tui"
	"github.com/aretw0/funnel/pkg/controller"
	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
	"github.com/aretw0/funnel/pkg/schema"
	"github.com/fsnotify/fsnotify"
)

// watchDebounce batches the burst of events editors emit on a single save.
const watchDebounce = 150 * time.Millisecond

// WatchSessionID scopes the default watch session by file path, so projects do not collide.
func WatchSessionID(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	hash := md5.Sum([]byte(abs))
	return fmt.Sprintf("watch-%x", hash[:4])
}

// WatchFile emits the file name each time path settles after a change.
// The parent directory is watched, so editors that replace the file on save are seen.
// The channel closes when ctx is done.
func WatchFile(ctx context.Context, path string, logger *slog.Logger) (<-chan string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	out := make(chan string, 1)
	go func() {
		defer close(out)
		defer w.Close()

		var settle <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != abs {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				settle = time.After(watchDebounce)
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error", "err", err)
			case <-settle:
				settle = nil
				select {
				case out <- filepath.Base(abs):
				default:
					// A reload is already pending
				}
			}
		}
	}()
	return out, nil
}

// RunWatch runs the funnel in development mode, reloading it when the file changes.
// The run keeps its answers and position across reloads while the current step still exists.
func RunWatch(cfg config.Config, opts RunOptions) error {
	logger, err := CreateLogger(cfg.LogLevel, opts.Debug, true)
	if err != nil {
		return err
	}
	out := opts.stdout()

	src, err := ResolveSource(context.Background(), opts.Source, nil)
	if err != nil {
		return fmt.Errorf("error loading funnel: %w", err)
	}
	if src.Path == "" {
		return fmt.Errorf("--watch needs a local funnel file")
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	stack, err := Build(sigCtx, cfg, logger)
	if err != nil {
		return fmt.Errorf("error initializing funnel: %w", err)
	}
	defer stack.Close()
	stack.Hooks = createHooks(logger, opts.Debug)

	if opts.SessionID == "" {
		opts.SessionID = WatchSessionID(src.Path)
	}
	if opts.Fresh {
		if err := ResetSession(sigCtx, stack.Sessions, opts.SessionID); err != nil {
			return err
		}
	}

	changes, err := WatchFile(sigCtx, src.Path, logger)
	if err != nil {
		return err
	}

	tui.PrintBanner(out)
	logger.Info("Starting Watcher", "path", src.Path, "session_id", opts.SessionID)
	printSystemMessage(out, "Watcher at '%s' session.", opts.SessionID)

	w := &watchLoop{
		opts:    opts,
		out:     out,
		stack:   stack,
		logger:  logger,
		changes: changes,
		// One handler for every iteration, so a single goroutine reads stdin
		handler: newHandler(opts),
	}
	for w.iterate(sigCtx, src.Path) {
		logger.Info("Watcher restarting")
	}
	return nil
}

type watchLoop struct {
	opts    RunOptions
	out     io.Writer
	stack   *Stack
	logger  *slog.Logger
	changes <-chan string
	handler runner.IOHandler
}

// iterate runs until the file changes (true) or the user stops (false).
func (w *watchLoop) iterate(parent *SignalContext, path string) bool {
	doc, err := schema.DecodeFile(path)
	if err != nil {
		w.logger.Error("Funnel load failed", "err", err)
		printSystemMessage(w.out, "Cannot load '%s': %v", filepath.Base(path), err)
		printSystemMessage(w.out, "Waiting for changes...")
		return w.waitForChange(parent)
	}

	c, loaded, err := w.hydrate(parent, doc)
	if err != nil {
		w.logger.Error("State rehydration failed", "err", err)
		return w.waitForChange(parent)
	}
	if loaded {
		printSystemMessage(w.out, "Resuming at '%s' step...", currentStepID(c))
	}

	runCtx, cancel := context.WithCancel(parent)
	defer cancel()

	r := runner.NewRunner(createRunnerOptions(w.logger, w.opts, w.stack.Sessions, w.handler)...)
	done := make(chan error, 1)
	go func() {
		done <- r.Run(runCtx, c)
	}()

	select {
	case <-parent.Done():
		cancel()
		<-done
		logCompletion(w.out, c, context.Canceled, false, parent.Signal())
		w.logger.Info("Stopping watcher (signal received)", "signal", parent.Signal())
		return false
	case name, ok := <-w.changes:
		cancel()
		<-done
		if !ok {
			return false
		}
		fmt.Fprintln(w.out)
		printSystemMessage(w.out, "Change detected in '%s'.", name)
		return true
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			if isInterrupted(err) {
				return false
			}
			w.logger.Error("Runtime error", "err", err)
		}
		logCompletion(w.out, c, nil, false, nil)
		printSystemMessage(w.out, "Waiting for changes...")
		w.logger.Info("Funnel finished, waiting for changes")
		return w.waitForChange(parent)
	}
}

// hydrate restores the saved run onto the reloaded document.
// When the current step no longer exists the run restarts on the new document.
func (w *watchLoop) hydrate(ctx context.Context, doc *domain.Document) (*controller.Controller, bool, error) {
	sm := runner.NewSessionManager(w.stack.Sessions)
	c, loaded, err := sm.LoadOrStart(ctx, doc, w.opts.SessionID, w.stack.ControllerOptions()...)
	if err != nil || !loaded {
		return c, loaded, err
	}

	snap := reloadSnapshot(c.Snapshot(), doc)
	if snap == nil {
		w.logger.Info("Current step removed, restarting", "session_id", w.opts.SessionID)
		printSystemMessage(w.out, "Step '%s' is gone, starting over.", c.Navigation().CurrentStepID)
		c.Load(doc, c.RemoteFunnelID())
		return c, false, sm.Save(ctx, w.opts.SessionID, c)
	}
	return controller.Restore(snap, w.stack.ControllerOptions()...), true, nil
}

// reloadSnapshot swaps the document of snap. It returns nil when the run
// cannot continue on doc: its current step is missing, or it stopped on an error.
func reloadSnapshot(snap *domain.Snapshot, doc *domain.Document) *domain.Snapshot {
	next := *snap
	next.Document = doc
	next.Navigation = snap.Navigation.Clone()
	next.ErrorKind = domain.ErrorKindNone
	next.ErrorDetail = nil

	switch snap.Phase {
	case domain.PhaseIdle:
		return &next
	case domain.PhaseError:
		return nil
	}
	if snap.Navigation.Completed {
		return &next
	}
	if _, ok := doc.StepByID(snap.Navigation.CurrentStepID); !ok {
		return nil
	}
	return &next
}

func (w *watchLoop) waitForChange(parent *SignalContext) bool {
	select {
	case <-parent.Done():
		w.logger.Info("Stopping watcher (signal received)")
		return false
	case _, ok := <-w.changes:
		return ok
	}
}
