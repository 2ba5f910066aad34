package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// interruptGrace is how long an input error waits for a trailing interrupt.
// Some terminals close stdin before the interrupt is delivered.
const interruptGrace = 100 * time.Millisecond

// interrupts is cancelled when the respondent presses Ctrl+C or the process is
// asked to stop. The runner then saves the session instead of dropping it.
type interrupts struct {
	ctx   context.Context
	stop  context.CancelFunc
	grace time.Duration
}

func watchInterrupts(grace time.Duration, sigs ...os.Signal) *interrupts {
	if len(sigs) == 0 {
		sigs = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	ctx, stop := signal.NotifyContext(context.Background(), sigs...)
	return &interrupts{ctx: ctx, stop: stop, grace: grace}
}

func (i *interrupts) Context() context.Context { return i.ctx }

func (i *interrupts) Triggered() bool { return i.ctx.Err() != nil }

// Settle reports whether the input error that just happened came with an
// interrupt, waiting at most the grace period for it.
func (i *interrupts) Settle() bool {
	if i.Triggered() {
		return true
	}
	t := time.NewTimer(i.grace)
	defer t.Stop()
	select {
	case <-i.ctx.Done():
		return true
	case <-t.C:
		return false
	}
}

// Stop releases the signal handlers.
func (i *interrupts) Stop() { i.stop() }
