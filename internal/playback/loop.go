package playback

import (
	"context"
	"sync"
	"time"

	"github.com/rdow/thrum/internal/logging"
	"github.com/rdow/thrum/internal/sched"
)

// loopState tracks which evaluation loop is active. Exactly one of the
// foreground ticker or the background worker drives Evaluate at a time;
// both share the engine's cursors, so a visibility flip never loses the
// playhead.
type loopState struct {
	mu         sync.Mutex
	background bool
	cancel     context.CancelFunc
	running    bool
}

func newLoopState() *loopState {
	return &loopState{}
}

// Start begins evaluation in the foreground loop. It returns immediately;
// evaluation runs on its own goroutine until Stop or context cancellation.
func (e *Engine) Start(ctx context.Context) {
	e.loop.mu.Lock()
	defer e.loop.mu.Unlock()
	if e.loop.running {
		return
	}
	e.loop.running = true
	e.loop.background = false
	e.startForegroundLocked(ctx)
}

// Stop halts evaluation and silences devices.
func (e *Engine) Stop(ctx context.Context) {
	e.loop.mu.Lock()
	if e.loop.cancel != nil {
		e.loop.cancel()
		e.loop.cancel = nil
	}
	e.loop.running = false
	e.loop.mu.Unlock()

	e.mu.Lock()
	e.stopDevices(ctx)
	e.state = StateIdle
	e.mu.Unlock()
}

// SetBackground switches between the foreground poll loop and the
// background worker. The active loop is torn down before its replacement
// starts, so evaluation never runs twice per interval.
func (e *Engine) SetBackground(ctx context.Context, background bool) {
	e.loop.mu.Lock()
	defer e.loop.mu.Unlock()
	if !e.loop.running || e.loop.background == background {
		e.loop.background = background
		return
	}
	if e.loop.cancel != nil {
		e.loop.cancel()
		e.loop.cancel = nil
	}
	e.loop.background = background
	if background {
		e.startBackgroundLocked(ctx)
	} else {
		e.startForegroundLocked(ctx)
	}
	logging.Debug("evaluation loop switched", "background", background)
}

// Background reports whether the background worker is the active loop.
func (e *Engine) Background() bool {
	e.loop.mu.Lock()
	defer e.loop.mu.Unlock()
	return e.loop.background
}

func (e *Engine) startForegroundLocked(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.loop.cancel = cancel
	go e.runForeground(ctx)
}

// runForeground is the visible-session loop: a plain ticker at the poll
// interval. Drift correction does not matter here because the media clock
// is re-read on every step.
func (e *Engine) runForeground(ctx context.Context) {
	t := time.NewTicker(e.pollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			e.Evaluate(ctx)
		}
	}
}

func (e *Engine) startBackgroundLocked(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.loop.cancel = cancel
	go e.runBackground(ctx)
}

// runBackground drives evaluation from the drift-corrected worker, which
// keeps step boundaries aligned even when the process is descheduled for
// long stretches.
func (e *Engine) runBackground(ctx context.Context) {
	worker := sched.NewWorker()
	go worker.Run(ctx)
	worker.Start(e.pollInterval)
	defer worker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-worker.Events():
			if !ok {
				return
			}
			switch ev.Type {
			case sched.EventTick:
				e.Evaluate(ctx)
			case sched.EventHeartbeat:
				logging.Warn("background evaluation stalled",
					"last_tick", ev.Timestamp, "drift", ev.Drift)
			}
		}
	}
}
