package sched

import (
	"context"
	"sync"
	"time"

	"github.com/rdow/thrum/internal/logging"
)

// The worker is the background execution context for periodic work. It is
// decoupled from any foreground loop, so it keeps ticking while the
// foreground is suspended, and it communicates exclusively through message
// passing: start/stop/interval commands in, tick/heartbeat events out.

// Command names understood by the worker.
const (
	CmdStart    = "start"
	CmdStop     = "stop"
	CmdInterval = "interval"
)

// Command is a control message for the worker.
type Command struct {
	Command  string
	Interval time.Duration
}

// EventType distinguishes worker events.
type EventType int

const (
	// EventTick is a drift-corrected scheduler tick.
	EventTick EventType = iota
	// EventHeartbeat is a liveness signal emitted when no tick has been
	// observed for the stale threshold. Diagnostics only.
	EventHeartbeat
)

// Event is a message emitted by the worker.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Drift     time.Duration
}

// Worker defaults for heartbeat liveness checking.
const (
	HeartbeatStale = 5000 * time.Millisecond
	HeartbeatEvery = 3000 * time.Millisecond
)

// Worker runs a drift-corrected ticker on its own goroutine and speaks the
// command/event protocol.
type Worker struct {
	cmds   chan Command
	events chan Event

	// heartbeat timing, overridable for tests
	stale time.Duration
	check time.Duration

	mu       sync.Mutex
	lastTick time.Time
}

// NewWorker creates a worker with default heartbeat thresholds. Run must be
// called for it to process commands.
func NewWorker() *Worker {
	return &Worker{
		cmds:   make(chan Command, 8),
		events: make(chan Event, 32),
		stale:  HeartbeatStale,
		check:  HeartbeatEvery,
	}
}

// Events returns the worker's event stream.
func (w *Worker) Events() <-chan Event {
	return w.events
}

// Send delivers a command to the worker. Unknown commands are logged and
// dropped inside the run loop.
func (w *Worker) Send(cmd Command) {
	select {
	case w.cmds <- cmd:
	default:
		logging.Warn("scheduler worker command dropped", "command", cmd.Command)
	}
}

// Start is shorthand for sending a start command.
func (w *Worker) Start(interval time.Duration) {
	w.Send(Command{Command: CmdStart, Interval: interval})
}

// Stop is shorthand for sending a stop command.
func (w *Worker) Stop() {
	w.Send(Command{Command: CmdStop})
}

// SetInterval is shorthand for sending an interval command.
func (w *Worker) SetInterval(interval time.Duration) {
	w.Send(Command{Command: CmdInterval, Interval: interval})
}

// Run processes commands and relays ticks until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := NewTicker(time.Second)
	defer ticker.Stop()

	heartbeat := time.NewTicker(w.check)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case cmd := <-w.cmds:
			switch cmd.Command {
			case CmdStart:
				ticker.SetInterval(cmd.Interval)
				w.setLastTick(time.Now()) // arm the staleness window from now
				ticker.Start()
			case CmdStop:
				ticker.Stop()
			case CmdInterval:
				ticker.SetInterval(cmd.Interval)
			default:
				logging.Warn("unknown scheduler worker command", "command", cmd.Command)
			}

		case tick := <-ticker.C():
			w.setLastTick(tick.Timestamp)
			w.emit(Event{Type: EventTick, Timestamp: tick.Timestamp, Drift: tick.Drift})

		case now := <-heartbeat.C:
			if ticker.Running() && now.Sub(w.getLastTick()) > w.stale {
				w.emit(Event{Type: EventHeartbeat, Timestamp: now})
			}
		}
	}
}

func (w *Worker) emit(e Event) {
	select {
	case w.events <- e:
	default:
		// Consumer is behind; heartbeats and stale ticks are droppable.
	}
}

func (w *Worker) setLastTick(t time.Time) {
	w.mu.Lock()
	w.lastTick = t
	w.mu.Unlock()
}

func (w *Worker) getLastTick() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastTick
}
