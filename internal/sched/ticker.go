package sched

import (
	"sync"
	"time"
)

// Tick is one firing of a drift-corrected ticker. Expected is the ideal
// firing time; Drift is how far behind (or ahead) the actual firing was.
type Tick struct {
	Timestamp time.Time
	Expected  time.Time
	Drift     time.Duration
}

// Ticker emits ticks at a nominal interval while compensating for
// execution drift: a tick that fires late shortens the wait before the
// next one, so expected tick boundaries stay exactly interval apart and
// the long-run rate does not skew.
type Ticker struct {
	mu       sync.Mutex
	interval time.Duration
	expected time.Time
	timer    *time.Timer
	running  bool
	ticks    chan Tick
	now      func() time.Time
}

// NewTicker creates a stopped ticker with the given nominal interval.
func NewTicker(interval time.Duration) *Ticker {
	return &Ticker{
		interval: interval,
		ticks:    make(chan Tick, 16),
		now:      time.Now,
	}
}

// C returns the tick channel. Ticks are dropped if the consumer falls
// more than the channel buffer behind.
func (t *Ticker) C() <-chan Tick {
	return t.ticks
}

// Start begins ticking. Starting a running ticker is a no-op.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.running = true
	t.expected = t.now().Add(t.interval)
	t.timer = time.AfterFunc(t.interval, t.fire)
}

// Stop cancels any pending firing. Stopping a stopped ticker is a no-op.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.running = false
	if t.timer != nil {
		t.timer.Stop()
	}
}

// SetInterval changes the nominal interval. The change takes effect when
// the in-flight countdown fires; it does not reschedule it.
func (t *Ticker) SetInterval(interval time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.interval = interval
}

// Running reports whether the ticker is active.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Ticker) fire() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}

	now := t.now()
	drift := now.Sub(t.expected)
	tick := Tick{Timestamp: now, Expected: t.expected, Drift: drift}

	// Advance the ideal boundary and shorten the next wait by the drift
	// we just observed.
	t.expected = t.expected.Add(t.interval)
	delay := t.interval - drift
	if delay < 0 {
		delay = 0
	}
	t.timer = time.AfterFunc(delay, t.fire)
	t.mu.Unlock()

	select {
	case t.ticks <- tick:
	default:
		// Consumer is behind; drop rather than block the timer goroutine.
	}
}
