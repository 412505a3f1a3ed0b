package playback

import (
	"context"
	"sync"
	"time"

	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/funscript"
	"github.com/rdow/thrum/internal/logging"
)

// seekThreshold is the forward clock delta beyond which an evaluation
// step is treated as a discontinuity (seek, chapter skip) rather than
// normal playback advance. The clock never runs backward during normal
// tracking, so backward jumps use the much tighter backwardJitter
// allowance instead.
const (
	seekThreshold  = 2000 // ms
	backwardJitter = 50   // ms
)

// State describes what the engine is doing with the media clock.
type State int

const (
	// StateIdle means no media or no funscript set is loaded.
	StateIdle State = iota
	// StateTracking means the engine is executing actions as the clock
	// passes them.
	StateTracking
	// StatePaused means the clock is stopped; cursors hold their place.
	StatePaused
	// StateEnded means the clock ran past the end of the timeline.
	StateEnded
)

func (s State) String() string {
	switch s {
	case StateTracking:
		return "tracking"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	default:
		return "idle"
	}
}

// cursor is the per-channel playhead: the index of the next unexecuted
// action and the clock value seen on the previous evaluation step.
type cursor struct {
	index        int
	lastObserved int64
}

// Engine drives devices from funscript timelines against a live media
// clock. One evaluation step reads the clock once, detects seeks, and
// executes every action the clock has passed since the previous step.
type Engine struct {
	mu     sync.Mutex
	client core.Client
	roster *core.Roster
	loader *funscript.Loader
	media  core.MediaSource

	set         *funscript.Set
	fingerprint uint64
	cursors     map[core.Channel]*cursor

	state           State
	syncOffset      time.Duration
	globalIntensity int
	pollInterval    time.Duration

	loop *loopState
}

// Option configures an Engine.
type Option func(*Engine)

// WithSyncOffset shifts the media clock by a fixed amount. Positive values
// fire actions later.
func WithSyncOffset(d time.Duration) Option {
	return func(e *Engine) { e.syncOffset = d }
}

// WithGlobalIntensity sets the initial intensity rescale percentage.
func WithGlobalIntensity(pct int) Option {
	return func(e *Engine) { e.globalIntensity = pct }
}

// WithPollInterval sets the foreground evaluation interval.
func WithPollInterval(d time.Duration) Option {
	return func(e *Engine) { e.pollInterval = d }
}

// NewEngine creates an idle engine. Evaluation starts when Start runs.
func NewEngine(client core.Client, roster *core.Roster, loader *funscript.Loader, media core.MediaSource, opts ...Option) *Engine {
	e := &Engine{
		client:          client,
		roster:          roster,
		loader:          loader,
		media:           media,
		cursors:         make(map[core.Channel]*cursor),
		state:           StateIdle,
		globalIntensity: 100,
		pollInterval:    60 * time.Millisecond,
		loop:            newLoopState(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// SetSyncOffset adjusts the clock shift while running.
func (e *Engine) SetSyncOffset(d time.Duration) {
	e.mu.Lock()
	e.syncOffset = d
	e.mu.Unlock()
}

// SyncOffset returns the current clock shift.
func (e *Engine) SyncOffset() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncOffset
}

// SetGlobalIntensity adjusts the rescale percentage while running. Values
// below zero clamp to zero.
func (e *Engine) SetGlobalIntensity(pct int) {
	if pct < 0 {
		pct = 0
	}
	e.mu.Lock()
	e.globalIntensity = pct
	e.mu.Unlock()
}

// GlobalIntensity returns the current rescale percentage.
func (e *Engine) GlobalIntensity() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.globalIntensity
}

// Set returns the loaded funscript set, or nil when idle.
func (e *Engine) Set() *funscript.Set {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.set
}

// Evaluate runs one evaluation step: refresh the funscript set, read the
// clock, and advance every channel cursor. Safe to call from either loop.
func (e *Engine) Evaluate(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.refreshSet()
	if e.set.Empty() {
		e.state = StateIdle
		return
	}

	if !e.media.Playing() {
		if e.state == StateTracking {
			// Silence devices on the transition so they do not hold
			// the last commanded level across a pause.
			e.stopDevices(ctx)
		}
		if e.ended() {
			e.state = StateEnded
		} else {
			e.state = StatePaused
		}
		return
	}

	e.state = StateTracking
	now := (e.media.Position() + e.syncOffset).Milliseconds()
	for ch, fs := range e.set.Channels {
		e.step(ctx, ch, fs, now)
	}
}

// refreshSet reloads the funscript set for the current media item and
// resets cursors when its fingerprint changes.
func (e *Engine) refreshSet() {
	set := e.loader.LoadSet(e.media.Path())
	fp := set.Fingerprint()
	if fp == e.fingerprint {
		return
	}
	e.set = set
	e.fingerprint = fp
	e.cursors = make(map[core.Channel]*cursor)
	if !set.Empty() {
		logging.Info("funscript set loaded", "media", set.Media, "channels", len(set.Channels))
	}
}

func (e *Engine) ended() bool {
	dur := e.media.Duration()
	return dur > 0 && e.media.Position() >= dur
}

// step advances one channel cursor to now, executing passed actions.
func (e *Engine) step(ctx context.Context, ch core.Channel, fs *funscript.Funscript, now int64) {
	cur, ok := e.cursors[ch]
	if !ok {
		cur = &cursor{}
		e.cursors[ch] = cur
	}
	defer func() { cur.lastObserved = now }()

	if now < 0 {
		cur.index = 0
		return
	}

	delta := now - cur.lastObserved
	if delta > seekThreshold || delta < -backwardJitter {
		e.resync(ctx, ch, fs, cur, now, delta < 0)
		return
	}

	for cur.index < len(fs.Actions) && fs.Actions[cur.index].At <= now {
		e.executeAction(ctx, ch, fs, cur.index)
		cur.index++
	}
}

// resync recomputes the cursor after a discontinuity: a linear scan for the
// greatest action at or before now. Actions skipped over are not executed;
// on a backward jump the action at the new position replays once so the
// device state matches the timeline again.
func (e *Engine) resync(ctx context.Context, ch core.Channel, fs *funscript.Funscript, cur *cursor, now int64, backward bool) {
	last := -1
	for i, a := range fs.Actions {
		if a.At > now {
			break
		}
		last = i
	}
	cur.index = last + 1
	logging.Debug("timeline resync", "channel", string(ch), "position_ms", now,
		"cursor", cur.index, "backward", backward)
	if backward && last >= 0 {
		e.executeAction(ctx, ch, fs, last)
	}
}

// executeAction fans the action out to every device on the channel.
// Devices settle concurrently; one slow or failing device does not delay
// the rest of the fan-out.
func (e *Engine) executeAction(ctx context.Context, ch core.Channel, fs *funscript.Funscript, index int) {
	a := fs.Actions[index]

	travel := time.Duration(100) * time.Millisecond
	if index > 0 {
		if gap := a.At - fs.Actions[index-1].At; gap > 0 {
			travel = time.Duration(gap) * time.Millisecond
		}
	}

	var wg sync.WaitGroup
	for _, dev := range e.roster.All() {
		if dev.Channel != ch {
			continue
		}
		actuator, ok := e.client.Actuator(dev.Index)
		if !ok {
			continue
		}
		wg.Add(1)
		go func(dev core.Device, actuator core.Actuator) {
			defer wg.Done()
			e.applyAction(ctx, dev, actuator, a, fs.Inverted, travel)
		}(dev, actuator)
	}
	wg.Wait()
}

// applyAction rescales and routes one action to one device.
func (e *Engine) applyAction(ctx context.Context, dev core.Device, actuator core.Actuator, a funscript.Action, inverted bool, travel time.Duration) {
	pct := e.globalIntensity * dev.Intensity / 100

	if dev.IsStroker() {
		pos := rescale(a.Pos.For(-1), pct, inverted)
		if err := actuator.Linear(ctx, pos/100, travel); err != nil {
			logging.Warn("linear action failed", "device", dev.Name, "error", err)
		}
		return
	}

	if a.Pos.Scalar || dev.MotorCount <= 1 {
		level := rescale(a.Pos.For(-1), pct, inverted)
		if err := actuator.Vibrate(ctx, -1, level/100); err != nil {
			logging.Warn("vibrate action failed", "device", dev.Name, "error", err)
		}
		return
	}

	for motor := 0; motor < dev.MotorCount; motor++ {
		level := rescale(a.Pos.For(motor), pct, inverted)
		if err := actuator.Vibrate(ctx, motor, level/100); err != nil {
			logging.Warn("vibrate action failed", "device", dev.Name, "motor", motor, "error", err)
			return
		}
	}
}

// rescale maps a raw funscript value through the intensity midpoint: 50
// stays fixed and the excursion around it scales by pct, clamped to
// [0,100]. Inversion mirrors the result afterwards.
func rescale(raw float64, pct int, inverted bool) float64 {
	v := 50 + (raw-50)*float64(pct)/100
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	if inverted {
		v = 100 - v
	}
	return v
}

// stopDevices silences every channel-assigned device. Called with e.mu
// held on tracking-to-paused transitions and from Stop.
func (e *Engine) stopDevices(ctx context.Context) {
	if e.set.Empty() {
		return
	}
	for _, dev := range e.roster.All() {
		if e.set.Channel(dev.Channel) == nil {
			continue
		}
		if actuator, ok := e.client.Actuator(dev.Index); ok {
			actuator.Stop(ctx)
		}
	}
}

// Cursor reports the next-action index for a channel. Diagnostics and
// tests only.
func (e *Engine) Cursor(ch core.Channel) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.cursors[ch]; ok {
		return cur.index
	}
	return 0
}
