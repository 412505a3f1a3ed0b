package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/logging"
	"github.com/rdow/thrum/internal/pattern"
)

// systemCooldown suppresses re-entrant system commands: a chat stream that
// repeats <system:START> within the window only launches once.
const systemCooldown = 5000 * time.Millisecond

// Dispatcher serializes parsed commands against connected devices. System
// commands execute immediately, even while disconnected; device commands
// are queued and drained strictly one at a time by a single consumer.
type Dispatcher struct {
	client   core.Client
	roster   *core.Roster
	registry *pattern.Registry

	mu         sync.Mutex
	queue      []core.Command
	draining   bool
	lastSystem map[core.SystemAction]time.Time

	timers    map[int64]*time.Timer
	nextTimer int64
}

// New creates a dispatcher.
func New(client core.Client, roster *core.Roster, registry *pattern.Registry) *Dispatcher {
	return &Dispatcher{
		client:     client,
		roster:     roster,
		registry:   registry,
		lastSystem: make(map[core.SystemAction]time.Time),
		timers:     make(map[int64]*time.Timer),
	}
}

// Dispatch routes a batch of parsed commands: system commands run
// immediately in order, device commands are appended to the queue and a
// drain is kicked off if one is not already running.
func (d *Dispatcher) Dispatch(ctx context.Context, cmds []core.Command) {
	var queued bool
	for _, cmd := range cmds {
		if cmd.IsSystem() {
			d.executeSystem(ctx, cmd)
			continue
		}
		d.mu.Lock()
		d.queue = append(d.queue, cmd)
		d.mu.Unlock()
		queued = true
	}
	if queued {
		d.drain(ctx)
	}
}

// executeSystem runs a system command synchronously, deduplicated by a
// per-action cool-down window.
func (d *Dispatcher) executeSystem(ctx context.Context, cmd core.Command) {
	d.mu.Lock()
	if last, ok := d.lastSystem[cmd.Action]; ok && time.Since(last) < systemCooldown {
		d.mu.Unlock()
		logging.Debug("system command suppressed by cool-down", "action", string(cmd.Action))
		return
	}
	d.lastSystem[cmd.Action] = time.Now()
	d.mu.Unlock()

	var err error
	switch cmd.Action {
	case core.SystemStart:
		err = d.client.StartServer(ctx)
	case core.SystemConnect:
		err = d.client.Connect(ctx)
	case core.SystemDisconnect:
		d.CancelLoops()
		err = d.client.Disconnect(ctx)
	}
	if err != nil {
		logging.Warn("system command failed", "action", string(cmd.Action), "error", err)
	}
}

// drain runs the queue to exhaustion. The draining flag guarantees a
// single consumer; a concurrent call returns immediately and its commands
// are picked up by the running drain.
func (d *Dispatcher) drain(ctx context.Context) {
	d.mu.Lock()
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true
	d.mu.Unlock()

	go func() {
		defer func() {
			d.mu.Lock()
			d.draining = false
			d.mu.Unlock()
		}()

		for {
			d.mu.Lock()
			if len(d.queue) == 0 {
				d.mu.Unlock()
				return
			}
			cmd := d.queue[0]
			d.queue = d.queue[1:]
			d.mu.Unlock()

			if !d.client.Connected() {
				// Dropped, not buffered across a disconnect.
				logging.Debug("command dropped while disconnected", "type", string(cmd.Type))
				continue
			}
			d.execute(ctx, cmd)
		}
	}()
}

// execute issues one queued device command.
func (d *Dispatcher) execute(ctx context.Context, cmd core.Command) {
	actuator, ok := d.client.Actuator(cmd.DeviceIndex)
	if !ok {
		logging.Debug("command for unknown device skipped", "device", cmd.DeviceIndex)
		return
	}

	switch cmd.Type {
	case core.CmdVibrate:
		d.deviceOp(actuator.Vibrate(ctx, cmd.MotorIndex, float64(cmd.Intensity)/100), cmd)

	case core.CmdOscillate:
		d.deviceOp(actuator.Oscillate(ctx, float64(cmd.Intensity)/100), cmd)

	case core.CmdLinear:
		if dev, ok := d.roster.ByIndex(cmd.DeviceIndex); ok && !dev.Has(core.CapLinear) {
			logging.Debug("linear command for non-linear device skipped", "device", dev.Name)
			return
		}
		// Move to the start position quickly, then sweep to the end over
		// the requested duration.
		const seek = 150 * time.Millisecond
		d.deviceOp(actuator.Linear(ctx, float64(cmd.StartPos)/100, seek), cmd)
		d.scheduleTimer(seek, func() {
			if !d.client.Connected() {
				return
			}
			d.deviceOp(actuator.Linear(ctx,
				float64(cmd.EndPos)/100,
				time.Duration(cmd.Duration)*time.Millisecond), cmd)
		})

	case core.CmdStop:
		d.CancelLoops()
		d.deviceOp(actuator.Stop(ctx), cmd)

	case core.CmdVibratePattern, core.CmdOscillatePattern:
		d.startStepLoop(ctx, cmd, cmd.Steps, cmd.Intervals, cmd.Loop)

	case core.CmdWaveform, core.CmdPreset:
		if cmd.Pattern == "" {
			// Gradient-backed preset.
			d.startGradient(ctx, cmd)
			return
		}
		steps := d.registry.Generate(cmd.Pattern, waveformSteps, cmd.Min, cmd.Max)
		interval := cmd.Duration / waveformSteps
		if interval < minStepInterval {
			interval = minStepInterval
		}
		d.startStepLoop(ctx, cmd, steps, []int{interval}, cmd.Cycles)

	case core.CmdGradient:
		d.startGradient(ctx, cmd)
	}
}

func (d *Dispatcher) deviceOp(err error, cmd core.Command) {
	if err != nil {
		logging.Warn("device operation failed", "type", string(cmd.Type),
			"device", cmd.DeviceIndex, "error", err)
	}
}

// QueueLen reports the number of commands waiting to drain.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// PlaySequence queues a mode sequence for a device as a pattern command.
func (d *Dispatcher) PlaySequence(ctx context.Context, name string, deviceIndex int) bool {
	seq, _, ok := d.registry.Sequence(name)
	if !ok {
		logging.Warn("unknown sequence", "sequence", name)
		return false
	}
	steps := make([]int, len(seq))
	intervals := make([]int, len(seq))
	for i, s := range seq {
		steps[i] = s.Intensity
		intervals[i] = s.Duration
	}
	d.Dispatch(ctx, []core.Command{{
		Type:        core.CmdVibratePattern,
		DeviceIndex: deviceIndex,
		MotorIndex:  -1,
		Steps:       steps,
		Intervals:   intervals,
		Loop:        1,
	}})
	return true
}
