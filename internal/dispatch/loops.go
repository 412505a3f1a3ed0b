package dispatch

import (
	"context"
	"time"

	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/logging"
)

const (
	// waveformSteps is how many samples one waveform cycle is played with.
	waveformSteps = 20
	// minStepInterval bounds how fast a step chain may issue device ops.
	minStepInterval = 16 // ms
	// gradientStepInterval paces gradient ramps.
	gradientStepInterval = 100 // ms
)

// Pattern-bearing commands expand into self-rescheduled step chains rather
// than blocking the drain loop: each step issues one device operation and
// arms a timer for the next. Chains stop when their cycles complete, the
// client disconnects, or CancelLoops fires.

// scheduleTimer arms a cancellable continuation.
func (d *Dispatcher) scheduleTimer(delay time.Duration, fn func()) {
	d.mu.Lock()
	id := d.nextTimer
	d.nextTimer++
	d.timers[id] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		_, live := d.timers[id]
		delete(d.timers, id)
		d.mu.Unlock()
		if live {
			fn()
		}
	})
	d.mu.Unlock()
}

// CancelLoops synchronously clears every pending step-chain continuation.
// A chain whose timer is cancelled never issues another device operation.
func (d *Dispatcher) CancelLoops() {
	d.mu.Lock()
	for id, timer := range d.timers {
		timer.Stop()
		delete(d.timers, id)
	}
	d.mu.Unlock()
}

// ActiveLoops reports the number of pending chain continuations.
func (d *Dispatcher) ActiveLoops() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// startStepLoop plays steps against the command's device, cycling loop
// times (LoopForever = until cancelled). Intervals are cycled when shorter
// than the step list.
func (d *Dispatcher) startStepLoop(ctx context.Context, cmd core.Command, steps, intervals []int, loop int) {
	if len(steps) == 0 || len(intervals) == 0 {
		return
	}

	var run func(idx, cycle int)
	run = func(idx, cycle int) {
		if !d.client.Connected() {
			return
		}
		if idx >= len(steps) {
			idx = 0
			cycle++
			if loop != core.LoopForever && cycle >= loop {
				d.finishLoop(ctx, cmd)
				return
			}
		}

		d.applyStep(ctx, cmd, steps[idx])

		interval := intervals[idx%len(intervals)]
		if interval < minStepInterval {
			interval = minStepInterval
		}
		d.scheduleTimer(time.Duration(interval)*time.Millisecond, func() {
			run(idx+1, cycle)
		})
	}
	run(0, 0)
}

// applyStep issues one step's device operation.
func (d *Dispatcher) applyStep(ctx context.Context, cmd core.Command, value int) {
	actuator, ok := d.client.Actuator(cmd.DeviceIndex)
	if !ok {
		return
	}
	level := float64(value) / 100

	switch cmd.Type {
	case core.CmdOscillatePattern:
		d.deviceOp(actuator.Oscillate(ctx, level), cmd)
	case core.CmdWaveform, core.CmdPreset, core.CmdGradient:
		// Strokers receive the step as a position move, everything else
		// as vibration.
		if dev, ok := d.roster.ByIndex(cmd.DeviceIndex); ok && dev.IsStroker() {
			d.deviceOp(actuator.Linear(ctx, level, minStepInterval*time.Millisecond*4), cmd)
			return
		}
		d.deviceOp(actuator.Vibrate(ctx, cmd.MotorIndex, level), cmd)
	default:
		d.deviceOp(actuator.Vibrate(ctx, cmd.MotorIndex, level), cmd)
	}
}

// finishLoop returns the device to rest after a finite chain completes.
func (d *Dispatcher) finishLoop(ctx context.Context, cmd core.Command) {
	if actuator, ok := d.client.Actuator(cmd.DeviceIndex); ok {
		d.deviceOp(actuator.Stop(ctx), cmd)
	}
}

// startGradient ramps from StartPos to EndPos over Duration, holds for
// Hold, then releases to zero over Release. A zero Release drops straight
// to rest after the hold.
func (d *Dispatcher) startGradient(ctx context.Context, cmd core.Command) {
	ramp := gradientRamp(cmd.StartPos, cmd.EndPos, cmd.Duration)
	if len(ramp) == 0 {
		logging.Debug("gradient with no steps skipped", "device", cmd.DeviceIndex)
		return
	}

	steps := ramp
	intervals := []int{gradientStepInterval}

	if cmd.Hold > 0 {
		holdSteps := cmd.Hold / gradientStepInterval
		for i := 0; i < holdSteps; i++ {
			steps = append(steps, cmd.EndPos)
		}
	}
	if cmd.Release > 0 {
		steps = append(steps, gradientRamp(cmd.EndPos, 0, cmd.Release)...)
	} else {
		steps = append(steps, 0)
	}

	d.startStepLoop(ctx, cmd, steps, intervals, 1)
}

// gradientRamp samples a linear ramp at the gradient pace.
func gradientRamp(from, to, duration int) []int {
	n := duration / gradientStepInterval
	if n <= 0 {
		return nil
	}
	steps := make([]int, n)
	if n == 1 {
		steps[0] = to
		return steps
	}
	for i := 0; i < n; i++ {
		progress := float64(i) / float64(n-1)
		steps[i] = from + int(float64(to-from)*progress)
	}
	return steps
}
