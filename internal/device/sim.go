package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/logging"
)

// errSimFailure simulates a device rejecting an operation.
var errSimFailure = errors.New("simulated device failure")

// SimClient is an in-process device client. It fabricates capability
// devices and records every operation issued to them, which makes it both
// the demo backend for the CLI and the double the engine tests run against.
type SimClient struct {
	mu        sync.Mutex
	connected bool
	devices   []core.Device
	actuators map[int]*SimActuator
	events    chan core.Event
}

// NewSimClient creates a disconnected client exposing the given devices.
func NewSimClient(devices ...core.Device) *SimClient {
	c := &SimClient{
		devices:   devices,
		actuators: make(map[int]*SimActuator),
		events:    make(chan core.Event, 64),
	}
	for _, d := range devices {
		c.actuators[d.Index] = &SimActuator{device: d}
	}
	return c
}

// DefaultDevices returns the simulated device set used by the CLI when no
// real client is configured.
func DefaultDevices() []core.Device {
	return []core.Device{
		{Index: 0, Name: "Sim Hush Plug", Capabilities: []core.Capability{core.CapVibrate}, MotorCount: 1, Channel: core.ChannelDefault, Intensity: 100},
		{Index: 1, Name: "Sim Cage", Capabilities: []core.Capability{core.CapVibrate, core.CapOscillate}, MotorCount: 2, Channel: core.ChannelDefault, Intensity: 100},
		{Index: 2, Name: "Sim Launch Stroker", Capabilities: []core.Capability{core.CapLinear}, MotorCount: 0, Channel: core.ChannelDefault, Intensity: 100},
	}
}

// Connect marks the client connected and announces every device.
func (c *SimClient) Connect(_ context.Context) error {
	c.mu.Lock()
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = true
	devices := make([]core.Device, len(c.devices))
	copy(devices, c.devices)
	c.mu.Unlock()

	c.emit(core.Event{Type: core.EventConnected, Timestamp: time.Now()})
	for _, d := range devices {
		c.emit(core.Event{Type: core.EventDeviceAdded, Timestamp: time.Now(), Device: d})
	}
	logging.Info("simulated device client connected", "devices", len(devices))
	return nil
}

// Disconnect drops the connection and announces device removal.
func (c *SimClient) Disconnect(_ context.Context) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return nil
	}
	c.connected = false
	devices := make([]core.Device, len(c.devices))
	copy(devices, c.devices)
	c.mu.Unlock()

	for _, d := range devices {
		c.emit(core.Event{Type: core.EventDeviceRemoved, Timestamp: time.Now(), Device: d})
	}
	c.emit(core.Event{Type: core.EventDisconnected, Timestamp: time.Now()})
	return nil
}

// Connected reports the connection state.
func (c *SimClient) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// StartServer is a no-op for the simulated client.
func (c *SimClient) StartServer(_ context.Context) error {
	logging.Debug("simulated client: start server requested")
	return nil
}

// Actuator returns the recording actuator for a device index.
func (c *SimClient) Actuator(index int) (core.Actuator, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.actuators[index]
	return a, ok
}

// Sim returns the concrete actuator for assertions in tests.
func (c *SimClient) Sim(index int) *SimActuator {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actuators[index]
}

// Events delivers lifecycle notifications.
func (c *SimClient) Events() <-chan core.Event {
	return c.events
}

// AddDevice attaches a device at runtime, announcing it if connected.
func (c *SimClient) AddDevice(d core.Device) {
	c.mu.Lock()
	c.devices = append(c.devices, d)
	c.actuators[d.Index] = &SimActuator{device: d}
	connected := c.connected
	c.mu.Unlock()
	if connected {
		c.emit(core.Event{Type: core.EventDeviceAdded, Timestamp: time.Now(), Device: d})
	}
}

func (c *SimClient) emit(e core.Event) {
	select {
	case c.events <- e:
	default:
		logging.Debug("device event dropped, consumer behind")
	}
}

// OpKind distinguishes recorded operations.
type OpKind string

const (
	OpVibrate   OpKind = "vibrate"
	OpOscillate OpKind = "oscillate"
	OpLinear    OpKind = "linear"
	OpStop      OpKind = "stop"
)

// Op is one recorded device operation.
type Op struct {
	Kind     OpKind
	Motor    int
	Level    float64
	Position float64
	Duration time.Duration
	At       time.Time
}

// SimActuator records operations and tracks the current level per motor.
type SimActuator struct {
	mu     sync.Mutex
	device core.Device
	ops    []Op
	fail   bool
}

// Vibrate records a vibration level for one motor or all motors.
func (a *SimActuator) Vibrate(_ context.Context, motor int, level float64) error {
	return a.record(Op{Kind: OpVibrate, Motor: motor, Level: level, At: time.Now()})
}

// Oscillate records an oscillation level.
func (a *SimActuator) Oscillate(_ context.Context, level float64) error {
	return a.record(Op{Kind: OpOscillate, Level: level, At: time.Now()})
}

// Linear records a position move.
func (a *SimActuator) Linear(_ context.Context, position float64, duration time.Duration) error {
	return a.record(Op{Kind: OpLinear, Position: position, Duration: duration, At: time.Now()})
}

// Stop records a stop.
func (a *SimActuator) Stop(_ context.Context) error {
	return a.record(Op{Kind: OpStop, At: time.Now()})
}

func (a *SimActuator) record(op Op) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errSimFailure
	}
	a.ops = append(a.ops, op)
	return nil
}

// Ops returns a snapshot of recorded operations.
func (a *SimActuator) Ops() []Op {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Op, len(a.ops))
	copy(out, a.ops)
	return out
}

// OpsOf returns recorded operations of one kind.
func (a *SimActuator) OpsOf(kind OpKind) []Op {
	var out []Op
	for _, op := range a.Ops() {
		if op.Kind == kind {
			out = append(out, op)
		}
	}
	return out
}

// Reset clears the recording.
func (a *SimActuator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ops = nil
}

// SetFailing makes every subsequent operation return an error, simulating
// a faulty device.
func (a *SimActuator) SetFailing(fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fail = fail
}

// Level returns the most recent vibration level, or 0.
func (a *SimActuator) Level() float64 {
	ops := a.OpsOf(OpVibrate)
	if len(ops) == 0 {
		return 0
	}
	return ops[len(ops)-1].Level
}
