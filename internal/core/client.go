package core

import (
	"context"
	"time"
)

// Actuator is the per-device operation surface supplied by the device
// client. Levels and positions are normalized to [0,1]; the client owns the
// wire encoding.
type Actuator interface {
	// Vibrate drives one motor, or all motors when motor is -1.
	Vibrate(ctx context.Context, motor int, level float64) error
	Oscillate(ctx context.Context, level float64) error
	Linear(ctx context.Context, position float64, duration time.Duration) error
	Stop(ctx context.Context) error
}

// EventType distinguishes device client events.
type EventType int

const (
	EventDeviceAdded EventType = iota
	EventDeviceRemoved
	EventConnected
	EventDisconnected
)

// Event is a device client lifecycle notification.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Device    Device
}

// Client is the external device-control collaborator. Discovery, pairing and
// the wire transport live behind this interface.
type Client interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	Connected() bool

	// StartServer launches the device-control server process if the client
	// manages one; clients that attach to an already-running server may
	// treat this as a no-op.
	StartServer(ctx context.Context) error

	// Actuator returns the operation surface for a device index.
	Actuator(index int) (Actuator, bool)

	// Events delivers connect/disconnect and device add/remove notifications.
	Events() <-chan Event
}
