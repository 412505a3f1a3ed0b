package device

import (
	"context"
	"testing"
	"time"

	"github.com/rdow/thrum/internal/core"
)

func TestSimClientConnectAnnouncesDevices(t *testing.T) {
	client := NewSimClient(DefaultDevices()...)
	ctx := context.Background()

	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}

	var added int
	timeout := time.After(time.Second)
	for added < 3 {
		select {
		case e := <-client.Events():
			if e.Type == core.EventDeviceAdded {
				added++
			}
		case <-timeout:
			t.Fatalf("got %d device-added events, want 3", added)
		}
	}
}

func TestSimClientDisconnectRemovesDevices(t *testing.T) {
	client := NewSimClient(DefaultDevices()...)
	ctx := context.Background()
	client.Connect(ctx)
	if err := client.Disconnect(ctx); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if client.Connected() {
		t.Error("still connected after Disconnect")
	}

	var removed, bye bool
	timeout := time.After(time.Second)
	for !removed || !bye {
		select {
		case e := <-client.Events():
			switch e.Type {
			case core.EventDeviceRemoved:
				removed = true
			case core.EventDisconnected:
				bye = true
			}
		case <-timeout:
			t.Fatal("missing removal or disconnect events")
		}
	}
}

func TestSimActuatorRecordsOps(t *testing.T) {
	client := NewSimClient(DefaultDevices()...)
	ctx := context.Background()
	client.Connect(ctx)

	a, ok := client.Actuator(0)
	if !ok {
		t.Fatal("actuator 0 missing")
	}
	a.Vibrate(ctx, -1, 0.4)
	a.Vibrate(ctx, 0, 0.8)
	a.Stop(ctx)

	sim := client.Sim(0)
	if got := len(sim.Ops()); got != 3 {
		t.Fatalf("recorded %d ops, want 3", got)
	}
	if got := sim.Level(); got != 0.8 {
		t.Errorf("Level() = %v, want 0.8", got)
	}
	sim.Reset()
	if got := len(sim.Ops()); got != 0 {
		t.Errorf("Reset left %d ops", got)
	}
}

func TestSimActuatorFailure(t *testing.T) {
	client := NewSimClient(DefaultDevices()...)
	client.Sim(1).SetFailing(true)

	a, _ := client.Actuator(1)
	if err := a.Vibrate(context.Background(), -1, 0.5); err == nil {
		t.Error("failing actuator returned nil error")
	}
	client.Sim(1).SetFailing(false)
	if err := a.Vibrate(context.Background(), -1, 0.5); err != nil {
		t.Errorf("recovered actuator returned %v", err)
	}
}

func TestTrackPopulatesRoster(t *testing.T) {
	client := NewSimClient(DefaultDevices()...)
	roster := core.NewRoster()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go Track(ctx, client, roster, func(d core.Device) core.Device {
		if d.Index == 1 {
			d.Channel = "A"
			d.Intensity = 60
		}
		return d
	})

	client.Connect(ctx)

	deadline := time.Now().Add(time.Second)
	for roster.Len() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if roster.Len() != 3 {
		t.Fatalf("roster has %d devices, want 3", roster.Len())
	}

	cage, ok := roster.ByIndex(1)
	if !ok {
		t.Fatal("device 1 missing from roster")
	}
	if cage.Channel != "A" || cage.Intensity != 60 {
		t.Errorf("decorate not applied: channel=%q intensity=%d", cage.Channel, cage.Intensity)
	}

	client.Disconnect(ctx)
	deadline = time.Now().Add(time.Second)
	for roster.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if roster.Len() != 0 {
		t.Errorf("roster has %d devices after disconnect, want 0", roster.Len())
	}
}
