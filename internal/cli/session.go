package cli

import (
	"context"
	"fmt"

	"github.com/rdow/thrum/internal/config"
	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/device"
	"github.com/rdow/thrum/internal/dispatch"
	"github.com/rdow/thrum/internal/funscript"
	"github.com/rdow/thrum/internal/logging"
	"github.com/rdow/thrum/internal/pattern"
)

// session bundles the wired control core for one command invocation: the
// device client, roster, pattern registry, dispatcher, and funscript
// loader, all built from the loaded configuration.
type session struct {
	client     core.Client
	roster     *core.Roster
	registry   *pattern.Registry
	dispatcher *dispatch.Dispatcher
	loader     *funscript.Loader

	cancelTrack context.CancelFunc
}

// newSession wires the control core. Only the simulated client is
// supported as a backend; a real device server connection is configured
// through server.address but dialed by an external transport.
func newSession(ctx context.Context, cfg *config.Config) (*session, error) {
	if !cfg.Devices.Simulate {
		return nil, fmt.Errorf("no device backend available: set devices.simulate = true")
	}

	client := device.NewSimClient(device.DefaultDevices()...)
	roster := core.NewRoster()
	registry := buildRegistry(cfg)

	s := &session{
		client:     client,
		roster:     roster,
		registry:   registry,
		dispatcher: dispatch.New(client, roster, registry),
		loader:     funscript.NewLoader(),
	}

	trackCtx, cancel := context.WithCancel(ctx)
	s.cancelTrack = cancel
	go device.Track(trackCtx, client, roster, cfg.Devices.Decorate)

	if err := client.Connect(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to connect device client: %w", err)
	}
	return s, nil
}

// close disconnects the client and stops roster tracking.
func (s *session) close(ctx context.Context) {
	s.dispatcher.CancelLoops()
	_ = s.client.Disconnect(ctx)
	s.cancelTrack()
}

// buildRegistry assembles the pattern registry: built-in modes, the
// configured custom expression mode, and disabled-list handling.
func buildRegistry(cfg *config.Config) *pattern.Registry {
	registry := pattern.NewRegistry()
	for _, m := range pattern.Builtin() {
		registry.Register(m)
	}
	if len(cfg.Patterns.Custom) > 0 {
		custom := pattern.CustomMode(cfg.Patterns.Custom, cfg.Patterns.Multiplier,
			func(name string, err error) {
				logging.Warn("custom pattern skipped", "pattern", name, "error", err)
			})
		registry.Register(custom)
	}
	for _, m := range registry.Modes() {
		for _, name := range cfg.Patterns.Disabled {
			if m.Name == name {
				m.Enabled = false
			}
		}
	}
	return registry
}
