package device

import (
	"context"

	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/logging"
)

// Track pumps client lifecycle events into the roster until the context is
// cancelled. decorate, when non-nil, is applied to each added device and
// is where configuration-derived channel assignments and intensity
// overrides are attached.
func Track(ctx context.Context, client core.Client, roster *core.Roster, decorate func(core.Device) core.Device) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-client.Events():
			if !ok {
				return
			}
			switch e.Type {
			case core.EventDeviceAdded:
				d := e.Device
				if decorate != nil {
					d = decorate(d)
				}
				roster.Add(d)
				logging.Info("device connected", "name", d.Name, "index", d.Index,
					"channel", string(d.Channel))
			case core.EventDeviceRemoved:
				roster.Remove(e.Device.Index)
				logging.Info("device disconnected", "name", e.Device.Name, "index", e.Device.Index)
			case core.EventDisconnected:
				logging.Warn("device client disconnected")
			case core.EventConnected:
				logging.Info("device client connected")
			}
		}
	}
}
