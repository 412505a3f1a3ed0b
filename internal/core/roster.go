package core

import (
	"strings"
	"sync"
)

// Roster is the ordered view of connected devices. Entries are appended on
// connect events and removed on disconnect events; indexes are the stable
// identities assigned by the device client, not positions in the list.
type Roster struct {
	mu      sync.RWMutex
	devices []Device
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{}
}

// Add appends a device, replacing any existing entry with the same index.
func (r *Roster) Add(d Device) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.devices {
		if r.devices[i].Index == d.Index {
			r.devices[i] = d
			return
		}
	}
	r.devices = append(r.devices, d)
}

// Remove drops the device with the given index. Unknown indexes are ignored.
func (r *Roster) Remove(index int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.devices {
		if r.devices[i].Index == index {
			r.devices = append(r.devices[:i], r.devices[i+1:]...)
			return
		}
	}
}

// All returns a snapshot of the roster in connection order.
func (r *Roster) All() []Device {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// Len returns the number of connected devices.
func (r *Roster) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}

// ByIndex returns the device with the given index.
func (r *Roster) ByIndex(index int) (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range r.devices {
		if d.Index == index {
			return d, true
		}
	}
	return Device{}, false
}

// First returns the first connected device.
func (r *Roster) First() (Device, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.devices) == 0 {
		return Device{}, false
	}
	return r.devices[0], true
}

// Resolve maps a command target to a device index. Non-empty targets match
// by case-insensitive name substring, first match wins. No match (or an
// empty/"any"/"device" target) falls back to the first device's index, or 0
// when nothing is connected.
func (r *Roster) Resolve(target string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	target = strings.ToLower(target)
	if target != "" && target != "any" && target != "device" {
		for _, d := range r.devices {
			if strings.Contains(strings.ToLower(d.Name), target) {
				return d.Index
			}
		}
	}
	if len(r.devices) > 0 {
		return r.devices[0].Index
	}
	return 0
}

// SetChannel updates the channel assignment for a device index.
func (r *Roster) SetChannel(index int, ch Channel) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.devices {
		if r.devices[i].Index == index {
			r.devices[i].Channel = ch
			return true
		}
	}
	return false
}
