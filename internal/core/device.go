package core

import "strings"

// Capability identifies an actuation operation a device supports.
type Capability string

const (
	CapVibrate   Capability = "vibrate"
	CapOscillate Capability = "oscillate"
	CapLinear    Capability = "linear"
)

// Channel identifies a funscript sub-timeline. Devices assigned a channel
// only follow that channel's timeline; ChannelDefault means "unassigned",
// which follows the default timeline.
type Channel string

// ChannelDefault is the unassigned/all channel.
const ChannelDefault Channel = "-"

// Channels lists the assignable channel letters.
var Channels = []Channel{ChannelDefault, "A", "B", "C", "D"}

// DeviceType classifies a device by a name heuristic, used to pick
// type-specific presets.
type DeviceType string

const (
	DeviceTypeCage    DeviceType = "cage"
	DeviceTypePlug    DeviceType = "plug"
	DeviceTypeStroker DeviceType = "stroker"
	DeviceTypeGeneral DeviceType = "general"
)

// Device is the core's view of a connected device. The device client owns
// the handle; this struct only mirrors identity and capabilities, plus the
// channel assignment and intensity override derived from configuration.
type Device struct {
	Index        int          `json:"index"`
	Name         string       `json:"name"`
	Capabilities []Capability `json:"capabilities"`
	MotorCount   int          `json:"motor_count"`
	Channel      Channel      `json:"channel"`
	Intensity    int          `json:"intensity"` // percent, 100 = unscaled
}

// Has returns true if the device advertises the capability.
func (d *Device) Has(c Capability) bool {
	for _, cap := range d.Capabilities {
		if cap == c {
			return true
		}
	}
	return false
}

// IsStroker returns true for position-style devices, which receive linear
// moves instead of vibration scalars during funscript playback.
func (d *Device) IsStroker() bool {
	return d.Has(CapLinear) && !d.Has(CapVibrate)
}

// Type infers the device type from its name.
func (d *Device) Type() DeviceType {
	name := strings.ToLower(d.Name)
	switch {
	case strings.Contains(name, "cage"):
		return DeviceTypeCage
	case strings.Contains(name, "plug"):
		return DeviceTypePlug
	case strings.Contains(name, "solace"),
		strings.Contains(name, "stroker"),
		strings.Contains(name, "launch"):
		return DeviceTypeStroker
	default:
		return DeviceTypeGeneral
	}
}
