package parser

import "github.com/rdow/thrum/internal/core"

// PresetKind selects which command a preset expands into.
type PresetKind int

const (
	PresetWaveform PresetKind = iota
	PresetGradient
)

// Preset is a device-type-specific default configuration for a waveform or
// gradient command.
type Preset struct {
	Kind     PresetKind
	Pattern  string
	Min      int
	Max      int
	Duration int // ms
	Cycles   int
	Start    int
	End      int
	Hold     int // ms
	Release  int // ms
}

// presets maps device types to their named presets. Lookup falls back to
// the general table when the device type has no entry for the name.
var presets = map[core.DeviceType]map[string]Preset{
	core.DeviceTypeGeneral: {
		"gentle":  {Kind: PresetWaveform, Pattern: "sine", Min: 10, Max: 45, Duration: 8000, Cycles: 2},
		"waves":   {Kind: PresetWaveform, Pattern: "doublewave", Min: 20, Max: 80, Duration: 6000, Cycles: 3},
		"intense": {Kind: PresetWaveform, Pattern: "sine", Min: 50, Max: 100, Duration: 4000, Cycles: 4},
		"pulse":   {Kind: PresetWaveform, Pattern: "pulse", Min: 0, Max: 90, Duration: 3000, Cycles: 5},
		"buildup": {Kind: PresetGradient, Start: 10, End: 90, Duration: 15000, Hold: 3000, Release: 2000},
	},
	core.DeviceTypeCage: {
		"throb": {Kind: PresetWaveform, Pattern: "heartbeat", Min: 20, Max: 70, Duration: 5000, Cycles: 4},
		"tease": {Kind: PresetGradient, Start: 5, End: 60, Duration: 20000, Hold: 0, Release: 5000},
	},
	core.DeviceTypePlug: {
		"rumble": {Kind: PresetWaveform, Pattern: "triangle", Min: 30, Max: 85, Duration: 6000, Cycles: 3},
		"swell":  {Kind: PresetGradient, Start: 20, End: 80, Duration: 12000, Hold: 4000, Release: 3000},
	},
	core.DeviceTypeStroker: {
		"slow":    {Kind: PresetWaveform, Pattern: "sine", Min: 10, Max: 90, Duration: 10000, Cycles: 2},
		"edge":    {Kind: PresetWaveform, Pattern: "ramp", Min: 20, Max: 100, Duration: 8000, Cycles: 3},
		"sprint":  {Kind: PresetWaveform, Pattern: "sawtooth", Min: 40, Max: 100, Duration: 3000, Cycles: 6},
	},
}

// lookupPreset resolves a preset name for a device type, falling back to
// the general table.
func lookupPreset(dt core.DeviceType, name string) (Preset, bool) {
	if table, ok := presets[dt]; ok {
		if p, ok := table[name]; ok {
			return p, true
		}
	}
	p, ok := presets[core.DeviceTypeGeneral][name]
	return p, ok
}

// PresetNames returns the preset names available for a device type,
// including the general fallbacks.
func PresetNames(dt core.DeviceType) []string {
	seen := make(map[string]bool)
	var names []string
	for _, table := range []map[string]Preset{presets[dt], presets[core.DeviceTypeGeneral]} {
		for name := range table {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}
