package parser

import (
	"testing"

	"github.com/rdow/thrum/internal/core"
)

func testRoster() *core.Roster {
	r := core.NewRoster()
	r.Add(core.Device{Index: 0, Name: "Lovense Hush Plug", Capabilities: []core.Capability{core.CapVibrate}, MotorCount: 1, Channel: core.ChannelDefault})
	r.Add(core.Device{Index: 1, Name: "Cellmate Cage", Capabilities: []core.Capability{core.CapVibrate}, MotorCount: 2, Channel: core.ChannelDefault})
	r.Add(core.Device{Index: 2, Name: "Kiiroo Launch Stroker", Capabilities: []core.Capability{core.CapLinear}, MotorCount: 0, Channel: core.ChannelDefault})
	return r
}

func TestParseVibrate(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("sure, here you go <cage:VIBRATE: 50> enjoy")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Type != core.CmdVibrate {
		t.Errorf("Type = %v, want vibrate", cmd.Type)
	}
	if cmd.Intensity != 50 {
		t.Errorf("Intensity = %d, want 50", cmd.Intensity)
	}
	if cmd.DeviceIndex != 1 {
		t.Errorf("DeviceIndex = %d, want 1 (name contains 'cage')", cmd.DeviceIndex)
	}
}

func TestParseVibrateNoMatchDefaultsToFirstDevice(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("<wand:VIBRATE: 30>")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].DeviceIndex != 0 {
		t.Errorf("DeviceIndex = %d, want 0 fallback", cmds[0].DeviceIndex)
	}
}

func TestParseVibrateEmptyRoster(t *testing.T) {
	p := New(core.NewRoster())

	cmds := p.Parse("<cage:VIBRATE: 50>")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].DeviceIndex != 0 {
		t.Errorf("DeviceIndex = %d, want 0", cmds[0].DeviceIndex)
	}
}

func TestParseIntensityClamped(t *testing.T) {
	p := New(testRoster())

	tests := []struct {
		text string
		want int
	}{
		{"<any:VIBRATE: 150>", 100},
		{"<any:VIBRATE: -20>", 0},
		{"<any:OSCILLATE: 100>", 100},
	}
	for _, tt := range tests {
		cmds := p.Parse(tt.text)
		if len(cmds) != 1 {
			t.Fatalf("Parse(%q) got %d commands, want 1", tt.text, len(cmds))
		}
		if cmds[0].Intensity != tt.want {
			t.Errorf("Parse(%q) intensity = %d, want %d", tt.text, cmds[0].Intensity, tt.want)
		}
	}
}

func TestParseWaveform(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("<any:WAVEFORM: sine, min=10, max=80, duration=5000, cycles=3>")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Type != core.CmdWaveform {
		t.Fatalf("Type = %v, want waveform", cmd.Type)
	}
	if cmd.Pattern != "sine" || cmd.Min != 10 || cmd.Max != 80 || cmd.Duration != 5000 || cmd.Cycles != 3 {
		t.Errorf("waveform = %+v, want sine/10/80/5000/3", cmd)
	}
}

func TestParseWaveformDefaults(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("<any:WAVEFORM: triangle>")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Min != 20 || cmd.Max != 80 || cmd.Duration != 5000 || cmd.Cycles != 3 {
		t.Errorf("defaults = %d/%d/%d/%d, want 20/80/5000/3", cmd.Min, cmd.Max, cmd.Duration, cmd.Cycles)
	}
}

func TestParseGradient(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("<any:GRADIENT: start=10, end=90, duration=8000, hold=2000>")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Type != core.CmdGradient {
		t.Fatalf("Type = %v, want gradient", cmd.Type)
	}
	if cmd.StartPos != 10 || cmd.EndPos != 90 || cmd.Duration != 8000 || cmd.Hold != 2000 || cmd.Release != 0 {
		t.Errorf("gradient = %+v, want 10/90/8000/2000/0", cmd)
	}
}

func TestParseGradientEndMandatory(t *testing.T) {
	p := New(testRoster())

	if cmds := p.Parse("<any:GRADIENT: start=10, duration=8000>"); len(cmds) != 0 {
		t.Errorf("gradient without end parsed: %+v", cmds)
	}
}

func TestParseLinear(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("<stroker:LINEAR: start=0, end=100, duration=400>")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Type != core.CmdLinear || cmd.StartPos != 0 || cmd.EndPos != 100 || cmd.Duration != 400 {
		t.Errorf("linear = %+v", cmd)
	}
	if cmd.DeviceIndex != 2 {
		t.Errorf("DeviceIndex = %d, want 2", cmd.DeviceIndex)
	}
}

func TestParseLinearAllFieldsMandatory(t *testing.T) {
	p := New(testRoster())

	if cmds := p.Parse("<any:LINEAR: start=0, end=100>"); len(cmds) != 0 {
		t.Errorf("linear without duration parsed: %+v", cmds)
	}
}

func TestParsePattern(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("<any:PATTERN: [20, 60, 100], interval=[500, 250], loop=2>")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Type != core.CmdVibratePattern {
		t.Fatalf("Type = %v, want vibrate_pattern", cmd.Type)
	}
	if len(cmd.Steps) != 3 || cmd.Steps[0] != 20 || cmd.Steps[2] != 100 {
		t.Errorf("Steps = %v", cmd.Steps)
	}
	if len(cmd.Intervals) != 2 || cmd.Intervals[0] != 500 {
		t.Errorf("Intervals = %v", cmd.Intervals)
	}
	if cmd.Loop != 2 {
		t.Errorf("Loop = %d, want 2", cmd.Loop)
	}
}

func TestParsePatternDefaults(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("<any:PATTERN: [10, 90]>")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if len(cmd.Intervals) != 1 || cmd.Intervals[0] != 1000 {
		t.Errorf("Intervals = %v, want [1000]", cmd.Intervals)
	}
	if cmd.Loop != core.LoopForever {
		t.Errorf("Loop = %d, want LoopForever", cmd.Loop)
	}
}

func TestParsePreset(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("<cage:PRESET: throb>")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Type != core.CmdPreset {
		t.Fatalf("Type = %v, want preset", cmd.Type)
	}
	// throb is a cage preset backed by the heartbeat waveform.
	if cmd.Pattern != "heartbeat" {
		t.Errorf("Pattern = %q, want heartbeat", cmd.Pattern)
	}
}

func TestParsePresetGeneralFallback(t *testing.T) {
	p := New(testRoster())

	// "gentle" only exists in the general table; the plug device falls
	// back to it.
	cmds := p.Parse("<plug:PRESET: gentle>")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	if cmds[0].Pattern != "sine" {
		t.Errorf("Pattern = %q, want sine", cmds[0].Pattern)
	}
}

func TestParseUnknownPresetDropped(t *testing.T) {
	p := New(testRoster())

	if cmds := p.Parse("<any:PRESET: nosuchpreset>"); len(cmds) != 0 {
		t.Errorf("unknown preset parsed: %+v", cmds)
	}
}

func TestParseStop(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("<cage:STOP>")
	if len(cmds) != 1 || cmds[0].Type != core.CmdStop {
		t.Fatalf("got %+v, want one stop", cmds)
	}
	if cmds[0].DeviceIndex != 1 {
		t.Errorf("DeviceIndex = %d, want 1", cmds[0].DeviceIndex)
	}
}

func TestParseSystemCommands(t *testing.T) {
	p := New(testRoster())

	tests := []struct {
		text string
		want core.SystemAction
	}{
		{"<intiface:START>", core.SystemStart},
		{"<system:CONNECT>", core.SystemConnect},
		{"<system:DISCONNECT>", core.SystemDisconnect},
	}
	for _, tt := range tests {
		cmds := p.Parse(tt.text)
		if len(cmds) != 1 {
			t.Fatalf("Parse(%q) got %d commands, want 1", tt.text, len(cmds))
		}
		if cmds[0].Type != core.CmdSystem || cmds[0].Action != tt.want {
			t.Errorf("Parse(%q) = %+v, want system %v", tt.text, cmds[0], tt.want)
		}
	}
}

func TestParseSystemSubcommandsOnlyUnderSystemTargets(t *testing.T) {
	p := New(testRoster())

	// CONNECT under a device target matches no device sub-grammar.
	if cmds := p.Parse("<cage:CONNECT>"); len(cmds) != 0 {
		t.Errorf("device-target CONNECT parsed: %+v", cmds)
	}
	// Device grammars are not valid under system targets.
	if cmds := p.Parse("<system:VIBRATE: 50>"); len(cmds) != 0 {
		t.Errorf("system-target VIBRATE parsed: %+v", cmds)
	}
}

func TestParseGarbledTagDropped(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("ok <cage:VIBRATE: 40> and <cage:NOTACOMMAND> done")
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1 (garbled tag dropped)", len(cmds))
	}
	if cmds[0].Type != core.CmdVibrate || cmds[0].Intensity != 40 {
		t.Errorf("surviving command = %+v", cmds[0])
	}
}

func TestParseMultipleTagsInOrder(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse("<any:VIBRATE: 10> then <any:VIBRATE: 90> then <any:STOP>")
	if len(cmds) != 3 {
		t.Fatalf("got %d commands, want 3", len(cmds))
	}
	if cmds[0].Intensity != 10 || cmds[1].Intensity != 90 || cmds[2].Type != core.CmdStop {
		t.Errorf("order wrong: %+v", cmds)
	}
}

func TestParseMalformedNumberDropsTag(t *testing.T) {
	p := New(testRoster())

	if cmds := p.Parse("<any:VIBRATE: fifty>"); len(cmds) != 0 {
		t.Errorf("malformed number parsed: %+v", cmds)
	}
	if cmds := p.Parse("<any:WAVEFORM: sine, min=abc>"); len(cmds) != 0 {
		t.Errorf("malformed kv parsed: %+v", cmds)
	}
}

func TestParseJSONFallback(t *testing.T) {
	p := New(testRoster())

	tests := []struct {
		name string
		text string
		typ  core.CommandType
	}{
		{"vibrate scalar", `<any:{"vibrate": 70}>`, core.CmdVibrate},
		{"oscillate scalar", `<any:{"oscillate": 30}>`, core.CmdOscillate},
		{"vibrate pattern", `<any:{"vibrate": {"pattern": [10, 50], "interval": [200], "loop": 1}}>`, core.CmdVibratePattern},
		{"oscillate pattern", `<any:{"oscillate": {"pattern": [25, 75]}}>`, core.CmdOscillatePattern},
		{"linear object", `<any:{"linear": {"start": 0, "end": 100, "duration": 300}}>`, core.CmdLinear},
		{"stop", `<any:{"stop": true}>`, core.CmdStop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := p.Parse(tt.text)
			if len(cmds) != 1 {
				t.Fatalf("got %d commands, want 1", len(cmds))
			}
			if cmds[0].Type != tt.typ {
				t.Errorf("Type = %v, want %v", cmds[0].Type, tt.typ)
			}
		})
	}
}

func TestParseJSONPatternDefaults(t *testing.T) {
	p := New(testRoster())

	cmds := p.Parse(`<any:{"vibrate": {"pattern": [40, 80]}}>`)
	if len(cmds) != 1 {
		t.Fatalf("got %d commands, want 1", len(cmds))
	}
	cmd := cmds[0]
	if len(cmd.Intervals) != 1 || cmd.Intervals[0] != 1000 {
		t.Errorf("Intervals = %v, want [1000]", cmd.Intervals)
	}
	if cmd.Loop != core.LoopForever {
		t.Errorf("Loop = %d, want LoopForever", cmd.Loop)
	}
}

func TestParseNoTags(t *testing.T) {
	p := New(testRoster())

	if cmds := p.Parse("just a normal chat message, nothing to do"); len(cmds) != 0 {
		t.Errorf("got %+v, want none", cmds)
	}
}

// The examples shown in the CLI help text and the dashboard command
// placeholder must stay parseable.
func TestParseHelpTextExamples(t *testing.T) {
	p := New(testRoster())

	tests := []struct {
		text string
		typ  core.CommandType
	}{
		{"<toy:VIBRATE:80>", core.CmdVibrate},
		{"warmup <any:WAVEFORM: sine, min=20, max=80, duration=5000>", core.CmdWaveform},
		{"<cage:PATTERN: [20,80,20], interval=[250], loop=4>", core.CmdVibratePattern},
		{"<any:WAVEFORM: sine, min=20, max=80>", core.CmdWaveform},
	}
	for _, tt := range tests {
		cmds := p.Parse(tt.text)
		if len(cmds) != 1 {
			t.Errorf("%q parsed to %d commands, want 1", tt.text, len(cmds))
			continue
		}
		if cmds[0].Type != tt.typ {
			t.Errorf("%q Type = %v, want %v", tt.text, cmds[0].Type, tt.typ)
		}
	}
}
