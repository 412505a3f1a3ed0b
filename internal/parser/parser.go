package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/logging"
)

// Parser extracts structured device commands from free-form text. Commands
// are delimited tags of the form <target:BODY>; anything outside a tag is
// ignored, and a tag whose body matches no sub-grammar is dropped without
// failing the parse.
type Parser struct {
	roster *core.Roster
}

// New creates a parser resolving device targets against the roster.
func New(roster *core.Roster) *Parser {
	return &Parser{roster: roster}
}

var tagRe = regexp.MustCompile(`<([^:<>]+):([^<>]*)>`)

// systemTargets are the reserved non-device targets.
var systemTargets = map[string]bool{"intiface": true, "system": true}

// Parse scans text left to right and returns the commands it contains, in
// order. Malformed tags never raise; they are logged and skipped.
func (p *Parser) Parse(text string) []core.Command {
	var cmds []core.Command
	for _, m := range tagRe.FindAllStringSubmatch(text, -1) {
		target := strings.ToLower(strings.TrimSpace(m[1]))
		raw := strings.TrimSpace(m[2])
		body := strings.ToUpper(raw)

		if cmd, ok := p.classify(target, body, raw); ok {
			cmds = append(cmds, cmd)
		} else {
			logging.Debug("unrecognized command tag dropped", "target", target, "body", body)
		}
	}
	return cmds
}

// classify tries the sub-grammars in strict priority order against the
// uppercased body; the first match wins and no later alternative is
// reconsidered. The raw body is kept for the JSON fallback, whose string
// literals must not be case-normalized.
func (p *Parser) classify(target, body, raw string) (core.Command, bool) {
	// 1. Bare STOP works for any target.
	if body == "STOP" {
		if systemTargets[target] {
			return core.Command{Type: core.CmdStop}, true
		}
		return p.device(target, core.Command{Type: core.CmdStop}), true
	}

	// 2. System subcommands are only valid under system targets, and
	// system targets accept nothing else.
	if systemTargets[target] {
		switch body {
		case "START":
			return core.Command{Type: core.CmdSystem, Action: core.SystemStart}, true
		case "CONNECT":
			return core.Command{Type: core.CmdSystem, Action: core.SystemConnect}, true
		case "DISCONNECT":
			return core.Command{Type: core.CmdSystem, Action: core.SystemDisconnect}, true
		}
		return core.Command{}, false
	}

	for _, try := range []func(string) (core.Command, bool){
		p.tryPreset(target),
		tryWaveform,
		tryGradient,
		tryScalar,
		tryLinear,
		tryPattern,
	} {
		if cmd, ok := try(body); ok {
			return p.device(target, cmd), true
		}
	}
	if cmd, ok := tryJSON(raw); ok {
		return p.device(target, cmd), true
	}
	return core.Command{}, false
}

// device fills in the resolved device index for a device-directed command.
func (p *Parser) device(target string, cmd core.Command) core.Command {
	cmd.DeviceIndex = p.roster.Resolve(target)
	return cmd
}

// tryPreset matches `PRESET: <name>` and resolves the name against the
// targeted device's type-specific preset table.
func (p *Parser) tryPreset(target string) func(string) (core.Command, bool) {
	return func(body string) (core.Command, bool) {
		rest, ok := strings.CutPrefix(body, "PRESET:")
		if !ok {
			return core.Command{}, false
		}
		name := strings.ToLower(strings.TrimSpace(rest))
		if name == "" {
			return core.Command{}, false
		}

		dt := core.DeviceTypeGeneral
		if d, ok := p.roster.ByIndex(p.roster.Resolve(target)); ok {
			dt = d.Type()
		}
		preset, ok := lookupPreset(dt, name)
		if !ok {
			logging.Warn("unknown preset dropped", "preset", name, "device_type", string(dt))
			return core.Command{}, false
		}

		cmd := core.Command{Type: core.CmdPreset, MotorIndex: -1}
		switch preset.Kind {
		case PresetWaveform:
			cmd.Pattern = preset.Pattern
			cmd.Min, cmd.Max = preset.Min, preset.Max
			cmd.Duration, cmd.Cycles = preset.Duration, preset.Cycles
		case PresetGradient:
			cmd.StartPos, cmd.EndPos = preset.Start, preset.End
			cmd.Duration = preset.Duration
			cmd.Hold, cmd.Release = preset.Hold, preset.Release
		}
		return cmd, true
	}
}

// tryWaveform matches `WAVEFORM: <name>[, min=n][, max=n][, duration=n][, cycles=n]`.
func tryWaveform(body string) (core.Command, bool) {
	rest, ok := strings.CutPrefix(body, "WAVEFORM:")
	if !ok {
		return core.Command{}, false
	}
	fields := splitFields(rest)
	if len(fields) == 0 || strings.Contains(fields[0], "=") {
		return core.Command{}, false
	}

	cmd := core.Command{
		Type:       core.CmdWaveform,
		MotorIndex: -1,
		Pattern:    strings.ToLower(fields[0]),
		Min:        20,
		Max:        80,
		Duration:   5000,
		Cycles:     3,
	}
	kv, ok := parseKV(fields[1:])
	if !ok {
		return core.Command{}, false
	}
	if v, ok := kv["MIN"]; ok {
		cmd.Min = v
	}
	if v, ok := kv["MAX"]; ok {
		cmd.Max = v
	}
	if v, ok := kv["DURATION"]; ok {
		cmd.Duration = v
	}
	if v, ok := kv["CYCLES"]; ok {
		cmd.Cycles = v
	}
	return cmd, true
}

// tryGradient matches `GRADIENT: start=n, end=n[, duration=n][, hold=n][, release=n]`.
// end is mandatory; start defaults to 0.
func tryGradient(body string) (core.Command, bool) {
	rest, ok := strings.CutPrefix(body, "GRADIENT:")
	if !ok {
		return core.Command{}, false
	}
	kv, ok := parseKV(splitFields(rest))
	if !ok {
		return core.Command{}, false
	}
	end, ok := kv["END"]
	if !ok {
		return core.Command{}, false
	}

	cmd := core.Command{
		Type:       core.CmdGradient,
		MotorIndex: -1,
		StartPos:   kv["START"],
		EndPos:     end,
		Duration:   10000,
	}
	if v, ok := kv["DURATION"]; ok {
		cmd.Duration = v
	}
	cmd.Hold = kv["HOLD"]
	cmd.Release = kv["RELEASE"]
	return cmd, true
}

// tryScalar matches `VIBRATE: <n>` and `OSCILLATE: <n>`.
func tryScalar(body string) (core.Command, bool) {
	for prefix, typ := range map[string]core.CommandType{
		"VIBRATE:":   core.CmdVibrate,
		"OSCILLATE:": core.CmdOscillate,
	} {
		rest, ok := strings.CutPrefix(body, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return core.Command{}, false
		}
		return core.Command{Type: typ, Intensity: clamp100(n), MotorIndex: -1}, true
	}
	return core.Command{}, false
}

// tryLinear matches `LINEAR: start=n, end=n, duration=n`; all three fields
// are mandatory for this form.
func tryLinear(body string) (core.Command, bool) {
	rest, ok := strings.CutPrefix(body, "LINEAR:")
	if !ok {
		return core.Command{}, false
	}
	kv, ok := parseKV(splitFields(rest))
	if !ok {
		return core.Command{}, false
	}
	start, haveStart := kv["START"]
	end, haveEnd := kv["END"]
	duration, haveDuration := kv["DURATION"]
	if !haveStart || !haveEnd || !haveDuration {
		return core.Command{}, false
	}
	return core.Command{
		Type:       core.CmdLinear,
		MotorIndex: -1,
		StartPos:   clamp100(start),
		EndPos:     clamp100(end),
		Duration:   duration,
	}, true
}

// tryPattern matches `PATTERN: [n, ...][, interval=[n, ...]][, loop=n]`.
func tryPattern(body string) (core.Command, bool) {
	rest, ok := strings.CutPrefix(body, "PATTERN:")
	if !ok {
		return core.Command{}, false
	}
	rest = strings.TrimSpace(rest)
	steps, rest, ok := parseIntArray(rest)
	if !ok {
		return core.Command{}, false
	}

	cmd := core.Command{
		Type:       core.CmdVibratePattern,
		MotorIndex: -1,
		Steps:      clampAll(steps),
		Intervals:  []int{1000},
		Loop:       core.LoopForever,
	}

	rest = strings.TrimPrefix(strings.TrimSpace(rest), ",")
	for _, field := range strings.Split(rest, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		key, value, found := strings.Cut(field, "=")
		if !found {
			return core.Command{}, false
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "INTERVAL":
			iv, leftover, ok := parseIntArray(value)
			if !ok || strings.TrimSpace(leftover) != "" || len(iv) == 0 {
				return core.Command{}, false
			}
			cmd.Intervals = iv
		case "LOOP":
			n, err := strconv.Atoi(value)
			if err != nil {
				return core.Command{}, false
			}
			cmd.Loop = n
		default:
			return core.Command{}, false
		}
	}
	return cmd, true
}

// splitFields splits a comma-separated tail into trimmed fields, except
// inside brackets.
func splitFields(s string) []string {
	var fields []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				fields = append(fields, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	fields = append(fields, strings.TrimSpace(s[start:]))

	// Drop leading/trailing empties from stray commas.
	var out []string
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseKV parses `key=value` fields into an int map. Returns false on any
// malformed field, which drops the whole tag.
func parseKV(fields []string) (map[string]int, bool) {
	kv := make(map[string]int)
	for _, f := range fields {
		key, value, found := strings.Cut(f, "=")
		if !found {
			return nil, false
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, false
		}
		kv[strings.TrimSpace(key)] = n
	}
	return kv, true
}

// parseIntArray parses a leading `[n, n, ...]` and returns the remainder.
func parseIntArray(s string) ([]int, string, bool) {
	if !strings.HasPrefix(s, "[") {
		return nil, s, false
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return nil, s, false
	}
	inner := s[1:end]
	var values []int
	if strings.TrimSpace(inner) != "" {
		for _, part := range strings.Split(inner, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return nil, s, false
			}
			values = append(values, n)
		}
	}
	if len(values) == 0 {
		return nil, s, false
	}
	return values, s[end+1:], true
}

func clamp100(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func clampAll(values []int) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = clamp100(v)
	}
	return out
}
