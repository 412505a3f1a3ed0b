package parser

import (
	"encoding/json"
	"strings"

	"github.com/rdow/thrum/internal/core"
)

// The JSON fallback accepts a body that is a JSON object keyed by
// VIBRATE/OSCILLATE/LINEAR/STOP. VIBRATE and OSCILLATE accept a scalar
// intensity or an object pattern form; LINEAR takes an object. Keys are
// matched case-insensitively; the body itself is parsed raw because JSON
// literals must not be case-normalized.

// tryJSON attempts the JSON object sub-grammar.
func tryJSON(raw string) (core.Command, bool) {
	obj, ok := unmarshalUpperKeys(json.RawMessage(raw))
	if !ok {
		return core.Command{}, false
	}

	if msg, ok := obj["VIBRATE"]; ok {
		return jsonScalarOrPattern(msg, core.CmdVibrate, core.CmdVibratePattern)
	}
	if msg, ok := obj["OSCILLATE"]; ok {
		return jsonScalarOrPattern(msg, core.CmdOscillate, core.CmdOscillatePattern)
	}
	if msg, ok := obj["LINEAR"]; ok {
		fields, ok := unmarshalUpperKeys(msg)
		if !ok {
			return core.Command{}, false
		}
		start, ok1 := jsonInt(fields["START"])
		end, ok2 := jsonInt(fields["END"])
		duration, ok3 := jsonInt(fields["DURATION"])
		if !ok1 || !ok2 || !ok3 {
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
	if _, ok := obj["STOP"]; ok {
		return core.Command{Type: core.CmdStop}, true
	}
	return core.Command{}, false
}

func jsonScalarOrPattern(msg json.RawMessage, scalar, patterned core.CommandType) (core.Command, bool) {
	var n int
	if err := json.Unmarshal(msg, &n); err == nil {
		return core.Command{Type: scalar, Intensity: clamp100(n), MotorIndex: -1}, true
	}

	fields, ok := unmarshalUpperKeys(msg)
	if !ok {
		return core.Command{}, false
	}
	steps, ok := jsonIntArray(fields["PATTERN"])
	if !ok || len(steps) == 0 {
		return core.Command{}, false
	}

	cmd := core.Command{
		Type:       patterned,
		MotorIndex: -1,
		Steps:      clampAll(steps),
		Intervals:  []int{1000},
		Loop:       core.LoopForever,
	}
	if iv, ok := jsonIntArray(fields["INTERVAL"]); ok && len(iv) > 0 {
		cmd.Intervals = iv
	}
	if n, ok := jsonInt(fields["LOOP"]); ok {
		cmd.Loop = n
	}
	return cmd, true
}

// unmarshalUpperKeys decodes a JSON object with keys normalized to upper
// case.
func unmarshalUpperKeys(msg json.RawMessage) (map[string]json.RawMessage, bool) {
	if len(msg) == 0 {
		return nil, false
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(msg, &raw); err != nil {
		return nil, false
	}
	out := make(map[string]json.RawMessage, len(raw))
	for k, v := range raw {
		out[strings.ToUpper(k)] = v
	}
	return out, true
}

func jsonInt(msg json.RawMessage) (int, bool) {
	if len(msg) == 0 {
		return 0, false
	}
	var n int
	if err := json.Unmarshal(msg, &n); err != nil {
		return 0, false
	}
	return n, true
}

func jsonIntArray(msg json.RawMessage) ([]int, bool) {
	if len(msg) == 0 {
		return nil, false
	}
	var values []int
	if err := json.Unmarshal(msg, &values); err != nil {
		return nil, false
	}
	return values, true
}
