package pattern

import (
	"math"
	"math/rand"
)

// Builtin returns the built-in modes in their canonical load order.
func Builtin() []*Mode {
	return []*Mode{coreMode(), wavesMode(), randomMode()}
}

// coreMode holds the basic periodic shapes.
func coreMode() *Mode {
	return &Mode{
		Name:       "core",
		Enabled:    true,
		Multiplier: 1.0,
		Patterns: map[string]Func{
			"sine":     Sine,
			"triangle": Triangle,
			"sawtooth": Sawtooth,
			"square":   Square,
			"constant": Constant,
		},
		Sequences: map[string]Sequence{
			"pulse-train": {
				{Intensity: 80, Duration: 300},
				{Intensity: 0, Duration: 200},
				{Intensity: 80, Duration: 300},
				{Intensity: 0, Duration: 200},
				{Intensity: 100, Duration: 600},
			},
		},
	}
}

// wavesMode holds compound envelope shapes.
func wavesMode() *Mode {
	return &Mode{
		Name:       "waves",
		Enabled:    true,
		Multiplier: 1.0,
		Patterns: map[string]Func{
			"doublewave": DoubleWave,
			"heartbeat":  Heartbeat,
			"ramp":       Ramp,
			"pulse":      Pulse,
		},
	}
}

// randomMode holds the nondeterministic patterns. These draw from the
// ambient random source per call and are documented as not reproducible.
func randomMode() *Mode {
	return &Mode{
		Name:       "random",
		Enabled:    true,
		Multiplier: 1.0,
		Patterns: map[string]Func{
			"random": Random,
			"jitter": Jitter,
		},
	}
}

// Sine is a full sine period shifted into [0,1].
func Sine(phase, intensity float64) float64 {
	return intensity * (0.5 + 0.5*math.Sin(2*math.Pi*phase-math.Pi/2))
}

// Triangle rises linearly to 1 at phase 0.5 and falls back.
func Triangle(phase, intensity float64) float64 {
	if phase < 0.5 {
		return intensity * 2 * phase
	}
	return intensity * 2 * (1 - phase)
}

// Sawtooth rises linearly and drops at the period boundary.
func Sawtooth(phase, intensity float64) float64 {
	return intensity * phase
}

// Square is full intensity for the first half period, zero for the second.
func Square(phase, intensity float64) float64 {
	if phase < 0.5 {
		return intensity
	}
	return 0
}

// Constant holds intensity for the whole period.
func Constant(_, intensity float64) float64 {
	return intensity
}

// DoubleWave overlays two sine periods for a faster secondary throb.
func DoubleWave(phase, intensity float64) float64 {
	v := 0.5 + 0.25*math.Sin(2*math.Pi*phase-math.Pi/2) + 0.25*math.Sin(4*math.Pi*phase-math.Pi/2)
	return intensity * v
}

// Heartbeat is two sharp peaks followed by rest, like a pulse.
func Heartbeat(phase, intensity float64) float64 {
	switch {
	case phase < 0.1:
		return intensity * (phase / 0.1)
	case phase < 0.2:
		return intensity * (1 - (phase-0.1)/0.1)
	case phase < 0.3:
		return intensity * 0.7 * ((phase - 0.2) / 0.1)
	case phase < 0.4:
		return intensity * 0.7 * (1 - (phase-0.3)/0.1)
	default:
		return 0
	}
}

// Ramp rises over the first 80% of the period, then releases.
func Ramp(phase, intensity float64) float64 {
	if phase < 0.8 {
		return intensity * phase / 0.8
	}
	return intensity * (1 - phase) / 0.2
}

// Pulse is a short full-intensity burst at the start of the period.
func Pulse(phase, intensity float64) float64 {
	if phase < 0.2 {
		return intensity
	}
	return 0
}

// Random returns a uniformly random value. Not reproducible across calls.
func Random(_, intensity float64) float64 {
	return intensity * rand.Float64()
}

// Jitter follows a sine base with random deviation around it. Not
// reproducible across calls.
func Jitter(phase, intensity float64) float64 {
	base := 0.5 + 0.5*math.Sin(2*math.Pi*phase-math.Pi/2)
	v := base + (rand.Float64()-0.5)*0.3
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return intensity * v
}
