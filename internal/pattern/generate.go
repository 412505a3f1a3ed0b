package pattern

import (
	"math"

	"github.com/rdow/thrum/internal/logging"
)

// Generate synthesizes steps intensity values for the named pattern. Step i
// is sampled at phase i/steps and mapped into [min,max], clamped to [0,100]
// and rounded to the nearest integer. An unknown pattern name falls back to
// sine with a warning; the call never fails.
func (r *Registry) Generate(name string, steps, min, max int) []int {
	fn, mode, ok := r.Lookup(name)
	if !ok {
		logging.Warn("unknown pattern, falling back to sine", "pattern", name)
		fn = Sine
	}

	mult := 1.0
	if mode != nil {
		mult = mode.Multiplier
	}

	if steps <= 0 {
		return nil
	}

	out := make([]int, steps)
	for i := 0; i < steps; i++ {
		phase := float64(i) / float64(steps)
		v := float64(min) + fn(phase, 1)*float64(max-min)
		v *= mult
		out[i] = clampRound(v)
	}
	return out
}

func clampRound(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(math.Round(v))
}
