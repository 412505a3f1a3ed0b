package pattern

import "testing"

func newTestRegistry() *Registry {
	r := NewRegistry()
	for _, m := range Builtin() {
		r.Register(m)
	}
	return r
}

func TestGenerateRange(t *testing.T) {
	r := newTestRegistry()

	// Covers the random family too: values must stay inside [min,max]
	// regardless of the draw, even though the sequence itself is not
	// reproducible.
	for _, name := range r.PatternNames() {
		t.Run(name, func(t *testing.T) {
			values := r.Generate(name, 32, 10, 90)
			if len(values) != 32 {
				t.Fatalf("Generate(%q) returned %d steps, want 32", name, len(values))
			}
			for i, v := range values {
				if v < 10 || v > 90 {
					t.Errorf("step %d = %d, want within [10,90]", i, v)
				}
			}
		})
	}
}

func TestGenerateSineDeterministic(t *testing.T) {
	r := newTestRegistry()

	first := r.Generate("sine", 8, 0, 100)
	second := r.Generate("sine", 8, 0, 100)

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("step %d differs across calls: %d vs %d", i, first[i], second[i])
		}
	}

	// Sine starts at the minimum and peaks at the half period.
	if first[0] != 0 {
		t.Errorf("step 0 = %d, want 0", first[0])
	}
	if first[4] != 100 {
		t.Errorf("step 4 = %d, want 100", first[4])
	}

	// Symmetry about the peak: rising and falling halves mirror.
	for k := 1; k < 4; k++ {
		if first[k] != first[8-k] {
			t.Errorf("steps %d and %d = %d, %d; want equal", k, 8-k, first[k], first[8-k])
		}
	}
}

func TestGenerateUnknownFallsBackToSine(t *testing.T) {
	r := newTestRegistry()

	got := r.Generate("nosuchpattern", 8, 0, 100)
	want := r.Generate("sine", 8, 0, 100)

	if len(got) != len(want) {
		t.Fatalf("got %d steps, want %d", len(got), len(want))
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("step %d = %d, want %d (sine fallback)", i, got[i], want[i])
		}
	}
}

func TestGenerateClampsToValidRange(t *testing.T) {
	r := newTestRegistry()

	// min > max pushes values below min; everything must stay in [0,100].
	for _, v := range r.Generate("sine", 16, 90, 200) {
		if v < 0 || v > 100 {
			t.Errorf("value %d outside [0,100]", v)
		}
	}
}

func TestGenerateZeroSteps(t *testing.T) {
	r := newTestRegistry()
	if got := r.Generate("sine", 0, 0, 100); got != nil {
		t.Errorf("Generate with 0 steps = %v, want nil", got)
	}
}

func TestRegistryCollisionFirstWins(t *testing.T) {
	r := NewRegistry()
	r.Register(&Mode{
		Name:    "first",
		Enabled: true,
		Patterns: map[string]Func{
			"shared": func(_, _ float64) float64 { return 0.25 },
		},
	})
	r.Register(&Mode{
		Name:    "second",
		Enabled: true,
		Patterns: map[string]Func{
			"shared": func(_, _ float64) float64 { return 0.75 },
		},
	})

	fn, mode, ok := r.Lookup("shared")
	if !ok {
		t.Fatal("Lookup(shared) failed")
	}
	if mode.Name != "first" {
		t.Errorf("resolved mode = %q, want %q", mode.Name, "first")
	}
	if got := fn(0, 1); got != 0.25 {
		t.Errorf("fn(0,1) = %v, want 0.25 (first registration)", got)
	}
}

func TestRegistrySkipsDisabledModes(t *testing.T) {
	r := NewRegistry()
	r.Register(&Mode{
		Name:    "off",
		Enabled: false,
		Patterns: map[string]Func{
			"only": func(_, _ float64) float64 { return 1 },
		},
	})

	if _, _, ok := r.Lookup("only"); ok {
		t.Error("Lookup found a pattern in a disabled mode")
	}
}

func TestRegistrySequenceLookup(t *testing.T) {
	r := newTestRegistry()
	seq, mode, ok := r.Sequence("pulse-train")
	if !ok {
		t.Fatal("Sequence(pulse-train) not found")
	}
	if mode.Name != "core" {
		t.Errorf("mode = %q, want core", mode.Name)
	}
	if len(seq) == 0 {
		t.Error("sequence is empty")
	}
}
