package pattern

import (
	"sort"

	"github.com/rdow/thrum/internal/logging"
)

// Func maps a phase in [0,1) and an intensity scale to a value in [0,1].
// Implementations must be pure; the random family is the one sanctioned
// exception and draws from the ambient random source per call.
type Func func(phase, intensity float64) float64

// SequenceStep is one step of a pre-authored routine.
type SequenceStep struct {
	Intensity int `toml:"intensity" json:"intensity"` // [0,100]
	Duration  int `toml:"duration" json:"duration"`   // ms
}

// Sequence is a named, ordered routine played like a pattern command.
type Sequence []SequenceStep

// Mode is a named bundle of patterns and sequences with its own enabled
// flag and intensity multiplier.
type Mode struct {
	Name       string
	Enabled    bool
	Multiplier float64
	Patterns   map[string]Func
	Sequences  map[string]Sequence
}

// Registry holds modes in load order. Pattern lookup scans modes in that
// order and returns the first match; a name collision leaves the
// later-loaded pattern unreachable and is logged at registration time.
type Registry struct {
	modes []*Mode
}

// NewRegistry returns a registry with no modes loaded.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a mode. A zero multiplier is normalized to 1.0.
func (r *Registry) Register(m *Mode) {
	if m.Multiplier == 0 {
		m.Multiplier = 1.0
	}
	for name := range m.Patterns {
		if prior, ok := r.lookup(name); ok {
			logging.Warn("pattern name collision, first registration wins",
				"pattern", name, "mode", m.Name, "registered_in", prior.Name)
		}
	}
	r.modes = append(r.modes, m)
}

// Mode returns the mode with the given name.
func (r *Registry) Mode(name string) (*Mode, bool) {
	for _, m := range r.modes {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Modes returns all modes in load order.
func (r *Registry) Modes() []*Mode {
	return r.modes
}

// Lookup finds a pattern by name across enabled modes, first match wins.
func (r *Registry) Lookup(name string) (Func, *Mode, bool) {
	for _, m := range r.modes {
		if !m.Enabled {
			continue
		}
		if fn, ok := m.Patterns[name]; ok {
			return fn, m, true
		}
	}
	return nil, nil, false
}

// lookup is Lookup without the enabled filter, used for collision checks.
func (r *Registry) lookup(name string) (*Mode, bool) {
	for _, m := range r.modes {
		if _, ok := m.Patterns[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Sequence finds a sequence by name across enabled modes.
func (r *Registry) Sequence(name string) (Sequence, *Mode, bool) {
	for _, m := range r.modes {
		if !m.Enabled {
			continue
		}
		if seq, ok := m.Sequences[name]; ok {
			return seq, m, true
		}
	}
	return nil, nil, false
}

// PatternNames returns the names of all patterns reachable through Lookup,
// sorted for stable display.
func (r *Registry) PatternNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, m := range r.modes {
		if !m.Enabled {
			continue
		}
		for name := range m.Patterns {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names
}
