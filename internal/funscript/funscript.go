package funscript

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rdow/thrum/internal/errors"
)

// Position is a funscript action target: a scalar for single-motor and
// linear devices, or an ordered per-motor array for multi-motor vibration.
type Position struct {
	Values []float64
	Scalar bool
}

// UnmarshalJSON accepts either a number or an array of numbers.
func (p *Position) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		p.Values = []float64{scalar}
		p.Scalar = true
		return nil
	}
	var values []float64
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("pos must be a number or an array of numbers")
	}
	p.Values = values
	p.Scalar = false
	return nil
}

// MarshalJSON mirrors UnmarshalJSON.
func (p Position) MarshalJSON() ([]byte, error) {
	if p.Scalar && len(p.Values) == 1 {
		return json.Marshal(p.Values[0])
	}
	return json.Marshal(p.Values)
}

// For returns the target value for a motor index. Scalars broadcast to all
// motors; arrays address motors in order, with out-of-range indexes
// clamped to the last entry.
func (p Position) For(motor int) float64 {
	if len(p.Values) == 0 {
		return 0
	}
	if p.Scalar || motor < 0 {
		return p.Values[0]
	}
	if motor >= len(p.Values) {
		return p.Values[len(p.Values)-1]
	}
	return p.Values[motor]
}

// Action is one timestamped device action.
type Action struct {
	At  int64    `json:"at"`
	Pos Position `json:"pos"`
}

// Stats summarizes a funscript's action positions.
type Stats struct {
	Count  int     `json:"count"`
	MinPos float64 `json:"min_pos"`
	MaxPos float64 `json:"max_pos"`
	AvgPos float64 `json:"avg_pos"`
}

// Funscript is a timeline of device actions for one channel.
type Funscript struct {
	Version  string   `json:"version"`
	Inverted bool     `json:"inverted"`
	Range    int      `json:"range"`
	Actions  []Action `json:"actions"`

	// Derived at load time.
	Duration int64 `json:"-"` // ms, max action timestamp
	Stats    Stats `json:"-"`
}

// Parse decodes and validates funscript JSON. The actions field must be
// present and be an array; actions are sorted ascending by timestamp so
// downstream consumers can rely on the ordering invariant.
func Parse(data []byte) (*Funscript, error) {
	var probe struct {
		Actions json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidFunscript, err)
	}
	if len(probe.Actions) == 0 || probe.Actions[0] != '[' {
		return nil, fmt.Errorf("%w: actions must be an array", errors.ErrInvalidFunscript)
	}

	fs := &Funscript{}
	if err := json.Unmarshal(data, fs); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidFunscript, err)
	}

	sort.SliceStable(fs.Actions, func(i, j int) bool {
		return fs.Actions[i].At < fs.Actions[j].At
	})

	fs.Duration = 0
	if n := len(fs.Actions); n > 0 {
		fs.Duration = fs.Actions[n-1].At
	}
	fs.Stats = computeStats(fs.Actions)
	return fs, nil
}

func computeStats(actions []Action) Stats {
	s := Stats{Count: len(actions)}
	if len(actions) == 0 {
		return s
	}
	s.MinPos = actions[0].Pos.For(-1)
	s.MaxPos = s.MinPos
	var sum float64
	for _, a := range actions {
		v := a.Pos.For(-1)
		if v < s.MinPos {
			s.MinPos = v
		}
		if v > s.MaxPos {
			s.MaxPos = v
		}
		sum += v
	}
	s.AvgPos = sum / float64(len(actions))
	return s
}
