package core

import "time"

// MediaSource is the live media clock the sync engine tracks. Position is
// read once per evaluation step; implementations must make it cheap.
type MediaSource interface {
	Position() time.Duration
	Duration() time.Duration
	Playing() bool
	// Path identifies the loaded media item; funscripts are looked up
	// relative to it.
	Path() string
}

// MediaState is a snapshot of a media source, used for display.
type MediaState struct {
	Path     string        `json:"path"`
	Position time.Duration `json:"position"`
	Duration time.Duration `json:"duration"`
	Playing  bool          `json:"playing"`
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s MediaState) ProgressPercent() float64 {
	if s.Duration == 0 {
		return 0
	}
	return float64(s.Position) / float64(s.Duration) * 100
}
