package media

import (
	"sync"
	"time"

	"github.com/rdow/thrum/internal/core"
)

// SimSource is a wall-clock media source for sessions without a real
// player: it advances while playing, supports seeks, and optionally loops
// at the end of the item.
type SimSource struct {
	mu        sync.Mutex
	path      string
	duration  time.Duration
	base      time.Duration
	startedAt time.Time
	playing   bool
	loop      bool
}

// NewSimSource creates a paused source at position zero.
func NewSimSource(path string, duration time.Duration) *SimSource {
	return &SimSource{path: path, duration: duration}
}

// SetLoop makes the clock wrap to zero at the end instead of stopping.
func (s *SimSource) SetLoop(loop bool) {
	s.mu.Lock()
	s.loop = loop
	s.mu.Unlock()
}

// Play starts or resumes the clock.
func (s *SimSource) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.playing {
		return
	}
	s.playing = true
	s.startedAt = time.Now()
}

// Pause freezes the clock at the current position.
func (s *SimSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return
	}
	s.base = s.positionLocked()
	s.playing = false
}

// Seek jumps to an absolute position. Negative positions are allowed;
// the clock plays up through zero, which models a lead-in delay.
func (s *SimSource) Seek(pos time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.base = pos
	if s.playing {
		s.startedAt = time.Now()
	}
}

// Position returns the current clock value.
func (s *SimSource) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionLocked()
}

func (s *SimSource) positionLocked() time.Duration {
	if !s.playing {
		return s.base
	}
	pos := s.base + time.Since(s.startedAt)
	if s.duration > 0 && pos >= s.duration {
		if s.loop {
			pos %= s.duration
			s.base = pos
			s.startedAt = time.Now()
			return pos
		}
		s.base = s.duration
		s.playing = false
		return s.duration
	}
	return pos
}

// Duration returns the item length.
func (s *SimSource) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Playing reports whether the clock is advancing.
func (s *SimSource) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.positionLocked()
	return s.playing
}

// Path returns the media item path funscripts resolve against.
func (s *SimSource) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// State snapshots the source for display.
func (s *SimSource) State() core.MediaState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.MediaState{
		Path:     s.path,
		Position: s.positionLocked(),
		Duration: s.duration,
		Playing:  s.playing,
	}
}
