package funscript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mitchellh/hashstructure/v2"
	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/logging"
)

// Set is the per-channel funscript collection for one media item.
type Set struct {
	Media    string
	Channels map[core.Channel]*Funscript
	paths    []string
	stamps   []int64 // unix-nano mtimes, parallel to paths
}

// Channel returns the funscript for a channel, or nil when that channel
// has no timeline.
func (s *Set) Channel(ch core.Channel) *Funscript {
	if s == nil {
		return nil
	}
	return s.Channels[ch]
}

// Empty returns true when no channel has a timeline.
func (s *Set) Empty() bool {
	return s == nil || len(s.Channels) == 0
}

// Fingerprint identifies the loaded set for change detection: the playback
// engine keeps cursor state only while the fingerprint is stable.
func (s *Set) Fingerprint() uint64 {
	if s == nil {
		return 0
	}
	h, err := hashstructure.Hash(struct {
		Media  string
		Paths  []string
		Stamps []int64
	}{s.Media, s.paths, s.stamps}, hashstructure.FormatV2, nil)
	if err != nil {
		return 0
	}
	return h
}

// Loader loads funscript sets and caches them by media path. Sets are
// discarded when a different media item loads.
type Loader struct {
	mu    sync.Mutex
	media string
	set   *Set
}

// NewLoader returns an empty loader.
func NewLoader() *Loader {
	return &Loader{}
}

// LoadFile parses a single funscript file.
func LoadFile(path string) (*Funscript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read funscript: %w", err)
	}
	fs, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fs, nil
}

// LoadSet discovers and loads the funscripts for a media item: the default
// channel from `<base>.funscript` and channel variants from
// `<base>_<CHANNEL>.funscript`. A missing file is not an error, only that
// channel has no data; a present-but-invalid file is skipped with a
// warning. The set for the most recent media item is cached; loading a
// different item discards the previous set.
func (l *Loader) LoadSet(mediaPath string) *Set {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.set != nil && l.media == mediaPath {
		return l.set
	}

	base := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
	set := &Set{
		Media:    mediaPath,
		Channels: make(map[core.Channel]*Funscript),
	}

	for _, ch := range core.Channels {
		path := base + ".funscript"
		if ch != core.ChannelDefault {
			path = fmt.Sprintf("%s_%s.funscript", base, ch)
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		fs, err := LoadFile(path)
		if err != nil {
			logging.Warn("skipping unreadable funscript", "path", path, "error", err)
			continue
		}
		set.Channels[ch] = fs
		set.paths = append(set.paths, path)
		set.stamps = append(set.stamps, info.ModTime().UnixNano())
		logging.Info("funscript loaded",
			"path", path, "channel", string(ch),
			"actions", fs.Stats.Count, "duration_ms", fs.Duration)
	}

	l.media = mediaPath
	l.set = set
	return set
}

// Invalidate drops the cached set.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.media = ""
	l.set = nil
}
