package funscript

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rdow/thrum/internal/core"
)

// WatchEventType represents the type of funscript file event.
type WatchEventType int

const (
	WatchChanged WatchEventType = iota
	WatchAdded
	WatchRemoved
)

// WatchEvent represents a funscript file change.
type WatchEvent struct {
	Type      WatchEventType
	Path      string
	Timestamp time.Time
}

// Watcher polls a media item's funscript files for changes and emits
// events. On any change it invalidates the loader cache, so the next
// LoadSet call picks up the edited timelines.
type Watcher struct {
	loader   *Loader
	media    string
	interval time.Duration
	events   chan WatchEvent
	done     chan struct{}
}

// NewWatcher creates a watcher for the funscripts next to a media path.
func NewWatcher(loader *Loader, mediaPath string, interval time.Duration) *Watcher {
	if interval == 0 {
		interval = time.Second
	}
	return &Watcher{
		loader:   loader,
		media:    mediaPath,
		interval: interval,
		events:   make(chan WatchEvent, 16),
		done:     make(chan struct{}),
	}
}

// Events returns the channel of file events.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start begins polling for file changes.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	prev := w.stamps()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			curr := w.stamps()
			events := diffStamps(prev, curr)
			if len(events) > 0 {
				w.loader.Invalidate()
			}
			for _, e := range events {
				select {
				case w.events <- e:
				default:
					// Drop event if channel is full
				}
			}
			prev = curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// candidates lists every funscript path this media item may use.
func (w *Watcher) candidates() []string {
	base := strings.TrimSuffix(w.media, filepath.Ext(w.media))
	paths := make([]string, 0, len(core.Channels))
	for _, ch := range core.Channels {
		if ch == core.ChannelDefault {
			paths = append(paths, base+".funscript")
		} else {
			paths = append(paths, fmt.Sprintf("%s_%s.funscript", base, ch))
		}
	}
	return paths
}

// stamps reads the current mtime of each candidate that exists.
func (w *Watcher) stamps() map[string]int64 {
	out := make(map[string]int64)
	for _, path := range w.candidates() {
		if info, err := os.Stat(path); err == nil {
			out[path] = info.ModTime().UnixNano()
		}
	}
	return out
}

// diffStamps compares two mtime snapshots and returns detected events.
func diffStamps(prev, curr map[string]int64) []WatchEvent {
	now := time.Now()
	var events []WatchEvent

	for path, stamp := range curr {
		old, ok := prev[path]
		if !ok {
			events = append(events, WatchEvent{Type: WatchAdded, Path: path, Timestamp: now})
			continue
		}
		if old != stamp {
			events = append(events, WatchEvent{Type: WatchChanged, Path: path, Timestamp: now})
		}
	}
	for path := range prev {
		if _, ok := curr[path]; !ok {
			events = append(events, WatchEvent{Type: WatchRemoved, Path: path, Timestamp: now})
		}
	}
	return events
}
