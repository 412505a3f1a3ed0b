package components

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/tui/styles"
)

// PlaybackInfo is the sync engine snapshot the playback panel renders.
type PlaybackInfo struct {
	Media       core.MediaState
	EngineState string
	Intensity   int
	OffsetMS    int
	Background  bool
	Channels    int
}

// Playback displays the media clock and sync engine state.
type Playback struct{}

// NewPlayback creates a new Playback component
func NewPlayback() *Playback {
	return &Playback{}
}

// Render renders the playback panel
func (p *Playback) Render(info PlaybackInfo, width, height int, focused bool) string {
	title := styles.PanelTitle("Playback", focused)

	var content string
	if info.Media.Path == "" {
		content = styles.Muted.Render("No media loaded")
	} else {
		content = p.renderMedia(info, width-4)
	}

	panel := styles.Panel("", focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (p *Playback) renderMedia(info PlaybackInfo, width int) string {
	icon := styles.StatusIcon(info.Media.Playing)
	name := styles.Title.Width(width - 4).Render(filepath.Base(info.Media.Path))

	state := styles.Subtitle.Render(info.EngineState)
	if info.EngineState == "tracking" {
		state = styles.Tracking.Render(info.EngineState)
	}

	progressWidth := width - 14
	if progressWidth < 10 {
		progressWidth = 10
	}
	progressBar := styles.ProgressBar(info.Media.ProgressPercent(), progressWidth)
	progress := fmt.Sprintf("%s %s %s",
		formatDuration(info.Media.Position),
		progressBar,
		formatDuration(info.Media.Duration))

	loop := "foreground"
	if info.Background {
		loop = "background"
	}
	detail := styles.Muted.Render(fmt.Sprintf(
		"intensity %d%%  offset %+dms  %d channel(s)  %s loop",
		info.Intensity, info.OffsetMS, info.Channels, loop))

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+name,
		"  "+state,
		"",
		progress,
		"",
		detail,
	)
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	d = d.Round(time.Second)
	m := d / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d", m, s)
}
