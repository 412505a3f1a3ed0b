package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rdow/thrum/internal/tui/styles"
)

// LogEntry represents one dispatched command or engine event.
type LogEntry struct {
	At      time.Time
	Kind    string // command type or event name
	Detail  string
	Dropped bool
}

// Log displays recent commands and engine events, newest first.
type Log struct{}

// NewLog creates a new Log component
func NewLog() *Log {
	return &Log{}
}

// Render renders the log panel
func (l *Log) Render(entries []LogEntry, width, height int, focused bool) string {
	title := styles.PanelTitle("Commands", focused)

	var content string
	if len(entries) == 0 {
		content = styles.Muted.Render("No commands yet")
	} else {
		content = l.renderEntries(entries, width-4, height-4)
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

func (l *Log) renderEntries(entries []LogEntry, width, maxLines int) string {
	lines := make([]string, 0, maxLines)

	for i := len(entries) - 1; i >= 0 && len(lines) < maxLines; i-- {
		entry := entries[i]

		icon := styles.Tracking.Render("✓")
		if entry.Dropped {
			icon = styles.Alert.Render("✗")
		}

		age := humanize.Time(entry.At)
		kind := styles.Highlight.Render(entry.Kind)
		detail := entry.Detail

		info := fmt.Sprintf("%s %s", kind, detail)
		infoLen := len(entry.Kind) + 1 + len(detail)

		padding := width - 2 - infoLen - len(age)
		if padding < 1 {
			padding = 1
		}

		line := fmt.Sprintf("%s %s%s%s",
			icon,
			info,
			lipgloss.NewStyle().Width(padding).Render(""),
			styles.Dim.Render(age))
		lines = append(lines, line)
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
