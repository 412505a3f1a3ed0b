package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/tui/styles"
)

// DeviceRow pairs a device with its most recent commanded level.
type DeviceRow struct {
	Device core.Device
	Level  int // percent, -1 when unknown
}

// Devices displays connected haptic devices
type Devices struct {
	selected int
}

// NewDevices creates a new Devices component
func NewDevices() *Devices {
	return &Devices{selected: 0}
}

// SelectNext selects the next device
func (d *Devices) SelectNext() {
	d.selected++
}

// SelectPrev selects the previous device
func (d *Devices) SelectPrev() {
	if d.selected > 0 {
		d.selected--
	}
}

// Selected returns the selected device index
func (d *Devices) Selected() int {
	return d.selected
}

// Render renders the devices panel
func (d *Devices) Render(rows []DeviceRow, width, height int, focused bool) string {
	title := styles.PanelTitle("Devices", focused)

	var content string
	if len(rows) == 0 {
		content = styles.Muted.Render("No devices connected")
	} else {
		content = d.renderDevices(rows, width-4, height-4, focused)
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

func (d *Devices) renderDevices(rows []DeviceRow, width, maxLines int, focused bool) string {
	// Adjust selected if out of bounds
	if d.selected >= len(rows) {
		d.selected = len(rows) - 1
	}
	if d.selected < 0 {
		d.selected = 0
	}

	lines := make([]string, 0, len(rows))

	for i, row := range rows {
		device := row.Device
		icon := styles.DeviceIcon(string(device.Type()))

		// Selection indicator
		selector := "  "
		if focused && i == d.selected {
			selector = "▸ "
		}

		name := device.Name
		if i == d.selected && focused {
			name = styles.Highlight.Render(name)
		}

		channel := styles.Dim.Render(fmt.Sprintf("[%s]", device.Channel))

		meter := ""
		if row.Level >= 0 {
			meter = " " + styles.LevelBar(row.Level, 8)
		}

		line := fmt.Sprintf("%s%s %s %s%s", selector, icon, name, channel, meter)
		lines = append(lines, line)

		// Limit lines
		if len(lines) >= maxLines {
			break
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
