package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/device"
	"github.com/rdow/thrum/internal/dispatch"
	"github.com/rdow/thrum/internal/media"
	"github.com/rdow/thrum/internal/parser"
	"github.com/rdow/thrum/internal/playback"
	"github.com/rdow/thrum/internal/tui/components"
	"github.com/rdow/thrum/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelPlayback Panel = iota
	PanelDevices
	PanelLog
)

const maxLogEntries = 100

// App holds the wired control core the dashboard drives.
type App struct {
	Client      core.Client
	Roster      *core.Roster
	Dispatcher  *dispatch.Dispatcher
	Parser      *parser.Parser
	Engine      *playback.Engine
	Source      *media.SimSource
	RefreshRate time.Duration
}

// Model is the main TUI model
type Model struct {
	app          *App
	width        int
	height       int
	focusedPanel Panel

	// State snapshots, refreshed every tick
	mediaState  core.MediaState
	engineState string
	devices     []components.DeviceRow
	log         []components.LogEntry

	// Components
	playbackView *components.Playback
	devicesView  *components.Devices
	logView      *components.Log

	// Overlays
	showHelp bool

	// Command input state
	showCommand  bool
	commandInput textinput.Model

	// Quit flag
	quitting bool
}

// NewModel creates a new TUI model
func NewModel(app *App) Model {
	ti := textinput.New()
	ti.Placeholder = "<toy:VIBRATE:80> <any:WAVEFORM: sine, min=20, max=80>"
	ti.CharLimit = 200
	ti.Width = 60

	return Model{
		app:          app,
		focusedPanel: PanelPlayback,
		playbackView: components.NewPlayback(),
		devicesView:  components.NewDevices(),
		logView:      components.NewLog(),
		commandInput: ti,
	}
}

type tickMsg time.Time

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.app.RefreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.refresh()
		return m, m.tick()

	case tea.KeyMsg:
		if m.showCommand {
			return m.handleCommandKeyPress(msg)
		}
		return m.handleKeyPress(msg)
	}

	return m, nil
}

// refresh pulls fresh snapshots from the engine, source, and roster.
func (m *Model) refresh() {
	m.mediaState = m.app.Source.State()
	m.engineState = m.app.Engine.State().String()

	devices := m.app.Roster.All()
	rows := make([]components.DeviceRow, len(devices))
	for i, d := range devices {
		rows[i] = components.DeviceRow{Device: d, Level: m.levelOf(d.Index)}
	}
	m.devices = rows
}

// levelOf reads the last commanded vibration level when the client can
// report it, -1 otherwise.
func (m *Model) levelOf(index int) int {
	sim, ok := m.app.Client.(interface{ Sim(int) *device.SimActuator })
	if !ok {
		return -1
	}
	actuator := sim.Sim(index)
	if actuator == nil {
		return -1
	}
	return int(actuator.Level() * 100)
}

func (m *Model) logEntry(kind, detail string, dropped bool) {
	m.log = append(m.log, components.LogEntry{
		At:      time.Now(),
		Kind:    kind,
		Detail:  detail,
		Dropped: dropped,
	})
	if len(m.log) > maxLogEntries {
		m.log = m.log[len(m.log)-maxLogEntries:]
	}
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % 3
		return m, nil

	case ":", "/":
		m.showCommand = true
		m.commandInput.Focus()
		return m, textinput.Blink

	case " ":
		if m.mediaState.Playing {
			m.app.Source.Pause()
			m.logEntry("media", "paused", false)
		} else {
			m.app.Source.Play()
			m.logEntry("media", "resumed", false)
		}
		m.refresh()
		return m, nil

	case "left":
		m.seekBy(-5 * time.Second)
		return m, nil

	case "right":
		m.seekBy(5 * time.Second)
		return m, nil

	case "+", "=":
		m.adjustIntensity(10)
		return m, nil

	case "-":
		m.adjustIntensity(-10)
		return m, nil

	case "[":
		m.adjustOffset(-50 * time.Millisecond)
		return m, nil

	case "]":
		m.adjustOffset(50 * time.Millisecond)
		return m, nil

	case "b":
		bg := !m.app.Engine.Background()
		m.app.Engine.SetBackground(context.Background(), bg)
		mode := "foreground"
		if bg {
			mode = "background"
		}
		m.logEntry("loop", mode, false)
		return m, nil

	case "j", "down":
		if m.focusedPanel == PanelDevices {
			m.devicesView.SelectNext()
		}
		return m, nil

	case "k", "up":
		if m.focusedPanel == PanelDevices {
			m.devicesView.SelectPrev()
		}
		return m, nil

	case "c":
		if m.focusedPanel == PanelDevices {
			m.cycleChannel()
		}
		return m, nil

	case "s":
		m.app.Dispatcher.Dispatch(context.Background(),
			[]core.Command{{Type: core.CmdStop, DeviceIndex: m.selectedDeviceIndex(), MotorIndex: -1}})
		m.logEntry("stop", "all motors", false)
		return m, nil
	}

	return m, nil
}

func (m Model) handleCommandKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.showCommand = false
		m.commandInput.Blur()
		m.commandInput.SetValue("")
		return m, nil

	case "enter":
		text := m.commandInput.Value()
		m.showCommand = false
		m.commandInput.Blur()
		m.commandInput.SetValue("")
		if text != "" {
			m.runCommand(text)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	return m, cmd
}

// runCommand parses tag text and dispatches the result.
func (m *Model) runCommand(text string) {
	cmds := m.app.Parser.Parse(text)
	if len(cmds) == 0 {
		m.logEntry("parse", "no commands recognized", true)
		return
	}
	m.app.Dispatcher.Dispatch(context.Background(), cmds)
	for _, c := range cmds {
		m.logEntry(string(c.Type), commandSummary(c), false)
	}
}

func commandSummary(c core.Command) string {
	switch c.Type {
	case core.CmdVibrate, core.CmdOscillate:
		return fmt.Sprintf("intensity %d", c.Intensity)
	case core.CmdLinear:
		return fmt.Sprintf("%d->%d %dms", c.StartPos, c.EndPos, c.Duration)
	case core.CmdVibratePattern, core.CmdOscillatePattern:
		return fmt.Sprintf("%d steps", len(c.Steps))
	case core.CmdWaveform, core.CmdPreset:
		if c.Pattern != "" {
			return c.Pattern
		}
		return "gradient"
	case core.CmdSystem:
		return string(c.Action)
	default:
		return ""
	}
}

func (m *Model) seekBy(delta time.Duration) {
	pos := m.app.Source.Position() + delta
	m.app.Source.Seek(pos)
	m.logEntry("seek", formatOffset(pos), false)
	m.refresh()
}

func (m *Model) adjustIntensity(delta int) {
	next := m.app.Engine.GlobalIntensity() + delta
	if next < 0 {
		next = 0
	}
	m.app.Engine.SetGlobalIntensity(next)
	m.logEntry("intensity", fmt.Sprintf("%d%%", next), false)
}

func (m *Model) adjustOffset(delta time.Duration) {
	next := m.app.Engine.SyncOffset() + delta
	m.app.Engine.SetSyncOffset(next)
	m.logEntry("offset", fmt.Sprintf("%+dms", next.Milliseconds()), false)
}

// cycleChannel moves the selected device to the next funscript channel.
func (m *Model) cycleChannel() {
	index := m.selectedDeviceIndex()
	d, ok := m.app.Roster.ByIndex(index)
	if !ok {
		return
	}
	next := core.Channels[0]
	for i, ch := range core.Channels {
		if ch == d.Channel {
			next = core.Channels[(i+1)%len(core.Channels)]
			break
		}
	}
	m.app.Roster.SetChannel(index, next)
	m.logEntry("channel", fmt.Sprintf("%s -> %s", d.Name, next), false)
	m.refresh()
}

func (m *Model) selectedDeviceIndex() int {
	sel := m.devicesView.Selected()
	if sel >= 0 && sel < len(m.devices) {
		return m.devices[sel].Device.Index
	}
	if d, ok := m.app.Roster.First(); ok {
		return d.Index
	}
	return 0
}

func formatOffset(d time.Duration) string {
	if d < 0 {
		return fmt.Sprintf("-%s", (-d).Round(time.Second))
	}
	return d.Round(time.Second).String()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var set = m.app.Engine.Set()
	channels := 0
	if set != nil {
		channels = len(set.Channels)
	}

	info := components.PlaybackInfo{
		Media:       m.mediaState,
		EngineState: m.engineState,
		Intensity:   m.app.Engine.GlobalIntensity(),
		OffsetMS:    int(m.app.Engine.SyncOffset().Milliseconds()),
		Background:  m.app.Engine.Background(),
		Channels:    channels,
	}

	topHeight := 9
	bottomHeight := m.height - topHeight - 4
	if bottomHeight < 5 {
		bottomHeight = 5
	}
	halfWidth := m.width/2 - 2

	playback := m.playbackView.Render(info, m.width-2, topHeight, m.focusedPanel == PanelPlayback)
	devices := m.devicesView.Render(m.devices, halfWidth, bottomHeight, m.focusedPanel == PanelDevices)
	logPanel := m.logView.Render(m.log, halfWidth, bottomHeight, m.focusedPanel == PanelLog)

	bottom := lipgloss.JoinHorizontal(lipgloss.Top, devices, logPanel)

	sections := []string{playback, bottom, m.renderStatusBar()}
	if m.showCommand {
		sections = append(sections, m.renderCommandInput())
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderStatusBar() string {
	help := "q quit • tab panel • space play/pause • ←/→ seek • +/- intensity • [/] offset • : command • ? help"
	return styles.Dim.Render(" " + help)
}

func (m Model) renderCommandInput() string {
	box := styles.FocusedBorder.Padding(0, 1).Width(m.width - 4)
	return box.Render(styles.Label.Render("command ") + m.commandInput.View())
}

func (m Model) renderHelp() string {
	lines := []string{
		styles.Title.Render("Thrum Dashboard"),
		"",
		styles.Label.Render("Global"),
		"  q, Ctrl+C    Quit",
		"  ?            Toggle help",
		"  Tab          Switch panel",
		"  :  /         Enter a command tag",
		"",
		styles.Label.Render("Playback"),
		"  Space        Play/pause the media clock",
		"  ←  →         Seek 5 seconds",
		"  +  -         Global intensity ±10%",
		"  [  ]         Sync offset ±50ms",
		"  b            Toggle background evaluation loop",
		"",
		styles.Label.Render("Devices"),
		"  j  k         Select device",
		"  c            Cycle funscript channel",
		"  s            Stop selected device",
		"",
		styles.Dim.Render("Press ? to close"),
	}
	panel := styles.BorderStyle.Padding(1, 2)
	return panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// Run starts the dashboard over an already wired control core.
func Run(app *App) error {
	model := NewModel(app)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
