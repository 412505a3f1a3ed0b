package core

// CommandType distinguishes parsed command variants.
type CommandType string

const (
	CmdVibrate          CommandType = "vibrate"
	CmdOscillate        CommandType = "oscillate"
	CmdLinear           CommandType = "linear"
	CmdVibratePattern   CommandType = "vibrate_pattern"
	CmdOscillatePattern CommandType = "oscillate_pattern"
	CmdPreset           CommandType = "preset"
	CmdWaveform         CommandType = "waveform"
	CmdGradient         CommandType = "gradient"
	CmdStop             CommandType = "stop"
	CmdSystem           CommandType = "system"
)

// SystemAction is the subcommand of a system command.
type SystemAction string

const (
	SystemStart      SystemAction = "start"
	SystemConnect    SystemAction = "connect"
	SystemDisconnect SystemAction = "disconnect"
)

// LoopForever marks a pattern command that repeats until externally stopped.
const LoopForever = -1

// Command is a parsed device-control intent. Each variant uses only the
// fields its semantics require; commands are immutable once parsed.
type Command struct {
	Type        CommandType
	DeviceIndex int

	// vibrate / oscillate
	Intensity  int // [0,100]
	MotorIndex int // -1 = all motors

	// linear / gradient
	StartPos int // [0,100]
	EndPos   int // [0,100]
	Duration int // ms

	// gradient
	Hold    int // ms
	Release int // ms

	// preset / waveform
	Pattern string
	Min     int
	Max     int
	Cycles  int

	// vibrate_pattern / oscillate_pattern
	Steps     []int // intensities, [0,100]
	Intervals []int // ms, cycled when shorter than Steps
	Loop      int   // repeat count, LoopForever = until stopped

	// system
	Action SystemAction
}

// IsSystem returns true for commands executed immediately rather than queued.
func (c Command) IsSystem() bool {
	return c.Type == CmdSystem
}
