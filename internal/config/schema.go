package config

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Sync     SyncConfig     `toml:"sync"`
	Devices  DevicesConfig  `toml:"devices"`
	Patterns PatternsConfig `toml:"patterns"`
	TUI      TUIConfig      `toml:"tui"`
	Log      LogConfig      `toml:"log"`
}

// ServerConfig holds device server settings.
type ServerConfig struct {
	Address     string `toml:"address"`
	AutoConnect bool   `toml:"auto_connect"`
}

// SyncConfig holds funscript sync engine settings.
type SyncConfig struct {
	// OffsetMS shifts the media clock; positive fires actions later.
	OffsetMS int `toml:"offset_ms"`
	// Intensity is the global rescale percentage around the midpoint.
	Intensity    int `toml:"intensity"`
	PollInterval int `toml:"poll_interval"`
}

// DevicesConfig holds per-device overrides, keyed by a case-insensitive
// substring of the device name.
type DevicesConfig struct {
	Simulate  bool              `toml:"simulate"`
	Channels  map[string]string `toml:"channels"`
	Intensity map[string]int    `toml:"intensity"`
}

// PatternsConfig holds pattern engine settings.
type PatternsConfig struct {
	Disabled   []string `toml:"disabled"`
	Multiplier float64  `toml:"multiplier"`
	// Custom maps pattern names to intensity expressions evaluated over
	// phase and intensity.
	Custom map[string]string `toml:"custom"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme           string `toml:"theme"`
	RefreshInterval int    `toml:"refresh_interval"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}
