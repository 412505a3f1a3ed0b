package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "ws://127.0.0.1:12345",
		},
		Sync: SyncConfig{
			Intensity:    100,
			PollInterval: 60,
		},
		Devices: DevicesConfig{
			Simulate: true,
		},
		Patterns: PatternsConfig{
			Multiplier: 1.0,
		},
		TUI: TUIConfig{
			Theme:           "auto",
			RefreshInterval: 1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Server
	if c.Server.Address == "" {
		c.Server.Address = d.Server.Address
	}

	// Sync
	if c.Sync.Intensity == 0 {
		c.Sync.Intensity = d.Sync.Intensity
	}
	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = d.Sync.PollInterval
	}

	// Patterns
	if c.Patterns.Multiplier == 0 {
		c.Patterns.Multiplier = d.Patterns.Multiplier
	}

	// TUI
	if c.TUI.Theme == "" {
		c.TUI.Theme = d.TUI.Theme
	}
	if c.TUI.RefreshInterval == 0 {
		c.TUI.RefreshInterval = d.TUI.RefreshInterval
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
