package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/rdow/thrum/internal/core"
)

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.thrumrc, $XDG_CONFIG_HOME/thrum/config.toml, ~/.config/thrum/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	path := findConfigFile()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	// Apply defaults, then environment variable overrides
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)

	return cfg, nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".thrumrc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "thrum", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := os.Getenv("THRUM_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}

	// Sync
	if v := os.Getenv("THRUM_SYNC_OFFSET_MS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Sync.OffsetMS = i
		}
	}
	if v := os.Getenv("THRUM_SYNC_INTENSITY"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Sync.Intensity = i
		}
	}

	// TUI
	if v := os.Getenv("THRUM_TUI_THEME"); v != "" {
		cfg.TUI.Theme = v
	}
	if v := os.Getenv("THRUM_TUI_REFRESH_INTERVAL"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.TUI.RefreshInterval = i
		}
	}

	// Log
	if v := os.Getenv("THRUM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("THRUM_LOG_FILE"); v != "" {
		cfg.Log.File = v
	}
}

// ChannelFor returns the configured channel for a device name. Keys match
// as case-insensitive substrings; the first match wins.
func (c *DevicesConfig) ChannelFor(name string) (core.Channel, bool) {
	lower := strings.ToLower(name)
	for key, ch := range c.Channels {
		if strings.Contains(lower, strings.ToLower(key)) {
			return core.Channel(ch), true
		}
	}
	return core.ChannelDefault, false
}

// IntensityFor returns the configured intensity override for a device
// name, or 100 when none matches.
func (c *DevicesConfig) IntensityFor(name string) int {
	lower := strings.ToLower(name)
	for key, pct := range c.Intensity {
		if strings.Contains(lower, strings.ToLower(key)) {
			return pct
		}
	}
	return 100
}

// Decorate applies the configured channel and intensity overrides to a
// device. Used when devices join the roster.
func (c *DevicesConfig) Decorate(d core.Device) core.Device {
	if ch, ok := c.ChannelFor(d.Name); ok {
		d.Channel = ch
	}
	d.Intensity = c.IntensityFor(d.Name)
	return d
}
