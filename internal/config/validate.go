package config

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/rdow/thrum/internal/core"
	"github.com/rdow/thrum/internal/pattern"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	if err := c.Sync.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("sync: %w", err))
	}
	if err := c.Devices.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("devices: %w", err))
	}
	if err := c.Patterns.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("patterns: %w", err))
	}
	if err := c.TUI.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("tui: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

// Validate checks ServerConfig for errors.
func (c *ServerConfig) Validate() error {
	if c.Address != "" {
		if _, err := url.Parse(c.Address); err != nil {
			return fmt.Errorf("invalid address: %w", err)
		}
	}
	return nil
}

// Validate checks SyncConfig for errors.
func (c *SyncConfig) Validate() error {
	if c.Intensity < 0 || c.Intensity > 500 {
		return errors.New("intensity must be between 0 and 500")
	}
	if c.PollInterval < 0 {
		return errors.New("poll_interval must be non-negative")
	}
	return nil
}

// Validate checks DevicesConfig for errors.
func (c *DevicesConfig) Validate() error {
	for key, ch := range c.Channels {
		if !validChannel(ch) {
			return fmt.Errorf("invalid channel for %q: %s (must be one of -, A, B, C, D)", key, ch)
		}
	}
	for key, pct := range c.Intensity {
		if pct < 0 || pct > 500 {
			return fmt.Errorf("intensity for %q must be between 0 and 500", key)
		}
	}
	return nil
}

func validChannel(ch string) bool {
	for _, known := range core.Channels {
		if core.Channel(ch) == known {
			return true
		}
	}
	return false
}

// Validate checks PatternsConfig for errors. Custom expressions must
// compile; a bad expression here fails startup instead of being silently
// skipped at registration time.
func (c *PatternsConfig) Validate() error {
	if c.Multiplier < 0 {
		return errors.New("multiplier must be non-negative")
	}
	for name, expr := range c.Custom {
		if _, err := pattern.CompileExpr(expr); err != nil {
			return fmt.Errorf("custom pattern %q: %w", name, err)
		}
	}
	return nil
}

// Validate checks TUIConfig for errors.
func (c *TUIConfig) Validate() error {
	switch c.Theme {
	case "", "auto", "dark", "light":
		// valid
	default:
		return fmt.Errorf("invalid theme: %s (must be auto, dark, or light)", c.Theme)
	}
	if c.RefreshInterval < 0 {
		return errors.New("refresh_interval must be non-negative")
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
