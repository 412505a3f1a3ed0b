package logging

import (
	"log/slog"
	"os"
)

var level = new(slog.LevelVar)

// Logger is the process-wide structured logger. Output is JSON unless
// THRUM_LOG_FORMAT=text.
var Logger *slog.Logger

func init() {
	var handler slog.Handler
	if os.Getenv("THRUM_LOG_FORMAT") == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	Logger = slog.New(handler)
}

// SetLevel adjusts the minimum level at runtime ("debug", "info", "warn",
// "error"); unknown values leave the level unchanged.
func SetLevel(name string) {
	switch name {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info":
		level.Set(slog.LevelInfo)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	}
}

// Shortcut helpers
var (
	Info  = func(msg string, args ...any) { Logger.Info(msg, args...) }
	Error = func(msg string, args ...any) { Logger.Error(msg, args...) }
	Warn  = func(msg string, args ...any) { Logger.Warn(msg, args...) }
	Debug = func(msg string, args ...any) { Logger.Debug(msg, args...) }
)
