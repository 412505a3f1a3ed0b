package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotConnected      = errors.New("device client not connected")
	ErrNoDevices         = errors.New("no devices connected")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrCapabilityMissing = errors.New("device lacks required capability")
	ErrUnknownPattern    = errors.New("unknown pattern")
	ErrNoFunscript       = errors.New("no funscript loaded")
	ErrInvalidFunscript  = errors.New("invalid funscript")
	ErrConfigNotFound    = errors.New("config file not found")
	ErrInvalidConfig     = errors.New("invalid configuration")
)

// ThrumError wraps an error with a user-friendly suggestion.
type ThrumError struct {
	Err        error
	Suggestion string
}

func (e *ThrumError) Error() string {
	return e.Err.Error()
}

func (e *ThrumError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &ThrumError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	// Check if it's already a ThrumError with suggestion
	var terr *ThrumError
	if errors.As(err, &terr) && terr.Suggestion != "" {
		return terr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, ErrNotConnected) || strings.Contains(errStr, "not connected") ||
		strings.Contains(errStr, "connection refused") {
		return "Start the device server and run 'thrum connect', or send <system:CONNECT>"
	}

	if errors.Is(err, ErrNoDevices) || errors.Is(err, ErrDeviceNotFound) ||
		strings.Contains(errStr, "device not found") {
		return "Run 'thrum devices' to see connected devices"
	}

	if errors.Is(err, ErrUnknownPattern) || strings.Contains(errStr, "unknown pattern") {
		return "Run 'thrum patterns list' to see registered patterns"
	}

	if errors.Is(err, ErrNoFunscript) || errors.Is(err, ErrInvalidFunscript) ||
		strings.Contains(errStr, "funscript") {
		return "Funscripts are JSON files with an 'actions' array; channel files use a _<LETTER> suffix"
	}

	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) ||
		strings.Contains(errStr, "config") {
		return "Run 'thrum config init' to create a default configuration"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
