// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Stream operations
	OpStreamLoad    Op = "load stream"
	OpStreamRecover Op = "recover stream"

	// Playback operations
	OpPlaybackToggle Op = "toggle playback"
	OpVolumeSet      Op = "set volume"

	// Metadata operations
	OpNowPlayingFetch Op = "fetch now-playing metadata"

	// State operations
	OpStateOpen Op = "open saved state"
	OpStateSave Op = "save state"

	// Initialization
	OpConfigLoad Op = "load configuration"
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
