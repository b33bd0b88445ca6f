// internal/session/status.go
package session

// Status represents the playback session status machine.
//
// The machine moves through the stream lifecycle before any audio plays:
//
//	┌──────┐ loadstart ┌───────────────┐ manifestParsed ┌─────────────┐
//	│ Idle │ ─────────▶│ LoadingStream │ ──────────────▶│ StreamReady │
//	└──────┘           └───────────────┘                └─────────────┘
//	                           │ canplay                       │ canplay
//	                           ▼                               ▼
//	                   ┌─────────────┐   play    ┌─────────┐
//	                   │ ReadyToPlay │ ─────────▶│ Playing │
//	                   └─────────────┘           └─────────┘
//	                           ▲                    │  ▲
//	                           │ canplay      pause │  │ play
//	                   ┌───────────┐                ▼  │
//	                   │ Buffering │             ┌────────┐
//	                   └───────────┘             │ Paused │
//	                           ▲                 └────────┘
//	                           │ waiting (from any non-Buffering)
//
// Any error event moves the machine to Error; a successful recovery
// rebuild moves it back to LoadingStream.
type Status int

const (
	StatusIdle Status = iota
	StatusLoadingStream
	StatusStreamReady
	StatusBuffering
	StatusReadyToPlay
	StatusPlaying
	StatusPaused
	StatusError
)

// String returns the status name as published to the state store.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLoadingStream:
		return "LoadingStream"
	case StatusStreamReady:
		return "StreamReady"
	case StatusBuffering:
		return "Buffering"
	case StatusReadyToPlay:
		return "ReadyToPlay"
	case StatusPlaying:
		return "Playing"
	case StatusPaused:
		return "Paused"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// IsActive returns true once a stream is loaded far enough to interact with.
func (s Status) IsActive() bool {
	switch s {
	case StatusReadyToPlay, StatusPlaying, StatusPaused, StatusBuffering:
		return true
	default:
		return false
	}
}
