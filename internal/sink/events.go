package sink

// EventKind identifies a sink lifecycle event.
type EventKind int

const (
	// EventLoadStart fires when the sink begins fetching a source.
	EventLoadStart EventKind = iota
	// EventWaiting fires when output stalls waiting for data.
	EventWaiting
	// EventCanPlay fires when enough data is decoded to start output.
	EventCanPlay
	// EventPlay fires when audio output actually starts.
	EventPlay
	// EventPause fires when audio output actually stops.
	EventPause
	// EventError fires when the source or device fails; Err carries the cause.
	EventError
)

// String returns the event name.
func (k EventKind) String() string {
	switch k {
	case EventLoadStart:
		return "loadstart"
	case EventWaiting:
		return "waiting"
	case EventCanPlay:
		return "canplay"
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a sink lifecycle notification.
type Event struct {
	Kind EventKind
	Err  error // set only for EventError
}
