package session

import "github.com/nvidal/aether/internal/stream"

// Event is one member of the closed set of inputs the session reacts to.
// Keeping the set closed makes the whole machine testable by feeding
// synthetic events without a real device or real timers.
type Event interface {
	isEvent()
}

// SinkLoadStart reports the sink started fetching a source.
type SinkLoadStart struct{}

// SinkWaiting reports the sink stalled waiting for data.
type SinkWaiting struct{}

// SinkCanPlay reports the sink has decoded enough data to start.
type SinkCanPlay struct{}

// SinkPlay reports audio output actually started.
type SinkPlay struct{}

// SinkPause reports audio output actually stopped.
type SinkPause struct{}

// SinkError reports a raw sink failure.
type SinkError struct {
	Err error
}

// EngineManifestParsed reports the stream manifest was fetched and parsed.
type EngineManifestParsed struct{}

// EngineError reports a classified streaming failure.
type EngineError struct {
	Err *stream.Error
}

func (SinkLoadStart) isEvent()        {}
func (SinkWaiting) isEvent()          {}
func (SinkCanPlay) isEvent()          {}
func (SinkPlay) isEvent()             {}
func (SinkPause) isEvent()            {}
func (SinkError) isEvent()            {}
func (EngineManifestParsed) isEvent() {}
func (EngineError) isEvent()          {}
