package session

// transition computes the next status for an event. It is pure: no side
// effects, no clock or store access, which keeps the table testable on
// its own.
//
// sinkPaused is the sink's paused flag read at handling time. Events can
// arrive interleaved (a stale waiting delivered after a later play), so
// the function recomputes from that flag rather than trusting event
// identity alone.
func transition(cur Status, ev Event, sinkPaused bool) Status {
	switch ev.(type) {
	case SinkLoadStart:
		return StatusLoadingStream

	case EngineManifestParsed:
		if cur == StatusLoadingStream {
			return StatusStreamReady
		}
		return cur

	case SinkWaiting:
		return StatusBuffering

	case SinkCanPlay:
		switch cur {
		case StatusLoadingStream, StatusStreamReady, StatusBuffering:
			if !sinkPaused {
				// Recovered from a rebuffer while output kept going.
				return StatusPlaying
			}
			return StatusReadyToPlay
		default:
			return cur
		}

	case SinkPlay:
		if sinkPaused {
			// Stale event: the sink reports paused right now.
			return cur
		}
		return StatusPlaying

	case SinkPause:
		if !sinkPaused {
			// Stale event: the sink reports running right now.
			return cur
		}
		if cur == StatusPlaying {
			return StatusPaused
		}
		return cur

	case SinkError, EngineError:
		return StatusError

	default:
		return cur
	}
}
