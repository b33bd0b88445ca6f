// Package sink abstracts the audio output used for stream playback.
//
// A sink owns the audio device and a single loaded source. Commands
// (Load, Play, Pause, SetVolume) request changes; the sink reports what
// actually happened through lifecycle events on its subscriptions. The
// paused flag is the authoritative playback fact: callers that need to
// know whether audio is flowing read Paused(), never their own bookkeeping.
package sink

// Interface defines the sink contract for dependency injection and testing.
type Interface interface {
	// Load begins fetching and decoding the given source URL.
	Load(url string) error
	// Play starts or resumes audio output. The returned error reports a
	// rejected start (e.g. the device refused); on rejection no Play
	// event is emitted and Paused() keeps reporting true.
	Play() error
	Pause()
	Paused() bool
	SetVolume(level float64)
	Volume() float64
	Subscribe() *Subscription
	Close() error
}
