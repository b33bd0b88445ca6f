// Package stream binds an adaptive-streaming capability to an audio sink.
//
// The adaptive implementation itself is external: it is injected as a
// Loader. When no loader is available the engine falls back to assigning
// the plain stream URL directly to the sink. Errors from either path are
// classified for the session's recovery policy.
package stream

import (
	"errors"
	"sync"

	"github.com/nvidal/aether/internal/sink"
)

// ErrNoPlaybackPath is reported when neither an adaptive loader nor a
// native stream URL is available.
var ErrNoPlaybackPath = errors.New("no adaptive loader and no native stream URL")

// ErrAlreadyStarted is returned when Start is called twice on one engine.
var ErrAlreadyStarted = errors.New("engine already started")

// Loader is the externally supplied adaptive-streaming capability.
// Implementations turn a chunked manifest into decoded audio on the sink.
type Loader interface {
	// Supported reports whether the capability works on this platform.
	Supported() bool
	// Attach binds the loader to a sink. A loader is attached to at most
	// one sink at a time.
	Attach(s sink.Interface) error
	// Load begins fetching the given manifest. Progress and failures are
	// delivered on Events.
	Load(manifestURL string) error
	// Resume restarts loading after a transient failure.
	Resume() error
	// RecoverMedia runs the loader's built-in media-error recovery.
	RecoverMedia() error
	// Events delivers ManifestParsed and classified Error notifications.
	Events() <-chan Event
	// Destroy detaches from the sink and releases all loader resources.
	Destroy()
}

// EventKind identifies an engine event.
type EventKind int

const (
	// EventManifestParsed fires when the manifest has been fetched and parsed.
	EventManifestParsed EventKind = iota
	// EventError fires with a classified streaming error.
	EventError
)

// Event is an engine notification.
type Event struct {
	Kind EventKind
	Err  *Error // set only for EventError
}

// Engine drives one playback source: either an adaptive loader bound to
// the sink, or the native fallback. At most one engine is attached to a
// sink at any time; rebuilding after a fatal error means destroying the
// engine and constructing a new one.
type Engine struct {
	mu          sync.Mutex
	loader      Loader
	sk          sink.Interface
	manifestURL string
	streamURL   string

	subs    []*Subscription
	subsMu  sync.RWMutex
	started bool
	done    chan struct{}
}

// New creates an engine for the given sink. loader may be nil when no
// adaptive capability exists; streamURL may be empty when the station has
// no plain stream fallback.
func New(loader Loader, sk sink.Interface, manifestURL, streamURL string) *Engine {
	return &Engine{
		loader:      loader,
		sk:          sk,
		manifestURL: manifestURL,
		streamURL:   streamURL,
		done:        make(chan struct{}),
	}
}

// Start attaches the engine and begins loading.
//
// Adaptive path: attach the loader and load the manifest; loader events
// are forwarded to subscribers. Native path: assign the stream URL to the
// sink, which then reports progress through its own events. If neither
// path exists an Unsupported error is emitted and returned.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.started = true
	loader := e.loader
	e.mu.Unlock()

	if loader != nil && loader.Supported() {
		if err := loader.Attach(e.sk); err != nil {
			serr := Classify(err)
			e.emit(Event{Kind: EventError, Err: serr})
			return serr
		}
		go e.pump(loader.Events())
		if err := loader.Load(e.manifestURL); err != nil {
			serr := Classify(err)
			e.emit(Event{Kind: EventError, Err: serr})
			return serr
		}
		return nil
	}

	if e.streamURL != "" {
		if err := e.sk.Load(e.streamURL); err != nil {
			serr := Classify(err)
			e.emit(Event{Kind: EventError, Err: serr})
			return serr
		}
		return nil
	}

	serr := &Error{Category: CategoryUnsupported, Fatal: true, Cause: ErrNoPlaybackPath}
	e.emit(Event{Kind: EventError, Err: serr})
	return serr
}

// Resume restarts loading after a transient network failure.
func (e *Engine) Resume() error {
	e.mu.Lock()
	loader := e.loader
	e.mu.Unlock()

	if loader != nil && loader.Supported() {
		return loader.Resume()
	}
	// Native path: re-assign the source to reconnect.
	return e.sk.Load(e.streamURL)
}

// RecoverMedia attempts the loader's built-in media-error recovery.
func (e *Engine) RecoverMedia() error {
	e.mu.Lock()
	loader := e.loader
	e.mu.Unlock()

	if loader != nil && loader.Supported() {
		return loader.RecoverMedia()
	}
	return e.sk.Load(e.streamURL)
}

// Destroy detaches the engine from the sink and signals subscribers.
// The sink itself stays open; it belongs to the caller.
func (e *Engine) Destroy() {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return
	}
	loader := e.loader
	e.loader = nil
	e.mu.Unlock()

	select {
	case <-e.done:
	default:
		close(e.done)
	}
	if loader != nil {
		loader.Destroy()
	}
	e.closeAll()
}

// pump forwards loader events to engine subscribers until teardown.
func (e *Engine) pump(events <-chan Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			e.emit(ev)
		case <-e.done:
			return
		}
	}
}
