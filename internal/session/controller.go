// Package session implements the playback session controller.
//
// The controller fuses three independently firing event sources: the
// sink's lifecycle events, the stream engine's manifest/error events,
// and the external track-change notification. It owns the status
// machine, gates the elapsed clock on the observed play state, and runs
// the error recovery policy. All public entry points and all event
// handling serialize through one mutex, so handlers see a consistent
// session and nothing mutates state after Destroy.
package session

import (
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nvidal/aether/internal/clock"
	"github.com/nvidal/aether/internal/sink"
	"github.com/nvidal/aether/internal/store"
	"github.com/nvidal/aether/internal/stream"
)

// Config carries the stream sources resolved at construction.
type Config struct {
	// ManifestURL is the adaptive-stream manifest, used when a Loader is
	// present and supported.
	ManifestURL string
	// StreamURL is the plain stream assigned natively to the sink when
	// no adaptive capability exists.
	StreamURL string
	// Loader is the external adaptive capability; nil when absent.
	Loader stream.Loader
}

// Controller is the single owner of the playback session.
type Controller struct {
	mu sync.Mutex

	cfg    Config
	sk     sink.Interface
	clk    clock.Interface
	st     *store.Store
	policy *RecoveryPolicy
	logger *log.Logger

	engine    *stream.Engine
	sinkSub   *sink.Subscription
	engineSub *stream.Subscription

	status     Status
	isPlaying  bool
	retryTimer *time.Timer
	destroyed  bool
	done       chan struct{}
}

// New creates a controller around an injected sink, clock and store.
// Nothing starts until Initialize.
func New(sk sink.Interface, clk clock.Interface, st *store.Store, policy *RecoveryPolicy, logger *log.Logger, cfg Config) *Controller {
	if logger == nil {
		logger = log.Default()
	}
	return &Controller{
		cfg:    cfg,
		sk:     sk,
		clk:    clk,
		st:     st,
		policy: policy,
		logger: logger,
		status: StatusIdle,
		done:   make(chan struct{}),
	}
}

// Initialize subscribes to the sink, probes the adaptive capability and
// starts the stream engine. Status moves to LoadingStream; if no
// playback path exists at all, the Unsupported error path runs and
// status ends at Error.
func (c *Controller) Initialize() error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return nil
	}
	c.sinkSub = c.sk.Subscribe()
	go c.pumpSink(c.sinkSub)

	c.setStatusLocked(StatusLoadingStream)
	err := c.startEngineLocked()
	c.mu.Unlock()
	return err
}

// startEngineLocked builds and starts a fresh engine. Callers hold c.mu.
func (c *Controller) startEngineLocked() error {
	eng := stream.New(c.cfg.Loader, c.sk, c.cfg.ManifestURL, c.cfg.StreamURL)
	c.engine = eng
	c.engineSub = eng.Subscribe()
	go c.pumpEngine(c.engineSub)

	if err := eng.Start(); err != nil {
		// Start already emitted the classified error; the engine pump
		// delivers it to handle.
		return err
	}
	return nil
}

// TogglePlay requests play when the sink is paused, pause otherwise.
//
// The controller never flips isPlaying itself: only the sink's own
// play/pause events do, so racing toggles cannot desynchronize the
// published state. A rejected play (autoplay-style policy block) leaves
// isPlaying false and reverts the status without surfacing an error to
// the caller.
func (c *Controller) TogglePlay() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	prev := c.status
	sk := c.sk
	c.mu.Unlock()

	if !sk.Paused() {
		sk.Pause()
		return
	}

	if err := sk.Play(); err != nil {
		c.logger.Warn("play rejected", "err", err)
		c.mu.Lock()
		if !c.destroyed {
			if prev == StatusPaused {
				c.setStatusLocked(StatusPaused)
			} else {
				c.setStatusLocked(StatusReadyToPlay)
			}
		}
		c.mu.Unlock()
	}
}

// SetVolume clamps the level to [0, 1], forwards it to the sink and
// publishes it.
func (c *Controller) SetVolume(level float64) {
	level = math.Max(0, math.Min(1, level))

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	sk := c.sk
	c.mu.Unlock()

	sk.SetVolume(level)
	c.st.SetVolume(level)
}

// Volume returns the sink's current level.
func (c *Controller) Volume() float64 {
	return c.sk.Volume()
}

// ResetElapsedTime zeroes the elapsed counter immediately, whether or
// not playback is active. Idempotent.
func (c *Controller) ResetElapsedTime() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.clk.Reset()
}

// Status returns the current session status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// IsPlaying reports the play state as last observed from the sink.
func (c *Controller) IsPlaying() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isPlaying
}

// Destroy stops the clock, cancels any pending retry, detaches the
// engine and releases the sink. Events delivered after Destroy returns
// cannot mutate session state.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	if c.retryTimer != nil {
		c.retryTimer.Stop()
		c.retryTimer = nil
	}
	eng := c.engine
	c.engine = nil
	close(c.done)
	c.mu.Unlock()

	c.clk.Stop()
	if eng != nil {
		eng.Destroy()
	}
	c.sk.Close()
}

// handle is the single serialized entry point for every event.
func (c *Controller) handle(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}

	switch e := ev.(type) {
	case SinkError:
		c.handleErrorLocked(stream.Classify(e.Err))
		return
	case EngineError:
		c.handleErrorLocked(e.Err)
		return
	case EngineManifestParsed:
		c.policy.RecordSuccess()
	}

	sinkPaused := c.sk.Paused()
	next := transition(c.status, ev, sinkPaused)

	switch ev.(type) {
	case SinkWaiting:
		if !c.isPlaying {
			// Defensive reset: buffering before any playback must not
			// leave stale elapsed time on screen.
			c.clk.Reset()
		}
	case SinkPlay, SinkPause:
		c.syncPlayStateLocked(sinkPaused)
	}

	c.setStatusLocked(next)
}

// syncPlayStateLocked realigns isPlaying and the clock with the sink's
// authoritative paused flag. Callers hold c.mu.
func (c *Controller) syncPlayStateLocked(sinkPaused bool) {
	playing := !sinkPaused
	if playing == c.isPlaying {
		return
	}
	c.isPlaying = playing
	if playing {
		c.clk.Start()
	} else {
		c.clk.Stop()
	}
	c.st.SetPlaying(playing)
}

// handleErrorLocked runs the recovery policy for a classified error.
// Callers hold c.mu.
func (c *Controller) handleErrorLocked(serr *stream.Error) {
	if serr == nil {
		serr = stream.Classify(nil)
	}
	act := c.policy.Decide(serr)

	switch act.Kind {
	case ActionResume:
		// Transient: absorb, keep loading, show Buffering. The elapsed
		// clock is deliberately untouched here.
		c.logger.Debug("transient stream error, resuming", "category", serr.Category.String(), "err", serr.Cause)
		if eng := c.engine; eng != nil {
			go func() {
				if err := eng.Resume(); err != nil {
					c.handle(EngineError{Err: stream.Classify(err)})
				}
			}()
		}
		c.setStatusLocked(StatusBuffering)

	case ActionRecoverMedia:
		c.logger.Debug("media error, attempting built-in recovery", "err", serr.Cause)
		if eng := c.engine; eng != nil {
			go func() {
				if err := eng.RecoverMedia(); err != nil {
					c.handle(EngineError{Err: stream.Classify(err)})
				}
			}()
		}

	case ActionReinit:
		c.logger.Warn("fatal stream error, scheduling rebuild",
			"category", serr.Category.String(), "attempt", c.policy.Attempts(), "delay", act.Delay, "err", serr.Cause)
		c.setStatusLocked(StatusError)
		c.scheduleReinitLocked(act.Delay)

	case ActionGiveUp:
		c.logger.Error("unrecoverable stream error",
			"category", serr.Category.String(), "fatal", serr.Fatal, "err", serr.Cause)
		c.setStatusLocked(StatusError)
	}
}

// scheduleReinitLocked arms the backoff timer for a full engine rebuild.
// Callers hold c.mu.
func (c *Controller) scheduleReinitLocked(delay time.Duration) {
	if c.retryTimer != nil {
		c.retryTimer.Stop()
	}
	c.retryTimer = time.AfterFunc(delay, c.reinit)
}

// reinit tears down the failed engine and builds a fresh one attached to
// the sink.
func (c *Controller) reinit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}

	if c.engine != nil {
		eng := c.engine
		c.engine = nil
		// Tear the old engine down before reattaching. The sink carries
		// at most one engine at a time, so a stale Destroy must not land
		// after the fresh attach. Destroy closes the old subscriptions
		// and its pump exits; it never calls back into the controller.
		eng.Destroy()
	}

	c.setStatusLocked(StatusLoadingStream)
	_ = c.startEngineLocked()
}

// setStatusLocked publishes a status change. Callers hold c.mu.
func (c *Controller) setStatusLocked(next Status) {
	if next == c.status {
		return
	}
	c.status = next
	c.st.SetStatus(next.String())
}

// pumpSink translates sink events into session events.
func (c *Controller) pumpSink(sub *sink.Subscription) {
	for {
		select {
		case ev := <-sub.Events:
			c.handle(sinkEvent(ev))
		case <-sub.Done:
			return
		case <-c.done:
			return
		}
	}
}

// pumpEngine translates engine events into session events.
func (c *Controller) pumpEngine(sub *stream.Subscription) {
	for {
		select {
		case ev := <-sub.Events:
			switch ev.Kind {
			case stream.EventManifestParsed:
				c.handle(EngineManifestParsed{})
			case stream.EventError:
				c.handle(EngineError{Err: ev.Err})
			}
		case <-sub.Done:
			return
		case <-c.done:
			return
		}
	}
}

// sinkEvent maps a sink notification to its session event variant.
func sinkEvent(ev sink.Event) Event {
	switch ev.Kind {
	case sink.EventLoadStart:
		return SinkLoadStart{}
	case sink.EventWaiting:
		return SinkWaiting{}
	case sink.EventCanPlay:
		return SinkCanPlay{}
	case sink.EventPlay:
		return SinkPlay{}
	case sink.EventPause:
		return SinkPause{}
	default:
		return SinkError{Err: ev.Err}
	}
}
