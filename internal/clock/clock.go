// Package clock implements the elapsed-playback-time counter.
//
// The counter is not a per-tick increment: every publication recomputes
// accumulated + floor(now-epoch), so scheduler jitter never accumulates
// into drift. Elapsed time advances only while the clock runs and only
// the owner decides when that is; nothing here derives from a media
// position.
package clock

import (
	"sync"
	"time"
)

// Interface defines the clock contract for dependency injection and testing.
type Interface interface {
	Start()
	Stop()
	Reset()
	Elapsed() int
	Running() bool
}

// Clock counts whole seconds of playback against the wall clock.
// The onElapsed callback receives every published value, including the
// synchronous zero published by Reset.
type Clock struct {
	mu        sync.Mutex
	now       func() time.Time
	interval  time.Duration
	onElapsed func(seconds int)

	accumulated int
	epoch       time.Time // zero when not running
	running     bool
	stopCh      chan struct{}
}

// New creates a clock publishing to onElapsed at one-second resolution.
func New(onElapsed func(seconds int)) *Clock {
	return &Clock{
		now:       time.Now,
		interval:  time.Second,
		onElapsed: onElapsed,
	}
}

// Start records the epoch and begins ticking. No-op if already running.
func (c *Clock) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.epoch = c.now()
	c.stopCh = make(chan struct{})
	stopCh := c.stopCh
	c.mu.Unlock()

	go c.run(stopCh)
}

// Stop cancels the tick and folds the current segment into the
// accumulated total. No-op if not running.
func (c *Clock) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.running = false
	c.accumulated += c.segmentLocked()
	c.epoch = time.Time{}
	close(c.stopCh)
	c.stopCh = nil
	c.mu.Unlock()
}

// Reset zeroes the counter and publishes 0 synchronously. If the clock
// was running it keeps running from a fresh epoch.
func (c *Clock) Reset() {
	c.mu.Lock()
	c.accumulated = 0
	if c.running {
		c.epoch = c.now()
	}
	cb := c.onElapsed
	c.mu.Unlock()

	if cb != nil {
		cb(0)
	}
}

// Elapsed returns the current whole-second count.
func (c *Clock) Elapsed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accumulated + c.segmentLocked()
}

// Running reports whether the clock is ticking.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// segmentLocked returns whole seconds since the current epoch. Callers
// hold c.mu.
func (c *Clock) segmentLocked() int {
	if c.epoch.IsZero() {
		return 0
	}
	return int(c.now().Sub(c.epoch) / time.Second)
}

func (c *Clock) run(stopCh chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.publish()
		case <-stopCh:
			return
		}
	}
}

// publish recomputes the count from the epoch and reports it.
func (c *Clock) publish() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	elapsed := c.accumulated + c.segmentLocked()
	cb := c.onElapsed
	c.mu.Unlock()

	if cb != nil {
		cb(elapsed)
	}
}

// Verify Clock implements Interface at compile time.
var _ Interface = (*Clock)(nil)
