package nowplaying

import "sync"

// Resetter is the slice of the session controller the bridge needs.
type Resetter interface {
	ResetElapsedTime()
}

// Bridge resets the elapsed clock when the station reports a different
// track. The reset fires exactly once per distinct identity and does not
// care whether playback is active.
type Bridge struct {
	mu       sync.Mutex
	resetter Resetter
	onChange func(Track) // optional; notifications, UI refresh
	last     string
	current  Track
}

// NewBridge creates a bridge. onChange may be nil.
func NewBridge(r Resetter, onChange func(Track)) *Bridge {
	return &Bridge{resetter: r, onChange: onChange}
}

// Handle processes one now-playing report.
func (b *Bridge) Handle(t Track) {
	b.mu.Lock()
	id := t.Identity()
	if id == b.last {
		b.mu.Unlock()
		return
	}
	b.last = id
	b.current = t
	onChange := b.onChange
	b.mu.Unlock()

	b.resetter.ResetElapsedTime()
	if onChange != nil {
		onChange(t)
	}
}

// Current returns the last distinct track seen.
func (b *Bridge) Current() Track {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Run consumes track reports until changes closes or done fires.
func (b *Bridge) Run(changes <-chan Track, done <-chan struct{}) {
	for {
		select {
		case t, ok := <-changes:
			if !ok {
				return
			}
			b.Handle(t)
		case <-done:
			return
		}
	}
}
