// internal/sink/mock.go
package sink

import (
	"math"
	"sync"
)

// Mock is a test double for a sink.
//
// Commands behave like the real device: Play and Pause flip the paused
// flag and emit the matching event. Tests can also fire raw events to
// simulate device-originated notifications. All accessors are safe for
// concurrent use so tests can read counters while background recovery
// goroutines drive the sink.
type Mock struct {
	notifier

	mu        sync.Mutex
	paused    bool
	level     float64
	loadCalls []string
	playCalls int
	loadErr   error
	playErr   error
	closed    bool
}

// NewMock creates a new mock sink for testing.
func NewMock() *Mock {
	return &Mock{paused: true, level: 1.0}
}

func (m *Mock) Load(url string) error {
	m.mu.Lock()
	m.loadCalls = append(m.loadCalls, url)
	err := m.loadErr
	m.mu.Unlock()
	if err != nil {
		return err
	}
	m.emit(Event{Kind: EventLoadStart})
	return nil
}

func (m *Mock) Play() error {
	m.mu.Lock()
	m.playCalls++
	if m.playErr != nil {
		// Rejected start: paused stays true, no event.
		err := m.playErr
		m.mu.Unlock()
		return err
	}
	m.paused = false
	m.mu.Unlock()
	m.emit(Event{Kind: EventPlay})
	return nil
}

func (m *Mock) Pause() {
	m.mu.Lock()
	m.paused = true
	m.mu.Unlock()
	m.emit(Event{Kind: EventPause})
}

func (m *Mock) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.paused
}

func (m *Mock) SetVolume(level float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = math.Max(0, math.Min(1, level))
}

func (m *Mock) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.closeAll()
	return nil
}

// Test helpers

// SetPlayError makes subsequent Play calls fail without starting output.
func (m *Mock) SetPlayError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playErr = err
}

// SetLoadError makes subsequent Load calls fail.
func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetPaused forces the paused flag without emitting an event.
func (m *Mock) SetPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused = paused
}

// LoadCalls returns the URLs passed to Load.
func (m *Mock) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

// PlayCalls returns how many times Play was invoked.
func (m *Mock) PlayCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playCalls
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Fire emits a raw event as if the device produced it.
func (m *Mock) Fire(e Event) { m.emit(e) }

// FireWaiting simulates an output stall.
func (m *Mock) FireWaiting() { m.emit(Event{Kind: EventWaiting}) }

// FireCanPlay simulates decoded data becoming available.
func (m *Mock) FireCanPlay() { m.emit(Event{Kind: EventCanPlay}) }

// FireError simulates a device or source failure.
func (m *Mock) FireError(err error) { m.emit(Event{Kind: EventError, Err: err}) }

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
