// internal/clock/mock.go
package clock

// Mock is a deterministic test double: time advances only when the test
// says so.
type Mock struct {
	elapsed   int
	running   bool
	onElapsed func(seconds int)

	startCalls int
	stopCalls  int
	resetCalls int
}

// NewMock creates a mock clock publishing to onElapsed. onElapsed may be nil.
func NewMock(onElapsed func(seconds int)) *Mock {
	return &Mock{onElapsed: onElapsed}
}

func (m *Mock) Start() {
	m.startCalls++
	m.running = true
}

func (m *Mock) Stop() {
	m.stopCalls++
	m.running = false
}

func (m *Mock) Reset() {
	m.resetCalls++
	m.elapsed = 0
	m.publish()
}

func (m *Mock) Elapsed() int { return m.elapsed }

func (m *Mock) Running() bool { return m.running }

// Advance moves the fake wall clock forward by whole seconds. The count
// advances only while running, matching the real clock's gating.
func (m *Mock) Advance(seconds int) {
	if !m.running {
		return
	}
	m.elapsed += seconds
	m.publish()
}

func (m *Mock) publish() {
	if m.onElapsed != nil {
		m.onElapsed(m.elapsed)
	}
}

// StartCalls returns how many times Start was invoked.
func (m *Mock) StartCalls() int { return m.startCalls }

// StopCalls returns how many times Stop was invoked.
func (m *Mock) StopCalls() int { return m.stopCalls }

// ResetCalls returns how many times Reset was invoked.
func (m *Mock) ResetCalls() int { return m.resetCalls }

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
