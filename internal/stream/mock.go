// internal/stream/mock.go
package stream

import (
	"sync"

	"github.com/nvidal/aether/internal/sink"
)

// MockLoader is a test double for the adaptive capability. It is safe
// for concurrent use: the session controller runs recovery calls on
// background goroutines while tests read the counters.
type MockLoader struct {
	mu           sync.Mutex
	supported    bool
	attachErr    error
	loadErr      error
	resumeErr    error
	recoverErr   error
	attached     sink.Interface
	loadCalls    []string
	resumeCalls  int
	recoverCalls int
	destroyCalls int
	events       chan Event
}

// NewMockLoader creates a loader double. supported controls the probe result.
func NewMockLoader(supported bool) *MockLoader {
	return &MockLoader{
		supported: supported,
		events:    make(chan Event, eventBufferSize),
	}
}

func (m *MockLoader) Supported() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.supported
}

func (m *MockLoader) Attach(s sink.Interface) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attachErr != nil {
		return m.attachErr
	}
	m.attached = s
	return nil
}

func (m *MockLoader) Load(manifestURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadCalls = append(m.loadCalls, manifestURL)
	return m.loadErr
}

func (m *MockLoader) Resume() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeCalls++
	return m.resumeErr
}

func (m *MockLoader) RecoverMedia() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoverCalls++
	return m.recoverErr
}

func (m *MockLoader) Events() <-chan Event { return m.events }

// Destroy releases the attachment. The events channel stays open so the
// same capability can serve a rebuilt engine.
func (m *MockLoader) Destroy() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.destroyCalls++
	m.attached = nil
}

// Test helpers

// FireManifestParsed simulates a parsed manifest.
func (m *MockLoader) FireManifestParsed() {
	m.events <- Event{Kind: EventManifestParsed}
}

// FireError simulates a classified loader failure.
func (m *MockLoader) FireError(e *Error) {
	m.events <- Event{Kind: EventError, Err: e}
}

// SetAttachError makes Attach fail.
func (m *MockLoader) SetAttachError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attachErr = err
}

// SetLoadError makes Load fail.
func (m *MockLoader) SetLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// SetResumeError makes Resume fail.
func (m *MockLoader) SetResumeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumeErr = err
}

// SetRecoverError makes RecoverMedia fail.
func (m *MockLoader) SetRecoverError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoverErr = err
}

// Attached returns the sink passed to Attach, or nil.
func (m *MockLoader) Attached() sink.Interface {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attached
}

// LoadCalls returns the manifest URLs passed to Load.
func (m *MockLoader) LoadCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loadCalls...)
}

// ResumeCalls returns how many times Resume was invoked.
func (m *MockLoader) ResumeCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resumeCalls
}

// RecoverCalls returns how many times RecoverMedia was invoked.
func (m *MockLoader) RecoverCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recoverCalls
}

// DestroyCalls returns how many times Destroy was invoked.
func (m *MockLoader) DestroyCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destroyCalls
}

// Verify MockLoader implements Loader at compile time.
var _ Loader = (*MockLoader)(nil)
