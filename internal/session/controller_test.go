// internal/session/controller_test.go
package session

import (
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nvidal/aether/internal/clock"
	"github.com/nvidal/aether/internal/sink"
	"github.com/nvidal/aether/internal/store"
	"github.com/nvidal/aether/internal/stream"
)

// newTestController wires a controller to deterministic doubles. Events
// are fed by calling handle directly, so tests never wait on goroutine
// scheduling to observe a state change.
func newTestController(t *testing.T, cfg Config) (*Controller, *sink.Mock, *clock.Mock, *store.Store) {
	t.Helper()
	sk := sink.NewMock()
	st := store.New()
	clk := clock.NewMock(st.SetElapsed)
	logger := log.New(io.Discard)
	c := New(sk, clk, st, NewRecoveryPolicy(), logger, cfg)
	return c, sk, clk, st
}

// startPlaying moves the controller into Playing with the sink unpaused.
func startPlaying(t *testing.T, c *Controller, sk *sink.Mock) {
	t.Helper()
	c.handle(SinkLoadStart{})
	c.handle(SinkCanPlay{})
	sk.SetPaused(false)
	c.handle(SinkPlay{})
	if c.Status() != StatusPlaying {
		t.Fatalf("setup: status = %v, want Playing", c.Status())
	}
	if !c.IsPlaying() {
		t.Fatal("setup: IsPlaying = false, want true")
	}
}

// waitFor polls cond until it holds or the deadline passes. Used only
// for effects the controller runs on background goroutines.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestController_LoadWithoutPlay(t *testing.T) {
	c, _, clk, st := newTestController(t, Config{})

	steps := []struct {
		ev   Event
		want Status
	}{
		{SinkLoadStart{}, StatusLoadingStream},
		{EngineManifestParsed{}, StatusStreamReady},
		{SinkWaiting{}, StatusBuffering},
		{SinkCanPlay{}, StatusReadyToPlay},
	}
	for _, step := range steps {
		c.handle(step.ev)
		if got := c.Status(); got != step.want {
			t.Fatalf("after %T: status = %v, want %v", step.ev, got, step.want)
		}
		if got := st.Snapshot().ElapsedSeconds; got != 0 {
			t.Fatalf("after %T: elapsed = %d, want 0", step.ev, got)
		}
	}

	if c.IsPlaying() {
		t.Error("IsPlaying = true before any play event")
	}
	if clk.StartCalls() != 0 {
		t.Errorf("clock started %d times without playback", clk.StartCalls())
	}
	if got := st.Snapshot().Status; got != "ReadyToPlay" {
		t.Errorf("published status = %q, want %q", got, "ReadyToPlay")
	}
}

func TestController_TrackChangeResetWhilePlaying(t *testing.T) {
	c, sk, clk, st := newTestController(t, Config{})
	startPlaying(t, c, sk)

	clk.Advance(5)
	if got := st.Snapshot().ElapsedSeconds; got != 5 {
		t.Fatalf("elapsed = %d, want 5", got)
	}

	c.ResetElapsedTime()
	if got := st.Snapshot().ElapsedSeconds; got != 0 {
		t.Fatalf("elapsed after reset = %d, want 0", got)
	}
	if got := c.Status(); got != StatusPlaying {
		t.Fatalf("status after reset = %v, want Playing", got)
	}

	clk.Advance(3)
	if got := st.Snapshot().ElapsedSeconds; got != 3 {
		t.Errorf("elapsed after reset+3s = %d, want 3", got)
	}
}

func TestController_PauseResumeAccumulates(t *testing.T) {
	c, sk, clk, st := newTestController(t, Config{})
	startPlaying(t, c, sk)

	clk.Advance(10)

	sk.SetPaused(true)
	c.handle(SinkPause{})
	if got := c.Status(); got != StatusPaused {
		t.Fatalf("status = %v, want Paused", got)
	}
	if c.IsPlaying() {
		t.Fatal("IsPlaying = true after pause event")
	}

	// Wall time passing while paused must not count.
	clk.Advance(5)
	if got := st.Snapshot().ElapsedSeconds; got != 10 {
		t.Fatalf("elapsed while paused = %d, want 10", got)
	}

	sk.SetPaused(false)
	c.handle(SinkPlay{})
	clk.Advance(2)
	if got := st.Snapshot().ElapsedSeconds; got != 12 {
		t.Errorf("elapsed after resume = %d, want 12", got)
	}
}

func TestController_TransientNetworkErrorResumes(t *testing.T) {
	loader := stream.NewMockLoader(true)
	c, sk, clk, st := newTestController(t, Config{ManifestURL: "https://radio.example/live.m3u8", Loader: loader})
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer c.Destroy()

	startPlaying(t, c, sk)
	clk.Advance(7)

	c.handle(EngineError{Err: &stream.Error{Category: stream.CategoryNetwork, Fatal: false, Cause: errors.New("segment timeout")}})

	if got := c.Status(); got != StatusBuffering {
		t.Fatalf("status = %v, want Buffering", got)
	}
	if got := st.Snapshot().ElapsedSeconds; got != 7 {
		t.Errorf("elapsed changed across transient error: %d, want 7", got)
	}
	if !c.IsPlaying() {
		t.Error("IsPlaying flipped by transient error")
	}
	waitFor(t, func() bool { return loader.ResumeCalls() == 1 })

	// Sink output never stopped, so canplay lands back in Playing.
	c.handle(SinkCanPlay{})
	if got := c.Status(); got != StatusPlaying {
		t.Errorf("status after recovery = %v, want Playing", got)
	}
}

func TestController_FatalNetworkErrorRebuildsEngine(t *testing.T) {
	loader := stream.NewMockLoader(true)
	c, _, _, _ := newTestController(t, Config{ManifestURL: "https://radio.example/live.m3u8", Loader: loader})
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer c.Destroy()

	waitFor(t, func() bool { return len(loader.LoadCalls()) == 1 })

	c.handle(EngineError{Err: &stream.Error{Category: stream.CategoryNetwork, Fatal: true, Cause: errors.New("connection reset")}})
	if got := c.Status(); got != StatusError {
		t.Fatalf("status = %v, want Error while rebuild pends", got)
	}

	// First attempt uses a zero delay, so the rebuild lands quickly.
	waitFor(t, func() bool { return len(loader.LoadCalls()) == 2 })
	waitFor(t, func() bool { return c.Status() == StatusLoadingStream })
}

func TestController_MediaErrorRunsBuiltInRecovery(t *testing.T) {
	loader := stream.NewMockLoader(true)
	c, _, _, _ := newTestController(t, Config{ManifestURL: "https://radio.example/live.m3u8", Loader: loader})
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer c.Destroy()

	prev := c.Status()
	c.handle(EngineError{Err: &stream.Error{Category: stream.CategoryMedia, Fatal: false, Cause: errors.New("decode error")}})

	waitFor(t, func() bool { return loader.RecoverCalls() == 1 })
	if got := c.Status(); got != prev {
		t.Errorf("status = %v, want unchanged %v during media recovery", got, prev)
	}
}

func TestController_UnsupportedErrorGivesUp(t *testing.T) {
	c, _, _, st := newTestController(t, Config{})

	c.handle(EngineError{Err: &stream.Error{Category: stream.CategoryUnsupported, Fatal: true, Cause: stream.ErrNoPlaybackPath}})

	if got := c.Status(); got != StatusError {
		t.Fatalf("status = %v, want Error", got)
	}
	if got := st.Snapshot().Status; got != "Error" {
		t.Errorf("published status = %q, want %q", got, "Error")
	}
}

func TestController_SetVolumeClamps(t *testing.T) {
	tests := []struct {
		name  string
		level float64
		want  float64
	}{
		{"above range", 1.5, 1.0},
		{"below range", -0.1, 0.0},
		{"in range", 0.4, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, sk, _, st := newTestController(t, Config{})
			c.SetVolume(tt.level)
			if got := sk.Volume(); got != tt.want {
				t.Errorf("sink volume = %v, want %v", got, tt.want)
			}
			if got := st.Snapshot().Volume; got != tt.want {
				t.Errorf("published volume = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestController_RejectedPlayRevertsStatus(t *testing.T) {
	c, sk, clk, _ := newTestController(t, Config{})
	c.handle(SinkLoadStart{})
	c.handle(SinkCanPlay{})
	sk.SetPlayError(errors.New("output device busy"))

	c.TogglePlay()

	if sk.PlayCalls() != 1 {
		t.Fatalf("play calls = %d, want 1", sk.PlayCalls())
	}
	if got := c.Status(); got != StatusReadyToPlay {
		t.Errorf("status = %v, want ReadyToPlay after rejection", got)
	}
	if c.IsPlaying() {
		t.Error("IsPlaying = true after rejected play")
	}
	if clk.StartCalls() != 0 {
		t.Errorf("clock started %d times after rejected play", clk.StartCalls())
	}
}

func TestController_TogglePlayPausesWhenRunning(t *testing.T) {
	c, sk, clk, _ := newTestController(t, Config{})
	startPlaying(t, c, sk)

	c.TogglePlay()
	// The mock emits the pause event but nothing consumes it here; the
	// session only reacts once the event is delivered.
	if sk.Paused() != true {
		t.Fatal("sink not paused after toggle")
	}
	c.handle(SinkPause{})

	if got := c.Status(); got != StatusPaused {
		t.Errorf("status = %v, want Paused", got)
	}
	if clk.StopCalls() != 1 {
		t.Errorf("clock stop calls = %d, want 1", clk.StopCalls())
	}
}

func TestController_StaleEventsIgnored(t *testing.T) {
	c, sk, _, _ := newTestController(t, Config{})
	startPlaying(t, c, sk)

	// A pause event delivered while the sink reports running is stale.
	c.handle(SinkPause{})
	if got := c.Status(); got != StatusPlaying {
		t.Errorf("status = %v, want Playing after stale pause", got)
	}
	if !c.IsPlaying() {
		t.Error("IsPlaying flipped by stale pause")
	}

	// And vice versa once the sink really pauses.
	sk.SetPaused(true)
	c.handle(SinkPause{})
	c.handle(SinkPlay{})
	if got := c.Status(); got != StatusPaused {
		t.Errorf("status = %v, want Paused after stale play", got)
	}
}

func TestController_WaitingBeforePlaybackResetsElapsed(t *testing.T) {
	c, _, clk, _ := newTestController(t, Config{})
	c.handle(SinkLoadStart{})
	c.handle(SinkWaiting{})

	if clk.ResetCalls() != 1 {
		t.Errorf("reset calls = %d, want 1", clk.ResetCalls())
	}
	if got := c.Status(); got != StatusBuffering {
		t.Errorf("status = %v, want Buffering", got)
	}
}

func TestController_WaitingDuringPlaybackKeepsElapsed(t *testing.T) {
	c, sk, clk, st := newTestController(t, Config{})
	startPlaying(t, c, sk)
	clk.Advance(9)

	c.handle(SinkWaiting{})

	if got := c.Status(); got != StatusBuffering {
		t.Fatalf("status = %v, want Buffering", got)
	}
	if clk.ResetCalls() != 0 {
		t.Errorf("reset calls = %d, want 0 during live rebuffer", clk.ResetCalls())
	}
	if got := st.Snapshot().ElapsedSeconds; got != 9 {
		t.Errorf("elapsed = %d, want 9", got)
	}
}

func TestController_ResetElapsedIdempotent(t *testing.T) {
	c, _, clk, st := newTestController(t, Config{})

	c.ResetElapsedTime()
	c.ResetElapsedTime()

	if clk.ResetCalls() != 2 {
		t.Errorf("reset calls = %d, want 2", clk.ResetCalls())
	}
	if got := st.Snapshot().ElapsedSeconds; got != 0 {
		t.Errorf("elapsed = %d, want 0", got)
	}
}

func TestController_DestroyStopsEverything(t *testing.T) {
	loader := stream.NewMockLoader(true)
	c, sk, clk, st := newTestController(t, Config{ManifestURL: "https://radio.example/live.m3u8", Loader: loader})
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	startPlaying(t, c, sk)

	c.Destroy()

	if !sk.Closed() {
		t.Error("sink not closed")
	}
	if clk.StopCalls() == 0 {
		t.Error("clock never stopped")
	}
	waitFor(t, func() bool { return loader.DestroyCalls() == 1 })

	// Late events and commands must not mutate anything.
	before := st.Snapshot()
	c.handle(SinkPause{})
	c.handle(EngineError{Err: &stream.Error{Category: stream.CategoryNetwork, Fatal: true}})
	c.TogglePlay()
	c.SetVolume(0.2)
	c.ResetElapsedTime()
	if got := st.Snapshot(); got != before {
		t.Errorf("state mutated after Destroy: %+v -> %+v", before, got)
	}

	// Destroy is idempotent.
	c.Destroy()
}

func TestController_ManifestParsedResetsRecoveryBudget(t *testing.T) {
	loader := stream.NewMockLoader(true)
	c, _, _, _ := newTestController(t, Config{ManifestURL: "https://radio.example/live.m3u8", Loader: loader})
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer c.Destroy()

	c.handle(EngineError{Err: &stream.Error{Category: stream.CategoryNetwork, Fatal: true, Cause: errors.New("reset")}})
	waitFor(t, func() bool { return c.policy.Attempts() == 1 })

	c.handle(EngineManifestParsed{})
	if got := c.policy.Attempts(); got != 0 {
		t.Errorf("attempts after manifest = %d, want 0", got)
	}
}

// orderLoader records the sequence of lifecycle calls across rebuilds.
type orderLoader struct {
	mu     sync.Mutex
	calls  []string
	events chan stream.Event
}

func newOrderLoader() *orderLoader {
	return &orderLoader{events: make(chan stream.Event, 16)}
}

func (l *orderLoader) record(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *orderLoader) Supported() bool             { return true }
func (l *orderLoader) Attach(sink.Interface) error { l.record("attach"); return nil }
func (l *orderLoader) Load(string) error           { l.record("load"); return nil }
func (l *orderLoader) Resume() error               { l.record("resume"); return nil }
func (l *orderLoader) RecoverMedia() error         { l.record("recover"); return nil }
func (l *orderLoader) Events() <-chan stream.Event { return l.events }
func (l *orderLoader) Destroy()                    { l.record("destroy") }

func (l *orderLoader) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func TestController_RebuildTearsDownBeforeReattach(t *testing.T) {
	loader := newOrderLoader()
	c, _, _, _ := newTestController(t, Config{ManifestURL: "https://radio.example/live.m3u8", Loader: loader})
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer c.Destroy()

	c.handle(EngineError{Err: &stream.Error{Category: stream.CategoryNetwork, Fatal: true, Cause: errors.New("connection reset")}})

	// The sink carries at most one engine, so the old one must be torn
	// down before the replacement attaches.
	waitFor(t, func() bool { return len(loader.Calls()) == 5 })
	want := []string{"attach", "load", "destroy", "attach", "load"}
	got := loader.Calls()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("call order = %v, want %v", got, want)
		}
	}
}

func TestController_NilErrorEventGivesUp(t *testing.T) {
	c, _, _, st := newTestController(t, Config{})

	// Error reports with no cause attached must not crash the handler.
	c.handle(SinkError{Err: nil})
	if got := c.Status(); got != StatusError {
		t.Fatalf("status = %v, want Error", got)
	}

	c2, _, _, _ := newTestController(t, Config{})
	c2.handle(EngineError{Err: nil})
	if got := c2.Status(); got != StatusError {
		t.Fatalf("status after engine report = %v, want Error", got)
	}

	if got := st.Snapshot().Status; got != "Error" {
		t.Errorf("published status = %q, want %q", got, "Error")
	}
}

func TestController_FailedResumeFeedsBackIntoPolicy(t *testing.T) {
	loader := stream.NewMockLoader(true)
	loader.SetResumeError(errors.New("capability detached"))
	c, sk, _, _ := newTestController(t, Config{ManifestURL: "https://radio.example/live.m3u8", Loader: loader})
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer c.Destroy()

	startPlaying(t, c, sk)
	c.handle(EngineError{Err: &stream.Error{Category: stream.CategoryNetwork, Fatal: false, Cause: errors.New("segment timeout")}})
	if got := c.Status(); got != StatusBuffering {
		t.Fatalf("status = %v, want Buffering", got)
	}

	// The resume cannot start, so the session must not sit in Buffering
	// forever; the failure runs back through the policy.
	waitFor(t, func() bool { return c.Status() == StatusError })
}

func TestController_FailedMediaRecoveryFeedsBackIntoPolicy(t *testing.T) {
	loader := stream.NewMockLoader(true)
	loader.SetRecoverError(errors.New("recovery unavailable"))
	c, _, _, _ := newTestController(t, Config{ManifestURL: "https://radio.example/live.m3u8", Loader: loader})
	if err := c.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer c.Destroy()

	c.handle(EngineError{Err: &stream.Error{Category: stream.CategoryMedia, Fatal: false, Cause: errors.New("decode error")}})

	waitFor(t, func() bool { return loader.RecoverCalls() == 1 })
	waitFor(t, func() bool { return c.Status() == StatusError })
}
