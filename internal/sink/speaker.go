package sink

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// ErrStreamEnded is reported when a live source stops delivering data.
var ErrStreamEnded = errors.New("stream ended")

// ErrNoSource is returned by Play when nothing has been loaded.
var ErrNoSource = errors.New("no source loaded")

var (
	speakerOnce sync.Once
	speakerErr  error
)

// Speaker plays an HTTP MP3 stream through the system audio device.
//
// The speaker starts paused after Load; Play flips the beep control.
// Events mirror what the device actually does, so a failed Load emits
// EventError and never EventCanPlay.
//
// Lock order: speaker.Lock is never taken while s.mu is held. beep runs
// callbacks on the audio goroutine with its own lock held, and those
// callbacks need s.mu.
type Speaker struct {
	notifier

	mu       sync.Mutex
	client   *http.Client
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	streamer *streamDecoder
	level    float64
	loaded   bool
	closed   bool
}

// NewSpeaker creates a sink over the system audio device.
func NewSpeaker() *Speaker {
	return &Speaker{
		// No overall timeout: the response body is a live stream.
		client: &http.Client{},
		level:  1.0,
	}
}

// Load fetches the stream URL and prepares it for playback.
func (s *Speaker) Load(url string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.New("sink closed")
	}
	old := s.detachLocked()
	s.mu.Unlock()
	s.finishDetach(old)

	s.emit(Event{Kind: EventLoadStart})

	resp, err := s.client.Get(url)
	if err != nil {
		err = fmt.Errorf("fetch stream: %w", err)
		s.emit(Event{Kind: EventError, Err: err})
		return err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err = fmt.Errorf("fetch stream: server returned status %d", resp.StatusCode)
		s.emit(Event{Kind: EventError, Err: err})
		return err
	}

	// Data is arriving but nothing is decoded yet.
	s.emit(Event{Kind: EventWaiting})

	dec, format, err := decodeMP3Stream(resp.Body)
	if err != nil {
		resp.Body.Close()
		err = fmt.Errorf("decode stream: %w", err)
		s.emit(Event{Kind: EventError, Err: err})
		return err
	}

	speakerOnce.Do(func() {
		speakerErr = speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10))
	})
	if speakerErr != nil {
		dec.Close()
		err = fmt.Errorf("init audio device: %w", speakerErr)
		s.emit(Event{Kind: EventError, Err: err})
		return err
	}

	s.mu.Lock()
	s.streamer = dec
	s.ctrl = &beep.Ctrl{Streamer: dec, Paused: true}
	s.volume = &effects.Volume{Streamer: s.ctrl, Base: 2, Volume: levelToVolume(s.level)}
	s.loaded = true
	vol := s.volume
	s.mu.Unlock()

	speaker.Play(beep.Seq(vol, beep.Callback(func() {
		// Fires on the audio goroutine with the device lock held; do
		// the work elsewhere.
		go s.handleStreamEnd(dec)
	})))

	s.emit(Event{Kind: EventCanPlay})
	return nil
}

// handleStreamEnd reports why the streamer stopped producing samples.
// A live radio stream never ends on purpose, so a clean EOF is still an error.
func (s *Speaker) handleStreamEnd(dec *streamDecoder) {
	s.mu.Lock()
	current := s.streamer == dec
	s.mu.Unlock()
	if !current {
		// A newer Load replaced this streamer.
		return
	}

	err := dec.Err()
	if err == nil {
		err = ErrStreamEnded
	}
	s.emit(Event{Kind: EventError, Err: err})
}

// Play starts audio output.
func (s *Speaker) Play() error {
	s.mu.Lock()
	if !s.loaded || s.ctrl == nil {
		s.mu.Unlock()
		return ErrNoSource
	}
	ctrl := s.ctrl
	s.mu.Unlock()

	speaker.Lock()
	ctrl.Paused = false
	speaker.Unlock()

	s.emit(Event{Kind: EventPlay})
	return nil
}

// Pause stops audio output, keeping the source loaded.
func (s *Speaker) Pause() {
	s.mu.Lock()
	if !s.loaded || s.ctrl == nil {
		s.mu.Unlock()
		return
	}
	ctrl := s.ctrl
	s.mu.Unlock()

	speaker.Lock()
	ctrl.Paused = true
	speaker.Unlock()

	s.emit(Event{Kind: EventPause})
}

// Paused reports whether audio output is stopped. This flag, observed
// through events, is the single source of truth for "is it playing".
func (s *Speaker) Paused() bool {
	s.mu.Lock()
	ctrl := s.ctrl
	loaded := s.loaded
	s.mu.Unlock()

	if !loaded || ctrl == nil {
		return true
	}
	speaker.Lock()
	paused := ctrl.Paused
	speaker.Unlock()
	return paused
}

// SetVolume sets the output level, clamped to [0, 1].
func (s *Speaker) SetVolume(level float64) {
	level = math.Max(0, math.Min(1, level))

	s.mu.Lock()
	s.level = level
	vol := s.volume
	s.mu.Unlock()

	if vol != nil {
		speaker.Lock()
		vol.Volume = levelToVolume(level)
		vol.Silent = level <= 0
		speaker.Unlock()
	}
}

// Volume returns the current output level.
func (s *Speaker) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// Close releases the audio device and signals all subscribers.
func (s *Speaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	old := s.detachLocked()
	s.mu.Unlock()

	s.finishDetach(old)
	s.closeAll()
	return nil
}

// detachLocked unhooks the current source and returns its decoder.
// Callers hold s.mu and must call finishDetach after releasing it.
func (s *Speaker) detachLocked() *streamDecoder {
	if !s.loaded {
		return nil
	}
	dec := s.streamer
	s.streamer = nil
	s.ctrl = nil
	s.volume = nil
	s.loaded = false
	return dec
}

// finishDetach clears the device queue and closes the detached source.
// Runs without s.mu held.
func (s *Speaker) finishDetach(dec *streamDecoder) {
	if dec == nil {
		return
	}
	speaker.Clear()
	dec.Close()
}

// levelToVolume converts a 0.0-1.0 level to beep's logarithmic Volume value.
// Volume = 0 means no change, -1 = half volume, -2 = quarter, etc.
func levelToVolume(level float64) float64 {
	if level <= 0 {
		return -10
	}
	if level >= 1 {
		return 0
	}
	return math.Log2(level)
}

var _ io.Closer = (*streamDecoder)(nil)

// Verify Speaker implements Interface at compile time.
var _ Interface = (*Speaker)(nil)
