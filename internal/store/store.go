// Package store holds the published playback state consumed by the UI
// and other collaborators.
//
// The session controller is the only writer. Readers either poll
// Snapshot() or subscribe for pushed updates.
package store

import "sync"

// Snapshot is the published playback state.
type Snapshot struct {
	Status         string
	IsPlaying      bool
	ElapsedSeconds int
	Volume         float64
}

// Store is the shared state store.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot

	subs   []*Subscription
	subsMu sync.RWMutex

	persist *persistence // nil when opened without a backing file
	closed  bool
}

// New creates an in-memory store with no persistence.
func New() *Store {
	return &Store{snap: Snapshot{Status: "Idle", Volume: 1.0}}
}

// Open creates a store backed by the application database. The saved
// volume from the previous session is restored into the snapshot.
func Open() (*Store, error) {
	p, err := openPersistence()
	if err != nil {
		return nil, err
	}

	s := New()
	s.persist = p

	if vol, err := p.loadVolume(); err == nil {
		s.snap.Volume = vol
	}
	return s, nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// SetStatus publishes a new status.
func (s *Store) SetStatus(status string) {
	s.update(func(snap *Snapshot) { snap.Status = status })
}

// SetPlaying publishes the playing flag.
func (s *Store) SetPlaying(playing bool) {
	s.update(func(snap *Snapshot) { snap.IsPlaying = playing })
}

// SetElapsed publishes the elapsed-seconds counter.
func (s *Store) SetElapsed(seconds int) {
	if seconds < 0 {
		seconds = 0
	}
	s.update(func(snap *Snapshot) { snap.ElapsedSeconds = seconds })
}

// SetVolume publishes the volume and schedules a persisted save.
func (s *Store) SetVolume(volume float64) {
	s.update(func(snap *Snapshot) { snap.Volume = volume })
	if s.persist != nil {
		s.persist.saveVolume(volume)
	}
}

// Close flushes any pending save and releases the database.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.subsMu.Lock()
	for _, sub := range s.subs {
		sub.close()
	}
	s.subs = nil
	s.subsMu.Unlock()

	if s.persist != nil {
		return s.persist.close()
	}
	return nil
}

func (s *Store) update(apply func(*Snapshot)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	apply(&s.snap)
	snap := s.snap
	s.mu.Unlock()

	s.broadcast(snap)
}

func (s *Store) broadcast(snap Snapshot) {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	for _, sub := range s.subs {
		sub.send(snap)
	}
}
