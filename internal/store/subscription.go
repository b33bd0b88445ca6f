package store

const updateBufferSize = 16

// Subscription delivers pushed state updates to one subscriber.
type Subscription struct {
	Updates <-chan Snapshot
	Done    <-chan struct{}

	updateCh chan Snapshot
	doneCh   chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		updateCh: make(chan Snapshot, updateBufferSize),
		doneCh:   make(chan struct{}),
	}
	s.Updates = s.updateCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// send delivers a snapshot without blocking, dropping it if the buffer
// is full. Subscribers always converge on the latest snapshot because a
// later update follows.
func (s *Subscription) send(snap Snapshot) {
	select {
	case s.updateCh <- snap:
	default:
	}
}

// Subscribe creates a new update subscription.
func (s *Store) Subscribe() *Subscription {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	sub := newSubscription()
	s.subs = append(s.subs, sub)
	return sub
}
