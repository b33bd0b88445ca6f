package sink

import "sync"

const eventBufferSize = 16

// Subscription provides the event channel for one subscriber.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	// Internal write channels
	eventCh chan Event
	doneCh  chan struct{}
}

// newSubscription creates a new subscription with a buffered channel.
func newSubscription() *Subscription {
	s := &Subscription{
		eventCh: make(chan Event, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.Events = s.eventCh
	s.Done = s.doneCh
	return s
}

// close signals the subscriber to stop by closing doneCh.
func (s *Subscription) close() {
	close(s.doneCh)
}

// send delivers an event without blocking, dropping it if the buffer is full.
func (s *Subscription) send(e Event) {
	select {
	case s.eventCh <- e:
	default:
		// Drop if buffer full
	}
}

// notifier manages subscribers for a sink implementation.
type notifier struct {
	mu     sync.RWMutex
	subs   []*Subscription
	closed bool
}

// Subscribe creates a new event subscription.
func (n *notifier) Subscribe() *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	sub := newSubscription()
	if n.closed {
		sub.close()
		return sub
	}
	n.subs = append(n.subs, sub)
	return sub
}

// emit broadcasts an event to all subscribers.
func (n *notifier) emit(e Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, sub := range n.subs {
		sub.send(e)
	}
}

// closeAll signals every subscriber and drops the subscriber list.
func (n *notifier) closeAll() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for _, sub := range n.subs {
		sub.close()
	}
	n.subs = nil
}
