package stream

const eventBufferSize = 16

// Subscription provides the event channel for one engine subscriber.
type Subscription struct {
	Events <-chan Event
	Done   <-chan struct{}

	eventCh chan Event
	doneCh  chan struct{}
}

func newSubscription() *Subscription {
	s := &Subscription{
		eventCh: make(chan Event, eventBufferSize),
		doneCh:  make(chan struct{}),
	}
	s.Events = s.eventCh
	s.Done = s.doneCh
	return s
}

func (s *Subscription) close() {
	close(s.doneCh)
}

// send delivers an event without blocking, dropping it if the buffer is full.
func (s *Subscription) send(e Event) {
	select {
	case s.eventCh <- e:
	default:
	}
}

// Subscribe creates a new event subscription on the engine.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

func (e *Engine) emit(ev Event) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.send(ev)
	}
}

func (e *Engine) closeAll() {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
}
