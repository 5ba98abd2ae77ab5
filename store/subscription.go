package store

import "sync"

// Subscription is a live query result. Updates carries a complete
// snapshot of the result set after every underlying change; snapshots
// are conflated, so a slow consumer sees the latest state rather than
// every intermediate one. The channel is closed on Cancel or on a
// terminal store error, in which case Err reports it.
type Subscription struct {
	updates chan []Doc
	release func()

	mu     sync.Mutex
	err    error
	closed bool
}

// NewSubscription is used by store backends. release deregisters the
// underlying listener and is invoked exactly once.
func NewSubscription(release func()) *Subscription {
	return &Subscription{
		updates: make(chan []Doc, 1),
		release: release,
	}
}

func (s *Subscription) Updates() <-chan []Doc {
	return s.updates
}

// Err reports the terminal error, if any, once Updates is closed.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Cancel deregisters the underlying listener and closes Updates.
// Failing to cancel an abandoned subscription leaks a standing listener.
func (s *Subscription) Cancel() {
	s.close(nil)
}

// Send publishes a snapshot, replacing any undelivered one.
func (s *Subscription) Send(docs []Doc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.updates:
	default:
	}
	s.updates <- docs
}

// Fail closes the subscription with a terminal error.
func (s *Subscription) Fail(err error) {
	s.close(err)
}

func (s *Subscription) close(err error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.err = err
	close(s.updates)
	s.mu.Unlock()

	if s.release != nil {
		s.release()
	}
}
