package event

import "sync"

// Scope groups the subscriptions owned by one component so they can be
// released together on teardown.
type Scope struct {
	bus *Bus

	mu   sync.Mutex
	subs []*Subscription
}

// NewScope creates a scope on bus.
func NewScope(bus *Bus) *Scope {
	return &Scope{bus: bus}
}

// On subscribes fn to topic within scope s.
func On[T any](s *Scope, topic Topic[T], fn func(T)) *Subscription {
	sub := Subscribe(s.bus, topic, fn)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	return sub
}

// Len returns the number of subscriptions held.
func (s *Scope) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Release releases every subscription made through the scope.
func (s *Scope) Release() {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Release()
	}
}
