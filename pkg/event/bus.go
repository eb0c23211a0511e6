// Package event provides a synchronous publish/subscribe bus with typed topics.
//
// Handlers run on the publisher's goroutine in subscription order, which keeps
// the cooperative model intact: publishing a tick runs every tick handler to
// completion before returning.
package event

import (
	"sync"

	"github.com/google/uuid"
)

// Topic is a named event channel carrying values of type T.
type Topic[T any] struct {
	name string
}

// NewTopic creates a topic. Topics are compared by name.
func NewTopic[T any](name string) Topic[T] {
	return Topic[T]{name: name}
}

// Name returns the topic name.
func (t Topic[T]) Name() string { return t.name }

// handler is a type-erased subscription entry.
type handler struct {
	id uuid.UUID
	fn func(any)
}

// Bus dispatches published values to subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[string][]handler),
	}
}

// Subscribe registers fn for topic and returns the handle that releases it.
func Subscribe[T any](b *Bus, topic Topic[T], fn func(T)) *Subscription {
	h := handler{
		id: uuid.New(),
		fn: func(v any) { fn(v.(T)) },
	}

	b.mu.Lock()
	b.handlers[topic.name] = append(b.handlers[topic.name], h)
	b.mu.Unlock()

	return &Subscription{bus: b, topic: topic.name, id: h.id}
}

// Publish delivers v to every subscriber of topic and returns the number of
// handlers invoked.
func Publish[T any](b *Bus, topic Topic[T], v T) int {
	// Copy so handlers may subscribe or release while being dispatched
	b.mu.RLock()
	handlers := make([]handler, len(b.handlers[topic.name]))
	copy(handlers, b.handlers[topic.name])
	b.mu.RUnlock()

	for _, h := range handlers {
		h.fn(v)
	}
	return len(handlers)
}

// Count returns the number of subscribers of a topic by name.
func (b *Bus) Count(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[topic])
}

func (b *Bus) remove(topic string, id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	handlers := b.handlers[topic]
	for i, h := range handlers {
		if h.id == id {
			b.handlers[topic] = append(handlers[:i:i], handlers[i+1:]...)
			break
		}
	}
	if len(b.handlers[topic]) == 0 {
		delete(b.handlers, topic)
	}
}

// Subscription is the handle of one registered handler.
type Subscription struct {
	bus   *Bus
	topic string
	id    uuid.UUID
	once  sync.Once
}

// ID returns the unique subscription id.
func (s *Subscription) ID() uuid.UUID { return s.id }

// Topic returns the subscribed topic name.
func (s *Subscription) Topic() string { return s.topic }

// Release unsubscribes the handler. Safe to call more than once.
func (s *Subscription) Release() {
	s.once.Do(func() {
		s.bus.remove(s.topic, s.id)
	})
}
