// Package publicdata is the cross-module registry through which temperature
// sources publish on-demand snapshots.
package publicdata

import (
	"sync"
)

// TopicPollControls is the topic every temperature source registers under.
const TopicPollControls = "temperature_control.poll_controls"

// PadTemperature is a read-only snapshot of one temperature source.
type PadTemperature struct {
	Designator string
	Current    float32
	Target     float32 // Signed; consumers decide how to display <= 0
	PWM        int
}

// Source produces a fresh snapshot on every poll.
type Source interface {
	PadTemperature() PadTemperature
}

// SourceFunc adapts a function to Source.
type SourceFunc func() PadTemperature

// PadTemperature calls f.
func (f SourceFunc) PadTemperature() PadTemperature { return f() }

// Poller is the consumer side of the registry.
type Poller interface {
	PollAll(topic string) ([]PadTemperature, bool)
}

// Ensure Registry implements Poller.
var _ Poller = (*Registry)(nil)

type entry struct {
	id     uint64
	source Source
}

// Registry keeps the sources registered per topic in registration order.
type Registry struct {
	mu      sync.RWMutex
	nextID  uint64
	sources map[string][]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string][]entry),
	}
}

// Register adds a source under topic. The returned function removes it.
func (r *Registry) Register(topic string, s Source) (release func()) {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.sources[topic] = append(r.sources[topic], entry{id: id, source: s})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.unregister(topic, id) })
	}
}

func (r *Registry) unregister(topic string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.sources[topic]
	for i, e := range entries {
		if e.id == id {
			r.sources[topic] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(r.sources[topic]) == 0 {
		delete(r.sources, topic)
	}
}

// PollAll asks every source under topic for a snapshot. It returns false when
// no source is registered.
func (r *Registry) PollAll(topic string) ([]PadTemperature, bool) {
	r.mu.RLock()
	entries := make([]entry, len(r.sources[topic]))
	copy(entries, r.sources[topic])
	r.mu.RUnlock()

	if len(entries) == 0 {
		return nil, false
	}

	pads := make([]PadTemperature, 0, len(entries))
	for _, e := range entries {
		pads = append(pads, e.source.PadTemperature())
	}
	return pads, true
}
