// Package registry stores named blueprints for the lifetime of the process.
package registry

import (
	"slices"
	"sync"
	"time"
)

// Registry maps names to values. Registering a name again replaces the
// previous value; there is no removal.
type Registry[T any] struct {
	entries  map[string]T
	mutex    sync.RWMutex
	watchers []chan Event
}

// Event represents a change in the registry
type Event struct {
	Type      EventType
	Name      string
	Timestamp time.Time
}

// EventType represents the type of registry event
type EventType int

const (
	EventTypeRegistered EventType = iota
	EventTypeReplaced
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeRegistered:
		return "registered"
	case EventTypeReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// New creates an empty registry
func New[T any]() *Registry[T] {
	return &Registry[T]{
		entries:  make(map[string]T),
		watchers: make([]chan Event, 0),
	}
}

// Register stores value under name, replacing any earlier registration.
func (r *Registry[T]) Register(name string, value T) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeRegistered
	if _, exists := r.entries[name]; exists {
		eventType = EventTypeReplaced
	}

	r.entries[name] = value

	event := Event{
		Type:      eventType,
		Name:      name,
		Timestamp: time.Now(),
	}

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Get retrieves a value by name
func (r *Registry[T]) Get(name string) (T, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	value, exists := r.entries[name]
	return value, exists
}

// GetAll returns a copy of every entry
func (r *Registry[T]) GetAll() map[string]T {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make(map[string]T, len(r.entries))
	for name, value := range r.entries {
		result[name] = value
	}
	return result
}

// Names returns the registered names in sorted order
func (r *Registry[T]) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Watch returns a channel that receives registry events
func (r *Registry[T]) Watch() <-chan Event {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan Event, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *Registry[T]) UnWatch(ch <-chan Event) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// Count returns the number of registered names
func (r *Registry[T]) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.entries)
}
