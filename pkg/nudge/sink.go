package nudge

import (
	"context"
	"fmt"
	"sync"
)

// Sink delivers events somewhere: the extension push channel, a log, a
// webhook. Sinks are registered in a Registry and fed by the Dispatcher.
type Sink interface {
	// ID returns the unique sink identifier.
	ID() string

	// Deliver sends one event. Returns error only on delivery failure;
	// delivery is best-effort and failures never propagate to the caller
	// that produced the event.
	Deliver(ctx context.Context, ev *Event) error

	// Config returns the sink's configuration.
	Config() SinkConfig
}

// SinkConfig is one configured sink entry.
type SinkConfig struct {
	ID         string                 `yaml:"id"`
	Type       string                 `yaml:"type"`
	Enabled    bool                   `yaml:"enabled"`
	Parameters map[string]interface{} `yaml:"parameters,omitempty"`
}

// Registry manages available sinks. Thread-safe.
type Registry struct {
	sinks map[string]Sink
	mu    sync.RWMutex
}

// NewRegistry creates an empty sink registry.
func NewRegistry() *Registry {
	return &Registry{sinks: make(map[string]Sink)}
}

// Register adds a sink. Returns an error if the ID is already taken.
func (r *Registry) Register(s Sink) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sinks[s.ID()]; exists {
		return fmt.Errorf("sink %s already registered", s.ID())
	}
	r.sinks[s.ID()] = s
	return nil
}

// Get returns a sink by ID, nil when absent.
func (r *Registry) Get(id string) Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sinks[id]
}

// GetAll returns all registered sinks.
func (r *Registry) GetAll() []Sink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sinks := make([]Sink, 0, len(r.sinks))
	for _, s := range r.sinks {
		sinks = append(sinks, s)
	}
	return sinks
}

// Count returns the number of registered sinks.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}
