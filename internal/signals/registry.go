package signals

import (
	"fmt"
	"sync"

	"github.com/mikey/chat-spam-guard/internal/core"
)

// Registry holds the external signals consulted for every event
type Registry struct {
	signals map[string]core.Signal
	order   []string
	mu      sync.RWMutex
}

// NewRegistry creates an empty signal registry
func NewRegistry() *Registry {
	return &Registry{
		signals: make(map[string]core.Signal),
	}
}

// Register adds a signal to the registry
func (r *Registry) Register(s core.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.signals[name]; exists {
		return fmt.Errorf("signal %q already registered", name)
	}

	r.signals[name] = s
	r.order = append(r.order, name)
	return nil
}

// Get retrieves a signal by name
func (r *Registry) Get(name string) (core.Signal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.signals[name]
	if !ok {
		return nil, fmt.Errorf("signal %q not found", name)
	}
	return s, nil
}

// List returns the registered signals in registration order
func (r *Registry) List() []core.Signal {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]core.Signal, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.signals[name])
	}
	return out
}

// Names returns the registered signal names in registration order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.order...)
}

// Len returns the number of registered signals
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order)
}
