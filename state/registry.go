package state

import (
	"sort"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/flexiflow/ferrors"
)

// Registry maps state names to factories.
//
// Names are unique per registry; Register overwrites silently. Lookup of an
// unknown name is an error, never a silent nil. Registries are independent:
// two registries share nothing, so tests can build isolated ones. There is
// deliberately no package-level default registry mutated at init time;
// construct one with NewRegistry or NewBuiltinRegistry and pass it around.
//
// All methods are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	states map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{states: make(map[string]Factory)}
}

// canonicalKey normalizes a state name to NFC so that visually identical
// names resolve to the same entry regardless of Unicode representation.
func canonicalKey(name string) string {
	return norm.NFC.String(name)
}

// Register adds or overwrites a factory under name. Registering an existing
// name replaces the previous factory.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[canonicalKey(name)] = factory
}

// Unregister removes a name. Removing an absent name is a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, canonicalKey(name))
}

// Create instantiates the state registered under name.
// Returns a state-not-found error listing valid names when absent.
func (r *Registry) Create(name string) (State, error) {
	r.mu.RLock()
	factory, ok := r.states[canonicalKey(name)]
	r.mu.RUnlock()

	if !ok {
		return nil, ferrors.StateNotFound(name, r.Names())
	}
	return factory(), nil
}

// Names returns all registered names in lexicographic order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.states))
	for name := range r.states {
		names = append(names, name)
	}
	r.mu.RUnlock()

	sort.Strings(names)
	return names
}
