package state

import "context"

// Machine drives transitions for exactly one current state.
//
// The current state is never nil: a Machine is only constructed through
// New or FromName, both of which require a concrete state.
//
// A Machine must not be driven by concurrent HandleMessage calls without
// external serialization; the read-modify-write of the current state is
// intentionally unlocked because each component owns its machine and
// serializes its own message intake.
type Machine struct {
	current  State
	registry *Registry
}

// New creates a machine with an explicit current state.
func New(current State, registry *Registry) *Machine {
	return &Machine{current: current, registry: registry}
}

// FromName creates a machine whose initial state is instantiated from the
// registry. Propagates the registry's state-not-found error.
func FromName(registry *Registry, name string) (*Machine, error) {
	s, err := registry.Create(name)
	if err != nil {
		return nil, err
	}
	return &Machine{current: s, registry: registry}, nil
}

// Current returns the current state.
func (m *Machine) Current() State {
	return m.current
}

// Registry returns the registry the machine instantiates states from.
func (m *Machine) Registry() *Registry {
	return m.registry
}

// HandleMessage delegates to the current state. When the state accepts the
// message, the proposed next state replaces the current one and true is
// returned. A rejected message leaves the state unchanged and returns
// (false, nil); rejection is a normal outcome, distinct from failure.
func (m *Machine) HandleMessage(ctx context.Context, msg Message, owner any) (bool, error) {
	next, accepted, err := m.current.Handle(ctx, msg, owner)
	if err != nil {
		return false, err
	}
	if accepted {
		m.current = next
	}
	return accepted, nil
}
