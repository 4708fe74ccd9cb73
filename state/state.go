// Package state provides the state registry and the single-state
// transition engine.
//
// A State is a unit of behavior: it inspects an inbound message and either
// proposes the next state (accepted) or leaves things unchanged (rejected).
// A Machine owns exactly one current State and swaps it on every accepted
// transition. States are created by zero-argument factories registered in a
// Registry under unique names.
package state

import (
	"context"
)

// Message is a typed message routed into a state machine.
// The "type" key selects behavior; everything else is payload.
type Message map[string]any

// Type returns the message's "type" value, or "" when absent or not a string.
func (m Message) Type() string {
	t, _ := m["type"].(string)
	return t
}

// Content returns the message's "content" value, or "" when absent or not
// a string.
func (m Message) Content() string {
	c, _ := m["content"].(string)
	return c
}

// State is a polymorphic behavior unit.
//
// Handle inspects the message and returns the proposed next state together
// with whether the message was accepted. A rejected message is a normal
// outcome, not an error: return (self, false, nil). The error return is
// reserved for genuine failures inside the handler.
type State interface {
	// Name returns the state's identity tag, used in events and snapshots.
	Name() string

	// Handle processes one message. owner is the component driving the
	// machine; states that don't need it may ignore it.
	Handle(ctx context.Context, msg Message, owner any) (next State, accepted bool, err error)
}

// Factory creates a fresh State instance. Factories take no arguments so
// that registries and packs can instantiate states by name alone.
type Factory func() State
