// Package component couples a state machine, a rule list, and a name into
// the unit the engine registers and routes messages to.
package component

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/flexiflow/events"
	"github.com/roach88/flexiflow/state"
)

// EventStateChanged is published after every accepted transition.
// Payload: map with "component" (name) and "state" (new state name).
const EventStateChanged = "state.changed"

// Component owns one state machine and an append-only rule list. Rules are
// opaque to the runtime; caller-supplied state logic interprets them.
type Component struct {
	name    string
	machine *state.Machine

	mu    sync.Mutex
	rules []map[string]any

	logger *slog.Logger
	bus    *events.Bus
}

// Option configures a Component at construction.
type Option func(*Component)

// WithRules seeds the initial rule list.
func WithRules(rules []map[string]any) Option {
	return func(c *Component) { c.rules = rules }
}

// WithLogger pre-wires a logger. A pre-wired logger is respected by engine
// registration (the engine only injects into components that have none).
func WithLogger(logger *slog.Logger) Option {
	return func(c *Component) { c.logger = logger }
}

// WithBus pre-wires an event bus, respected by engine registration the same
// way as a pre-wired logger.
func WithBus(bus *events.Bus) Option {
	return func(c *Component) { c.bus = bus }
}

// New creates a component around machine. The machine is required: a
// component's current state is never absent.
func New(name string, machine *state.Machine, opts ...Option) *Component {
	c := &Component{name: name, machine: machine}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the component's identity key.
func (c *Component) Name() string { return c.name }

// Machine returns the owned state machine.
func (c *Component) Machine() *state.Machine { return c.machine }

// Logger returns the attached logger, or nil.
func (c *Component) Logger() *slog.Logger { return c.logger }

// Bus returns the attached event bus, or nil.
func (c *Component) Bus() *events.Bus { return c.bus }

// SetLogger attaches a logger. Used by engine injection.
func (c *Component) SetLogger(logger *slog.Logger) { c.logger = logger }

// SetBus attaches an event bus. Used by engine injection.
func (c *Component) SetBus(bus *events.Bus) { c.bus = bus }

// HandleMessage routes one message into the state machine. On an accepted
// transition it logs the change and publishes EventStateChanged on the
// attached bus; a rejected message produces no event. The returned bool is
// the machine's accepted/rejected outcome.
func (c *Component) HandleMessage(ctx context.Context, msg state.Message) (bool, error) {
	accepted, err := c.machine.HandleMessage(ctx, msg, c)
	if err != nil {
		return false, err
	}
	if !accepted {
		return false, nil
	}

	newState := c.machine.Current().Name()
	if c.logger != nil {
		c.logger.Info("component transitioned",
			"component", c.name,
			"state", newState,
		)
	}
	if c.bus != nil {
		payload := map[string]any{"component": c.name, "state": newState}
		if err := c.bus.Publish(ctx, EventStateChanged, payload); err != nil {
			return true, err
		}
	}
	return true, nil
}

// AddRule appends one rule.
func (c *Component) AddRule(rule map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, rule)
}

// UpdateRules appends newRules to the rule list.
func (c *Component) UpdateRules(newRules []map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, newRules...)
}

// Rules returns a copy of the current rule list.
func (c *Component) Rules() []map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]map[string]any, len(c.rules))
	copy(out, c.rules)
	return out
}
