// Package engine provides the component registry that wires a shared event
// bus and logger into registered components.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/roach88/flexiflow/component"
	"github.com/roach88/flexiflow/events"
)

// EventComponentRegistered is published after a component is stored in the
// registry. Payload: map with "component" (name).
const EventComponentRegistered = "engine.component.registered"

// Engine holds the component registry and the shared event bus.
//
// Registration is last-write-wins by component name. The engine injects its
// logger and bus into a component only when the component doesn't already
// carry one, so externally pre-wired components are respected.
//
// The component map is mutex-guarded; Register/Get are safe from any
// goroutine.
type Engine struct {
	logger *slog.Logger
	bus    *events.Bus

	mu         sync.RWMutex
	components map[string]*component.Component
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithLogger sets the engine's logger (shared with the bus and injected
// into components).
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an engine with its own event bus.
func New(opts ...Option) *Engine {
	e := &Engine{components: make(map[string]*component.Component)}
	for _, opt := range opts {
		opt(e)
	}
	e.bus = events.New(e.logger)
	return e
}

// Bus returns the engine's shared event bus.
func (e *Engine) Bus() *events.Bus { return e.bus }

// Register stores the component and fires EventComponentRegistered on a
// detached goroutine. Registration itself never blocks on delivery and the
// caller gets no delivery guarantee; use RegisterAsync when the event must
// be delivered before continuing.
func (e *Engine) Register(c *component.Component) {
	e.store(c)

	go func() {
		_ = e.bus.Publish(context.Background(), EventComponentRegistered,
			map[string]any{"component": c.Name()})
	}()
}

// RegisterAsync stores the component and publishes the registration event
// synchronously before returning.
func (e *Engine) RegisterAsync(ctx context.Context, c *component.Component) error {
	e.store(c)
	return e.bus.Publish(ctx, EventComponentRegistered,
		map[string]any{"component": c.Name()})
}

func (e *Engine) store(c *component.Component) {
	if c.Logger() == nil {
		c.SetLogger(e.logger)
	}
	if c.Bus() == nil {
		c.SetBus(e.bus)
	}

	e.mu.Lock()
	e.components[c.Name()] = c
	e.mu.Unlock()

	if e.logger != nil {
		e.logger.Info("registered component", "component", c.Name())
	}
}

// Get looks up a component by name.
func (e *Engine) Get(name string) (*component.Component, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.components[name]
	return c, ok
}
