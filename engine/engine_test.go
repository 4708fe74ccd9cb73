package engine

import (
	"context"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flexiflow/component"
	"github.com/roach88/flexiflow/events"
	"github.com/roach88/flexiflow/state"
)

func newComponent(t *testing.T, name string, opts ...component.Option) *component.Component {
	t.Helper()
	registry := state.NewBuiltinRegistry()
	machine, err := state.FromName(registry, "InitialState")
	require.NoError(t, err)
	return component.New(name, machine, opts...)
}

func TestRegisterAndGet(t *testing.T) {
	eng := New(WithLogger(slogt.New(t)))
	comp := newComponent(t, "cart")

	eng.Register(comp)

	got, ok := eng.Get("cart")
	require.True(t, ok)
	assert.Same(t, comp, got)

	_, ok = eng.Get("missing")
	assert.False(t, ok)
}

func TestRegister_LastWriteWins(t *testing.T) {
	eng := New(WithLogger(slogt.New(t)))
	first := newComponent(t, "cart")
	second := newComponent(t, "cart")

	eng.Register(first)
	eng.Register(second)

	got, ok := eng.Get("cart")
	require.True(t, ok)
	assert.Same(t, second, got)
}

func TestRegister_InjectsLoggerAndBus(t *testing.T) {
	eng := New(WithLogger(slogt.New(t)))
	comp := newComponent(t, "cart")

	require.Nil(t, comp.Bus())
	eng.Register(comp)

	assert.Same(t, eng.Bus(), comp.Bus())
	assert.NotNil(t, comp.Logger())
}

func TestRegister_RespectsPreWiredCollaborators(t *testing.T) {
	eng := New(WithLogger(slogt.New(t)))

	ownBus := events.New(slogt.New(t))
	ownLogger := slogt.New(t)
	comp := newComponent(t, "cart", component.WithBus(ownBus), component.WithLogger(ownLogger))

	eng.Register(comp)

	assert.Same(t, ownBus, comp.Bus(), "pre-wired bus must not be replaced")
	assert.Same(t, ownLogger, comp.Logger(), "pre-wired logger must not be replaced")
}

func TestRegisterAsync_PublishesRegistrationEvent(t *testing.T) {
	eng := New(WithLogger(slogt.New(t)))

	var payloads []any
	_, err := eng.Bus().Subscribe(EventComponentRegistered, "test", func(_ context.Context, data any) error {
		payloads = append(payloads, data)
		return nil
	})
	require.NoError(t, err)

	comp := newComponent(t, "cart")
	require.NoError(t, eng.RegisterAsync(context.Background(), comp))

	require.Len(t, payloads, 1)
	assert.Equal(t, map[string]any{"component": "cart"}, payloads[0])

	_, ok := eng.Get("cart")
	assert.True(t, ok)
}

func TestRegisterAsync_ComponentStoredBeforeEvent(t *testing.T) {
	eng := New(WithLogger(slogt.New(t)))

	var visible bool
	_, err := eng.Bus().Subscribe(EventComponentRegistered, "test", func(context.Context, any) error {
		_, visible = eng.Get("cart")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, eng.RegisterAsync(context.Background(), newComponent(t, "cart")))
	assert.True(t, visible, "subscribers must observe the component as registered")
}

func TestEngineBus_SharedAcrossComponents(t *testing.T) {
	eng := New(WithLogger(slogt.New(t)))
	a := newComponent(t, "a")
	b := newComponent(t, "b")

	eng.Register(a)
	eng.Register(b)

	assert.Same(t, a.Bus(), b.Bus())
}
