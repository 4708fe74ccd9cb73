package component

import (
	"context"
	"errors"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flexiflow/events"
	"github.com/roach88/flexiflow/state"
)

func newTestComponent(t *testing.T, opts ...Option) (*Component, *events.Bus) {
	t.Helper()
	registry := state.NewBuiltinRegistry()
	machine, err := state.FromName(registry, "InitialState")
	require.NoError(t, err)

	bus := events.New(slogt.New(t))
	opts = append(opts, WithBus(bus), WithLogger(slogt.New(t)))
	return New("cart", machine, opts...), bus
}

func TestHandleMessage_PublishesStateChanged(t *testing.T) {
	comp, bus := newTestComponent(t)
	ctx := context.Background()

	var payloads []any
	_, err := bus.Subscribe(EventStateChanged, "test", func(_ context.Context, data any) error {
		payloads = append(payloads, data)
		return nil
	})
	require.NoError(t, err)

	accepted, err := comp.HandleMessage(ctx, state.Message{"type": "start"})
	require.NoError(t, err)
	assert.True(t, accepted)

	require.Len(t, payloads, 1, "exactly one event per accepted transition")
	assert.Equal(t, map[string]any{
		"component": "cart",
		"state":     "AwaitingConfirmation",
	}, payloads[0])
}

func TestHandleMessage_RejectedPublishesNothing(t *testing.T) {
	comp, bus := newTestComponent(t)
	ctx := context.Background()

	calls := 0
	_, err := bus.Subscribe(EventStateChanged, "test", func(context.Context, any) error {
		calls++
		return nil
	})
	require.NoError(t, err)

	accepted, err := comp.HandleMessage(ctx, state.Message{"type": "bogus"})
	require.NoError(t, err)
	assert.False(t, accepted)
	assert.Equal(t, 0, calls)
	assert.Equal(t, "InitialState", comp.Machine().Current().Name())
}

func TestHandleMessage_NoBusIsFine(t *testing.T) {
	registry := state.NewBuiltinRegistry()
	machine, err := state.FromName(registry, "InitialState")
	require.NoError(t, err)
	comp := New("lonely", machine)

	accepted, err := comp.HandleMessage(context.Background(), state.Message{"type": "start"})
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestHandleMessage_SubscriberFailureSurfaces(t *testing.T) {
	comp, bus := newTestComponent(t)

	boom := errors.New("subscriber boom")
	_, err := bus.Subscribe(EventStateChanged, "test", func(context.Context, any) error {
		return boom
	})
	require.NoError(t, err)

	// Default bus policy is continue, so the transition still reports
	// accepted with no error.
	accepted, err := comp.HandleMessage(context.Background(), state.Message{"type": "start"})
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Equal(t, "AwaitingConfirmation", comp.Machine().Current().Name())
}

func TestRules_AppendOnly(t *testing.T) {
	comp, _ := newTestComponent(t, WithRules([]map[string]any{{"id": 1}}))

	comp.AddRule(map[string]any{"id": 2})
	comp.UpdateRules([]map[string]any{{"id": 3}, {"id": 4}})

	rules := comp.Rules()
	require.Len(t, rules, 4)
	assert.Equal(t, 1, rules[0]["id"])
	assert.Equal(t, 4, rules[3]["id"])
}

func TestRules_ReturnsCopy(t *testing.T) {
	comp, _ := newTestComponent(t, WithRules([]map[string]any{{"id": 1}}))

	got := comp.Rules()
	got[0] = map[string]any{"id": 99}

	assert.Equal(t, 1, comp.Rules()[0]["id"], "mutating the returned slice must not affect the component")
}
