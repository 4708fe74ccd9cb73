package persist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flexiflow/component"
	"github.com/roach88/flexiflow/engine"
	"github.com/roach88/flexiflow/ferrors"
	"github.com/roach88/flexiflow/state"
)

func newComponent(t *testing.T) *component.Component {
	t.Helper()
	registry := state.NewBuiltinRegistry()
	machine, err := state.FromName(registry, "InitialState")
	require.NoError(t, err)
	return component.New("cart", machine,
		component.WithRules([]map[string]any{{"match": "start"}}))
}

func TestCapture(t *testing.T) {
	comp := newComponent(t)

	snapshot := Capture(comp, map[string]any{"reason": "test"})
	assert.Equal(t, "cart", snapshot.Name)
	assert.Equal(t, "InitialState", snapshot.CurrentState)
	require.Len(t, snapshot.Rules, 1)
	assert.Equal(t, "test", snapshot.Metadata["reason"])
}

func TestCapture_NilMetadata(t *testing.T) {
	snapshot := Capture(newComponent(t), nil)
	assert.NotNil(t, snapshot.Metadata)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	comp := newComponent(t)
	accepted, err := comp.HandleMessage(context.Background(), state.Message{"type": "start"})
	require.NoError(t, err)
	require.True(t, accepted)

	path := filepath.Join(t.TempDir(), "nested", "dir", "cart.json")
	require.NoError(t, SaveComponent(comp, path, map[string]any{"v": 1.0}))

	snapshot, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, "cart", snapshot.Name)
	assert.Equal(t, "AwaitingConfirmation", snapshot.CurrentState)
	require.Len(t, snapshot.Rules, 1)
	assert.Equal(t, "start", snapshot.Rules[0]["match"])
	assert.Equal(t, 1.0, snapshot.Metadata["v"])
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestLoadSnapshot_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := LoadSnapshot(path)
	require.Error(t, err)
	assert.True(t, ferrors.IsKind(err, ferrors.KindPersistence))

	fe, _ := ferrors.As(err)
	assert.Contains(t, fe.What, "Invalid JSON")
}

func TestLoadSnapshot_MissingFields(t *testing.T) {
	cases := []struct {
		name    string
		content string
		field   string
	}{
		{"no name", `{"current_state": "InitialState"}`, "name"},
		{"empty name", `{"name": "", "current_state": "InitialState"}`, "name"},
		{"no current_state", `{"name": "cart"}`, "current_state"},
		{"rules not a list", `{"name": "cart", "current_state": "X", "rules": "nope"}`, "rules"},
		{"metadata not a mapping", `{"name": "cart", "current_state": "X", "metadata": 7}`, "metadata"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "snap.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := LoadSnapshot(path)
			require.Error(t, err)

			fe, ok := ferrors.As(err)
			require.True(t, ok)
			assert.Contains(t, fe.What, tc.field)
		})
	}
}

func TestRestoreComponent(t *testing.T) {
	registry := state.NewBuiltinRegistry()
	eng := engine.New(engine.WithLogger(slogt.New(t)))

	snapshot := Snapshot{
		Name:         "cart",
		CurrentState: "ProcessingRequest",
		Rules:        []map[string]any{{"match": "x"}},
	}

	comp, err := RestoreComponent(snapshot, eng, registry)
	require.NoError(t, err)
	assert.Equal(t, "ProcessingRequest", comp.Machine().Current().Name())
	assert.Len(t, comp.Rules(), 1)

	got, ok := eng.Get("cart")
	require.True(t, ok)
	assert.Same(t, comp, got)
}

func TestRestoreComponent_UnknownState(t *testing.T) {
	registry := state.NewBuiltinRegistry()
	eng := engine.New(engine.WithLogger(slogt.New(t)))

	_, err := RestoreComponent(Snapshot{Name: "cart", CurrentState: "Gone"}, eng, registry)
	require.Error(t, err)
	assert.True(t, ferrors.IsKind(err, ferrors.KindState))
}
