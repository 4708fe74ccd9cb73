// Package persist provides the JSON file persistence adapter.
//
// A Snapshot captures a component's name, current state, rules, and
// metadata. The runtime never calls this package itself; callers invoke it
// around component lifecycle events (typically from a "state.changed"
// subscriber).
package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/flexiflow/component"
	"github.com/roach88/flexiflow/engine"
	"github.com/roach88/flexiflow/ferrors"
	"github.com/roach88/flexiflow/state"
)

// Snapshot is the serializable capture of a component.
type Snapshot struct {
	Name         string           `json:"name"`
	CurrentState string           `json:"current_state"`
	Rules        []map[string]any `json:"rules"`
	Metadata     map[string]any   `json:"metadata"`
}

// Capture builds a snapshot from a live component.
func Capture(c *component.Component, metadata map[string]any) Snapshot {
	if metadata == nil {
		metadata = map[string]any{}
	}
	return Snapshot{
		Name:         c.Name(),
		CurrentState: c.Machine().Current().Name(),
		Rules:        c.Rules(),
		Metadata:     metadata,
	}
}

// SaveComponent writes a component snapshot to a JSON file, creating parent
// directories as needed.
func SaveComponent(c *component.Component, path string, metadata map[string]any) error {
	snapshot := Capture(c, metadata)

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot file, validating required fields.
func LoadSnapshot(path string) (Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Snapshot{}, ferrors.PersistenceInvalidJSON(path, err.Error())
	}

	name, ok := data["name"].(string)
	if !ok || name == "" {
		return Snapshot{}, ferrors.PersistenceMissingField(path, "name")
	}

	currentState, ok := data["current_state"].(string)
	if !ok || currentState == "" {
		return Snapshot{}, ferrors.PersistenceMissingField(path, "current_state")
	}

	snapshot := Snapshot{Name: name, CurrentState: currentState, Metadata: map[string]any{}}

	if v, ok := data["rules"]; ok && v != nil {
		list, ok := v.([]any)
		if !ok {
			return Snapshot{}, ferrors.PersistenceMissingField(path, "rules")
		}
		for _, item := range list {
			rule, ok := item.(map[string]any)
			if !ok {
				return Snapshot{}, ferrors.PersistenceMissingField(path, "rules")
			}
			snapshot.Rules = append(snapshot.Rules, rule)
		}
	}

	if v, ok := data["metadata"]; ok && v != nil {
		metadata, ok := v.(map[string]any)
		if !ok {
			return Snapshot{}, ferrors.PersistenceMissingField(path, "metadata")
		}
		snapshot.Metadata = metadata
	}

	return snapshot, nil
}

// RestoreComponent rebuilds a component from a snapshot and registers it
// with the engine. The snapshot's state must exist in the registry.
func RestoreComponent(snapshot Snapshot, eng *engine.Engine, registry *state.Registry) (*component.Component, error) {
	machine, err := state.FromName(registry, snapshot.CurrentState)
	if err != nil {
		return nil, fmt.Errorf("restore %q: %w", snapshot.Name, err)
	}

	c := component.New(snapshot.Name, machine, component.WithRules(snapshot.Rules))
	eng.Register(c)
	return c, nil
}
