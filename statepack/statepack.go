// Package statepack normalizes heterogeneous state sources into an ordered
// list of packs and detects collisions between them.
//
// Two authoring styles feed the same machinery: a legacy flat "states:"
// name→factory mapping (wrapped whole into a MappingPack) and a "packs:"
// list of pack values or symbol references. After resolution, one collision
// sweep forbids the same state key being provided twice or shadowing a
// builtin.
package statepack

import (
	"sort"

	"github.com/roach88/flexiflow/state"
)

// StateSpec describes one provided state: its factory plus an optional
// human-readable description.
type StateSpec struct {
	Factory     state.Factory
	Description string
}

// TransitionSpec is descriptive metadata about a transition a pack's states
// implement. It is not enforced by the runtime (the transition logic lives
// in each state's Handle) and exists for introspection and visualization.
type TransitionSpec struct {
	From      string
	OnMessage string
	To        string
	Guard     string
}

// Pack is a named bundle of provided states, their descriptive transitions,
// and pack-level dependencies.
type Pack interface {
	// Name identifies the pack in collision reports and attribution maps.
	Name() string

	// Provides returns the state keys this pack contributes.
	Provides() map[string]StateSpec

	// Transitions returns descriptive transition metadata, in declaration
	// order.
	Transitions() []TransitionSpec

	// DependsOn returns the names of packs this pack depends on.
	DependsOn() []string
}

// PackFactory constructs a pack with no arguments. Symbol references may
// resolve to a factory instead of a ready pack; the loader instantiates it.
type PackFactory func() Pack

// MappingPack adapts a legacy flat name→factory mapping into a Pack.
// It provides the mapped states, declares no transitions, and has no
// dependencies.
type MappingPack struct {
	states map[string]StateSpec
}

// MappingPackName is the synthetic name for legacy mappings.
const MappingPackName = "mapping"

// NewMappingPack wraps a flat name→factory mapping.
func NewMappingPack(states map[string]state.Factory) *MappingPack {
	specs := make(map[string]StateSpec, len(states))
	for key, factory := range states {
		specs[key] = StateSpec{Factory: factory}
	}
	return &MappingPack{states: specs}
}

// Name implements Pack.
func (p *MappingPack) Name() string { return MappingPackName }

// Provides implements Pack.
func (p *MappingPack) Provides() map[string]StateSpec {
	out := make(map[string]StateSpec, len(p.states))
	for k, v := range p.states {
		out[k] = v
	}
	return out
}

// Transitions implements Pack.
func (p *MappingPack) Transitions() []TransitionSpec { return nil }

// DependsOn implements Pack.
func (p *MappingPack) DependsOn() []string { return nil }

// sortedKeys returns a pack's provided keys in lexicographic order, so that
// sweeps over provides() are deterministic.
func sortedKeys(specs map[string]StateSpec) []string {
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
