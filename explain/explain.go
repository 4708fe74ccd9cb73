// Package explain answers "what does flexiflow think this config means, and
// will it work?" without executing or mutating anything.
//
// Explain never fails: every problem becomes a diagnostic in the returned
// report. A config is valid when the report carries zero errors; warnings
// never invalidate. The pipeline is YAML decode → CUE schema vet → semantic
// passes (state references, packs, resolution policy, initial state).
package explain

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/flexiflow/ferrors"
	"github.com/roach88/flexiflow/resolve"
	"github.com/roach88/flexiflow/state"
	"github.com/roach88/flexiflow/statepack"
)

// Valid resolution policy sources.
const (
	SourcePacks   = "packs"
	SourceBuiltin = "builtin"
)

// StateResolution records how one legacy "states:" entry resolved.
type StateResolution struct {
	Key      string
	Ref      string
	Resolved bool
	IsState  bool
	Err      string
}

// PackInfo summarizes one loaded pack for the report.
type PackInfo struct {
	Name         string
	ProvidedKeys []string // sorted
	Transitions  []statepack.TransitionSpec
	DependsOn    []string // sorted
}

// Explanation is the structured report produced by Explain.
type Explanation struct {
	ConfigPath string

	Name         string
	InitialState string
	RulesCount   int

	States        []StateResolution
	BuiltinStates []string

	Packs          []PackInfo
	StateProviders map[string]string // state key -> providing pack name
	PackOrder      []string          // pack names in resolution order

	// Resolution controls where initial-state names are looked up first.
	Resolution []string

	Warnings []Diagnostic
	Errors   []Diagnostic
}

// IsValid reports whether the config would load: zero errors. Warnings
// never invalidate.
func (e *Explanation) IsValid() bool {
	return len(e.Errors) == 0
}

// Options configures Explain.
type Options struct {
	// Resolver resolves state and pack references. Required for configs
	// that use references; without it every reference fails to resolve.
	Resolver resolve.Resolver

	// Registry supplies the builtin state names. Defaults to the builtin
	// demo registry.
	Registry *state.Registry
}

// Explain loads a config file and explains it. All failures, including an
// unreadable file, surface as diagnostics.
func Explain(path string, opts Options) *Explanation {
	result := newExplanation(path, opts)

	raw, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, Diagnostic{
			Level:   LevelError,
			What:    fmt.Sprintf("Config file not found: %s", path),
			Fix:     "Check the path and ensure the file exists.",
			Context: contextFor(path),
		})
		return result
	}

	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		result.Errors = append(result.Errors, Diagnostic{
			Level:   LevelError,
			What:    "Invalid YAML syntax",
			Why:     err.Error(),
			Fix:     "Check the file for YAML syntax errors.",
			Context: contextFor(path),
		})
		return result
	}
	if data == nil {
		data = map[string]any{}
	}

	return explainData(result, data, opts)
}

// ExplainData explains an already-decoded config mapping.
func ExplainData(data map[string]any, opts Options) *Explanation {
	result := newExplanation("(data)", opts)
	return explainData(result, data, opts)
}

func newExplanation(path string, opts Options) *Explanation {
	registry := opts.Registry
	if registry == nil {
		registry = state.NewBuiltinRegistry()
	}
	return &Explanation{
		ConfigPath:    path,
		BuiltinStates: registry.Names(),
		Resolution:    []string{SourcePacks, SourceBuiltin},
	}
}

func contextFor(path string) ferrors.Context {
	return ferrors.Context{}.Add("path", path)
}

func explainData(result *Explanation, data map[string]any, opts Options) *Explanation {
	// Shape gate first: when the schema rejects the config there is no
	// point running semantic passes against malformed fields.
	if diags := vetSchema(data, result.ConfigPath); len(diags) > 0 {
		result.Errors = append(result.Errors, diags...)
		return result
	}

	result.Name, _ = data["name"].(string)

	if rules, ok := data["rules"].([]any); ok {
		result.RulesCount = len(rules)
	}

	statesMapping := stringMapField(data, "states")
	resolveStates(result, statesMapping, opts.Resolver)

	populatePackInfo(result, data, statesMapping, opts)
	parseResolutionPolicy(result, data)
	resolveInitialState(result, data, opts)

	if result.RulesCount == 0 && result.IsValid() {
		result.Warnings = append(result.Warnings, Diagnostic{
			Level: LevelWarning,
			What:  "No rules defined",
			Fix:   "Add rules if your component needs them.",
		})
	}

	for _, s := range result.States {
		if s.Resolved && s.IsState {
			continue
		}
		result.Errors = append(result.Errors, Diagnostic{
			Level:   LevelError,
			What:    fmt.Sprintf("State %q failed to resolve", s.Key),
			Why:     s.Err,
			Fix:     "Check the reference and ensure the symbol is registered with the resolver.",
			Context: ferrors.Context{}.Add("key", s.Key).Add("ref", s.Ref),
		})
	}

	return result
}

// stringMapField extracts a map[string]string field already vetted by the
// schema.
func stringMapField(data map[string]any, field string) map[string]string {
	raw, ok := data[field].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}

// resolveStates resolves every legacy "states:" reference without
// registering anything.
func resolveStates(result *Explanation, statesMapping map[string]string, resolver resolve.Resolver) {
	keys := make([]string, 0, len(statesMapping))
	for k := range statesMapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		ref := statesMapping[key]
		res := StateResolution{Key: key, Ref: ref}

		if resolver == nil {
			res.Err = "No resolver configured"
			result.States = append(result.States, res)
			continue
		}

		symbol, err := resolver.Resolve(ref)
		if err != nil {
			if fe, ok := ferrors.As(err); ok {
				res.Err = fe.What
			} else {
				res.Err = err.Error()
			}
			result.States = append(result.States, res)
			continue
		}

		res.Resolved = true
		switch symbol.(type) {
		case state.Factory, func() state.State, state.State:
			res.IsState = true
		default:
			res.Err = fmt.Sprintf("Not a state factory (got %T)", symbol)
		}
		result.States = append(result.States, res)
	}
}

// populatePackInfo normalizes states/packs through the pack loader and
// extracts display info, converting loader failures into diagnostics.
func populatePackInfo(result *Explanation, data map[string]any, statesMapping map[string]string, opts Options) {
	hasStates := len(statesMapping) > 0
	packsField, hasPacks := data["packs"].([]any)
	if !hasStates && (!hasPacks || len(packsField) == 0) {
		return
	}

	params := statepack.Params{Resolver: opts.Resolver}
	if hasStates {
		// Only successfully resolved states participate; failures already
		// have their own diagnostics.
		factories := make(map[string]state.Factory)
		for _, s := range result.States {
			if !s.Resolved || !s.IsState {
				continue
			}
			symbol, err := opts.Resolver.Resolve(s.Ref)
			if err != nil {
				continue
			}
			if factory, ok := asFactory(symbol); ok {
				factories[s.Key] = factory
			}
		}
		if len(factories) == 0 {
			return
		}
		params.States = factories
	} else {
		entries := make([]any, len(packsField))
		copy(entries, packsField)
		params.Packs = entries
	}

	packs, err := statepack.LoadPacks(params)
	if err != nil {
		result.Errors = append(result.Errors, diagnosticFromError("Pack loading failed", err))
		return
	}

	for _, pack := range packs {
		provided := pack.Provides()
		keys := make([]string, 0, len(provided))
		for k := range provided {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		deps := append([]string(nil), pack.DependsOn()...)
		sort.Strings(deps)

		result.Packs = append(result.Packs, PackInfo{
			Name:         pack.Name(),
			ProvidedKeys: keys,
			Transitions:  pack.Transitions(),
			DependsOn:    deps,
		})
		result.PackOrder = append(result.PackOrder, pack.Name())
	}

	result.StateProviders = statepack.CollectProvidedKeys(packs)
}

// asFactory adapts the symbol shapes that count as a state source into a
// Factory.
func asFactory(symbol any) (state.Factory, bool) {
	switch v := symbol.(type) {
	case state.Factory:
		return v, true
	case func() state.State:
		return v, true
	case state.State:
		return func() state.State { return v }, true
	default:
		return nil, false
	}
}

// parseResolutionPolicy validates initial_state_resolution: exactly the two
// sources "packs" and "builtin", in either order.
func parseResolutionPolicy(result *Explanation, data map[string]any) {
	raw, ok := data["initial_state_resolution"].([]any)
	if !ok {
		return // default already set
	}

	policy := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			policy = append(policy, s)
		}
	}

	if len(policy) != 2 {
		result.Errors = append(result.Errors, Diagnostic{
			Level:   LevelError,
			What:    "Field 'initial_state_resolution' must have exactly 2 elements",
			Why:     fmt.Sprintf("Got %d element(s).", len(policy)),
			Fix:     `Use: ["packs", "builtin"] or ["builtin", "packs"]`,
			Context: contextFor(result.ConfigPath).Add("policy", policy),
		})
		return
	}

	seen := map[string]bool{policy[0]: true, policy[1]: true}
	if !seen[SourcePacks] || !seen[SourceBuiltin] {
		var invalid []string
		for _, p := range policy {
			if p != SourcePacks && p != SourceBuiltin {
				invalid = append(invalid, p)
			}
		}
		result.Errors = append(result.Errors, Diagnostic{
			Level:   LevelError,
			What:    fmt.Sprintf("Invalid resolution source(s): %s", strings.Join(invalid, ", ")),
			Why:     "Only 'packs' and 'builtin' are valid resolution sources.",
			Fix:     `Use: ["packs", "builtin"] or ["builtin", "packs"]`,
			Context: contextFor(result.ConfigPath).Add("policy", policy),
		})
		return
	}

	result.Resolution = policy
}

// resolveInitialState checks the configured initial state. A "module:Symbol"
// reference is resolved through the resolver; a plain name is checked
// against the known state names (pack-provided plus builtin plus resolved
// legacy states).
func resolveInitialState(result *Explanation, data map[string]any, opts Options) {
	initial, ok := data["initial_state"].(string)
	if !ok {
		initial = "InitialState"
	}

	if strings.Contains(initial, ":") {
		if opts.Resolver == nil {
			result.Errors = append(result.Errors, Diagnostic{
				Level:   LevelError,
				What:    fmt.Sprintf("Cannot resolve initial_state: %s", initial),
				Why:     "No resolver configured.",
				Fix:     "Pass a resolver, or use a plain registered state name.",
				Context: contextFor(result.ConfigPath).Add("initial_state", initial),
			})
			return
		}
		symbol, err := opts.Resolver.Resolve(initial)
		if err != nil {
			result.Errors = append(result.Errors, diagnosticFromError(
				fmt.Sprintf("Cannot resolve initial_state: %s", initial), err))
			return
		}
		if factory, ok := asFactory(symbol); ok {
			result.InitialState = factory().Name()
			return
		}
		result.Errors = append(result.Errors, Diagnostic{
			Level:   LevelError,
			What:    "initial_state is not a state",
			Why:     fmt.Sprintf("%q resolved to %T.", initial, symbol),
			Fix:     "Ensure the reference names a state factory.",
			Context: contextFor(result.ConfigPath).Add("initial_state", initial),
		})
		return
	}

	known := make([]string, 0, len(result.BuiltinStates))
	known = append(known, result.BuiltinStates...)
	for _, s := range result.States {
		if s.Resolved && s.IsState {
			known = append(known, s.Key)
		}
	}
	for key := range result.StateProviders {
		known = append(known, key)
	}

	for _, name := range known {
		if name == initial {
			result.InitialState = initial
			return
		}
	}

	sort.Strings(known)
	shown := known
	if len(shown) > 5 {
		shown = shown[:5]
	}
	result.Errors = append(result.Errors, Diagnostic{
		Level:   LevelError,
		What:    fmt.Sprintf("Unknown initial_state: %q", initial),
		Why:     "The state is not provided by any pack, the states mapping, or the builtins.",
		Fix:     fmt.Sprintf("Use one of: %s", strings.Join(shown, ", ")),
		Context: contextFor(result.ConfigPath).Add("initial_state", initial),
	})
}
