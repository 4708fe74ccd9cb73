package statepack

import (
	"fmt"
	"strings"

	"github.com/roach88/flexiflow/ferrors"
	"github.com/roach88/flexiflow/resolve"
	"github.com/roach88/flexiflow/state"
)

// Params configures LoadPacks.
//
// Exactly one of States and Packs may be set. Pack entries may be:
//   - a Pack value, used as-is
//   - a PackFactory (or plain func() Pack), instantiated with no arguments
//   - a string symbol reference, resolved through Resolver
type Params struct {
	// States is the legacy flat mapping; wrapped whole into one MappingPack.
	States map[string]state.Factory

	// Packs is the ordered pack source list.
	Packs []any

	// BuiltinKeys are state names packs must not shadow.
	BuiltinKeys []string

	// Resolver resolves string pack references. Required only when Packs
	// contains strings.
	Resolver resolve.Resolver
}

// LoadPacks normalizes the configured sources into an ordered pack list and
// runs collision detection over the result.
//
// The returned order is exactly the caller-supplied order; it later serves
// as the pack precedence order for key attribution. On collision, the first
// detected error is returned (detection covers the whole list, but errors
// surface one at a time).
func LoadPacks(p Params) ([]Pack, error) {
	if p.States != nil && p.Packs != nil {
		ctx := ferrors.Context{}.Add("has_states", true).Add("has_packs", true)
		return nil, ferrors.New(ferrors.KindConfig, "Cannot specify both 'states' and 'packs'").
			WithWhy("The legacy 'states:' mapping and the 'packs:' list are mutually exclusive. Both define state sources, creating ambiguity about which states to use.").
			WithFix("Remove one: keep 'states:' for simple configs, or migrate to 'packs:' by wrapping your states in a pack.").
			WithContext(ctx)
	}

	result := make([]Pack, 0, len(p.Packs)+1)

	if p.States != nil {
		result = append(result, NewMappingPack(p.States))
	}

	for _, entry := range p.Packs {
		pack, err := resolveEntry(entry, p.Resolver)
		if err != nil {
			return nil, err
		}
		result = append(result, pack)
	}

	if err := detectCollisions(result, p.BuiltinKeys); err != nil {
		return nil, err
	}

	return result, nil
}

// resolveEntry turns one pack source entry into a Pack.
func resolveEntry(entry any, resolver resolve.Resolver) (Pack, error) {
	switch v := entry.(type) {
	case string:
		return loadPackRef(v, resolver)
	case Pack:
		return v, nil
	case PackFactory:
		return instantiate(v, fmt.Sprintf("%T", entry))
	case func() Pack:
		return instantiate(v, fmt.Sprintf("%T", entry))
	default:
		ctx := ferrors.Context{}.Add("entry", fmt.Sprintf("%v", entry)).Add("type", fmt.Sprintf("%T", entry))
		return nil, ferrors.Newf(ferrors.KindConfig, "Invalid pack entry: %v", entry).
			WithWhy(fmt.Sprintf("Expected a pack, a pack factory, or a symbol reference string, got %T.", entry)).
			WithFix("Provide either a pack value or a string like 'mypackage:MyPack'.").
			WithContext(ctx)
	}
}

// loadPackRef resolves a string reference and adapts whatever it names into
// a Pack. A factory symbol is instantiated with no arguments.
func loadPackRef(ref string, resolver resolve.Resolver) (Pack, error) {
	if resolver == nil {
		ctx := ferrors.Context{}.Add("ref", ref)
		return nil, ferrors.Newf(ferrors.KindConfig, "No resolver configured for pack reference: %q", ref).
			WithWhy("String pack entries need a symbol resolver to look them up.").
			WithFix("Pass a Resolver in Params, or supply pack values directly.").
			WithContext(ctx)
	}

	symbol, err := resolver.Resolve(ref)
	if err != nil {
		return nil, err
	}

	switch v := symbol.(type) {
	case Pack:
		return v, nil
	case PackFactory:
		return instantiate(v, ref)
	case func() Pack:
		return instantiate(v, ref)
	default:
		ctx := ferrors.Context{}.Add("ref", ref).Add("got_type", fmt.Sprintf("%T", symbol))
		return nil, ferrors.Newf(ferrors.KindConfig, "Not a pack: %q", ref).
			WithWhy(fmt.Sprintf("Expected the reference to name a pack or pack factory, got %T.", symbol)).
			WithFix("Ensure the symbol implements the Pack interface (Name, Provides, Transitions, DependsOn).").
			WithContext(ctx)
	}
}

// instantiate calls a pack factory, converting a panic or a nil result into
// a structured config error.
func instantiate(factory func() Pack, origin string) (pack Pack, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctx := ferrors.Context{}.Add("ref", origin).Add("error", fmt.Sprintf("%v", r))
			pack = nil
			err = ferrors.Newf(ferrors.KindConfig, "Failed to instantiate pack: %q", origin).
				WithWhy(fmt.Sprintf("The pack factory panicked during instantiation: %v.", r)).
				WithFix("Ensure the pack factory succeeds with no arguments.").
				WithContext(ctx)
		}
	}()

	pack = factory()
	if pack == nil {
		ctx := ferrors.Context{}.Add("ref", origin)
		return nil, ferrors.Newf(ferrors.KindConfig, "Failed to instantiate pack: %q", origin).
			WithWhy("The pack factory returned nil.").
			WithFix("Ensure the pack factory returns a usable pack.").
			WithContext(ctx)
	}
	return pack, nil
}

// detectCollisions sweeps the resolved pack list once, checking for state
// keys provided by more than one pack and for keys shadowing builtins.
// Detection covers every pack before reporting; the first offending key (in
// first-seen order, with each pack's keys visited sorted) is returned.
func detectCollisions(packs []Pack, builtinKeys []string) error {
	providers := make(map[string][]string)
	keyOrder := make([]string, 0)

	for _, pack := range packs {
		specs := pack.Provides()
		for _, key := range sortedKeys(specs) {
			if _, seen := providers[key]; !seen {
				keyOrder = append(keyOrder, key)
			}
			providers[key] = append(providers[key], pack.Name())
		}
	}

	for _, key := range keyOrder {
		if names := providers[key]; len(names) > 1 {
			ctx := ferrors.Context{}.Add("key", key).Add("providers", names)
			return ferrors.Newf(ferrors.KindConfig, "Duplicate state key: %q", key).
				WithWhy(fmt.Sprintf("Multiple packs provide the same state key: %s.", strings.Join(names, ", "))).
				WithFix("Rename the state in one of the packs to avoid the collision.").
				WithContext(ctx)
		}
	}

	builtin := make(map[string]struct{}, len(builtinKeys))
	for _, key := range builtinKeys {
		builtin[key] = struct{}{}
	}

	for _, key := range keyOrder {
		if _, shadowed := builtin[key]; shadowed {
			names := providers[key]
			ctx := ferrors.Context{}.Add("key", key).Add("providers", names).Add("builtin", true)
			return ferrors.Newf(ferrors.KindConfig, "State key %q shadows builtin", key).
				WithWhy(fmt.Sprintf("Pack(s) %s provide a key that conflicts with a builtin state.", strings.Join(names, ", "))).
				WithFix(fmt.Sprintf("Rename %q in the pack to avoid shadowing the builtin.", key)).
				WithContext(ctx)
		}
	}

	return nil
}

// CollectProvidedKeys maps every provided state key to its owning pack's
// name. With collisions already forbidden each key has exactly one provider;
// first provider wins by pack order.
func CollectProvidedKeys(packs []Pack) map[string]string {
	result := make(map[string]string)
	for _, pack := range packs {
		for key := range pack.Provides() {
			if _, ok := result[key]; !ok {
				result[key] = pack.Name()
			}
		}
	}
	return result
}

// Register installs every state provided by packs into the registry, in
// pack order. Call after LoadPacks so collisions are already ruled out.
func Register(registry *state.Registry, packs []Pack) {
	for _, pack := range packs {
		specs := pack.Provides()
		for _, key := range sortedKeys(specs) {
			registry.Register(key, specs[key].Factory)
		}
	}
}
