package cli

import (
	"fmt"
	"log/slog"

	"github.com/roach88/flexiflow/component"
	"github.com/roach88/flexiflow/config"
	"github.com/roach88/flexiflow/engine"
	"github.com/roach88/flexiflow/resolve"
	"github.com/roach88/flexiflow/state"
	"github.com/roach88/flexiflow/statepack"
)

// runtimeEnv bundles everything a command needs after loading the config:
// the constructed engine and component plus the collaborators used to
// build them.
type runtimeEnv struct {
	cfg       config.ComponentConfig
	logger    *slog.Logger
	registry  *state.Registry
	resolver  *resolve.SymbolTable
	engine    *engine.Engine
	component *component.Component
}

// buildRuntime loads the config and wires registry → packs → machine →
// component → engine, the standard control flow of an embedding caller.
func buildRuntime(opts *RootOptions) (*runtimeEnv, error) {
	path, err := opts.resolveConfigPath()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := opts.newLogger()
	registry := state.NewBuiltinRegistry()
	resolver := resolve.NewSymbolTable()

	if len(cfg.States) > 0 || len(cfg.Packs) > 0 {
		params := statepack.Params{
			BuiltinKeys: state.BuiltinStateNames,
			Resolver:    resolver,
		}
		if len(cfg.States) > 0 {
			factories, err := resolveStateRefs(cfg.States, resolver)
			if err != nil {
				return nil, err
			}
			params.States = factories
		}
		if len(cfg.Packs) > 0 {
			entries := make([]any, len(cfg.Packs))
			for i, ref := range cfg.Packs {
				entries[i] = ref
			}
			params.Packs = entries
		}

		packs, err := statepack.LoadPacks(params)
		if err != nil {
			return nil, err
		}
		statepack.Register(registry, packs)
	}

	machine, err := state.FromName(registry, cfg.InitialState)
	if err != nil {
		return nil, err
	}

	comp := component.New(cfg.Name, machine,
		component.WithRules(cfg.Rules),
		component.WithLogger(logger),
	)

	eng := engine.New(engine.WithLogger(logger))
	eng.Register(comp)

	return &runtimeEnv{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		resolver:  resolver,
		engine:    eng,
		component: comp,
	}, nil
}

// buildRuntimeInto rebuilds the component from the current config and
// registers it into an existing engine, replacing the previous registration
// of the same name. Used by the serve command's config watch.
func buildRuntimeInto(opts *RootOptions, eng *engine.Engine) (*component.Component, error) {
	env, err := buildRuntime(opts)
	if err != nil {
		return nil, err
	}
	// Detach the throwaway engine's bus so the existing engine's bus is
	// injected on registration.
	env.component.SetBus(eng.Bus())
	eng.Register(env.component)
	return env.component, nil
}

// resolveStateRefs resolves the legacy states mapping into factories.
func resolveStateRefs(states map[string]string, resolver resolve.Resolver) (map[string]state.Factory, error) {
	factories := make(map[string]state.Factory, len(states))
	for key, ref := range states {
		symbol, err := resolver.Resolve(ref)
		if err != nil {
			return nil, err
		}
		switch v := symbol.(type) {
		case state.Factory:
			factories[key] = v
		case func() state.State:
			factories[key] = v
		default:
			return nil, fmt.Errorf("state %q: reference %q is not a state factory (got %T)", key, ref, symbol)
		}
	}
	return factories, nil
}
