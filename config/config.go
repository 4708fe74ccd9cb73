// Package config loads component configuration from YAML files.
//
// The file format:
//
//	name: order_processor          # required
//	initial_state: InitialState    # optional, defaults to InitialState
//	rules:                         # optional, opaque to the runtime
//	  - match: {type: start}
//	states:                        # legacy flat mapping (exclusive with packs)
//	  Idle: "myapp/states:Idle"
//	packs:                         # pack reference list
//	  - "myapp/packs:SessionPack"
//	initial_state_resolution: ["packs", "builtin"]  # optional lookup order
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/flexiflow/ferrors"
)

// DefaultInitialState is used when a config omits initial_state.
const DefaultInitialState = "InitialState"

// ComponentConfig is the decoded component configuration.
type ComponentConfig struct {
	Name         string           `yaml:"name"`
	InitialState string           `yaml:"initial_state"`
	Rules        []map[string]any `yaml:"rules"`
	States       map[string]string `yaml:"states"`
	Packs        []string         `yaml:"packs"`
	Resolution   []string         `yaml:"initial_state_resolution"`
}

// Load reads and validates a component config from path.
func Load(path string) (ComponentConfig, error) {
	data, err := loadYAML(path)
	if err != nil {
		return ComponentConfig{}, err
	}
	return decode(data, path)
}

// loadYAML reads path and decodes it into a generic mapping.
func loadYAML(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var data map[string]any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		ctx := ferrors.Context{}.Add("config_path", path).Add("error", err.Error())
		return nil, ferrors.New(ferrors.KindConfig, "Invalid YAML syntax").
			WithWhy("The config file could not be parsed as YAML.").
			WithFix("Check the file for YAML syntax errors.").
			WithContext(ctx)
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

// decode validates the generic mapping field by field, producing structured
// errors for missing or mistyped values.
func decode(data map[string]any, path string) (ComponentConfig, error) {
	cfg := ComponentConfig{InitialState: DefaultInitialState}

	nameVal, ok := data["name"]
	if !ok || nameVal == nil {
		return cfg, ferrors.ConfigMissingField("name", path)
	}
	name, ok := nameVal.(string)
	if !ok || name == "" {
		return cfg, ferrors.ConfigWrongType("name", "non-empty string", fmt.Sprintf("%T", nameVal), path)
	}
	cfg.Name = name

	if v, ok := data["initial_state"]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return cfg, ferrors.ConfigWrongType("initial_state", "string", fmt.Sprintf("%T", v), path)
		}
		cfg.InitialState = s
	}

	if v, ok := data["rules"]; ok && v != nil {
		rules, err := decodeRules(v, path)
		if err != nil {
			return cfg, err
		}
		cfg.Rules = rules
	}

	if v, ok := data["states"]; ok && v != nil {
		states, err := decodeStates(v, path)
		if err != nil {
			return cfg, err
		}
		cfg.States = states
	}

	if v, ok := data["packs"]; ok && v != nil {
		packs, err := decodeStringList(v, "packs", path)
		if err != nil {
			return cfg, err
		}
		cfg.Packs = packs
	}

	if v, ok := data["initial_state_resolution"]; ok && v != nil {
		policy, err := decodeStringList(v, "initial_state_resolution", path)
		if err != nil {
			return cfg, err
		}
		cfg.Resolution = policy
	}

	return cfg, nil
}

func decodeRules(v any, path string) ([]map[string]any, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, ferrors.ConfigWrongType("rules", "list", fmt.Sprintf("%T", v), path)
	}
	rules := make([]map[string]any, 0, len(list))
	for _, item := range list {
		rule, ok := toStringMap(item)
		if !ok {
			return nil, ferrors.ConfigWrongType("rules", "list of mappings", fmt.Sprintf("list containing %T", item), path)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func decodeStates(v any, path string) (map[string]string, error) {
	m, ok := toStringMap(v)
	if !ok {
		return nil, ferrors.ConfigWrongType("states", "mapping", fmt.Sprintf("%T", v), path)
	}
	states := make(map[string]string, len(m))
	for key, val := range m {
		ref, ok := val.(string)
		if !ok {
			return nil, ferrors.ConfigWrongType("states", "mapping of name to reference string", fmt.Sprintf("mapping containing %T", val), path)
		}
		states[key] = ref
	}
	return states, nil
}

func decodeStringList(v any, field, path string) ([]string, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, ferrors.ConfigWrongType(field, "list of strings", fmt.Sprintf("%T", v), path)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, ferrors.ConfigWrongType(field, "list of strings", fmt.Sprintf("list containing %T", item), path)
		}
		out = append(out, s)
	}
	return out, nil
}

// toStringMap converts the two mapping shapes yaml.v3 produces into
// map[string]any.
func toStringMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for key, val := range m {
			ks, ok := key.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// LoadRules reads a YAML file containing a top-level "rules:" list, used by
// the update-rules flow.
func LoadRules(path string) ([]map[string]any, error) {
	data, err := loadYAML(path)
	if err != nil {
		return nil, err
	}
	v, ok := data["rules"]
	if !ok || v == nil {
		return nil, nil
	}
	return decodeRules(v, path)
}
