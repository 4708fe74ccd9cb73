package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flexiflow/ferrors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeConfig(t, `
name: order_processor
initial_state: ProcessingRequest
rules:
  - match: {type: start}
    action: begin
packs:
  - "myapp/packs:SessionPack"
initial_state_resolution: ["packs", "builtin"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "order_processor", cfg.Name)
	assert.Equal(t, "ProcessingRequest", cfg.InitialState)
	require.Len(t, cfg.Rules, 1)
	assert.Equal(t, "begin", cfg.Rules[0]["action"])
	assert.Equal(t, []string{"myapp/packs:SessionPack"}, cfg.Packs)
	assert.Equal(t, []string{"packs", "builtin"}, cfg.Resolution)
}

func TestLoad_DefaultsInitialState(t *testing.T) {
	path := writeConfig(t, "name: minimal\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultInitialState, cfg.InitialState)
	assert.Nil(t, cfg.Rules)
}

func TestLoad_LegacyStatesMapping(t *testing.T) {
	path := writeConfig(t, `
name: legacy
states:
  Idle: "myapp/states:Idle"
  Busy: "myapp/states:Busy"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"Idle": "myapp/states:Idle",
		"Busy": "myapp/states:Busy",
	}, cfg.States)
}

func TestLoad_MissingName(t *testing.T) {
	path := writeConfig(t, "initial_state: InitialState\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, ferrors.IsKind(err, ferrors.KindConfig))

	fe, _ := ferrors.As(err)
	assert.Contains(t, fe.What, `"name"`)
}

func TestLoad_NameWrongType(t *testing.T) {
	path := writeConfig(t, "name: 42\n")

	_, err := Load(path)
	require.Error(t, err)

	fe, ok := ferrors.As(err)
	require.True(t, ok)
	assert.Contains(t, fe.What, "wrong type")
}

func TestLoad_RulesNotAList(t *testing.T) {
	path := writeConfig(t, "name: x\nrules: sure\n")

	_, err := Load(path)
	require.Error(t, err)

	fe, ok := ferrors.As(err)
	require.True(t, ok)
	assert.Contains(t, fe.What, `"rules"`)
}

func TestLoad_PacksNotStrings(t *testing.T) {
	path := writeConfig(t, "name: x\npacks:\n  - 42\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, ferrors.IsKind(err, ferrors.KindConfig))
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "name: [unclosed\n")

	_, err := Load(path)
	require.Error(t, err)

	fe, ok := ferrors.As(err)
	require.True(t, ok)
	assert.Contains(t, fe.What, "Invalid YAML")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeConfig(t, "")

	_, err := Load(path)
	require.Error(t, err, "empty config still lacks a name")
}

func TestLoadRules(t *testing.T) {
	path := writeConfig(t, `
rules:
  - match: {type: start}
  - match: {type: stop}
`)

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}

func TestLoadRules_NoRulesKey(t *testing.T) {
	path := writeConfig(t, "other: thing\n")

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Nil(t, rules)
}
