package ferrors

import (
	"fmt"
	"strings"
)

// maxValidStatesShown caps how many valid state names appear in a
// StateNotFound message before collapsing to a "+N more" suffix.
const maxValidStatesShown = 5

// ConfigMissingField reports a required config field that was absent.
func ConfigMissingField(field, path string) *Error {
	ctx := Context{}
	if path != "" {
		ctx = ctx.Add("config_path", path)
	}
	ctx = ctx.Add("field", field)

	return Newf(KindConfig, "Config missing required field: %q", field).
		WithWhy(fmt.Sprintf("The %q field is required but was not found in the config.", field)).
		WithFix(fmt.Sprintf("Add %q to your config file.", field)).
		WithContext(ctx)
}

// ConfigWrongType reports a config field holding the wrong type.
func ConfigWrongType(field, expected, got, path string) *Error {
	ctx := Context{}
	if path != "" {
		ctx = ctx.Add("config_path", path)
	}
	ctx = ctx.Add("field", field).Add("expected", expected).Add("got", got)

	return Newf(KindConfig, "Config field %q has wrong type", field).
		WithWhy(fmt.Sprintf("Expected %s, but got %s.", expected, got)).
		WithFix(fmt.Sprintf("Change %q to be a %s.", field, expected)).
		WithContext(ctx)
}

// StateNotFound reports a state name missing from a registry. The message
// lists up to five valid names followed by a "+N more" count.
func StateNotFound(name string, valid []string) *Error {
	shown := valid
	more := 0
	if len(valid) > maxValidStatesShown {
		shown = valid[:maxValidStatesShown]
		more = len(valid) - maxValidStatesShown
	}

	validStr := strings.Join(shown, ", ")
	if more > 0 {
		validStr += fmt.Sprintf(" (+%d more)", more)
	}

	ctx := Context{}.Add("requested_state", name).Add("valid_states", shown)

	return Newf(KindState, "Unknown state: %q", name).
		WithWhy("The requested state is not registered in the state registry.").
		WithFix(fmt.Sprintf("Use one of the valid states: %s\nOr register your custom state with registry.Register(name, factory).", validStr)).
		WithContext(ctx)
}

// PersistenceInvalidJSON reports a snapshot file with malformed JSON.
func PersistenceInvalidJSON(path, detail string) *Error {
	ctx := Context{}.Add("path", path).Add("error", detail)

	return Newf(KindPersistence, "Invalid JSON in state file: %s", path).
		WithWhy("The file exists but contains malformed JSON.").
		WithFix("Check the file for syntax errors, or delete it to start fresh.").
		WithContext(ctx)
}

// PersistenceMissingField reports a snapshot missing a required field.
func PersistenceMissingField(path, field string) *Error {
	ctx := Context{}.Add("path", path).Add("field", field)

	return Newf(KindPersistence, "State file missing required field: %q", field).
		WithWhy(fmt.Sprintf("The state file exists but is missing the %q field.", field)).
		WithFix("This may indicate a corrupted file. Delete it to start fresh, or manually add the missing field.").
		WithContext(ctx)
}

// ImportInvalidFormat reports a symbol reference that is not in
// "module:Symbol" form.
func ImportInvalidFormat(ref string) *Error {
	ctx := Context{}.Add("ref", ref)

	return Newf(KindImport, "Invalid symbol reference format: %q", ref).
		WithWhy("Symbol references must be in 'module:Symbol' format.").
		WithFix("Use the format 'mypackage/states:MyState' (colon separates module from symbol).").
		WithContext(ctx)
}

// ImportModuleNotFound reports a symbol reference naming an unknown module.
func ImportModuleNotFound(module, ref string) *Error {
	ctx := Context{}.Add("module", module).Add("ref", ref)

	return Newf(KindImport, "Module not found: %q", module).
		WithWhy("No symbols are registered under the module named in the reference.").
		WithFix("Register the module's symbols with the resolver before loading the config.").
		WithContext(ctx)
}

// ImportSymbolNotFound reports a known module lacking the named symbol.
func ImportSymbolNotFound(module, symbol, ref string) *Error {
	ctx := Context{}.Add("module", module).Add("symbol", symbol).Add("ref", ref)

	return Newf(KindImport, "Symbol %q not found in module %q", symbol, module).
		WithWhy("The module is registered but doesn't contain that symbol.").
		WithFix("Check the spelling of the symbol name and make sure it was registered with the resolver.").
		WithContext(ctx)
}

// InvalidArgument reports a bad argument to a runtime operation.
func InvalidArgument(what string, ctx Context) *Error {
	return New(KindInvalidArgument, what).WithContext(ctx)
}
