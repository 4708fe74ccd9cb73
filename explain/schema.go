package explain

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// configSchema is the CUE definition the decoded config is vetted against
// before any semantic pass runs. It gates shape and types only; semantic
// rules (mutual exclusion, reference resolution, policy values) are checked
// afterwards in Go.
const configSchema = `
#Config: {
	name: string & !=""
	initial_state?: string
	rules?: [...{...}]
	states?: {[string]: string}
	packs?: [...string]
	initial_state_resolution?: [...string]
}
`

// vetSchema unifies the decoded config with the schema and converts every
// violation into an error diagnostic. Returns nil when the config shape is
// valid.
func vetSchema(data map[string]any, configPath string) []Diagnostic {
	cuectx := cuecontext.New()

	schema := cuectx.CompileString(configSchema).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return []Diagnostic{{
			Level: LevelError,
			What:  "Internal schema error",
			Why:   err.Error(),
		}}
	}

	value := cuectx.Encode(data)
	if err := value.Err(); err != nil {
		return []Diagnostic{{
			Level: LevelError,
			What:  "Config could not be encoded for schema checking",
			Why:   err.Error(),
		}}
	}

	unified := schema.Unify(value)
	err := unified.Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var diags []Diagnostic
	for _, e := range cueerrors.Errors(err) {
		what := "Config schema violation"
		if path := cueerrors.Path(e); len(path) > 0 {
			what = fmt.Sprintf("Config schema violation at %q", pathString(path))
		}
		diags = append(diags, Diagnostic{
			Level:   LevelError,
			What:    what,
			Why:     e.Error(),
			Fix:     "Adjust the field to match the documented config format.",
			Context: contextFor(configPath),
		})
	}
	return diags
}

func pathString(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
