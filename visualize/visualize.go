// Package visualize renders a Mermaid flowchart from a config explanation.
//
// It is purely introspection-based: pack subgraphs, transition edges, and an
// "unknown states" subgraph for transition endpoints no pack or builtin
// provides. Nothing feeds back into the runtime.
package visualize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/flexiflow/explain"
	"github.com/roach88/flexiflow/ferrors"
	"github.com/roach88/flexiflow/statepack"
)

// FormatMermaid is the only supported output format.
const FormatMermaid = "mermaid"

// Visualize renders the explanation as diagram source in the requested
// format. Only "mermaid" is supported; anything else is an invalid-argument
// error.
func Visualize(exp *explain.Explanation, format string) (string, error) {
	if format != FormatMermaid {
		ctx := ferrors.Context{}.Add("format", format)
		return "", ferrors.InvalidArgument(
			fmt.Sprintf("unsupported format %q: use %q", format, FormatMermaid), ctx)
	}
	return generateMermaid(exp), nil
}

func generateMermaid(exp *explain.Explanation) string {
	var lines []string
	lines = append(lines, "flowchart LR", "")

	// Meta comments describing how the diagram was derived.
	lines = append(lines, "%% Edge labels: on_message [guard]")
	if len(exp.PackOrder) > 0 {
		lines = append(lines, fmt.Sprintf("%%%% pack_order: %s", strings.Join(exp.PackOrder, ", ")))
	}
	if len(exp.Resolution) > 0 {
		lines = append(lines, fmt.Sprintf("%%%% initial_state_resolution: [%s]", strings.Join(exp.Resolution, ", ")))
	}
	if len(exp.PackOrder) > 0 || len(exp.Resolution) > 0 {
		lines = append(lines, "")
	}

	known := make(map[string]bool)
	for _, pack := range exp.Packs {
		for _, key := range pack.ProvidedKeys {
			known[key] = true
		}
	}
	for _, name := range exp.BuiltinStates {
		known[name] = true
	}

	var transitions []statepack.TransitionSpec
	unknown := make(map[string]bool)
	for _, pack := range exp.Packs {
		for _, t := range pack.Transitions {
			transitions = append(transitions, t)
			if !known[t.From] {
				unknown[t.From] = true
			}
			if !known[t.To] {
				unknown[t.To] = true
			}
		}
	}

	for _, pack := range exp.Packs {
		if len(pack.ProvidedKeys) == 0 {
			continue
		}
		lines = append(lines, fmt.Sprintf("subgraph %s[\"pack: %s\"]", sanitizeID(pack.Name), pack.Name))
		keys := append([]string(nil), pack.ProvidedKeys...)
		sort.Strings(keys)
		for _, key := range keys {
			lines = append(lines, fmt.Sprintf("  %s[%q]", sanitizeID(key), key))
		}
		lines = append(lines, "end", "")
	}

	if len(unknown) > 0 {
		lines = append(lines, "subgraph unknown[\"unknown states\"]")
		names := make([]string, 0, len(unknown))
		for name := range unknown {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			lines = append(lines, fmt.Sprintf("  %s[%q]:::unknown", sanitizeID("unknown_"+name), name))
		}
		lines = append(lines, "end", "")
	}

	if len(transitions) > 0 {
		for _, t := range transitions {
			label := strings.ReplaceAll(t.OnMessage, `"`, `\"`)
			if t.Guard != "" {
				label = fmt.Sprintf("%s [%s]", label, t.Guard)
			}
			lines = append(lines, fmt.Sprintf("%s -->|%q| %s",
				nodeID(t.From, unknown), label, nodeID(t.To, unknown)))
		}
		lines = append(lines, "")
	}

	if len(unknown) > 0 {
		lines = append(lines,
			"%% Styling for unknown states",
			"classDef unknown stroke-dasharray: 5 5, stroke: #999",
			"")
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return strings.Join(lines, "\n")
}

// sanitizeID converts a name into a Mermaid-safe node id: alphanumerics and
// underscores only.
func sanitizeID(name string) string {
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "node"
	}
	return b.String()
}

// nodeID picks the node id for a state, prefixing unknown states so they
// land in the unknown subgraph.
func nodeID(name string, unknown map[string]bool) string {
	if unknown[name] {
		return sanitizeID("unknown_" + name)
	}
	return sanitizeID(name)
}
