package explain

import (
	"fmt"
	"sort"
	"strings"
)

// Format renders the explanation as a human-readable report.
func (e *Explanation) Format() string {
	var b strings.Builder

	b.WriteString("FlexiFlow Config Explanation\n")
	b.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&b, "Source: %s\n\n", e.ConfigPath)

	b.WriteString("Component:\n")
	fmt.Fprintf(&b, "  name: %s\n", orMissing(e.Name))
	fmt.Fprintf(&b, "  initial_state: %s\n", orMissing(e.InitialState))
	fmt.Fprintf(&b, "  rules: %d rule(s)\n\n", e.RulesCount)

	if len(e.Packs) > 0 {
		b.WriteString("Packs:\n")
		for _, pack := range e.Packs {
			keys := "(none)"
			if len(pack.ProvidedKeys) > 0 {
				keys = strings.Join(pack.ProvidedKeys, ", ")
			}
			fmt.Fprintf(&b, "  %s:\n", pack.Name)
			fmt.Fprintf(&b, "    provides: %s\n", keys)
			if len(pack.Transitions) > 0 {
				fmt.Fprintf(&b, "    transitions: %d defined\n", len(pack.Transitions))
			}
			if len(pack.DependsOn) > 0 {
				fmt.Fprintf(&b, "    depends_on: %s\n", strings.Join(pack.DependsOn, ", "))
			}
		}
		b.WriteString("\n")

		if len(e.PackOrder) > 0 {
			fmt.Fprintf(&b, "Pack order: %s\n\n", strings.Join(e.PackOrder, " -> "))
		}
	}

	fmt.Fprintf(&b, "Resolution policy: %s\n\n", strings.Join(e.Resolution, " -> "))

	b.WriteString("States:\n")
	if len(e.States) > 0 {
		states := append([]StateResolution(nil), e.States...)
		sort.Slice(states, func(i, j int) bool { return states[i].Key < states[j].Key })
		for _, s := range states {
			status := "x"
			if s.Resolved && s.IsState {
				status = "ok"
			}
			provider := ""
			if name, ok := e.StateProviders[s.Key]; ok {
				provider = fmt.Sprintf(" (from %s)", name)
			}
			if s.Ref != "" {
				fmt.Fprintf(&b, "  [%s] %s: %s%s\n", status, s.Key, s.Ref, provider)
			} else {
				fmt.Fprintf(&b, "  [%s] %s%s\n", status, s.Key, provider)
			}
			if s.Err != "" {
				fmt.Fprintf(&b, "      Error: %s\n", s.Err)
			}
		}
	} else {
		b.WriteString("  (no custom states)\n")
	}
	fmt.Fprintf(&b, "  Built-in: %s\n\n", strings.Join(e.BuiltinStates, ", "))

	if len(e.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, w := range e.Warnings {
			fmt.Fprintf(&b, "  ! %s\n", w.What)
			if w.Fix != "" {
				fmt.Fprintf(&b, "    Fix: %s\n", w.Fix)
			}
		}
		b.WriteString("\n")
	}

	if len(e.Errors) > 0 {
		b.WriteString("Errors:\n")
		for _, d := range e.Errors {
			fmt.Fprintf(&b, "  x %s\n", d.What)
			if d.Why != "" {
				fmt.Fprintf(&b, "    Why: %s\n", d.Why)
			}
			if d.Fix != "" {
				fmt.Fprintf(&b, "    Fix: %s\n", d.Fix)
			}
		}
		b.WriteString("\n")
	}

	if e.IsValid() {
		b.WriteString("Status: ok - config will load successfully")
	} else {
		fmt.Fprintf(&b, "Status: invalid - %d error(s) found", len(e.Errors))
	}

	return b.String()
}

func orMissing(s string) string {
	if s == "" {
		return "(missing)"
	}
	return s
}
