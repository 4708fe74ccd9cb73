package explain

import (
	"fmt"
	"strings"

	"github.com/roach88/flexiflow/ferrors"
)

// Level classifies a diagnostic.
type Level string

const (
	// LevelWarning marks something worth attention that doesn't invalidate
	// the config.
	LevelWarning Level = "warning"

	// LevelError marks something that would make the config fail to load.
	LevelError Level = "error"
)

// Diagnostic is a single finding from config explanation. It carries the
// same what/why/fix/context parts as a structured error, but collected in a
// report instead of raised.
type Diagnostic struct {
	Level   Level
	What    string
	Why     string
	Fix     string
	Context ferrors.Context
}

// Format renders the diagnostic in the structured error layout.
func (d Diagnostic) Format() string {
	lines := []string{fmt.Sprintf("[%s] %s", strings.ToUpper(string(d.Level)), d.What)}
	if d.Why != "" {
		lines = append(lines, "Why: "+d.Why)
	}
	if d.Fix != "" {
		lines = append(lines, "Fix: "+d.Fix)
	}
	if ctx := d.Context.Format(); ctx != "" {
		lines = append(lines, "Context:\n"+ctx)
	}
	return strings.Join(lines, "\n")
}

// diagnosticFromError converts a structured error into an error-level
// diagnostic, preserving all four parts.
func diagnosticFromError(what string, err error) Diagnostic {
	if fe, ok := ferrors.As(err); ok {
		return Diagnostic{
			Level:   LevelError,
			What:    fmt.Sprintf("%s: %s", what, fe.What),
			Why:     fe.Why,
			Fix:     fe.Fix,
			Context: fe.Context,
		}
	}
	return Diagnostic{
		Level: LevelError,
		What:  fmt.Sprintf("%s: %v", what, err),
	}
}
