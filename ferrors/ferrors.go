// Package ferrors defines the structured error type used across flexiflow.
//
// Every user-facing error carries four parts:
//   - What happened (one sentence, plain English)
//   - Why (root cause, not a stack trace)
//   - Fix (specific, actionable)
//   - Context (relevant keys/values, trimmed)
//
// Errors are classified by Kind so callers can branch with IsKind without
// string matching. Use errors.As / the As helper to recover the structured
// form from a wrapped chain.
package ferrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind categorizes an error for programmatic handling.
type Kind string

const (
	// KindConfig marks malformed or inconsistent configuration.
	KindConfig Kind = "config"

	// KindState marks state registry and state machine failures.
	KindState Kind = "state"

	// KindImport marks symbol reference resolution failures.
	KindImport Kind = "import"

	// KindPersistence marks snapshot load/save failures.
	KindPersistence Kind = "persistence"

	// KindInvalidArgument marks bad arguments to runtime operations
	// (priorities, delivery modes, retry bounds).
	KindInvalidArgument Kind = "invalid_argument"
)

// ContextItem is a single key/value pair attached to an error.
type ContextItem struct {
	Key   string
	Value any
}

// Context is an ordered list of debugging key/value pairs.
// Order is preserved so formatted output is deterministic.
type Context []ContextItem

// Add appends a key/value pair, returning the extended context for chaining.
func (c Context) Add(key string, value any) Context {
	return append(c, ContextItem{Key: key, Value: value})
}

// Format renders the context as indented key=value lines.
// Returns the empty string for an empty context.
func (c Context) Format() string {
	if len(c) == 0 {
		return ""
	}
	lines := make([]string, 0, len(c))
	for _, item := range c {
		switch v := item.Value.(type) {
		case string:
			lines = append(lines, fmt.Sprintf("  %s=%q", item.Key, v))
		default:
			lines = append(lines, fmt.Sprintf("  %s=%v", item.Key, v))
		}
	}
	return strings.Join(lines, "\n")
}

// Error is the structured error carried through the module.
type Error struct {
	Kind    Kind
	What    string
	Why     string
	Fix     string
	Context Context
}

// New creates an Error with the given kind and one-line description.
// Attach Why/Fix/Context via the With* builders.
func New(kind Kind, what string) *Error {
	return &Error{Kind: kind, What: what}
}

// Newf creates an Error with a formatted description.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, What: fmt.Sprintf(format, args...)}
}

// WithWhy sets the root-cause explanation.
func (e *Error) WithWhy(why string) *Error {
	e.Why = why
	return e
}

// WithFix sets the actionable fix suggestion.
func (e *Error) WithFix(fix string) *Error {
	e.Fix = fix
	return e
}

// WithContext attaches debugging context.
func (e *Error) WithContext(ctx Context) *Error {
	e.Context = ctx
	return e
}

// Error returns the one-line description. Use Format for the full
// what/why/fix/context rendering.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.What)
}

// Format renders the full structured message:
//
//	<what>
//
//	Why: <why>
//
//	Fix: <fix>
//
//	Context:
//	  key=value
func (e *Error) Format() string {
	var b strings.Builder
	b.WriteString(e.What)
	if e.Why != "" {
		b.WriteString("\n\nWhy: ")
		b.WriteString(e.Why)
	}
	if e.Fix != "" {
		b.WriteString("\n\nFix: ")
		b.WriteString(e.Fix)
	}
	if ctx := e.Context.Format(); ctx != "" {
		b.WriteString("\n\nContext:\n")
		b.WriteString(ctx)
	}
	return b.String()
}

// As extracts a structured Error from err's chain.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsKind reports whether err's chain contains a structured Error of kind k.
func IsKind(err error, k Kind) bool {
	fe, ok := As(err)
	return ok && fe.Kind == k
}
