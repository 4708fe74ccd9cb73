// Package resolve maps symbol references of the form "module:Symbol" to
// live values.
//
// Go has no runtime import machinery, so dynamic loading is modeled as a
// symbol table the embedding application populates at startup: it registers
// the state factories and packs it wants configs to be able to name, and
// config loading resolves references against that table. The rest of the
// module only sees the Resolver interface, keeping reflection-free.
package resolve

import (
	"strings"
	"sync"

	"github.com/roach88/flexiflow/ferrors"
)

// Resolver resolves a symbol reference to a live value.
type Resolver interface {
	Resolve(ref string) (any, error)
}

// SymbolTable is the standard Resolver: a thread-safe module→symbol→value
// table.
type SymbolTable struct {
	mu      sync.RWMutex
	modules map[string]map[string]any
}

// NewSymbolTable creates an empty symbol table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{modules: make(map[string]map[string]any)}
}

// Register makes value resolvable as "module:symbol". Re-registering an
// existing symbol overwrites it.
func (t *SymbolTable) Register(module, symbol string, value any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	syms, ok := t.modules[module]
	if !ok {
		syms = make(map[string]any)
		t.modules[module] = syms
	}
	syms[symbol] = value
}

// SplitRef parses "module:symbol", trimming whitespace around both halves.
// Returns an invalid-format error when the colon is missing or either half
// is empty.
func SplitRef(ref string) (module, symbol string, err error) {
	before, after, found := strings.Cut(ref, ":")
	if !found {
		return "", "", ferrors.ImportInvalidFormat(ref)
	}
	module = strings.TrimSpace(before)
	symbol = strings.TrimSpace(after)
	if module == "" || symbol == "" {
		return "", "", ferrors.ImportInvalidFormat(ref)
	}
	return module, symbol, nil
}

// Resolve implements Resolver.
func (t *SymbolTable) Resolve(ref string) (any, error) {
	module, symbol, err := SplitRef(ref)
	if err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	syms, ok := t.modules[module]
	if !ok {
		return nil, ferrors.ImportModuleNotFound(module, ref)
	}
	value, ok := syms[symbol]
	if !ok {
		return nil, ferrors.ImportSymbolNotFound(module, symbol, ref)
	}
	return value, nil
}
