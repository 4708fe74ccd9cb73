package resolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flexiflow/ferrors"
)

func TestSplitRef(t *testing.T) {
	module, symbol, err := SplitRef("mypkg/states:MyState")
	require.NoError(t, err)
	assert.Equal(t, "mypkg/states", module)
	assert.Equal(t, "MyState", symbol)
}

func TestSplitRef_TrimsWhitespace(t *testing.T) {
	module, symbol, err := SplitRef("  mypkg : MyState ")
	require.NoError(t, err)
	assert.Equal(t, "mypkg", module)
	assert.Equal(t, "MyState", symbol)
}

func TestSplitRef_Invalid(t *testing.T) {
	for _, ref := range []string{"noseparator", ":Symbol", "module:", ":", ""} {
		_, _, err := SplitRef(ref)
		require.Error(t, err, "ref %q", ref)
		assert.True(t, ferrors.IsKind(err, ferrors.KindImport), "ref %q", ref)
	}
}

func TestSymbolTable_Resolve(t *testing.T) {
	table := NewSymbolTable()
	table.Register("mypkg", "Value", 42)

	got, err := table.Resolve("mypkg:Value")
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestSymbolTable_ModuleNotFound(t *testing.T) {
	table := NewSymbolTable()

	_, err := table.Resolve("ghost:Value")
	require.Error(t, err)

	fe, ok := ferrors.As(err)
	require.True(t, ok)
	assert.Contains(t, fe.What, "Module not found")
}

func TestSymbolTable_SymbolNotFound(t *testing.T) {
	table := NewSymbolTable()
	table.Register("mypkg", "Other", 1)

	_, err := table.Resolve("mypkg:Value")
	require.Error(t, err)

	fe, ok := ferrors.As(err)
	require.True(t, ok)
	assert.Contains(t, fe.What, "Symbol")
	assert.Contains(t, fe.What, "not found")
}

func TestSymbolTable_ReregisterOverwrites(t *testing.T) {
	table := NewSymbolTable()
	table.Register("mypkg", "Value", "old")
	table.Register("mypkg", "Value", "new")

	got, err := table.Resolve("mypkg:Value")
	require.NoError(t, err)
	assert.Equal(t, "new", got)
}
