package symbols_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamba-lang/mamba/internal/symbols"
	"github.com/mamba-lang/mamba/internal/types"
)

func TestInsertRejectsNonOverloadableDuplicate(t *testing.T) {
	s := symbols.NewScope(nil)
	require.True(t, s.Insert(&symbols.Symbol{Name: "x"}))
	assert.False(t, s.Insert(&symbols.Symbol{Name: "x"}))
}

func TestInsertAllowsOverloadableDuplicates(t *testing.T) {
	s := symbols.NewScope(nil)
	require.True(t, s.Insert(&symbols.Symbol{Name: "f", Overloadable: true}))
	require.True(t, s.Insert(&symbols.Symbol{Name: "f", Overloadable: true}))
	assert.Len(t, s.Local("f"), 2)
}

func TestInsertRejectsMixedOverloadability(t *testing.T) {
	s := symbols.NewScope(nil)
	require.True(t, s.Insert(&symbols.Symbol{Name: "f", Overloadable: true}))
	assert.False(t, s.Insert(&symbols.Symbol{Name: "f", Overloadable: false}))
}

func TestLookupShadowsAcrossScopes(t *testing.T) {
	parent := symbols.NewScope(nil)
	parent.Insert(&symbols.Symbol{Name: "x", Type: types.Int})
	child := symbols.NewScope(parent)
	child.Insert(&symbols.Symbol{Name: "x", Type: types.String})

	syms := child.Lookup("x")
	require.Len(t, syms, 1)
	assert.Equal(t, types.String, syms[0].Type)
}

func TestFindScopeOfWalksAncestors(t *testing.T) {
	parent := symbols.NewScope(nil)
	parent.Insert(&symbols.Symbol{Name: "x"})
	child := symbols.NewScope(parent)

	assert.Equal(t, parent, child.FindScopeOf("x"))
	assert.Nil(t, child.FindScopeOf("undeclared"))
}

func TestBuiltinScopeHasArithmeticAndDotAndPrint(t *testing.T) {
	b := symbols.Builtin()

	plusSyms := b.Local("+")
	require.Len(t, plusSyms, 2, "builtin + is overloaded for Int and Float only")
	for _, s := range plusSyms {
		assert.True(t, s.Overloadable)
	}

	dotSyms := b.Local(".")
	require.Len(t, dotSyms, 1)
	assert.Same(t, symbols.DotSymbol, dotSyms[0])

	printSyms := b.Local("print")
	require.Len(t, printSyms, 1)
	assert.False(t, printSyms[0].Overloadable)
}

func TestBuiltinAliasesUnwrapToGroundTypes(t *testing.T) {
	b := symbols.Builtin()
	intSyms := b.Local("Int")
	require.Len(t, intSyms, 1)

	unwrapped, ok := symbols.Unwrap(intSyms[0].Type)
	require.True(t, ok)
	assert.Equal(t, types.Int, unwrapped)
}

func TestNewAliasTypeRoundTrips(t *testing.T) {
	subject := types.GroundType{Name: "Widget"}
	aliased := symbols.NewAliasType(subject)

	unwrapped, ok := symbols.Unwrap(aliased)
	require.True(t, ok)
	assert.Equal(t, subject, unwrapped)
}

func TestNamesPreservesInsertionOrder(t *testing.T) {
	s := symbols.NewScope(nil)
	s.Insert(&symbols.Symbol{Name: "b"})
	s.Insert(&symbols.Symbol{Name: "a"})
	s.Insert(&symbols.Symbol{Name: "c"})
	assert.Equal(t, []string{"b", "a", "c"}, s.Names())
}
