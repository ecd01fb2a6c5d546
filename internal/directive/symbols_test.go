package directive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtil/internal/symex"
)

func num(v int64) *symex.Expression {
	return symex.NewConstantExpr(symex.ConstFromInt64(v))
}

func TestSymbolTableKinds(t *testing.T) {
	var table SymbolTable

	// V only captures variables.
	assert.Error(t, table.Add(V, num(1)))
	assert.NoError(t, table.Add(V, symex.MustVariable("x")))

	// U only captures constants.
	assert.ErrorIs(t, table.Add(U, symex.MustVariable("x")), symex.ErrBindingConflict)
	assert.NoError(t, table.Add(U, num(1)))

	// A captures anything.
	assert.NoError(t, table.Add(A, num(2)))
}

func TestSymbolTableConsistency(t *testing.T) {
	var table SymbolTable
	x := symex.MustVariable("x")
	require.NoError(t, table.Add(A, x))

	// Rebinding to an equal expression is fine; to a different one is not.
	assert.NoError(t, table.Add(A, symex.MustVariable("x")))
	assert.ErrorIs(t, table.Add(A, symex.MustVariable("y")), symex.ErrBindingConflict)

	got, ok := table.Get(A.ID())
	require.True(t, ok)
	assert.True(t, got.Equal(x))
}

func TestSymbolTableMerge(t *testing.T) {
	var a, b SymbolTable
	require.NoError(t, a.Add(A, symex.MustVariable("x")))
	require.NoError(t, b.Add(B, num(3)))
	require.NoError(t, a.Merge(&b))

	_, ok := a.Get(B.ID())
	assert.True(t, ok)

	var c SymbolTable
	require.NoError(t, c.Add(A, symex.MustVariable("y")))
	assert.ErrorIs(t, a.Merge(&c), symex.ErrBindingConflict)
}

func TestTranslate(t *testing.T) {
	var table SymbolTable
	x := symex.MustVariable("x")
	require.NoError(t, table.Add(A, x))

	// A + 1 with A bound to x.
	d := AddOf(A, Num(1))
	e, err := table.Translate(d)
	require.NoError(t, err)
	assert.Equal(t, symex.Add, e.Op())
	assert.True(t, e.LHS().Equal(x))
	c, ok := e.RHS().ConstantValue()
	require.True(t, ok)
	assert.True(t, c.IsOne())

	// Unbound captures fail translation.
	_, err = table.Translate(AddOf(A, B))
	assert.ErrorIs(t, err, symex.ErrBindingConflict)
}

func TestRuleTablesWellFormed(t *testing.T) {
	for _, rules := range [][]Rule{UniversalSimplifiers, JoinDescriptors, BooleanSimplifiers} {
		assert.NotEmpty(t, rules)
		for _, r := range rules {
			assert.NotNil(t, r.From)
			assert.NotNil(t, r.To)
		}
	}
}

func TestDirectiveString(t *testing.T) {
	assert.Equal(t, "(A + 0)", AddOf(A, Num(0)).String())
	assert.Equal(t, "-(B)", NegOf(B).String())
	assert.Equal(t, "iff((U ult 512), (A << U))", Iff(ULtOf(U, Num(512)), ShlOf(A, U)).String())
}
