package simplifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtil/internal/symex"
)

func un(op symex.Operator, r *symex.Expression) *symex.Expression {
	e, err := symex.NewUnary(op, r)
	if err != nil {
		panic(err)
	}
	return e
}

func constVal(t *testing.T, e *symex.Expression) int64 {
	t.Helper()
	c, ok := e.ConstantValue()
	require.True(t, ok, "expected a constant, got %s", e)
	v, ok := c.Int64()
	require.True(t, ok)
	return v
}

func TestSimplifyIdentities(t *testing.T) {
	x := symex.MustVariable("x")
	cases := []struct {
		name string
		e    *symex.Expression
		want string
	}{
		{"x + 0", bin(x, symex.Add, num(0)), "x"},
		{"0 + x", bin(num(0), symex.Add, x), "x"},
		{"x - 0", bin(x, symex.Sub, num(0)), "x"},
		{"x * 1", bin(x, symex.Mul, num(1)), "x"},
		{"x / 1", bin(x, symex.Div, num(1)), "x"},
		{"x | 0", bin(x, symex.BitOr, num(0)), "x"},
		{"x ^ 0", bin(x, symex.BitXor, num(0)), "x"},
		{"x << 0", bin(x, symex.Shl, num(0)), "x"},
		{"x >> 0", bin(x, symex.Shr, num(0)), "x"},
		{"x & x", bin(x, symex.BitAnd, x), "x"},
		{"x | x", bin(x, symex.BitOr, x), "x"},
		{"--x", un(symex.Neg, un(symex.Neg, x)), "x"},
		{"~~x", un(symex.BitNot, un(symex.BitNot, x)), "x"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := New().Simplify(c.e)
			assert.Equal(t, c.want, got.String())
		})
	}
}

func TestSimplifyAnnihilators(t *testing.T) {
	x := symex.MustVariable("x")
	cases := []struct {
		name string
		e    *symex.Expression
		want int64
	}{
		{"x * 0", bin(x, symex.Mul, num(0)), 0},
		{"x & 0", bin(x, symex.BitAnd, num(0)), 0},
		{"x ^ x", bin(x, symex.BitXor, x), 0},
		{"x - x", bin(x, symex.Sub, x), 0},
		{"x % 1", bin(x, symex.Rem, num(1)), 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := New().Simplify(c.e)
			assert.Equal(t, c.want, constVal(t, got))
		})
	}
}

func TestSimplifyBoolean(t *testing.T) {
	x := symex.MustVariable("x")
	cases := []struct {
		name string
		e    *symex.Expression
		want int64
	}{
		{"x == x", bin(x, symex.Eq, x), 1},
		{"x != x", bin(x, symex.Ne, x), 0},
		{"x < x", bin(x, symex.Lt, x), 0},
		{"x <= x", bin(x, symex.Le, x), 1},
		{"x > x", bin(x, symex.Gt, x), 0},
		{"x >= x", bin(x, symex.Ge, x), 1},
		{"x ult x", bin(x, symex.ULt, x), 0},
		{"x uge x", bin(x, symex.UGe, x), 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := New().Simplify(c.e)
			assert.Equal(t, c.want, constVal(t, got))
		})
	}
}

func TestSimplifyComparisonInversion(t *testing.T) {
	x := symex.MustVariable("x")
	y := symex.MustVariable("y")
	e := un(symex.LogNot, bin(x, symex.Eq, y))
	got := New().Simplify(e)
	assert.Equal(t, symex.Ne, got.Op())
}

func TestSimplifyConstantFolding(t *testing.T) {
	e := bin(num(10), symex.Add, num(20))
	got := New().Simplify(e)
	assert.Equal(t, int64(30), constVal(t, got))

	// Folding happens below operations too.
	x := symex.MustVariable("x")
	m := bin(bin(x, symex.Add, num(0)), symex.Mul, bin(num(5), symex.Add, num(3)))
	got = New().Simplify(m)
	require.True(t, got.IsBinaryOp())
	assert.Equal(t, symex.Mul, got.Op())
	assert.Equal(t, "x", got.LHS().String())
	assert.Equal(t, int64(8), constVal(t, got.RHS()))
}

func TestSimplifyReassociation(t *testing.T) {
	x := symex.MustVariable("x")
	// ((x + 3) + 4) joins to (x + 7).
	e := bin(bin(x, symex.Add, num(3)), symex.Add, num(4))
	got := New().Simplify(e)
	require.Equal(t, symex.Add, got.Op())
	assert.Equal(t, int64(7), constVal(t, got.RHS()))

	// ((x << 2) << 3) fuses to (x << 5).
	sh := bin(bin(x, symex.Shl, num(2)), symex.Shl, num(3))
	got = New().Simplify(sh)
	require.Equal(t, symex.Shl, got.Op())
	assert.Equal(t, int64(5), constVal(t, got.RHS()))
}

func TestSimplifyFactoring(t *testing.T) {
	x := symex.MustVariable("x")
	// (x*3 + x*4) factors to x*7.
	e := bin(bin(x, symex.Mul, num(3)), symex.Add, bin(x, symex.Mul, num(4)))
	got := New().Simplify(e)
	require.Equal(t, symex.Mul, got.Op())
	assert.Equal(t, int64(7), constVal(t, got.RHS()))

	// x + x becomes x*2.
	dbl := New().Simplify(bin(x, symex.Add, x))
	require.Equal(t, symex.Mul, dbl.Op())
	assert.Equal(t, int64(2), constVal(t, dbl.RHS()))
}

func TestComplexityAndDepthNonIncrease(t *testing.T) {
	x := symex.MustVariable("x")
	y := symex.MustVariable("y")
	exprs := []*symex.Expression{
		bin(x, symex.Add, num(0)),
		bin(bin(x, symex.Add, y), symex.Mul, num(3)),
		bin(bin(x, symex.BitXor, x), symex.BitOr, y),
		bin(bin(x, symex.Shl, num(2)), symex.Shl, num(3)),
		un(symex.LogNot, bin(x, symex.LogAnd, y)),
		bin(bin(num(5), symex.Add, num(3)), symex.Mul, x),
		bin(x, symex.Mul, y),
	}
	for _, e := range exprs {
		got := New().Simplify(e)
		assert.LessOrEqual(t, got.Complexity(), e.Complexity(), "complexity grew for %s", e)
		assert.LessOrEqual(t, got.Depth(), e.Depth(), "depth grew for %s", e)
	}
}

func TestIdempotence(t *testing.T) {
	x := symex.MustVariable("x")
	exprs := []*symex.Expression{
		bin(x, symex.Add, num(0)),
		bin(x, symex.BitXor, x),
		bin(bin(x, symex.Add, num(3)), symex.Add, num(4)),
		bin(x, symex.Eq, x),
		bin(x, symex.Mul, symex.MustVariable("y")),
	}
	for _, e := range exprs {
		s := New()
		once := s.Simplify(e)
		twice := s.Simplify(once)
		assert.True(t, once.Equal(twice), "simplify not idempotent for %s", e)

		// A fresh simplifier must agree as well.
		again := New().Simplify(once)
		assert.True(t, once.Equal(again))
	}
}

func TestEvaluationRoundTrip(t *testing.T) {
	exprs := []*symex.Expression{
		bin(num(10), symex.Add, num(20)),
		bin(bin(num(2), symex.Mul, num(3)), symex.Sub, num(1)),
		bin(num(0xF0), symex.BitAnd, num(0x3C)),
		un(symex.Popcnt, num(0xFF)),
	}
	for _, e := range exprs {
		want, err := e.Evaluate()
		require.NoError(t, err)
		got := New().Simplify(e)
		require.True(t, got.IsConstant(), "simplify(%s) should be constant", e)
		c, _ := got.ConstantValue()
		assert.Equal(t, 0, c.Value().Cmp(want.Value()), "simplify(%s)", e)
	}
}

func TestSubstitutionLaw(t *testing.T) {
	x := symex.MustVariable("x")
	e := bin(bin(x, symex.Add, num(0)), symex.Mul, num(3))

	substituted := e.Substitute("x", num(5))
	got := New().Simplify(substituted)
	require.True(t, got.IsConstant())
	assert.Equal(t, int64(15), constVal(t, got))

	// Simplifying first then substituting denotes the same value.
	simplified := New().Simplify(e)
	back := New().Simplify(simplified.Substitute("x", num(5)))
	assert.Equal(t, int64(15), constVal(t, back))
}

func TestSimplifyKeepsIrreducible(t *testing.T) {
	x := symex.MustVariable("x")
	y := symex.MustVariable("y")
	e := bin(x, symex.Mul, y)
	got := New().Simplify(e)
	assert.True(t, got.Equal(e))
}

func TestSimplifyHintShortCircuit(t *testing.T) {
	x := symex.MustVariable("x")
	e := bin(x, symex.Add, num(0))
	e.MarkSimplified()
	// Hinted nodes come back untouched even though a rule applies.
	got := New().Simplify(e)
	assert.Same(t, e, got)
}

func TestCacheEviction(t *testing.T) {
	s := New(WithCacheCapacity(8))
	x := symex.MustVariable("x")
	for i := int64(0); i < 64; i++ {
		e := bin(bin(x, symex.Add, num(i)), symex.Add, num(i+1))
		s.Simplify(e)
	}
	// The cache stays within its bound and keeps answering correctly.
	assert.LessOrEqual(t, len(s.cache), 8+1)
	got := s.Simplify(bin(x, symex.Add, num(0)))
	assert.Equal(t, "x", got.String())
}

func TestJoinDepthCeiling(t *testing.T) {
	// A tight ceiling blocks nested joiner recursion; the result must
	// still be no worse than the input.
	s := New(WithJoinDepth(1))
	x := symex.MustVariable("x")
	e := bin(bin(x, symex.Add, num(3)), symex.Add, num(4))
	got := s.Simplify(e)
	assert.LessOrEqual(t, got.Complexity(), e.Complexity())
}
