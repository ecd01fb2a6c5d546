package symex

import (
	"fmt"
	"sync/atomic"
)

// Expression is one node of the immutable symbolic DAG. Exactly one of
// three shapes: a constant leaf, a variable leaf, or an operation with an
// optional left child and a required right child (unary operators use the
// right child only). Structurally equal subtrees may be the same node;
// nodes are freely shared across goroutines. Shape never mutates after
// construction — only the simplify hint does.
type Expression struct {
	op  Operator
	lhs *Expression
	rhs *Expression

	uid *UniqueID // variable leaves
	val Constant  // constant leaves

	isConst    bool
	depth      uint32
	complexity uint64
	hash       uint64
	sig        Signature

	// simplifyHint records that this exact node already went through the
	// simplifier. isLazy disables implicit simplification by whoever
	// constructs derived nodes from this one.
	simplifyHint atomic.Bool
	isLazy       bool
}

// NewConstantExpr builds a constant leaf.
func NewConstantExpr(c Constant) *Expression {
	uid := NewNumericUID(c.Value())
	e := &Expression{
		op:      Invalid,
		uid:     uid,
		val:     c,
		isConst: true,
	}
	e.hash = mix64(uid.Hash(), uint64(c.Bits()))
	e.sig = leafSignature(e.hash, true)
	return e
}

// NewVariableExpr builds a variable leaf from a textual identifier.
func NewVariableExpr(uid *UniqueID) (*Expression, error) {
	if uid == nil || !uid.IsString() {
		return nil, ErrStructural
	}
	e := &Expression{
		op:         Invalid,
		uid:        uid,
		complexity: 1,
	}
	e.hash = mix64(uid.Hash(), 0x9e3779b97f4a7c15)
	e.sig = leafSignature(e.hash, false)
	return e, nil
}

// MustVariable builds a variable leaf from a statically known name.
func MustVariable(name string) *Expression {
	v, err := NewVariableExpr(MustStringUID(name))
	if err != nil {
		panic(err)
	}
	return v
}

// NewUnary builds a unary operation node over rhs.
func NewUnary(op Operator, rhs *Expression) (*Expression, error) {
	if rhs == nil || !op.IsUnary() {
		return nil, ErrStructural
	}
	return newOperation(op, nil, rhs), nil
}

// NewBinary builds a binary operation node.
func NewBinary(lhs *Expression, op Operator, rhs *Expression) (*Expression, error) {
	if lhs == nil || rhs == nil || !op.IsBinary() {
		return nil, ErrStructural
	}
	return newOperation(op, lhs, rhs), nil
}

func newOperation(op Operator, lhs, rhs *Expression) *Expression {
	e := &Expression{op: op, lhs: lhs, rhs: rhs}
	e.depth = rhs.depth
	e.complexity = rhs.complexity + 1
	var lsig Signature
	lhash := uint64(0)
	if lhs != nil {
		if lhs.depth > e.depth {
			e.depth = lhs.depth
		}
		e.complexity += lhs.complexity
		lsig = lhs.sig
		lhash = lhs.hash
	}
	e.depth++
	e.hash = mix64(mix64(uint64(op), lhash), rhs.hash)
	e.sig = ComposeSignature(op, lsig, rhs.sig)
	e.isLazy = rhs.isLazy || (lhs != nil && lhs.isLazy)
	return e
}

// Lazy returns a copy of the node flagged lazy, so constructors downstream
// skip implicit simplification.
func (e *Expression) Lazy() *Expression {
	if e.isLazy {
		return e
	}
	c := &Expression{
		op: e.op, lhs: e.lhs, rhs: e.rhs,
		uid: e.uid, val: e.val, isConst: e.isConst,
		depth: e.depth, complexity: e.complexity,
		hash: e.hash, sig: e.sig,
		isLazy: true,
	}
	c.simplifyHint.Store(e.simplifyHint.Load())
	return c
}

// IsConstant reports whether the node is a constant leaf.
func (e *Expression) IsConstant() bool { return e.isConst }

// IsVariable reports whether the node is a variable leaf.
func (e *Expression) IsVariable() bool { return !e.isConst && e.op == Invalid }

// IsOperation reports whether the node is an operation.
func (e *Expression) IsOperation() bool { return e.op != Invalid }

// IsUnaryOp reports whether the node is a unary operation.
func (e *Expression) IsUnaryOp() bool { return e.op != Invalid && e.lhs == nil }

// IsBinaryOp reports whether the node is a binary operation.
func (e *Expression) IsBinaryOp() bool { return e.op != Invalid && e.lhs != nil }

// Op returns the node's operator (Invalid for leaves).
func (e *Expression) Op() Operator { return e.op }

// LHS returns the left child, nil for unary operations and leaves.
func (e *Expression) LHS() *Expression { return e.lhs }

// RHS returns the right child, nil for leaves.
func (e *Expression) RHS() *Expression { return e.rhs }

// OperandCount returns 0 for leaves, 1 for unary and 2 for binary nodes.
func (e *Expression) OperandCount() int {
	switch {
	case e.op == Invalid:
		return 0
	case e.lhs == nil:
		return 1
	default:
		return 2
	}
}

// ConstantValue extracts the constant of a constant leaf.
func (e *Expression) ConstantValue() (Constant, bool) {
	if !e.isConst {
		return Constant{}, false
	}
	return e.val, true
}

// VariableID extracts the identifier of a variable leaf.
func (e *Expression) VariableID() (*UniqueID, bool) {
	if !e.IsVariable() {
		return nil, false
	}
	return e.uid, true
}

// Depth is 0 for leaves, max(child depth)+1 otherwise.
func (e *Expression) Depth() int { return int(e.depth) }

// Complexity is 0 for constants, 1 for variables and sum(children)+1 for
// operations. The simplifier only ever decreases it.
func (e *Expression) Complexity() uint64 { return e.complexity }

// Hash is the structural hash: equal shapes hash equally.
func (e *Expression) Hash() uint64 { return e.hash }

// Sig returns the matcher fast-reject fingerprint.
func (e *Expression) Sig() Signature { return e.sig }

// SimplifyHint reports whether this exact node already went through the
// simplifier.
func (e *Expression) SimplifyHint() bool { return e.simplifyHint.Load() }

// MarkSimplified sets the simplify hint.
func (e *Expression) MarkSimplified() { e.simplifyHint.Store(true) }

// IsLazy reports whether implicit simplification is disabled for this
// node.
func (e *Expression) IsLazy() bool { return e.isLazy }

// Equal reports structural equality. Differing hashes settle the call at
// once; the recursive walk runs only when the hashes agree.
func (e *Expression) Equal(o *Expression) bool {
	if e == o {
		return true
	}
	if e == nil || o == nil || e.hash != o.hash || e.op != o.op {
		return false
	}
	switch {
	case e.isConst:
		return o.isConst && e.val.Equal(o.val)
	case e.op == Invalid:
		return o.IsVariable() && e.uid.Equal(o.uid)
	default:
		if (e.lhs == nil) != (o.lhs == nil) {
			return false
		}
		if e.lhs != nil && !e.lhs.Equal(o.lhs) {
			return false
		}
		return e.rhs.Equal(o.rhs)
	}
}

// ContainsVariable reports whether a variable with the given name occurs
// anywhere in the tree. Shared subtrees are visited once.
func (e *Expression) ContainsVariable(name string) bool {
	seen := make(map[*Expression]struct{})
	var walk func(*Expression) bool
	walk = func(n *Expression) bool {
		if n == nil {
			return false
		}
		if _, ok := seen[n]; ok {
			return false
		}
		seen[n] = struct{}{}
		if n.IsVariable() {
			return n.uid.Name() == name
		}
		return walk(n.lhs) || walk(n.rhs)
	}
	return walk(e)
}

// ContainsVariables reports whether any variable occurs in the tree.
func (e *Expression) ContainsVariables() bool {
	seen := make(map[*Expression]struct{})
	var walk func(*Expression) bool
	walk = func(n *Expression) bool {
		if n == nil {
			return false
		}
		if _, ok := seen[n]; ok {
			return false
		}
		seen[n] = struct{}{}
		if n.IsVariable() {
			return true
		}
		return walk(n.lhs) || walk(n.rhs)
	}
	return walk(e)
}

// Substitute replaces every variable leaf named name with repl, rebuilding
// only the spines that change. Shared subtrees are translated once.
func (e *Expression) Substitute(name string, repl *Expression) *Expression {
	memo := make(map[*Expression]*Expression)
	var walk func(*Expression) *Expression
	walk = func(n *Expression) *Expression {
		if n == nil {
			return nil
		}
		if r, ok := memo[n]; ok {
			return r
		}
		var r *Expression
		switch {
		case n.IsVariable() && n.uid.Name() == name:
			r = repl
		case n.op == Invalid:
			r = n
		default:
			lhs := walk(n.lhs)
			rhs := walk(n.rhs)
			if lhs == n.lhs && rhs == n.rhs {
				r = n
			} else {
				r = newOperation(n.op, lhs, rhs)
			}
		}
		memo[n] = r
		return r
	}
	return walk(e)
}

// Resize adjusts the tree to a new bit width: constants renarrow in
// place, anything else is wrapped in a cast (sign-extending) or ucast
// (zero-extending) node whose right child carries the new width.
func (e *Expression) Resize(bits int, signExtend bool) (*Expression, error) {
	if c, ok := e.ConstantValue(); ok {
		rc, err := c.Resize(bits, signExtend)
		if err != nil {
			return nil, err
		}
		return NewConstantExpr(rc), nil
	}
	op := UCast
	if signExtend {
		op = Cast
	}
	if bits < 1 || bits > MaxConstantBits {
		return nil, ErrStructural
	}
	return NewBinary(e, op, NewConstantExpr(ConstFromInt64(int64(bits))))
}

// String renders the canonical textual form: constants in decimal,
// variables by identifier, unary operations as op(rhs) and binary
// operations as (lhs op rhs).
func (e *Expression) String() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.isConst:
		return e.val.String()
	case e.op == Invalid:
		return e.uid.String()
	case e.lhs == nil:
		return fmt.Sprintf("%s(%s)", e.op.Name(), e.rhs.String())
	default:
		return fmt.Sprintf("(%s %s %s)", e.lhs.String(), e.op.Name(), e.rhs.String())
	}
}

func mix64(a, b uint64) uint64 {
	const prime = 1099511628211
	h := a ^ 0xcbf29ce484222325
	h *= prime
	h ^= b
	h *= prime
	return h
}
