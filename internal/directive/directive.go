// Package directive implements the pattern language of the simplifier:
// trees that mirror expressions but whose leaves are typed match
// variables, plus the rule tables built from them.
package directive

import (
	"fmt"

	"vtil/internal/symex"
)

// VarKind restricts what a match variable may capture.
type VarKind uint8

const (
	// KindAny captures any subexpression.
	KindAny VarKind = iota
	// KindVariable captures only variable leaves.
	KindVariable
	// KindConstant captures only constant leaves.
	KindConstant
)

// Directive is a pattern node: an operation over sub-patterns, a capture
// variable, a literal constant, or an Iff guard whose condition must
// simplify to a true constant for the enclosing rule to fire.
type Directive struct {
	op  symex.Operator
	lhs *Directive
	rhs *Directive

	capture bool
	id      uint8
	name    string
	kind    VarKind

	lit *symex.Constant

	iff bool // lhs is the condition, rhs the body

	sig   symex.Signature
	depth int
}

// Well-known match variables, mirroring the identifiers the rule tables
// are written in. A..D capture anything, V only variables, U and K only
// constants.
var (
	A = Capture("A", 0, KindAny)
	B = Capture("B", 1, KindAny)
	C = Capture("C", 2, KindAny)
	D = Capture("D", 3, KindAny)
	V = Capture("V", 4, KindVariable)
	U = Capture("U", 5, KindConstant)
	K = Capture("K", 6, KindConstant)
)

// Capture builds a typed match variable. Identifiers index the symbol
// table and must be unique per rule.
func Capture(name string, id uint8, kind VarKind) *Directive {
	sig := symex.WildcardSignature()
	if kind == KindConstant {
		sig = symex.ConstantLeafSignature()
	}
	return &Directive{capture: true, id: id, name: name, kind: kind, sig: sig}
}

// Num builds a literal constant pattern. Literals match by value,
// regardless of the subject constant's width.
func Num(v int64) *Directive {
	c := symex.ConstFromInt64(v)
	return &Directive{lit: &c, sig: symex.ConstantLeafSignature()}
}

// Un builds a unary pattern node.
func Un(op symex.Operator, rhs *Directive) *Directive {
	if !op.IsUnary() || rhs == nil {
		panic("directive: malformed unary pattern")
	}
	d := &Directive{op: op, rhs: rhs, depth: rhs.depth + 1}
	d.sig = symex.ComposeSignature(op, symex.Signature{}, rhs.sig)
	return d
}

// Bin builds a binary pattern node.
func Bin(lhs *Directive, op symex.Operator, rhs *Directive) *Directive {
	if !op.IsBinary() || lhs == nil || rhs == nil {
		panic("directive: malformed binary pattern")
	}
	depth := rhs.depth
	if lhs.depth > depth {
		depth = lhs.depth
	}
	d := &Directive{op: op, lhs: lhs, rhs: rhs, depth: depth + 1}
	d.sig = symex.ComposeSignature(op, lhs.sig, rhs.sig)
	return d
}

// Iff attaches a side condition to body: the rule only fires when cond,
// translated under the current bindings, simplifies to a true constant.
func Iff(cond, body *Directive) *Directive {
	return &Directive{iff: true, lhs: cond, rhs: body, sig: body.sig, depth: body.depth}
}

// Shorthand constructors for the rule tables.
func AddOf(l, r *Directive) *Directive  { return Bin(l, symex.Add, r) }
func SubOf(l, r *Directive) *Directive  { return Bin(l, symex.Sub, r) }
func MulOf(l, r *Directive) *Directive  { return Bin(l, symex.Mul, r) }
func DivOf(l, r *Directive) *Directive  { return Bin(l, symex.Div, r) }
func RemOf(l, r *Directive) *Directive  { return Bin(l, symex.Rem, r) }
func UDivOf(l, r *Directive) *Directive { return Bin(l, symex.UDiv, r) }
func URemOf(l, r *Directive) *Directive { return Bin(l, symex.URem, r) }
func AndOf(l, r *Directive) *Directive  { return Bin(l, symex.BitAnd, r) }
func OrOf(l, r *Directive) *Directive   { return Bin(l, symex.BitOr, r) }
func XorOf(l, r *Directive) *Directive  { return Bin(l, symex.BitXor, r) }
func ShlOf(l, r *Directive) *Directive  { return Bin(l, symex.Shl, r) }
func ShrOf(l, r *Directive) *Directive  { return Bin(l, symex.Shr, r) }
func RolOf(l, r *Directive) *Directive  { return Bin(l, symex.Rol, r) }
func RorOf(l, r *Directive) *Directive  { return Bin(l, symex.Ror, r) }
func NegOf(r *Directive) *Directive     { return Un(symex.Neg, r) }
func NotOf(r *Directive) *Directive     { return Un(symex.BitNot, r) }
func LNotOf(r *Directive) *Directive    { return Un(symex.LogNot, r) }
func LAndOf(l, r *Directive) *Directive { return Bin(l, symex.LogAnd, r) }
func LOrOf(l, r *Directive) *Directive  { return Bin(l, symex.LogOr, r) }
func EqOf(l, r *Directive) *Directive   { return Bin(l, symex.Eq, r) }
func NeOf(l, r *Directive) *Directive   { return Bin(l, symex.Ne, r) }
func LtOf(l, r *Directive) *Directive   { return Bin(l, symex.Lt, r) }
func LeOf(l, r *Directive) *Directive   { return Bin(l, symex.Le, r) }
func GtOf(l, r *Directive) *Directive   { return Bin(l, symex.Gt, r) }
func GeOf(l, r *Directive) *Directive   { return Bin(l, symex.Ge, r) }
func ULtOf(l, r *Directive) *Directive  { return Bin(l, symex.ULt, r) }
func ULeOf(l, r *Directive) *Directive  { return Bin(l, symex.ULe, r) }
func UGtOf(l, r *Directive) *Directive  { return Bin(l, symex.UGt, r) }
func UGeOf(l, r *Directive) *Directive  { return Bin(l, symex.UGe, r) }

// IsCapture reports whether the node is a match variable.
func (d *Directive) IsCapture() bool { return d.capture }

// IsLiteral reports whether the node is a literal constant pattern.
func (d *Directive) IsLiteral() bool { return d.lit != nil }

// IsIff reports whether the node carries a side condition.
func (d *Directive) IsIff() bool { return d.iff }

// IsOperation reports whether the node is an operator pattern.
func (d *Directive) IsOperation() bool { return d.op != symex.Invalid }

// Op returns the pattern operator.
func (d *Directive) Op() symex.Operator { return d.op }

// LHS returns the left sub-pattern (the condition for Iff nodes).
func (d *Directive) LHS() *Directive { return d.lhs }

// RHS returns the right sub-pattern (the body for Iff nodes).
func (d *Directive) RHS() *Directive { return d.rhs }

// ID returns the capture's symbol-table index.
func (d *Directive) ID() uint8 { return d.id }

// Kind returns the capture's kind predicate.
func (d *Directive) Kind() VarKind { return d.kind }

// Literal returns the literal constant of a literal pattern.
func (d *Directive) Literal() *symex.Constant { return d.lit }

// Sig returns the pattern's fast-reject fingerprint.
func (d *Directive) Sig() symex.Signature { return d.sig }

// Accepts reports whether the capture's kind admits the subject.
func (d *Directive) Accepts(e *symex.Expression) bool {
	switch d.kind {
	case KindVariable:
		return e.IsVariable()
	case KindConstant:
		return e.IsConstant()
	default:
		return true
	}
}

// String renders the pattern for debugging, in the expression syntax with
// capture names as leaves.
func (d *Directive) String() string {
	switch {
	case d == nil:
		return "<nil>"
	case d.capture:
		return d.name
	case d.lit != nil:
		return d.lit.String()
	case d.iff:
		return fmt.Sprintf("iff(%s, %s)", d.lhs.String(), d.rhs.String())
	case d.lhs == nil:
		return fmt.Sprintf("%s(%s)", d.op.Name(), d.rhs.String())
	default:
		return fmt.Sprintf("(%s %s %s)", d.lhs.String(), d.op.Name(), d.rhs.String())
	}
}
