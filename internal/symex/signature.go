package symex

// Signature is a fixed-size fingerprint of a tree: the top operator, a
// capped depth, a mix of the child signatures, and a constants-present
// bit. The matcher uses CanMatch on the pattern and subject signatures as
// an O(1) rejection before structural work; CanMatch reads only the
// operator, depth and constants bit, so subjects whose signatures differ
// (say, in their leaf mix) may still unify with the same directive.
// Wildcard signatures (pattern leaves that capture anything) match every
// subject.
type Signature struct {
	op       Operator
	depth    uint8
	mix      uint64
	hasConst bool
	wild     bool
}

// WildcardSignature matches any subject signature.
func WildcardSignature() Signature { return Signature{wild: true} }

// ConstantLeafSignature is the signature of a pattern leaf that only
// accepts constants.
func ConstantLeafSignature() Signature { return Signature{wild: true, hasConst: true} }

func leafSignature(hash uint64, isConst bool) Signature {
	return Signature{op: Invalid, mix: hash, hasConst: isConst}
}

// ComposeSignature derives a parent signature from the operator and the
// child signatures (lhs may be the zero Signature for unary operators).
// Composition is deterministic: equal shapes yield equal signatures.
func ComposeSignature(op Operator, lhs, rhs Signature) Signature {
	depth := rhs.depth
	if lhs.depth > depth {
		depth = lhs.depth
	}
	if depth < 255 {
		depth++
	}
	mix := uint64(1099511628211)*(uint64(op)+1) ^ lhs.mix ^ (rhs.mix << 1)
	return Signature{
		op:       op,
		depth:    depth,
		mix:      mix,
		hasConst: lhs.hasConst || rhs.hasConst,
	}
}

// CanMatch reports whether a subject with signature e could possibly
// unify with a pattern carrying signature p. It is a sound
// over-approximation: a false result proves no match exists; a true
// result proves nothing.
func CanMatch(p, e Signature) bool {
	if p.wild {
		return !p.hasConst || e.hasConst
	}
	if p.op != e.op {
		return false
	}
	if p.depth > e.depth {
		return false
	}
	if p.hasConst && !e.hasConst {
		return false
	}
	return true
}

// Equal reports fingerprint equality.
func (s Signature) Equal(o Signature) bool { return s == o }
