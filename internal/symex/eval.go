package symex

import (
	"math/big"

	"vtil/internal/bitops"
)

// Evaluate computes the closed-form value of a variable-free tree.
// Semantics are total where the operator set allows it: division and
// remainder by zero yield zero, shifts by amounts outside [0, 512) yield
// zero, comparisons yield the 1-bit constants 0 or 1. Memory, stack,
// control and system operators are outside the evaluable set and return
// ErrEvaluationUnavailable, as does any tree containing a variable.
func (e *Expression) Evaluate() (Constant, error) {
	switch {
	case e == nil:
		return Constant{}, ErrStructural
	case e.isConst:
		return e.val, nil
	case e.op == Invalid:
		return Constant{}, ErrEvaluationUnavailable
	}

	rhs, err := e.rhs.Evaluate()
	if err != nil {
		return Constant{}, err
	}
	if e.lhs == nil {
		return evalUnary(e.op, rhs)
	}
	lhs, err := e.lhs.Evaluate()
	if err != nil {
		return Constant{}, err
	}
	return evalBinary(e.op, lhs, rhs)
}

func evalUnary(op Operator, v Constant) (Constant, error) {
	w := v.Bits()
	switch op {
	case Neg:
		return NewConstant(new(big.Int).Neg(v.Value()), w)
	case BitNot:
		return NewConstant(new(big.Int).Not(v.Value()), w)
	case LogNot:
		return ConstBool(!v.IsTrue()), nil
	case Popcnt:
		u := v.Unsigned()
		if u.IsUint64() {
			return NewConstant(big.NewInt(int64(bitops.Popcount(u.Uint64()))), w)
		}
		n := 0
		for i := 0; i < u.BitLen(); i++ {
			if u.Bit(i) == 1 {
				n++
			}
		}
		return NewConstant(big.NewInt(int64(n)), w)
	case BitScanFwd:
		u := v.Unsigned()
		if u.IsUint64() {
			return NewConstant(big.NewInt(int64(bitops.BitScanForward(u.Uint64()))), w)
		}
		i := 0
		for u.Bit(i) == 0 {
			i++
		}
		return NewConstant(big.NewInt(int64(i)), w)
	case BitScanRev:
		u := v.Unsigned()
		if u.IsUint64() {
			return NewConstant(big.NewInt(int64(bitops.BitScanReverse(u.Uint64()))), w)
		}
		return NewConstant(big.NewInt(int64(u.BitLen()-1)), w)
	case MaskOf:
		mask := new(big.Int).Lsh(bigOne, uint(w))
		mask.Sub(mask, bigOne)
		return NewConstant(mask, w)
	case BitCountOf:
		return NewConstant(big.NewInt(int64(w)), w)
	default:
		return Constant{}, ErrEvaluationUnavailable
	}
}

func evalBinary(op Operator, a, b Constant) (Constant, error) {
	w := a.Bits()
	if b.Bits() > w {
		w = b.Bits()
	}
	av, bv := a.Value(), b.Value()

	switch op {
	case Add:
		return NewConstant(new(big.Int).Add(av, bv), w)
	case Sub:
		return NewConstant(new(big.Int).Sub(av, bv), w)
	case Mul, UMul:
		return NewConstant(new(big.Int).Mul(av, bv), w)
	case MulHi:
		p := new(big.Int).Mul(av, bv)
		return NewConstant(p.Rsh(p, uint(w)), w)
	case UMulHi:
		p := new(big.Int).Mul(a.Unsigned(), b.Unsigned())
		return NewConstant(p.Rsh(p, uint(w)), w)
	case Div:
		if bv.Sign() == 0 {
			return NewConstant(big.NewInt(0), w)
		}
		return NewConstant(new(big.Int).Quo(av, bv), w)
	case Rem:
		if bv.Sign() == 0 {
			return NewConstant(big.NewInt(0), w)
		}
		return NewConstant(new(big.Int).Rem(av, bv), w)
	case UDiv:
		bu := b.Unsigned()
		if bu.Sign() == 0 {
			return NewConstant(big.NewInt(0), w)
		}
		return NewConstant(new(big.Int).Quo(a.Unsigned(), bu), w)
	case URem:
		bu := b.Unsigned()
		if bu.Sign() == 0 {
			return NewConstant(big.NewInt(0), w)
		}
		return NewConstant(new(big.Int).Rem(a.Unsigned(), bu), w)

	case BitAnd:
		return NewConstant(new(big.Int).And(av, bv), w)
	case BitOr:
		return NewConstant(new(big.Int).Or(av, bv), w)
	case BitXor:
		return NewConstant(new(big.Int).Xor(av, bv), w)
	case Shl:
		k, ok := shiftAmount(b)
		if !ok {
			return NewConstant(big.NewInt(0), w)
		}
		return NewConstant(new(big.Int).Lsh(a.Unsigned(), k), w)
	case Shr:
		k, ok := shiftAmount(b)
		if !ok {
			return NewConstant(big.NewInt(0), w)
		}
		return NewConstant(new(big.Int).Rsh(a.Unsigned(), k), w)
	case Rol:
		return rotate(a, b, true)
	case Ror:
		return rotate(a, b, false)

	case BitTest:
		k, ok := shiftAmount(b)
		if !ok || int(k) >= MaxConstantBits {
			return ConstBool(false), nil
		}
		return ConstBool(a.Unsigned().Bit(int(k)) == 1), nil
	case ValueIf:
		if a.IsTrue() {
			return b, nil
		}
		return NewConstant(big.NewInt(0), b.Bits())

	case SMax, SMin:
		cmp := av.Cmp(bv)
		if (op == SMax) == (cmp >= 0) {
			return a, nil
		}
		return b, nil
	case UMax, UMin:
		cmp := a.Unsigned().Cmp(b.Unsigned())
		if (op == UMax) == (cmp >= 0) {
			return a, nil
		}
		return b, nil

	case UCast:
		return a.Resize(castWidth(b, w), false)
	case Cast:
		return a.Resize(castWidth(b, w), true)

	case LogAnd:
		return ConstBool(a.IsTrue() && b.IsTrue()), nil
	case LogOr:
		return ConstBool(a.IsTrue() || b.IsTrue()), nil

	case Eq:
		return ConstBool(av.Cmp(bv) == 0), nil
	case Ne:
		return ConstBool(av.Cmp(bv) != 0), nil
	case Lt:
		return ConstBool(av.Cmp(bv) < 0), nil
	case Le:
		return ConstBool(av.Cmp(bv) <= 0), nil
	case Gt:
		return ConstBool(av.Cmp(bv) > 0), nil
	case Ge:
		return ConstBool(av.Cmp(bv) >= 0), nil
	case ULt:
		return ConstBool(a.Unsigned().Cmp(b.Unsigned()) < 0), nil
	case ULe:
		return ConstBool(a.Unsigned().Cmp(b.Unsigned()) <= 0), nil
	case UGt:
		return ConstBool(a.Unsigned().Cmp(b.Unsigned()) > 0), nil
	case UGe:
		return ConstBool(a.Unsigned().Cmp(b.Unsigned()) >= 0), nil

	default:
		return Constant{}, ErrEvaluationUnavailable
	}
}

// shiftAmount extracts a shift count, rejecting negative amounts and
// anything at or beyond the constant safety cap.
func shiftAmount(c Constant) (uint, bool) {
	v, ok := c.Int64()
	if !ok || v < 0 || v >= MaxConstantBits {
		return 0, false
	}
	return uint(v), true
}

// castWidth reads a width operand, falling back to the current width on
// nonsense.
func castWidth(c Constant, fallback int) int {
	v, ok := c.Int64()
	if !ok || v < 1 || v > MaxConstantBits {
		return fallback
	}
	return int(v)
}

func rotate(a, b Constant, left bool) (Constant, error) {
	w := a.Bits()
	k64, ok := b.Int64()
	if !ok {
		return NewConstant(big.NewInt(0), w)
	}
	if w <= 64 && a.Unsigned().IsUint64() {
		u := a.Unsigned().Uint64()
		var r uint64
		if left {
			r = bitops.RotateLeft(u, int(k64), w)
		} else {
			r = bitops.RotateRight(u, int(k64), w)
		}
		return NewConstant(new(big.Int).SetUint64(r), w)
	}
	k := int(((k64 % int64(w)) + int64(w)) % int64(w))
	if !left {
		k = (w - k) % w
	}
	mod := new(big.Int).Lsh(bigOne, uint(w))
	u := a.Unsigned()
	r := new(big.Int).Lsh(u, uint(k))
	r.Or(r, new(big.Int).Rsh(u, uint(w-k)))
	r.Mod(r, mod)
	return NewConstant(r, w)
}
