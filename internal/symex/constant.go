package symex

import (
	"math/big"
)

// MaxConstantBits is the safety cap on constant magnitude. Rewrite paths
// reject larger values at construction to bound worst-case cost.
const MaxConstantBits = 512

// Constant is an arbitrary-precision signed integer carrying a bit width.
// The width records the lane the value travels in; arithmetic itself is
// exact.
type Constant struct {
	value *big.Int
	bits  int
}

// NewConstant builds a constant of the given width. Magnitudes beyond
// MaxConstantBits and widths outside [1, MaxConstantBits] are rejected.
func NewConstant(v *big.Int, bits int) (Constant, error) {
	if v == nil || bits < 1 || bits > MaxConstantBits {
		return Constant{}, ErrStructural
	}
	if v.BitLen() > MaxConstantBits {
		return Constant{}, ErrCapacityExceeded
	}
	return Constant{value: new(big.Int).Set(v), bits: bits}, nil
}

// ConstFromInt64 builds a 64-bit constant from a native integer.
func ConstFromInt64(v int64) Constant {
	return Constant{value: big.NewInt(v), bits: 64}
}

// ConstFromUint64 builds a 64-bit constant from a native unsigned integer.
func ConstFromUint64(v uint64) Constant {
	return Constant{value: new(big.Int).SetUint64(v), bits: 64}
}

// ConstBool builds the 1-bit constant 0 or 1.
func ConstBool(v bool) Constant {
	n := int64(0)
	if v {
		n = 1
	}
	return Constant{value: big.NewInt(n), bits: 1}
}

// Value returns the signed value. The caller must not mutate it.
func (c Constant) Value() *big.Int { return c.value }

// Bits returns the constant's bit width.
func (c Constant) Bits() int { return c.bits }

// IsZero reports whether the value is zero.
func (c Constant) IsZero() bool { return c.value != nil && c.value.Sign() == 0 }

// IsOne reports whether the value is one.
func (c Constant) IsOne() bool {
	return c.value != nil && c.value.Cmp(bigOne) == 0
}

// IsTrue reports whether the value is nonzero.
func (c Constant) IsTrue() bool { return c.value != nil && c.value.Sign() != 0 }

// Unsigned returns the value as a non-negative integer: a negative value
// is taken modulo 2^Bits(), a non-negative value is returned unchanged,
// even when it is wider than Bits().
func (c Constant) Unsigned() *big.Int {
	u := new(big.Int).Set(c.value)
	if u.Sign() < 0 {
		mod := new(big.Int).Lsh(bigOne, uint(c.bits))
		u.Mod(u, mod)
	}
	return u
}

// Resize truncates or extends the constant to bits, sign- or
// zero-extending from the current width.
func (c Constant) Resize(bits int, signExtend bool) (Constant, error) {
	if bits < 1 || bits > MaxConstantBits {
		return Constant{}, ErrStructural
	}
	mod := new(big.Int).Lsh(bigOne, uint(bits))
	v := new(big.Int).Mod(c.Unsigned(), mod)
	if signExtend && v.Bit(bits-1) == 1 {
		v.Sub(v, mod)
	}
	return Constant{value: v, bits: bits}, nil
}

// Equal reports value-and-width equality.
func (c Constant) Equal(o Constant) bool {
	if c.value == nil || o.value == nil {
		return c.value == o.value
	}
	return c.bits == o.bits && c.value.Cmp(o.value) == 0
}

// Int64 returns the value as int64 when it fits.
func (c Constant) Int64() (int64, bool) {
	if c.value == nil || !c.value.IsInt64() {
		return 0, false
	}
	return c.value.Int64(), true
}

// String returns the decimal representation.
func (c Constant) String() string {
	if c.value == nil {
		return "0"
	}
	return c.value.String()
}

var bigOne = big.NewInt(1)
