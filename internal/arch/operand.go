package arch

import (
	"vtil/internal/symex"
)

// OperandKind discriminates the operand union.
type OperandKind uint8

const (
	OperandRegister OperandKind = iota
	OperandImmediate
	OperandMemory
)

// MemoryRef is a memory operand: base register plus displacement.
type MemoryRef struct {
	Base   RegisterDesc
	Offset int64
	Size   int
}

// Operand is a register, an immediate carrying its own width, or a
// memory reference.
type Operand struct {
	Kind OperandKind
	Reg  RegisterDesc
	Imm  symex.Constant
	Mem  MemoryRef
}

// RegOperand builds a register operand.
func RegOperand(r RegisterDesc) Operand {
	return Operand{Kind: OperandRegister, Reg: r}
}

// ImmOperand builds an immediate operand.
func ImmOperand(c symex.Constant) Operand {
	return Operand{Kind: OperandImmediate, Imm: c}
}

// ImmInt64 builds a 64-bit immediate from a native integer.
func ImmInt64(v int64) Operand {
	return ImmOperand(symex.ConstFromInt64(v))
}

// Bits returns the operand's width in bits.
func (o Operand) Bits() int {
	switch o.Kind {
	case OperandRegister:
		return o.Reg.Bits
	case OperandImmediate:
		return o.Imm.Bits()
	default:
		return o.Mem.Size
	}
}

// Valid reports whether the operand is well formed.
func (o Operand) Valid() bool {
	switch o.Kind {
	case OperandRegister:
		return o.Reg.Valid()
	case OperandImmediate:
		return o.Imm.Bits() >= 1 && o.Imm.Bits() <= MaxRegisterBits
	case OperandMemory:
		return o.Mem.Base.Valid() && o.Mem.Size >= 1
	default:
		return false
	}
}

// Equal reports structural operand equality.
func (o Operand) Equal(p Operand) bool {
	if o.Kind != p.Kind {
		return false
	}
	switch o.Kind {
	case OperandRegister:
		return o.Reg == p.Reg
	case OperandImmediate:
		return o.Imm.Equal(p.Imm)
	default:
		return o.Mem == p.Mem
	}
}

// String renders the operand for block listings.
func (o Operand) String() string {
	switch o.Kind {
	case OperandRegister:
		return o.Reg.String()
	case OperandImmediate:
		return o.Imm.String()
	default:
		return "[" + o.Mem.Base.String() + "]"
	}
}
