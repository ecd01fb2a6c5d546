package arch

import (
	"vtil/internal/symex"
)

// InstructionDesc is the static description of one host instruction: its
// mnemonic, total operand count (destination first), behavioral flags and
// the symbolic operator its source operands map to. A descriptor with an
// Invalid symbolic operator cannot be lifted.
type InstructionDesc struct {
	Name           string
	SymbolicOp     symex.Operator
	Operands       int
	Branching      bool
	Volatile       bool
	AccessesMemory bool
	AccessSize     int
}

// The descriptor catalog. The arithmetic, bitwise and special descriptors
// take a destination and two sources for binary operators, a destination
// and one source for unary ones. Stack and branching descriptors have no
// destination. str carries the binary Write operator with only two
// operands, so the lifter does not lift it. Mov has no
// symbolic operator: it is pure movement and is produced, not consumed,
// by the rewrite pass.
var (
	Mov = &InstructionDesc{Name: "mov", Operands: 2}

	AddI    = &InstructionDesc{Name: "add", SymbolicOp: symex.Add, Operands: 3}
	SubI    = &InstructionDesc{Name: "sub", SymbolicOp: symex.Sub, Operands: 3}
	MulI    = &InstructionDesc{Name: "mul", SymbolicOp: symex.Mul, Operands: 3}
	MulHiI  = &InstructionDesc{Name: "mulhi", SymbolicOp: symex.MulHi, Operands: 3}
	UMulI   = &InstructionDesc{Name: "umul", SymbolicOp: symex.UMul, Operands: 3}
	UMulHiI = &InstructionDesc{Name: "umulhi", SymbolicOp: symex.UMulHi, Operands: 3}
	DivI    = &InstructionDesc{Name: "div", SymbolicOp: symex.Div, Operands: 3}
	UDivI   = &InstructionDesc{Name: "udiv", SymbolicOp: symex.UDiv, Operands: 3}
	RemI    = &InstructionDesc{Name: "rem", SymbolicOp: symex.Rem, Operands: 3}
	URemI   = &InstructionDesc{Name: "urem", SymbolicOp: symex.URem, Operands: 3}

	AndI = &InstructionDesc{Name: "and", SymbolicOp: symex.BitAnd, Operands: 3}
	OrI  = &InstructionDesc{Name: "or", SymbolicOp: symex.BitOr, Operands: 3}
	XorI = &InstructionDesc{Name: "xor", SymbolicOp: symex.BitXor, Operands: 3}
	ShlI = &InstructionDesc{Name: "shl", SymbolicOp: symex.Shl, Operands: 3}
	ShrI = &InstructionDesc{Name: "shr", SymbolicOp: symex.Shr, Operands: 3}
	RolI = &InstructionDesc{Name: "rol", SymbolicOp: symex.Rol, Operands: 3}
	RorI = &InstructionDesc{Name: "ror", SymbolicOp: symex.Ror, Operands: 3}

	NotI = &InstructionDesc{Name: "not", SymbolicOp: symex.BitNot, Operands: 2}
	NegI = &InstructionDesc{Name: "neg", SymbolicOp: symex.Neg, Operands: 2}

	PopcntI = &InstructionDesc{Name: "popcnt", SymbolicOp: symex.Popcnt, Operands: 2}
	BsfI    = &InstructionDesc{Name: "bsf", SymbolicOp: symex.BitScanFwd, Operands: 2}
	BsrI    = &InstructionDesc{Name: "bsr", SymbolicOp: symex.BitScanRev, Operands: 2}

	PushI = &InstructionDesc{Name: "push", SymbolicOp: symex.Push, Operands: 1, AccessesMemory: true, Volatile: true}
	PopI  = &InstructionDesc{Name: "pop", SymbolicOp: symex.Pop, Operands: 1, AccessesMemory: true, Volatile: true}

	LoadI  = &InstructionDesc{Name: "ldd", SymbolicOp: symex.Read, Operands: 2, AccessesMemory: true, Volatile: true}
	StoreI = &InstructionDesc{Name: "str", SymbolicOp: symex.Write, Operands: 2, AccessesMemory: true, Volatile: true}

	JmpI  = &InstructionDesc{Name: "jmp", SymbolicOp: symex.Jmp, Operands: 1, Branching: true, Volatile: true}
	RetI  = &InstructionDesc{Name: "ret", SymbolicOp: symex.Ret, Operands: 1, Branching: true, Volatile: true}
	CallI = &InstructionDesc{Name: "call", SymbolicOp: symex.CallOp, Operands: 1, Branching: true, Volatile: true}
)

var catalog = []*InstructionDesc{
	Mov,
	AddI, SubI, MulI, MulHiI, UMulI, UMulHiI, DivI, UDivI, RemI, URemI,
	AndI, OrI, XorI, ShlI, ShrI, RolI, RorI,
	NotI, NegI, PopcntI, BsfI, BsrI,
	PushI, PopI, LoadI, StoreI,
	JmpI, RetI, CallI,
}

var descByOperator = func() map[symex.Operator]*InstructionDesc {
	m := make(map[symex.Operator]*InstructionDesc, len(catalog))
	for _, d := range catalog {
		if d.SymbolicOp != symex.Invalid {
			m[d.SymbolicOp] = d
		}
	}
	return m
}()

// DescByOperator returns the descriptor realizing a symbolic operator in
// a single instruction, or nil.
func DescByOperator(op symex.Operator) *InstructionDesc {
	return descByOperator[op]
}

// DescByName returns the descriptor for a mnemonic, or nil.
func DescByName(name string) *InstructionDesc {
	for _, d := range catalog {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// SourceOperands returns the number of non-destination operands the
// descriptor consumes. Branching and stack instructions have no
// destination.
func (d *InstructionDesc) SourceOperands() int {
	if d.Branching || d.SymbolicOp == symex.Push || d.SymbolicOp == symex.Pop {
		return d.Operands
	}
	return d.Operands - 1
}
