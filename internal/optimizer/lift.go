package optimizer

import (
	"strconv"
	"strings"

	"vtil/internal/arch"
	"vtil/internal/symex"
)

// liftInstruction maps an instruction to the symbolic expression it
// computes into its destination. Register sources become variables named
// reg_{id}_{bits}, immediates become constants carrying the operand's
// width. Instructions without a symbolic operator, with memory operands,
// or whose source count does not fit the operator's arity yield nil.
func liftInstruction(ins *arch.Instruction) *symex.Expression {
	if ins.Desc == nil || ins.Desc.SymbolicOp == symex.Invalid {
		return nil
	}
	op := ins.Desc.SymbolicOp
	sources := ins.Sources()

	switch {
	case op.IsUnary() && len(sources) == 1:
		rhs := liftOperand(sources[0])
		if rhs == nil {
			return nil
		}
		e, err := symex.NewUnary(op, rhs)
		if err != nil {
			return nil
		}
		return e
	case op.IsBinary() && len(sources) == 2:
		lhs := liftOperand(sources[0])
		rhs := liftOperand(sources[1])
		if lhs == nil || rhs == nil {
			return nil
		}
		e, err := symex.NewBinary(lhs, op, rhs)
		if err != nil {
			return nil
		}
		return e
	default:
		return nil
	}
}

func liftOperand(o arch.Operand) *symex.Expression {
	switch o.Kind {
	case arch.OperandRegister:
		if !o.Reg.Valid() {
			return nil
		}
		e, err := symex.NewVariableExpr(symex.MustStringUID(o.Reg.String()))
		if err != nil {
			return nil
		}
		return e
	case arch.OperandImmediate:
		return symex.NewConstantExpr(o.Imm)
	default:
		return nil
	}
}

// lowerExpression materializes a simplified expression as a single host
// instruction writing dest, or reports that no single instruction
// realizes it. A constant becomes mov dest, imm; a register-shaped
// variable becomes mov dest, reg; an operation becomes the matching
// descriptor when every child is a leaf. Anything else is abandoned and
// the original instruction stays.
func lowerExpression(dest arch.Operand, e *symex.Expression) (arch.Instruction, bool) {
	if e == nil {
		return arch.Instruction{}, false
	}

	if leaf, ok := lowerLeaf(e); ok {
		ins, err := arch.NewInstruction(arch.Mov, dest, leaf)
		if err != nil {
			return arch.Instruction{}, false
		}
		return ins, true
	}

	if !e.IsOperation() {
		return arch.Instruction{}, false
	}
	desc := arch.DescByOperator(e.Op())
	if desc == nil || desc.Branching || desc.Volatile {
		return arch.Instruction{}, false
	}
	operands := []arch.Operand{dest}
	if lhs := e.LHS(); lhs != nil {
		o, ok := lowerLeaf(lhs)
		if !ok {
			return arch.Instruction{}, false
		}
		operands = append(operands, o)
	}
	o, ok := lowerLeaf(e.RHS())
	if !ok {
		return arch.Instruction{}, false
	}
	operands = append(operands, o)

	ins, err := arch.NewInstruction(desc, operands...)
	if err != nil {
		return arch.Instruction{}, false
	}
	return ins, true
}

// lowerLeaf converts a constant or register-shaped variable leaf to an
// operand.
func lowerLeaf(e *symex.Expression) (arch.Operand, bool) {
	if c, ok := e.ConstantValue(); ok {
		return arch.ImmOperand(c), true
	}
	if uid, ok := e.VariableID(); ok {
		reg, ok := parseRegisterVariable(uid.Name())
		if !ok {
			return arch.Operand{}, false
		}
		return arch.RegOperand(reg), true
	}
	return arch.Operand{}, false
}

// parseRegisterVariable parses the canonical reg_{id}_{bits} form,
// rejecting out-of-bounds ids and widths rather than guessing.
func parseRegisterVariable(name string) (arch.RegisterDesc, bool) {
	parts := strings.Split(name, "_")
	if len(parts) != 3 || parts[0] != "reg" {
		return arch.RegisterDesc{}, false
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil || id > arch.MaxRegisterID {
		return arch.RegisterDesc{}, false
	}
	bits, err := strconv.Atoi(parts[2])
	if err != nil || bits < 1 || bits > arch.MaxRegisterBits {
		return arch.RegisterDesc{}, false
	}
	return arch.RegisterDesc{ID: uint32(id), Bits: bits}, true
}
