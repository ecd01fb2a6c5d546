package arch

import (
	"strings"

	"vtil/internal/symex"
)

// Instruction is one host instruction: a descriptor plus its ordered
// operand list. VIP is the opaque virtual instruction pointer the
// devirtualizer assigned to it.
type Instruction struct {
	Desc     *InstructionDesc
	Operands []Operand
	VIP      uint64
}

// NewInstruction builds and validates an instruction.
func NewInstruction(desc *InstructionDesc, operands ...Operand) (Instruction, error) {
	ins := Instruction{Desc: desc, Operands: operands}
	if err := ins.Validate(); err != nil {
		return Instruction{}, err
	}
	return ins, nil
}

// Validate checks operand count and widths against the descriptor.
func (ins *Instruction) Validate() error {
	if ins.Desc == nil || len(ins.Operands) != ins.Desc.Operands {
		return symex.ErrStructural
	}
	for _, op := range ins.Operands {
		if !op.Valid() {
			return symex.ErrStructural
		}
	}
	return nil
}

// Destination returns the destination operand, if the descriptor has one.
func (ins *Instruction) Destination() (Operand, bool) {
	if ins.Desc == nil || ins.Desc.SourceOperands() == ins.Desc.Operands {
		return Operand{}, false
	}
	return ins.Operands[0], true
}

// Sources returns the source operands in order.
func (ins *Instruction) Sources() []Operand {
	if ins.Desc == nil {
		return nil
	}
	if ins.Desc.SourceOperands() == ins.Desc.Operands {
		return ins.Operands
	}
	return ins.Operands[1:]
}

// Equal reports descriptor and operand equality.
func (ins *Instruction) Equal(o *Instruction) bool {
	if ins.Desc != o.Desc || len(ins.Operands) != len(o.Operands) {
		return false
	}
	for i := range ins.Operands {
		if !ins.Operands[i].Equal(o.Operands[i]) {
			return false
		}
	}
	return true
}

// String renders "mnemonic op, op, ...".
func (ins *Instruction) String() string {
	if ins.Desc == nil {
		return "<invalid>"
	}
	parts := make([]string, len(ins.Operands))
	for i, op := range ins.Operands {
		parts[i] = op.String()
	}
	if len(parts) == 0 {
		return ins.Desc.Name
	}
	return ins.Desc.Name + " " + strings.Join(parts, ", ")
}
