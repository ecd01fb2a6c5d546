package arch

import (
	"strings"
	"sync"

	"vtil/internal/symex"
)

// BasicBlock is a maximal straight-line instruction sequence with
// random-access indexing and in-place replacement. Predecessor and
// successor links form the routine's control-flow graph. The host
// pipeline guarantees a block is handed to at most one optimizer
// invocation at a time.
type BasicBlock struct {
	VIP          uint64
	routine      *Routine
	instructions []Instruction
	successors   []*BasicBlock
	predecessors []*BasicBlock
}

// Count returns the number of instructions.
func (b *BasicBlock) Count() int { return len(b.instructions) }

// Get returns the instruction at index i, nil when out of range.
func (b *BasicBlock) Get(i int) *Instruction {
	if i < 0 || i >= len(b.instructions) {
		return nil
	}
	return &b.instructions[i]
}

// Replace swaps the instruction at index i in place.
func (b *BasicBlock) Replace(i int, ins Instruction) error {
	if i < 0 || i >= len(b.instructions) {
		return symex.ErrStructural
	}
	if err := ins.Validate(); err != nil {
		return err
	}
	ins.VIP = b.instructions[i].VIP
	b.instructions[i] = ins
	return nil
}

// Remove deletes the instruction at index i, shifting the tail down.
func (b *BasicBlock) Remove(i int) error {
	if i < 0 || i >= len(b.instructions) {
		return symex.ErrStructural
	}
	b.instructions = append(b.instructions[:i], b.instructions[i+1:]...)
	return nil
}

// Append validates and appends an instruction.
func (b *BasicBlock) Append(ins Instruction) error {
	if err := ins.Validate(); err != nil {
		return err
	}
	b.instructions = append(b.instructions, ins)
	return nil
}

// Successors returns the block's successor list.
func (b *BasicBlock) Successors() []*BasicBlock { return b.successors }

// Predecessors returns the block's predecessor list.
func (b *BasicBlock) Predecessors() []*BasicBlock { return b.predecessors }

// Routine returns the owning routine.
func (b *BasicBlock) Routine() *Routine { return b.routine }

// String renders the block listing, one instruction per line.
func (b *BasicBlock) String() string {
	var sb strings.Builder
	for i := range b.instructions {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(b.instructions[i].String())
	}
	return sb.String()
}

// Routine is a collection of basic blocks forming one procedure.
type Routine struct {
	mu      sync.Mutex
	blocks  []*BasicBlock
	byVIP   map[uint64]*BasicBlock
	nextReg uint32
	Hooks   AnalysisHooks
}

// NewRoutine builds an empty routine with conservative analysis hooks.
func NewRoutine() *Routine {
	return &Routine{
		byVIP: make(map[uint64]*BasicBlock),
		Hooks: DefaultHooks(),
	}
}

// CreateBlock adds an empty block at the given VIP.
func (r *Routine) CreateBlock(vip uint64) *BasicBlock {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b, ok := r.byVIP[vip]; ok {
		return b
	}
	b := &BasicBlock{VIP: vip, routine: r}
	r.blocks = append(r.blocks, b)
	r.byVIP[vip] = b
	return b
}

// Blocks returns the routine's blocks in creation order.
func (r *Routine) Blocks() []*BasicBlock {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*BasicBlock, len(r.blocks))
	copy(out, r.blocks)
	return out
}

// Link records a predecessor/successor edge.
func (r *Routine) Link(pred, succ *BasicBlock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pred.successors = append(pred.successors, succ)
	succ.predecessors = append(succ.predecessors, pred)
}

// AllocRegister hands out a fresh virtual register of the given width.
func (r *Routine) AllocRegister(bits int) RegisterDesc {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextReg
	r.nextReg++
	return RegisterDesc{ID: id, Bits: bits}
}
