package optimizer

import (
	"sync"

	"vtil/internal/arch"
	"vtil/internal/simplifier"
)

// SymbolicRewritePass lifts each instruction of a block into a symbolic
// expression, simplifies it, and lowers the result back, replacing the
// instruction in place when the lowered form differs. Any failure along
// the way preserves the instruction as-is; nothing aborts the block.
//
// The pass holds its mutex for the whole block, serializing invocations
// on the same pass instance while distinct instances stay free to run in
// parallel on other blocks.
type SymbolicRewritePass struct {
	mu   sync.Mutex
	opts []simplifier.Option
}

// NewSymbolicRewritePass builds the pass. Options are forwarded to the
// per-invocation simplifier.
func NewSymbolicRewritePass(opts ...simplifier.Option) *SymbolicRewritePass {
	return &SymbolicRewritePass{opts: opts}
}

// Name implements Pass.
func (p *SymbolicRewritePass) Name() string { return "symbolic-rewrite" }

// Order implements Pass.
func (p *SymbolicRewritePass) Order() ExecutionOrder { return ExecutionOrderParallel }

// Run implements Pass. Each invocation allocates a fresh simplifier, and
// with it a fresh cache: results are deterministic regardless of how the
// host schedules blocks.
//
// The crossBlock flag permits consulting successor and predecessor
// information for pattern-based rewrites; it never licenses modifying a
// neighboring block. The current rules are all intra-block, so the flag
// only widens what future rules may look at.
func (p *SymbolicRewritePass) Run(b *arch.BasicBlock, crossBlock bool) int {
	if b == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	simp := simplifier.New(p.opts...)
	replaced := 0

	for i := 0; i < b.Count(); i++ {
		ins := b.Get(i)
		if ins.Desc == nil || ins.Desc.Volatile || ins.Desc.Branching {
			continue
		}
		dest, ok := ins.Destination()
		if !ok {
			continue
		}

		expr := liftInstruction(ins)
		if expr == nil {
			continue
		}

		result := simp.Simplify(expr)

		lowered, ok := lowerExpression(dest, result)
		if !ok || lowered.Equal(ins) {
			continue
		}
		if b.Replace(i, lowered) != nil {
			continue
		}
		replaced++
	}
	return replaced
}
