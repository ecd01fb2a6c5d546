package arch

// AnalysisHooks are the host-IR predicates the wider optimizer pipeline
// consults. They are extension points: the analyses behind them (stack
// tracking, store forwarding, allocation merging) are not implemented
// here, and the defaults answer conservatively so every pass composed
// with them stays sound. A host embedding this IR overrides the fields
// it can answer precisely.
type AnalysisHooks struct {
	// IsStackAddress reports whether the instruction at index i computes
	// an address within the virtual stack frame.
	IsStackAddress func(b *BasicBlock, i int) bool

	// IsStackStore reports whether the instruction at index i stores to
	// the virtual stack frame.
	IsStackStore func(b *BasicBlock, i int) bool

	// IsJumpToBlock reports whether the block's terminator jumps to a
	// statically known block of the same routine.
	IsJumpToBlock func(b *BasicBlock) (*BasicBlock, bool)

	// CanCombineAllocations reports whether the stack allocations at the
	// two indices may be merged.
	CanCombineAllocations func(b *BasicBlock, i, j int) bool

	// CanEliminatePushPop reports whether the push at i and the pop at j
	// form a cancelable pair.
	CanEliminatePushPop func(b *BasicBlock, i, j int) bool

	// CanForwardStore reports whether the store at i may be forwarded to
	// the load at j.
	CanForwardStore func(b *BasicBlock, i, j int) bool
}

// DefaultHooks returns the conservative answers: nothing is provably a
// stack access, no pair is combinable, no store is forwardable.
func DefaultHooks() AnalysisHooks {
	return AnalysisHooks{
		IsStackAddress:        func(*BasicBlock, int) bool { return false },
		IsStackStore:          func(*BasicBlock, int) bool { return false },
		IsJumpToBlock:         func(*BasicBlock) (*BasicBlock, bool) { return nil, false },
		CanCombineAllocations: func(*BasicBlock, int, int) bool { return false },
		CanEliminatePushPop:   func(*BasicBlock, int, int) bool { return false },
		CanForwardStore:       func(*BasicBlock, int, int) bool { return false },
	}
}
