// Package optimizer hosts the optimization passes and the pipeline that
// schedules them over a routine's basic blocks.
package optimizer

import (
	"vtil/internal/arch"
)

// ExecutionOrder tags how a pass may be scheduled across blocks.
type ExecutionOrder uint8

const (
	// ExecutionOrderSerial passes see blocks one at a time, in order.
	ExecutionOrderSerial ExecutionOrder = iota
	// ExecutionOrderParallel passes may run on distinct blocks
	// concurrently. The pass itself serializes whatever it must.
	ExecutionOrderParallel
)

// Pass is one optimization over a single basic block. Run returns the
// number of instructions it replaced. Implementations must be safe to
// invoke concurrently on disjoint blocks; the pipeline never hands the
// same block to two invocations at once.
type Pass interface {
	Name() string
	Order() ExecutionOrder
	Run(b *arch.BasicBlock, crossBlock bool) int
}
