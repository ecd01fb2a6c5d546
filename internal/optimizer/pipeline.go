package optimizer

import (
	"sync/atomic"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"vtil/internal/arch"
)

var log = commonlog.GetLogger("vtil.optimizer")

// Pipeline schedules a list of passes over a routine. Parallel passes
// fan out one goroutine per block; each block is visited by exactly one
// goroutine per pass, which together with the passes' own locking gives
// the concurrency contract the passes assume.
type Pipeline struct {
	passes  []Pass
	workers int
}

// NewPipeline builds a pipeline running the given passes in order.
func NewPipeline(passes ...Pass) *Pipeline {
	return &Pipeline{passes: passes}
}

// WithWorkers caps concurrent block goroutines for parallel passes.
// Zero or negative means unbounded.
func (p *Pipeline) WithWorkers(n int) *Pipeline {
	p.workers = n
	return p
}

// Run executes every pass over the routine and returns the total number
// of instructions replaced.
func (p *Pipeline) Run(r *arch.Routine, crossBlock bool) int {
	total := 0
	for _, pass := range p.passes {
		n := p.runPass(pass, r, crossBlock)
		log.Infof("%s: %d instructions rewritten", pass.Name(), n)
		total += n
	}
	return total
}

func (p *Pipeline) runPass(pass Pass, r *arch.Routine, crossBlock bool) int {
	blocks := r.Blocks()

	if pass.Order() == ExecutionOrderSerial || len(blocks) < 2 {
		n := 0
		for _, b := range blocks {
			c := pass.Run(b, crossBlock)
			log.Debugf("%s @ block %#x: %d", pass.Name(), b.VIP, c)
			n += c
		}
		return n
	}

	var count atomic.Int64
	var g errgroup.Group
	if p.workers > 0 {
		g.SetLimit(p.workers)
	}
	for _, b := range blocks {
		g.Go(func() error {
			c := pass.Run(b, crossBlock)
			log.Debugf("%s @ block %#x: %d", pass.Name(), b.VIP, c)
			count.Add(int64(c))
			return nil
		})
	}
	// Pass goroutines never return errors; failures inside a pass keep
	// the affected instruction and continue.
	_ = g.Wait()
	return int(count.Load())
}
