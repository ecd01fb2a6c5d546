package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vtil/internal/arch"
)

var (
	r1 = arch.RegisterDesc{ID: 1, Bits: 64}
	r2 = arch.RegisterDesc{ID: 2, Bits: 64}
	r3 = arch.RegisterDesc{ID: 3, Bits: 64}
)

func buildBlock(t *testing.T, vip uint64, routine *arch.Routine, rows ...[]interface{}) *arch.BasicBlock {
	t.Helper()
	b := routine.CreateBlock(vip)
	for _, row := range rows {
		desc := row[0].(*arch.InstructionDesc)
		operands := make([]arch.Operand, 0, len(row)-1)
		for _, o := range row[1:] {
			operands = append(operands, o.(arch.Operand))
		}
		ins, err := arch.NewInstruction(desc, operands...)
		require.NoError(t, err)
		require.NoError(t, b.Append(ins))
	}
	return b
}

func TestPassRewritesAddZero(t *testing.T) {
	routine := arch.NewRoutine()
	b := buildBlock(t, 0x1000, routine,
		[]interface{}{arch.AddI, arch.RegOperand(r1), arch.RegOperand(r2), arch.ImmInt64(0)},
		[]interface{}{arch.Mov, arch.RegOperand(r3), arch.RegOperand(r1)},
	)

	n := NewSymbolicRewritePass().Run(b, false)
	assert.Equal(t, 1, n)
	require.Equal(t, 2, b.Count())
	assert.Equal(t, "mov reg_1_64, reg_2_64", b.Get(0).String())
	assert.Equal(t, "mov reg_3_64, reg_1_64", b.Get(1).String())
}

func TestPassRewritesXorSelf(t *testing.T) {
	routine := arch.NewRoutine()
	b := buildBlock(t, 0x1000, routine,
		[]interface{}{arch.XorI, arch.RegOperand(r1), arch.RegOperand(r2), arch.RegOperand(r2)},
	)

	n := NewSymbolicRewritePass().Run(b, false)
	assert.Equal(t, 1, n)
	assert.Equal(t, "mov reg_1_64, 0", b.Get(0).String())
}

func TestPassRewritesMulOne(t *testing.T) {
	routine := arch.NewRoutine()
	b := buildBlock(t, 0x1000, routine,
		[]interface{}{arch.MulI, arch.RegOperand(r1), arch.RegOperand(r2), arch.ImmInt64(1)},
	)

	n := NewSymbolicRewritePass().Run(b, false)
	assert.Equal(t, 1, n)
	assert.Equal(t, "mov reg_1_64, reg_2_64", b.Get(0).String())
}

func TestPassFoldsConstants(t *testing.T) {
	routine := arch.NewRoutine()
	b := buildBlock(t, 0x1000, routine,
		[]interface{}{arch.AddI, arch.RegOperand(r1), arch.ImmInt64(10), arch.ImmInt64(20)},
	)

	n := NewSymbolicRewritePass().Run(b, false)
	assert.Equal(t, 1, n)
	assert.Equal(t, "mov reg_1_64, 30", b.Get(0).String())
}

func TestPassLeavesIrreducible(t *testing.T) {
	routine := arch.NewRoutine()
	b := buildBlock(t, 0x1000, routine,
		[]interface{}{arch.AddI, arch.RegOperand(r1), arch.RegOperand(r2), arch.RegOperand(r3)},
	)
	before := b.String()

	n := NewSymbolicRewritePass().Run(b, false)
	assert.Equal(t, 0, n)
	assert.Equal(t, before, b.String())
}

func TestPassSkipsVolatileAndBranching(t *testing.T) {
	routine := arch.NewRoutine()
	b := buildBlock(t, 0x1000, routine,
		[]interface{}{arch.PushI, arch.RegOperand(r2)},
		[]interface{}{arch.JmpI, arch.ImmInt64(0x2000)},
	)
	before := b.String()

	n := NewSymbolicRewritePass().Run(b, false)
	assert.Equal(t, 0, n)
	assert.Equal(t, before, b.String())
}

func TestPassPreservesBlockShape(t *testing.T) {
	routine := arch.NewRoutine()
	b := buildBlock(t, 0x1000, routine,
		[]interface{}{arch.AddI, arch.RegOperand(r1), arch.RegOperand(r2), arch.ImmInt64(0)},
		[]interface{}{arch.SubI, arch.RegOperand(r2), arch.RegOperand(r3), arch.RegOperand(r3)},
		[]interface{}{arch.Mov, arch.RegOperand(r3), arch.RegOperand(r1)},
	)
	countBefore := b.Count()
	writesBefore := writtenRegisters(b)

	NewSymbolicRewritePass().Run(b, false)

	assert.Equal(t, countBefore, b.Count())
	for reg := range writtenRegisters(b) {
		_, ok := writesBefore[reg]
		assert.True(t, ok, "pass introduced a write to %v", reg)
	}
}

func writtenRegisters(b *arch.BasicBlock) map[arch.RegisterDesc]struct{} {
	out := make(map[arch.RegisterDesc]struct{})
	for i := 0; i < b.Count(); i++ {
		ins := b.Get(i)
		if dest, ok := ins.Destination(); ok && dest.Kind == arch.OperandRegister {
			out[dest.Reg] = struct{}{}
		}
	}
	return out
}

func TestLiftRejectsUnmappable(t *testing.T) {
	mov, err := arch.NewInstruction(arch.Mov, arch.RegOperand(r1), arch.RegOperand(r2))
	require.NoError(t, err)
	assert.Nil(t, liftInstruction(&mov))

	ld, err := arch.NewInstruction(arch.LoadI, arch.RegOperand(r1), arch.RegOperand(r2))
	require.NoError(t, err)
	// Memory reads lift to a Read operator over the address register.
	assert.NotNil(t, liftInstruction(&ld))
}

func TestParseRegisterVariable(t *testing.T) {
	reg, ok := parseRegisterVariable("reg_7_32")
	require.True(t, ok)
	assert.Equal(t, uint32(7), reg.ID)
	assert.Equal(t, 32, reg.Bits)

	for _, bad := range []string{
		"reg_7", "reg_7_32_1", "foo_7_32", "reg_x_32", "reg_7_0",
		"reg_7_1024", "reg_99999999_64", "x",
	} {
		_, ok := parseRegisterVariable(bad)
		assert.False(t, ok, "%q should not parse", bad)
	}
}

// Concurrent invocations on disjoint blocks must agree with the serial
// result pointwise.
func TestParallelMatchesSerial(t *testing.T) {
	build := func() *arch.Routine {
		routine := arch.NewRoutine()
		for i := uint64(0); i < 32; i++ {
			dst := arch.RegisterDesc{ID: uint32(i + 10), Bits: 64}
			buildBlock(t, 0x1000+i, routine,
				[]interface{}{arch.AddI, arch.RegOperand(dst), arch.RegOperand(r2), arch.ImmInt64(0)},
				[]interface{}{arch.XorI, arch.RegOperand(dst), arch.RegOperand(r2), arch.RegOperand(r2)},
				[]interface{}{arch.MulI, arch.RegOperand(dst), arch.RegOperand(dst), arch.ImmInt64(1)},
			)
		}
		return routine
	}

	serial := build()
	serialCount := 0
	for _, b := range serial.Blocks() {
		serialCount += NewSymbolicRewritePass().Run(b, false)
	}

	parallel := build()
	pipeline := NewPipeline(NewSymbolicRewritePass())
	parallelCount := pipeline.Run(parallel, false)

	assert.Equal(t, serialCount, parallelCount)
	sb := serial.Blocks()
	pb := parallel.Blocks()
	require.Equal(t, len(sb), len(pb))
	for i := range sb {
		assert.Equal(t, sb[i].String(), pb[i].String(), "block %d diverged", i)
	}
}

func TestPipelineRunsPassList(t *testing.T) {
	routine := arch.NewRoutine()
	buildBlock(t, 0x1000, routine,
		[]interface{}{arch.AddI, arch.RegOperand(r1), arch.RegOperand(r2), arch.ImmInt64(0)},
	)
	n := NewPipeline(NewSymbolicRewritePass()).WithWorkers(2).Run(routine, false)
	assert.Equal(t, 1, n)
}
