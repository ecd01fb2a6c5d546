// SPDX-License-Identifier: Apache-2.0
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"vtil/internal/arch"
	"vtil/internal/exprparse"
	"vtil/internal/optimizer"
	"vtil/internal/simplifier"
)

var (
	verbosity int
	joinDepth int
	cacheSize int
)

func main() {
	root := &cobra.Command{
		Use:   "vtil-opt",
		Short: "Symbolic simplifier and rewrite pass for VTIL expressions",
		PersistentPreRun: func(*cobra.Command, []string) {
			commonlog.Configure(verbosity, nil)
		},
	}
	root.PersistentFlags().IntVarP(&verbosity, "verbose", "v", 0, "log verbosity (0 = notices only)")
	root.PersistentFlags().IntVar(&joinDepth, "join-depth", simplifier.DefaultJoinDepth, "join descriptor depth ceiling")
	root.PersistentFlags().IntVar(&cacheSize, "cache-size", simplifier.DefaultCacheCapacity, "simplifier cache capacity")

	root.AddCommand(simplifyCommand(), evalCommand(), demoCommand())

	if err := root.Execute(); err != nil {
		color.Red("error: %s", err)
		os.Exit(1)
	}
}

func simplifierOptions() []simplifier.Option {
	return []simplifier.Option{
		simplifier.WithJoinDepth(joinDepth),
		simplifier.WithCacheCapacity(cacheSize),
	}
}

func simplifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "simplify <expression>",
		Short: "Parse an expression and print its simplified form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := exprparse.Parse(args[0])
			if err != nil {
				return err
			}
			result := simplifier.New(simplifierOptions()...).Simplify(expr)
			fmt.Printf("input:      %s  (complexity %d)\n", expr, expr.Complexity())
			color.Green("simplified: %s  (complexity %d)", result, result.Complexity())
			return nil
		},
	}
}

func evalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "eval <expression>",
		Short: "Evaluate a variable-free expression",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := exprparse.Parse(args[0])
			if err != nil {
				return err
			}
			c, err := expr.Evaluate()
			if err != nil {
				return err
			}
			color.Green("%s = %s", expr, c.String())
			return nil
		},
	}
}

// demoCommand builds a small routine, runs the symbolic rewrite pass
// over it and prints the listing before and after.
func demoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the rewrite pass over a sample basic block",
		RunE: func(cmd *cobra.Command, args []string) error {
			routine := arch.NewRoutine()
			block := routine.CreateBlock(0x1000)

			r1 := arch.RegisterDesc{ID: 1, Bits: 64}
			r2 := arch.RegisterDesc{ID: 2, Bits: 64}
			r3 := arch.RegisterDesc{ID: 3, Bits: 64}
			mustAppend(block, arch.AddI, arch.RegOperand(r1), arch.RegOperand(r2), arch.ImmInt64(0))
			mustAppend(block, arch.XorI, arch.RegOperand(r3), arch.RegOperand(r2), arch.RegOperand(r2))
			mustAppend(block, arch.MulI, arch.RegOperand(r2), arch.RegOperand(r2), arch.ImmInt64(1))

			fmt.Println("before:")
			fmt.Println(block.String())

			pipeline := optimizer.NewPipeline(optimizer.NewSymbolicRewritePass(simplifierOptions()...))
			n := pipeline.Run(routine, false)

			fmt.Println()
			color.Green("after (%d rewritten):", n)
			fmt.Println(block.String())
			return nil
		},
	}
}

func mustAppend(b *arch.BasicBlock, desc *arch.InstructionDesc, operands ...arch.Operand) {
	ins, err := arch.NewInstruction(desc, operands...)
	if err != nil {
		panic(err)
	}
	if err := b.Append(ins); err != nil {
		panic(err)
	}
}
