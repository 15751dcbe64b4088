// Package main provides the entry point for rv32sim.
// rv32sim is a cycle-accurate out-of-order RV32I simulator.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/core"
	"github.com/sarchlab/rv32sim/timing/ooo"
)

var (
	emuMode   bool
	trace     bool
	showStats bool
	maxCycles uint64
)

var rootCmd = &cobra.Command{
	Use:   "rv32sim [program.hex]",
	Short: "Cycle-accurate out-of-order RV32I simulator",
	Long: `rv32sim simulates an out-of-order RV32I core cycle by cycle.
It reads a hex program image from the given file, or from stdin when no
file is named, runs it to the halt word, and prints the program output.`,
	Args:         cobra.MaximumNArgs(1),
	RunE:         run,
	SilenceUsage: true,
}

func init() {
	rootCmd.Flags().BoolVar(&emuMode, "emu", false,
		"run the functional emulator instead of the timing model")
	rootCmd.Flags().BoolVar(&trace, "trace", false,
		"log retirements and flushes to stderr")
	rootCmd.Flags().BoolVar(&showStats, "stats", false,
		"print core statistics to stderr")
	rootCmd.Flags().Uint64Var(&maxCycles, "max-cycles", 10_000_000,
		"cycle limit, 0 for none")
}

func run(cmd *cobra.Command, args []string) error {
	in := io.Reader(os.Stdin)
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	img, err := loader.Parse(in)
	if err != nil {
		return fmt.Errorf("loading program: %w", err)
	}
	memory := emu.NewMemory()
	if err := img.ApplyTo(memory); err != nil {
		return err
	}

	if emuMode {
		return runEmulation(memory)
	}
	return runTiming(memory)
}

func runEmulation(memory *emu.Memory) error {
	emulator := emu.NewEmulator(
		emu.WithMemory(memory),
		emu.WithMaxInstructions(maxCycles),
	)
	output, err := emulator.Run()
	if err != nil {
		return err
	}
	fmt.Println(output)
	return nil
}

func runTiming(memory *emu.Memory) error {
	c := core.NewCore(memory)
	if trace {
		c.AcceptHook(newTraceHook(os.Stderr))
	}

	output, err := c.Run(maxCycles)
	if err != nil {
		return err
	}
	fmt.Println(output)

	if showStats {
		printStats(c.Stats())
	}
	return nil
}

func printStats(s ooo.Statistics) {
	w := os.Stderr
	fmt.Fprintf(w, "Cycles:         %d\n", s.Cycles)
	fmt.Fprintf(w, "Instructions:   %d\n", s.InstructionsRetired)
	fmt.Fprintf(w, "IPC:            %.3f\n", s.IPC())
	fmt.Fprintf(w, "Branches:       %d\n", s.Branches)
	fmt.Fprintf(w, "Mispredictions: %d (%.1f%%)\n",
		s.Mispredictions, 100*s.MispredictionRate())
	fmt.Fprintf(w, "Predictions:    %d (%d target hits, %d misses)\n",
		s.Predictions, s.TargetHits, s.TargetMisses)
	fmt.Fprintf(w, "Loads forwarded: %d\n", s.LoadsForwarded)
	fmt.Fprintf(w, "Mem transactions: %d\n", s.MemoryTransactions)
}

// traceHook logs every retirement and flush.
type traceHook struct {
	sim.LogHookBase
}

func newTraceHook(w io.Writer) *traceHook {
	h := &traceHook{}
	h.Logger = log.New(w, "", 0)
	return h
}

// Func writes one line per hooked event.
func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case ooo.HookPosInstRetire:
		ret := ctx.Item.(ooo.Retirement)
		h.Printf("retire pc=%08x word=%08x", ret.PC, ret.Word)
	case ooo.HookPosFlush:
		f := ctx.Item.(ooo.Flush)
		h.Printf("flush target=%08x", f.Target)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
