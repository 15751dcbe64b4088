// Command profile runs a program under host CPU and memory profiling to
// identify simulator bottlenecks.
package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/core"
)

func main() {
	var (
		emuMode    bool
		cpuProfile string
		memProfile string
		maxCycles  uint64
	)

	rootCmd := &cobra.Command{
		Use:          "profile <program.hex>",
		Short:        "Profile the simulator on a hex program image",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			img, err := loader.Parse(f)
			if err != nil {
				return err
			}
			memory := emu.NewMemory()
			if err := img.ApplyTo(memory); err != nil {
				return err
			}

			if cpuProfile != "" {
				pf, err := os.Create(cpuProfile)
				if err != nil {
					return err
				}
				defer pf.Close()
				if err := pprof.StartCPUProfile(pf); err != nil {
					return err
				}
				defer pprof.StopCPUProfile()
			}

			start := time.Now()
			var output uint8
			if emuMode {
				e := emu.NewEmulator(
					emu.WithMemory(memory),
					emu.WithMaxInstructions(maxCycles),
				)
				output, err = e.Run()
				if err != nil {
					return err
				}
				fmt.Printf("output: %d\n", output)
				fmt.Printf("instructions: %d\n", e.InstructionCount())
			} else {
				c := core.NewCore(memory)
				output, err = c.Run(maxCycles)
				if err != nil {
					return err
				}
				stats := c.Stats()
				fmt.Printf("output: %d\n", output)
				fmt.Printf("cycles: %d\n", stats.Cycles)
				fmt.Printf("retired: %d\n", stats.InstructionsRetired)
				fmt.Printf("ipc: %.3f\n", stats.IPC())
			}
			elapsed := time.Since(start)
			fmt.Printf("wall time: %v\n", elapsed)

			if memProfile != "" {
				mf, err := os.Create(memProfile)
				if err != nil {
					return err
				}
				defer mf.Close()
				runtime.GC()
				if err := pprof.WriteHeapProfile(mf); err != nil {
					return err
				}
			}
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&emuMode, "emu", false,
		"profile the functional emulator instead of the timing core")
	rootCmd.Flags().StringVar(&cpuProfile, "cpuprofile", "",
		"write a CPU profile to this file")
	rootCmd.Flags().StringVar(&memProfile, "memprofile", "",
		"write a heap profile to this file")
	rootCmd.Flags().Uint64Var(&maxCycles, "max-cycles", 100_000_000,
		"cycle budget (instruction budget with --emu)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
