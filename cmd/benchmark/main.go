// Command benchmark runs the rv32sim timing benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Flags:
//
//	--json        Output results as JSON (default: text table)
//	--core        Run only the minimal core benchmark set
//	--max-cycles  Cycle budget per benchmark
//
// The results characterize the out-of-order core: IPC, branch
// misprediction counts, and store-to-load forwarding activity.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/rv32sim/benchmarks"
)

func main() {
	var (
		jsonOutput bool
		coreOnly   bool
		maxCycles  uint64
	)

	rootCmd := &cobra.Command{
		Use:          "benchmark",
		Short:        "Run the rv32sim microbenchmark suite",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			set := benchmarks.GetMicrobenchmarks()
			if coreOnly {
				set = benchmarks.GetCoreBenchmarks()
			}

			results, err := benchmarks.RunAll(set, maxCycles)
			if err != nil {
				return err
			}

			for _, r := range results {
				if !r.Matches() {
					return fmt.Errorf("%s: core output %d diverges from reference %d",
						r.Name, r.Output, r.ReferenceOutput)
				}
			}

			if jsonOutput {
				return benchmarks.WriteJSON(os.Stdout, results)
			}
			benchmarks.WriteTable(os.Stdout, results)
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"output results as JSON")
	rootCmd.Flags().BoolVar(&coreOnly, "core", false,
		"run only the minimal core benchmark set")
	rootCmd.Flags().Uint64Var(&maxCycles, "max-cycles", 1_000_000,
		"cycle budget per benchmark")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
