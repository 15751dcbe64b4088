// Package main provides the entry point for rv32sim.
// rv32sim is a cycle-accurate out-of-order RV32I simulator.
//
// For the full CLI, use: go run ./cmd/rv32sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rv32sim - RV32I Out-of-Order CPU Simulator")
	fmt.Println("")
	fmt.Println("Usage: rv32sim [options] <program.hex>")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  --emu      Run the functional emulator instead of the timing core")
	fmt.Println("  --trace    Log retirements and flushes to stderr")
	fmt.Println("  --stats    Print core statistics after the run")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rv32sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rv32sim' instead.")
	}
}
