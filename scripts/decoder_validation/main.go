// Measures decoder throughput and allocation behavior on a hot word mix.
package main

import (
	"fmt"
	"runtime"
	"time"

	"github.com/sarchlab/rv32sim/insts"
)

func main() {
	decoder := insts.NewDecoder()

	words := []uint32{
		insts.ADDI(10, 0, 42),
		insts.ADD(3, 1, 2),
		insts.LW(5, 2, 8),
		insts.SW(5, 2, 12),
		insts.BEQ(1, 2, 8),
		insts.JAL(1, 16),
		insts.LUI(7, 0x12345000),
	}

	for i := 0; i < 1000; i++ {
		decoder.Decode(words[i%len(words)])
	}

	runtime.GC()
	var m1, m2 runtime.MemStats
	runtime.ReadMemStats(&m1)

	start := time.Now()
	iterations := 100000

	for i := 0; i < iterations; i++ {
		for _, w := range words {
			decoder.Decode(w)
		}
	}

	elapsed := time.Since(start)
	runtime.ReadMemStats(&m2)

	totalDecodes := iterations * len(words)
	allocations := m2.Mallocs - m1.Mallocs
	allocatedBytes := m2.TotalAlloc - m1.TotalAlloc

	fmt.Printf("Decoder Validation Results:\n")
	fmt.Printf("===========================\n")
	fmt.Printf("Total decode operations: %d\n", totalDecodes)
	fmt.Printf("Time elapsed: %v\n", elapsed)
	fmt.Printf("Decodes per second: %.0f\n", float64(totalDecodes)/elapsed.Seconds())
	fmt.Printf("Allocations: %d\n", allocations)
	fmt.Printf("Allocated bytes: %d\n", allocatedBytes)
	fmt.Printf("Allocations per decode: %.3f\n", float64(allocations)/float64(totalDecodes))
	fmt.Printf("Bytes per decode: %.1f\n", float64(allocatedBytes)/float64(totalDecodes))
}
