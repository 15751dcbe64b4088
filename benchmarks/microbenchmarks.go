// Package benchmarks provides timing benchmark infrastructure for core
// calibration.
package benchmarks

import "github.com/sarchlab/rv32sim/insts"

// Benchmark is a self-contained program with a known terminating halt.
type Benchmark struct {
	// Name identifies the benchmark.
	Name string

	// Description explains what the benchmark measures.
	Description string

	// Program holds the instruction words, loaded at address 0.
	Program []uint32
}

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// benchmark targets a specific core characteristic.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		functionCalls(),
		branchLoop(),
		shiftsAndLogic(),
		mixedOperations(),
	}
}

// GetCoreBenchmarks returns a minimal subset for quick validation: a
// counted loop, memory traffic, and call-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		branchLoop(),
		memorySequential(),
		functionCalls(),
	}
}

func arithmeticSequential() Benchmark {
	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "Independent integer operations, exposes issue width",
		Program: []uint32{
			insts.ADDI(1, 0, 10),
			insts.ADDI(2, 0, 20),
			insts.ADDI(3, 0, 30),
			insts.ADDI(4, 0, 40),
			insts.ADD(5, 1, 2),
			insts.ADD(6, 3, 4),
			insts.ADD(10, 5, 6),
			insts.HaltWord,
		},
	}
}

func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "Serial data dependencies, exposes forwarding latency",
		Program: []uint32{
			insts.ADDI(1, 0, 1),
			insts.ADD(1, 1, 1),
			insts.ADD(1, 1, 1),
			insts.ADD(1, 1, 1),
			insts.ADD(1, 1, 1),
			insts.ADD(1, 1, 1),
			insts.ADD(1, 1, 1),
			insts.ADD(1, 1, 1),
			insts.ADDI(10, 1, 0),
			insts.HaltWord,
		},
	}
}

func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "Store-then-load runs, exposes buffer forwarding",
		Program: []uint32{
			insts.ADDI(1, 0, 0x400),
			insts.ADDI(2, 0, 1),
			insts.SW(2, 1, 0),
			insts.ADDI(2, 0, 2),
			insts.SW(2, 1, 4),
			insts.ADDI(2, 0, 3),
			insts.SW(2, 1, 8),
			insts.ADDI(2, 0, 4),
			insts.SW(2, 1, 12),
			insts.LW(3, 1, 0),
			insts.LW(4, 1, 4),
			insts.LW(5, 1, 8),
			insts.LW(6, 1, 12),
			insts.ADD(7, 3, 4),
			insts.ADD(8, 5, 6),
			insts.ADD(10, 7, 8),
			insts.HaltWord,
		},
	}
}

func functionCalls() Benchmark {
	return Benchmark{
		Name:        "function_calls",
		Description: "Repeated call and return, exposes target prediction",
		Program: []uint32{
			insts.ADDI(10, 0, 0),  // 0x00
			insts.JAL(1, 20),      // 0x04: call 0x18
			insts.JAL(1, 16),      // 0x08: call 0x18
			insts.JAL(1, 12),      // 0x0c: call 0x18
			insts.HaltWord,        // 0x10
			insts.ADDI(0, 0, 0),   // 0x14: padding
			insts.ADDI(10, 10, 5), // 0x18: subroutine
			insts.JALR(0, 1, 0),   // 0x1c: return
		},
	}
}

func branchLoop() Benchmark {
	return Benchmark{
		Name:        "branch_loop",
		Description: "Counted summation loop, exposes direction prediction",
		Program: []uint32{
			insts.ADDI(5, 0, 20),
			insts.ADDI(10, 0, 0),
			insts.ADDI(6, 0, 1),
			insts.ADD(10, 10, 6),
			insts.ADDI(6, 6, 1),
			insts.BGE(5, 6, -8),
			insts.HaltWord,
		},
	}
}

func shiftsAndLogic() Benchmark {
	return Benchmark{
		Name:        "shifts_and_logic",
		Description: "Shift and bitwise mix on a single dependency chain",
		Program: []uint32{
			insts.ADDI(1, 0, 0x55),
			insts.SLLI(2, 1, 8),
			insts.OR(3, 2, 1),
			insts.XORI(4, 3, 0xFF),
			insts.SRLI(5, 4, 4),
			insts.AND(6, 5, 3),
			insts.ADDI(10, 6, 0),
			insts.HaltWord,
		},
	}
}

func mixedOperations() Benchmark {
	return Benchmark{
		Name:        "mixed_operations",
		Description: "Arithmetic, memory, and branches in one loop",
		Program: []uint32{
			insts.ADDI(1, 0, 0x500), // 0x00
			insts.ADDI(2, 0, 5),     // 0x04: counter
			insts.ADDI(3, 0, 0),     // 0x08: accumulator
			insts.SW(2, 1, 0),       // 0x0c: loop body
			insts.LW(4, 1, 0),       // 0x10
			insts.ADD(3, 3, 4),      // 0x14
			insts.ADDI(2, 2, -1),    // 0x18
			insts.BLT(0, 2, -16),    // 0x1c: loop while counter > 0
			insts.ADDI(10, 3, 0),    // 0x20
			insts.HaltWord,          // 0x24
		},
	}
}
