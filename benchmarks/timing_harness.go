package benchmarks

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/timing/ooo"
)

// BenchmarkResult holds the timing results for a single benchmark run.
type BenchmarkResult struct {
	// Name identifies the benchmark.
	Name string `json:"name"`

	// Description explains what the benchmark measures.
	Description string `json:"description"`

	// SimulatedCycles is the total cycle count from the timing core.
	SimulatedCycles uint64 `json:"simulated_cycles"`

	// InstructionsRetired is the number of completed instructions.
	InstructionsRetired uint64 `json:"instructions_retired"`

	// IPC is retired instructions per cycle.
	IPC float64 `json:"ipc"`

	// Branches and Mispredictions summarize control-flow behavior.
	Branches       uint64 `json:"branches"`
	Mispredictions uint64 `json:"mispredictions"`

	// LoadsForwarded counts loads served from the store buffer.
	LoadsForwarded uint64 `json:"loads_forwarded"`

	// Output is the program result from the timing core.
	Output uint8 `json:"output"`

	// ReferenceOutput is the program result from the functional emulator.
	ReferenceOutput uint8 `json:"reference_output"`

	// WallTime is the host time spent simulating.
	WallTime time.Duration `json:"wall_time_ns"`
}

// Matches reports whether the timing core reproduced the reference
// output.
func (r BenchmarkResult) Matches() bool {
	return r.Output == r.ReferenceOutput
}

// RunBenchmark executes b on both the functional emulator and the
// out-of-order core and collects timing statistics.
func RunBenchmark(b Benchmark, maxCycles uint64) (BenchmarkResult, error) {
	refMemory := emu.NewMemory()
	coreMemory := emu.NewMemory()
	for i, w := range b.Program {
		refMemory.Write32(uint32(i)*4, w)
		coreMemory.Write32(uint32(i)*4, w)
	}

	ref := emu.NewEmulator(emu.WithMemory(refMemory))
	refOutput, err := ref.Run()
	if err != nil {
		return BenchmarkResult{}, fmt.Errorf("%s: reference run: %w", b.Name, err)
	}

	p := ooo.NewProcessor(coreMemory)
	start := time.Now()
	output, err := p.Run(maxCycles)
	if err != nil {
		return BenchmarkResult{}, fmt.Errorf("%s: timing run: %w", b.Name, err)
	}

	stats := p.Stats()
	return BenchmarkResult{
		Name:                b.Name,
		Description:         b.Description,
		SimulatedCycles:     stats.Cycles,
		InstructionsRetired: stats.InstructionsRetired,
		IPC:                 stats.IPC(),
		Branches:            stats.Branches,
		Mispredictions:      stats.Mispredictions,
		LoadsForwarded:      stats.LoadsForwarded,
		Output:              output,
		ReferenceOutput:     refOutput,
		WallTime:            time.Since(start),
	}, nil
}

// RunAll executes every benchmark in the set.
func RunAll(set []Benchmark, maxCycles uint64) ([]BenchmarkResult, error) {
	results := make([]BenchmarkResult, 0, len(set))
	for _, b := range set {
		r, err := RunBenchmark(b, maxCycles)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// WriteJSON writes results as indented JSON.
func WriteJSON(w io.Writer, results []BenchmarkResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

// WriteTable writes results as a fixed-width text table.
func WriteTable(w io.Writer, results []BenchmarkResult) {
	fmt.Fprintf(w, "%-22s %10s %8s %6s %8s %8s\n",
		"benchmark", "cycles", "retired", "ipc", "branches", "mispred")
	for _, r := range results {
		fmt.Fprintf(w, "%-22s %10d %8d %6.3f %8d %8d\n",
			r.Name, r.SimulatedCycles, r.InstructionsRetired, r.IPC,
			r.Branches, r.Mispredictions)
	}
}
