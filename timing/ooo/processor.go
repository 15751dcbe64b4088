package ooo

import (
	"fmt"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/rv32sim/emu"
)

// HookPosInstRetire triggers after a cycle in which an instruction
// retired. The hook item is the Retirement.
var HookPosInstRetire = &sim.HookPos{Name: "InstRetire"}

// HookPosFlush triggers after a pipeline flush cycle. The hook item is
// the Flush wire value.
var HookPosFlush = &sim.HookPos{Name: "Flush"}

// Config holds the structural parameters of the core.
type Config struct {
	ROBCapacity      int
	RSCapacity       int
	LSBCapacity      int
	IFUQueueCapacity int
	MemLatency       uint8
	SettleBound      int
}

// DefaultConfig returns the standard core configuration.
func DefaultConfig() Config {
	return Config{
		ROBCapacity:      16,
		RSCapacity:       16,
		LSBCapacity:      16,
		IFUQueueCapacity: 8,
		MemLatency:       3,
		SettleBound:      64,
	}
}

// Option customizes the core configuration.
type Option func(*Config)

// WithROBCapacity sets the reorder buffer capacity.
func WithROBCapacity(n int) Option {
	return func(c *Config) { c.ROBCapacity = n }
}

// WithRSCapacity sets the reservation station capacity.
func WithRSCapacity(n int) Option {
	return func(c *Config) { c.RSCapacity = n }
}

// WithLSBCapacity sets the load/store buffer capacity.
func WithLSBCapacity(n int) Option {
	return func(c *Config) { c.LSBCapacity = n }
}

// WithIFUQueueCapacity sets the fetch queue depth.
func WithIFUQueueCapacity(n int) Option {
	return func(c *Config) { c.IFUQueueCapacity = n }
}

// WithMemLatency sets the MIU transaction latency in cycles.
func WithMemLatency(cycles uint8) Option {
	return func(c *Config) { c.MemLatency = cycles }
}

// Statistics aggregates the counters of the core.
type Statistics struct {
	Cycles              uint64
	InstructionsRetired uint64
	Branches            uint64
	Mispredictions      uint64
	LoadsForwarded      uint64
	MemoryTransactions  uint64
	Predictions         uint64
	TargetHits          uint64
	TargetMisses        uint64
}

// IPC returns retired instructions per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.InstructionsRetired) / float64(s.Cycles)
}

// MispredictionRate returns the fraction of retired conditional branches
// and JALRs that flushed the pipeline.
func (s Statistics) MispredictionRate() float64 {
	if s.Branches == 0 {
		return 0
	}
	return float64(s.Mispredictions) / float64(s.Branches)
}

// Processor is the out-of-order core. It owns the wire harness and all
// modules, and steps them one cycle at a time: settle the combinational
// logic to a fixed point, then commit every module at once. Hooks fire
// after commit for retirements and flushes.
type Processor struct {
	sim.HookableBase

	cfg     Config
	harness *Harness
	modules []Module

	ifu  *IFU
	pred *Predictor
	du   *DU
	rf   *RegisterFile
	rob  *ROB
	rs   *RS
	alu  *ALU
	lsb  *LSB
	miu  *MIU

	cycles      uint64
	retired     uint64
	branches    uint64
	mispredicts uint64

	halted bool
	output uint8
}

// NewProcessor creates an out-of-order core over mem.
func NewProcessor(mem *emu.Memory, opts ...Option) *Processor {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Harness{}
	p := &Processor{
		cfg:     cfg,
		harness: h,
		ifu:     NewIFU(h, cfg.IFUQueueCapacity),
		pred:    NewPredictor(h),
		du:      NewDU(h),
		rf:      NewRegisterFile(h),
		rob:     NewROB(h, cfg.ROBCapacity),
		rs:      NewRS(h, cfg.RSCapacity),
		alu:     NewALU(h),
		lsb:     NewLSB(h, cfg.LSBCapacity),
		miu:     NewMIU(h, mem, cfg.MemLatency),
	}
	p.modules = []Module{
		p.miu, p.ifu, p.pred, p.du, p.rf,
		p.rob, p.rs, p.alu, p.lsb, NewCDBArbiter(h),
	}
	return p
}

// Halted reports whether the program has terminated.
func (p *Processor) Halted() bool { return p.halted }

// Output returns the program output, valid once halted.
func (p *Processor) Output() uint8 { return p.output }

// Cycles returns the number of cycles simulated.
func (p *Processor) Cycles() uint64 { return p.cycles }

// Reg returns the committed value of an architectural register.
func (p *Processor) Reg(reg uint8) uint32 { return p.rf.Reg(reg) }

// Tick simulates one cycle.
func (p *Processor) Tick() error {
	if p.halted {
		return nil
	}

	if err := settle(p.modules, p.cfg.SettleBound); err != nil {
		return fmt.Errorf("cycle %d: %w", p.cycles, err)
	}
	if err := commit(p.modules); err != nil {
		return fmt.Errorf("cycle %d: %w", p.cycles, err)
	}
	p.cycles++

	if ret, ok := p.rob.RetiredThisCycle(); ok {
		p.retired++
		if ret.IsBranch || ret.IsJALR {
			p.branches++
		}
		p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosInstRetire, Item: ret})
	}
	if p.rob.FlushedThisCycle() {
		p.mispredicts++
		p.InvokeHook(sim.HookCtx{Domain: p, Pos: HookPosFlush, Item: p.harness.Flush})
	}
	if p.rob.Halted() {
		p.halted = true
		p.output = uint8(p.rf.Reg(10))
	}
	return nil
}

// Run simulates until the program halts or maxCycles elapse.
func (p *Processor) Run(maxCycles uint64) (uint8, error) {
	for !p.halted {
		if maxCycles > 0 && p.cycles >= maxCycles {
			return 0, fmt.Errorf("no halt within %d cycles", maxCycles)
		}
		if err := p.Tick(); err != nil {
			return 0, err
		}
	}
	return p.output, nil
}

// Stats returns the aggregated core statistics.
func (p *Processor) Stats() Statistics {
	ps := p.pred.Stats()
	return Statistics{
		Cycles:              p.cycles,
		InstructionsRetired: p.retired,
		Branches:            p.branches,
		Mispredictions:      p.mispredicts,
		LoadsForwarded:      p.lsb.Stats().LoadsForwarded,
		MemoryTransactions:  p.miu.Transactions(),
		Predictions:         ps.Predictions,
		TargetHits:          ps.TargetHits,
		TargetMisses:        ps.TargetMisses,
	}
}
