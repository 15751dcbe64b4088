// Package core provides the cycle-accurate CPU core model.
// It wraps the out-of-order machinery to provide a high-level interface.
package core

import (
	"io"

	"github.com/sarchlab/akita/v4/sim"
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/loader"
	"github.com/sarchlab/rv32sim/timing/ooo"
)

// Core represents a cycle-accurate CPU core.
// It wraps the out-of-order processor and provides a simple interface
// for loading programs and running simulations.
type Core struct {
	// Processor is the underlying out-of-order core.
	Processor *ooo.Processor

	memory *emu.Memory
}

// NewCore creates a new Core over the given memory.
func NewCore(memory *emu.Memory, opts ...ooo.Option) *Core {
	return &Core{
		Processor: ooo.NewProcessor(memory, opts...),
		memory:    memory,
	}
}

// LoadHex reads a hex image from r into the core's memory.
func (c *Core) LoadHex(r io.Reader) error {
	img, err := loader.Parse(r)
	if err != nil {
		return err
	}
	return img.ApplyTo(c.memory)
}

// AcceptHook registers a hook on the processor.
func (c *Core) AcceptHook(hook sim.Hook) {
	c.Processor.AcceptHook(hook)
}

// Tick executes one cycle.
func (c *Core) Tick() error {
	return c.Processor.Tick()
}

// Halted returns true if the core has halted.
func (c *Core) Halted() bool {
	return c.Processor.Halted()
}

// Output returns the program output, valid once halted.
func (c *Core) Output() uint8 {
	return c.Processor.Output()
}

// Run executes the core until it halts or maxCycles elapse.
// Returns the program output.
func (c *Core) Run(maxCycles uint64) (uint8, error) {
	return c.Processor.Run(maxCycles)
}

// Stats returns performance statistics for the core.
func (c *Core) Stats() ooo.Statistics {
	return c.Processor.Stats()
}
