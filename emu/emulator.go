// Package emu provides functional RV32I emulation.
package emu

import (
	"fmt"

	"github.com/sarchlab/rv32sim/insts"
)

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true if the fetched word was the halt word.
	Halted bool

	// Output is the program result (x10 & 0xFF) if Halted is true.
	Output uint8

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes RV32I instructions functionally, one per step. It
// serves as the architectural reference for the cycle-accurate core.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder
	alu     *ALU

	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithMemory uses an existing memory instead of a fresh one.
func WithMemory(memory *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = memory
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
func WithMaxInstructions(limit uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = limit
	}
}

// NewEmulator creates an emulator with a zeroed register file and, unless
// overridden, a fresh memory.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		regFile: &RegFile{},
		memory:  NewMemory(),
		decoder: insts.NewDecoder(),
		alu:     NewALU(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// InstructionCount returns the number of instructions executed so far.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Step fetches, decodes, and executes one instruction. The halt word
// stops execution without taking architectural effect.
func (e *Emulator) Step() StepResult {
	pc := e.regFile.PC
	if err := e.memory.CheckAccess(pc, 4); err != nil {
		return StepResult{Err: fmt.Errorf("fetch at pc 0x%08X: %w", pc, err)}
	}
	word := e.memory.Read32(pc)

	if word == insts.HaltWord {
		return StepResult{
			Halted: true,
			Output: uint8(e.regFile.ReadReg(10)),
		}
	}

	inst := e.decoder.Decode(word)
	if inst.Op == insts.OpUnknown {
		return StepResult{
			Err: fmt.Errorf("illegal instruction 0x%08X at pc 0x%08X", word, pc),
		}
	}

	e.instructionCount++

	switch {
	case inst.IsLoad():
		addr := e.alu.EffectiveAddress(inst, e.regFile.ReadReg(inst.Rs1))
		if err := e.memory.CheckAccess(addr, inst.MemWidth()); err != nil {
			return StepResult{Err: err}
		}
		value := e.memory.ReadWidth(addr, inst.MemWidth())
		if !inst.MemUnsigned() {
			value = SignExtend(value, inst.MemWidth())
		}
		e.regFile.WriteReg(inst.Rd, value)
		e.regFile.PC = pc + 4

	case inst.IsStore():
		addr := e.alu.EffectiveAddress(inst, e.regFile.ReadReg(inst.Rs1))
		if err := e.memory.CheckAccess(addr, inst.MemWidth()); err != nil {
			return StepResult{Err: err}
		}
		e.memory.WriteWidth(addr, inst.MemWidth(), e.regFile.ReadReg(inst.Rs2))
		e.regFile.PC = pc + 4

	default:
		res := e.alu.Execute(inst,
			e.regFile.ReadReg(inst.Rs1), e.regFile.ReadReg(inst.Rs2), pc)
		if inst.WritesRF() {
			e.regFile.WriteReg(inst.Rd, res.Value)
		}
		e.regFile.PC = res.NextPC
	}

	return StepResult{}
}

// SignExtend sign-extends the low width bytes of value to 32 bits.
func SignExtend(value uint32, width uint8) uint32 {
	switch width {
	case 1:
		return uint32(int32(int8(value)))
	case 2:
		return uint32(int32(int16(value)))
	}
	return value
}

// Run steps until the program halts or the instruction limit is reached.
// It returns the program output (x10 & 0xFF).
func (e *Emulator) Run() (uint8, error) {
	for {
		if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
			return 0, fmt.Errorf("instruction limit reached after %d instructions",
				e.instructionCount)
		}

		result := e.Step()
		if result.Err != nil {
			return 0, result.Err
		}
		if result.Halted {
			return result.Output, nil
		}
	}
}
