// Package emu provides functional RV32I emulation.
package emu

import "github.com/sarchlab/rv32sim/insts"

// ExecResult is the outcome of executing one non-memory instruction.
type ExecResult struct {
	// Value is the register write value (the link address for JAL/JALR).
	Value uint32
	// NextPC is the architecturally correct next program counter.
	NextPC uint32
	// Taken reports whether a conditional branch was taken.
	Taken bool
}

// ALU implements RV32I integer computation, branch resolution, and
// effective address generation. It is shared by the functional emulator
// and the cycle-accurate core.
type ALU struct{}

// NewALU creates a new ALU.
func NewALU() *ALU {
	return &ALU{}
}

// Compute evaluates the pure integer operation for op on two operands.
// It covers the register-register group and, with y bound to the
// immediate, the register-immediate group.
func (a *ALU) Compute(op insts.Op, x, y uint32) uint32 {
	switch op {
	case insts.OpADD, insts.OpADDI:
		return x + y
	case insts.OpSUB:
		return x - y
	case insts.OpAND, insts.OpANDI:
		return x & y
	case insts.OpOR, insts.OpORI:
		return x | y
	case insts.OpXOR, insts.OpXORI:
		return x ^ y
	case insts.OpSLL, insts.OpSLLI:
		return x << (y & 0x1F)
	case insts.OpSRL, insts.OpSRLI:
		return x >> (y & 0x1F)
	case insts.OpSRA, insts.OpSRAI:
		return uint32(int32(x) >> (y & 0x1F))
	case insts.OpSLT, insts.OpSLTI:
		if int32(x) < int32(y) {
			return 1
		}
		return 0
	case insts.OpSLTU, insts.OpSLTIU:
		if x < y {
			return 1
		}
		return 0
	}
	return 0
}

// BranchTaken evaluates a conditional branch.
func (a *ALU) BranchTaken(op insts.Op, x, y uint32) bool {
	switch op {
	case insts.OpBEQ:
		return x == y
	case insts.OpBNE:
		return x != y
	case insts.OpBLT:
		return int32(x) < int32(y)
	case insts.OpBGE:
		return int32(x) >= int32(y)
	case insts.OpBLTU:
		return x < y
	case insts.OpBGEU:
		return x >= y
	}
	return false
}

// EffectiveAddress computes the memory address for a load or store.
func (a *ALU) EffectiveAddress(inst *insts.Instruction, base uint32) uint32 {
	return base + uint32(inst.Imm)
}

// Execute runs one non-memory instruction. rs1 and rs2 are the resolved
// source operand values; pc is the instruction's own address.
func (a *ALU) Execute(inst *insts.Instruction, rs1, rs2, pc uint32) ExecResult {
	res := ExecResult{NextPC: pc + 4}

	switch {
	case inst.Op == insts.OpLUI:
		res.Value = uint32(inst.Imm)
	case inst.Op == insts.OpAUIPC:
		res.Value = pc + uint32(inst.Imm)
	case inst.IsJAL():
		res.Value = pc + 4
		res.NextPC = pc + uint32(inst.Imm)
	case inst.IsJALR():
		res.Value = pc + 4
		res.NextPC = (rs1 + uint32(inst.Imm)) &^ 1
	case inst.IsBranch():
		res.Taken = a.BranchTaken(inst.Op, rs1, rs2)
		if res.Taken {
			res.NextPC = pc + uint32(inst.Imm)
		}
	case inst.Format == insts.FormatI:
		res.Value = a.Compute(inst.Op, rs1, uint32(inst.Imm))
	default:
		res.Value = a.Compute(inst.Op, rs1, rs2)
	}

	return res
}
