package ooo

import (
	"github.com/sarchlab/rv32sim/emu"
	"github.com/sarchlab/rv32sim/insts"
)

type aluState struct {
	holding bool
	result  CDBMessage
}

// ALU executes one reservation station entry per issue and offers the
// result on the CDB until the arbiter takes it. Address-generation
// entries produce an effective-address broadcast that only the LSB
// consumes; control entries carry the resolved next PC.
type ALU struct {
	h   *Harness
	alu *emu.ALU

	cur, next aluState
}

// NewALU creates an execution unit.
func NewALU(h *Harness) *ALU {
	return &ALU{h: h, alu: emu.NewALU()}
}

// Name returns the module name.
func (a *ALU) Name() string { return "ALU" }

// Combinational evaluates one settle pass.
func (a *ALU) Combinational() (bool, error) {
	a.next = a.cur

	var offer CDBMessage
	if a.cur.holding {
		offer = a.cur.result
	}
	canAccept := !a.cur.holding

	if a.h.Flush.Valid {
		a.next = aluState{}
	} else {
		if a.cur.holding && a.h.ALUOfferTaken {
			a.next = aluState{}
		}
		if iss := a.h.ALUIssue; iss.Valid && !a.cur.holding {
			a.next.holding = true
			a.next.result = a.execute(iss.Entry)
		}
	}

	changed := setWire(&a.h.ALUOffer, offer)
	changed = setWire(&a.h.ALUCanAccept, canAccept) || changed
	return changed, nil
}

func (a *ALU) execute(e RSEntry) CDBMessage {
	msg := CDBMessage{Valid: true, ROBIndex: e.Dest}

	switch {
	case e.EffAddr:
		msg.EffAddr = true
		msg.Value = e.Vj + uint32(e.Imm)
	case e.IsBranch:
		msg.HasNextPC = true
		msg.Taken = a.alu.BranchTaken(e.Op, e.Vj, e.Vk)
		if msg.Taken {
			msg.NextPC = e.PC + uint32(e.Imm)
		} else {
			msg.NextPC = e.PC + 4
		}
	case e.IsJAL:
		msg.Value = e.PC + 4
		msg.HasNextPC = true
		msg.Taken = true
		msg.NextPC = e.PC + uint32(e.Imm)
	case e.IsJALR:
		msg.Value = e.PC + 4
		msg.HasNextPC = true
		msg.Taken = true
		msg.NextPC = (e.Vj + uint32(e.Imm)) &^ 1
	case e.Op == insts.OpLUI:
		msg.Value = uint32(e.Imm)
	case e.Op == insts.OpAUIPC:
		msg.Value = e.PC + uint32(e.Imm)
	default:
		msg.Value = a.alu.Compute(e.Op, e.Vj, e.Vk)
	}
	return msg
}

// Commit applies the staged state.
func (a *ALU) Commit() error {
	a.cur = a.next
	return nil
}
