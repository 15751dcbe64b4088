package ooo

import "github.com/sarchlab/rv32sim/insts"

type duPhase uint8

const (
	duIdle duPhase = iota
	duAlloc
	duRead
	duWaitReply
	duWaitOperands
	duDispatch
)

type duOperand struct {
	value   uint32
	tag     uint8
	pending bool
}

type duState struct {
	phase duPhase

	inst       insts.Instruction
	word       uint32
	pc         uint32
	predNextPC uint32
	robIndex   uint8

	// preDone marks words that allocate pre-completed and never
	// dispatch: the halt word and undecodable words.
	preDone bool

	need1, need2 bool
	src1, src2   duOperand
}

// DU is the dispatch unit. It drains the IFU queue one instruction at a
// time: decode, allocate a ROB slot, read operands from the register
// file, wait out pending producer tags, then hand the instruction to the
// reservation stations (and, for memory operations, the load/store
// buffer in the same cycle). A store's data operand may dispatch as an
// unresolved tag; everything else dispatches with resolved values.
// While waiting, the DU watches both the CDB and the retirement bus so
// a producer that completes or retires mid-wait still delivers its
// value.
type DU struct {
	h   *Harness
	dec *insts.Decoder

	cur, next duState
}

// NewDU creates a dispatch unit.
func NewDU(h *Harness) *DU {
	return &DU{h: h, dec: insts.NewDecoder()}
}

// Name returns the module name.
func (d *DU) Name() string { return "DU" }

// Combinational evaluates one settle pass.
func (d *DU) Combinational() (bool, error) {
	d.next = d.cur

	var take bool
	var allocReq AllocRequest
	var readReq RFReadRequest
	var rsOut RSDispatch
	var lsbOut LSBDispatch
	var tagOut TagSet

	if d.h.Flush.Valid {
		d.next = duState{}
	} else {
		switch d.cur.phase {
		case duIdle:
			if d.h.Fetched.Valid {
				take = true
				d.decode(d.h.Fetched)
			}

		case duAlloc:
			allocReq = AllocRequest{Valid: true, Entry: d.allocation()}
			if d.h.AllocReply.Valid {
				d.next.robIndex = d.h.AllocReply.Index
				switch {
				case d.cur.preDone:
					d.next.phase = duIdle
				case !d.cur.need1 && !d.cur.need2:
					d.next.phase = duDispatch
				default:
					d.next.phase = duRead
				}
			}

		case duRead:
			readReq = RFReadRequest{
				Valid: true,
				Reg1:  d.cur.inst.Rs1,
				Use2:  d.cur.need2,
				Reg2:  d.cur.inst.Rs2,
			}
			d.next.phase = duWaitReply

		case duWaitReply:
			if rep := d.h.RFReadReply; rep.Valid {
				if d.cur.need1 {
					d.next.src1 = readOperand(rep.Val1, rep.Tag1, rep.Tag1Valid)
				}
				if d.cur.need2 {
					d.next.src2 = readOperand(rep.Val2, rep.Tag2, rep.Tag2Valid)
				}
				d.snoop()
				d.advanceWait()
			}

		case duWaitOperands:
			d.snoop()
			d.advanceWait()

		case duDispatch:
			rsOut, lsbOut = d.dispatchOutputs()
			accepted := d.h.RSCanAccept
			if lsbOut.Valid {
				accepted = accepted && d.h.LSBCanAccept
			}
			if !accepted {
				rsOut = RSDispatch{}
				lsbOut = LSBDispatch{}
				d.snoop()
			} else {
				if d.cur.inst.WritesRF() && d.cur.inst.Rd != 0 {
					tagOut = TagSet{Valid: true, Reg: d.cur.inst.Rd, Index: d.cur.robIndex}
				}
				d.next.phase = duIdle
			}
		}
	}

	changed := setWire(&d.h.TakeFetched, take)
	changed = setWire(&d.h.AllocReq, allocReq) || changed
	changed = setWire(&d.h.RFReadReq, readReq) || changed
	changed = setWire(&d.h.RSDispatch, rsOut) || changed
	changed = setWire(&d.h.LSBDispatch, lsbOut) || changed
	changed = setWire(&d.h.TagSet, tagOut) || changed
	return changed, nil
}

func readOperand(value uint32, tag uint8, tagged bool) duOperand {
	if tagged {
		return duOperand{tag: tag, pending: true}
	}
	return duOperand{value: value}
}

func (d *DU) decode(f FetchedInst) {
	d.next = duState{
		phase:      duAlloc,
		word:       f.Word,
		pc:         f.PC,
		predNextPC: f.PredNextPC,
	}
	inst := d.dec.Decode(f.Word)
	if f.Word == insts.HaltWord || inst.Op == insts.OpUnknown {
		d.next.preDone = true
		return
	}
	d.next.inst = *inst
	d.next.need1 = inst.ReadsRs1() && inst.Rs1 != 0
	d.next.need2 = inst.ReadsRs2() && inst.Rs2 != 0
}

func (d *DU) allocation() ROBAllocation {
	a := ROBAllocation{
		PC:         d.cur.pc,
		Word:       d.cur.word,
		PredNextPC: d.cur.predNextPC,
		Done:       d.cur.preDone,
	}
	if d.cur.preDone {
		return a
	}
	inst := d.cur.inst
	a.Dest = inst.Rd
	a.WritesRF = inst.WritesRF() && inst.Rd != 0
	a.IsStore = inst.IsStore()
	a.IsLoad = inst.IsLoad()
	a.IsBranch = inst.IsBranch()
	a.IsJALR = inst.IsJALR()
	a.IsControl = inst.IsControl()
	return a
}

// snoop fills pending source tags from this cycle's CDB broadcast and
// retirement.
func (d *DU) snoop() {
	d.snoopOperand(&d.next.src1)
	d.snoopOperand(&d.next.src2)
}

func (d *DU) snoopOperand(o *duOperand) {
	if !o.pending {
		return
	}
	if msg := d.h.CDB; msg.Valid && !msg.EffAddr && msg.ROBIndex == o.tag {
		o.value = msg.Value
		o.pending = false
		return
	}
	if ret := d.h.Retire; ret.Valid && ret.WritesRF && ret.ROBIndex == o.tag {
		o.value = ret.Value
		o.pending = false
	}
}

func (d *DU) advanceWait() {
	// A store's data operand may dispatch unresolved; its tag rides to
	// the load/store buffer instead.
	ready := !d.next.src1.pending &&
		(!d.next.src2.pending || d.cur.inst.IsStore())
	if ready {
		d.next.phase = duDispatch
	} else {
		d.next.phase = duWaitOperands
	}
}

func (d *DU) dispatchOutputs() (RSDispatch, LSBDispatch) {
	inst := d.cur.inst

	entry := RSEntry{
		Op:   inst.Op,
		Vj:   d.cur.src1.value,
		Imm:  inst.Imm,
		PC:   d.cur.pc,
		Dest: d.cur.robIndex,
	}
	switch {
	case inst.IsMem():
		entry.EffAddr = true
	case inst.IsBranch():
		entry.IsBranch = true
		entry.Vk = d.cur.src2.value
	case inst.IsJAL():
		entry.IsJAL = true
	case inst.IsJALR():
		entry.IsJALR = true
	case inst.Format == insts.FormatI:
		entry.Vk = uint32(inst.Imm)
	default:
		entry.Vk = d.cur.src2.value
	}
	rsOut := RSDispatch{Valid: true, Entry: entry}

	var lsbOut LSBDispatch
	if inst.IsMem() {
		alloc := LSBAllocation{
			IsStore:  inst.IsStore(),
			Width:    inst.MemWidth(),
			Unsigned: inst.MemUnsigned(),
			Dest:     d.cur.robIndex,
		}
		if inst.IsStore() {
			if d.cur.src2.pending {
				alloc.HasDataTag = true
				alloc.DataTag = d.cur.src2.tag
			} else {
				alloc.DataReady = true
				alloc.Data = d.cur.src2.value
			}
		}
		lsbOut = LSBDispatch{Valid: true, Entry: alloc}
	}
	return rsOut, lsbOut
}

// Commit applies the staged state.
func (d *DU) Commit() error {
	d.cur = d.next
	return nil
}
