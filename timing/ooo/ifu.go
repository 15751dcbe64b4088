package ooo

import "github.com/sarchlab/rv32sim/insts"

type ifuSlot struct {
	word       uint32
	pc         uint32
	predNextPC uint32
	predReady  bool
}

type ifuState struct {
	pc    uint32
	queue []ifuSlot

	fetchPending bool
	fetchAddr    uint32

	predPending bool
	predPC      uint32
	predJALR    bool
}

func (s ifuState) clone() ifuState {
	c := s
	c.queue = append([]ifuSlot(nil), s.queue...)
	return c
}

// IFU fetches instruction words through the MIU and keeps a small queue
// of them for the dispatch unit. Every queued word carries a predicted
// next PC: sequential words and JALs are predicted locally, while
// conditional branches and JALRs go through the predictor, stalling
// fetch until the reply arrives. A flush empties the queue and restarts
// fetch at the flush target.
type IFU struct {
	h        *Harness
	dec      *insts.Decoder
	capacity int

	cur, next ifuState
}

// NewIFU creates a fetch unit starting at PC 0.
func NewIFU(h *Harness, capacity int) *IFU {
	return &IFU{h: h, dec: insts.NewDecoder(), capacity: capacity}
}

// Name returns the module name.
func (u *IFU) Name() string { return "IFU" }

// Combinational evaluates one settle pass.
func (u *IFU) Combinational() (bool, error) {
	u.next = u.cur.clone()

	fetchOut := FetchRequest{Valid: u.cur.fetchPending, Addr: u.cur.fetchAddr}
	predOut := PredRequest{Valid: u.cur.predPending, PC: u.cur.predPC, JALR: u.cur.predJALR}

	var fetched FetchedInst
	if len(u.cur.queue) > 0 && u.cur.queue[0].predReady {
		head := u.cur.queue[0]
		fetched = FetchedInst{Valid: true, Word: head.word, PC: head.pc, PredNextPC: head.predNextPC}
	}

	if u.h.Flush.Valid {
		u.next = ifuState{pc: u.h.Flush.Target}
	} else {
		if fetched.Valid && u.h.TakeFetched {
			u.next.queue = u.next.queue[1:]
		}
		u.absorbFetch()
		u.absorbPrediction()
		u.startFetch()
	}

	changed := setWire(&u.h.FetchReq, fetchOut)
	changed = setWire(&u.h.PredReq, predOut) || changed
	changed = setWire(&u.h.Fetched, fetched) || changed
	return changed, nil
}

func (u *IFU) absorbFetch() {
	reply := u.h.FetchReply
	if !u.cur.fetchPending || !reply.Valid || reply.Addr != u.cur.fetchAddr {
		return
	}
	u.next.fetchPending = false

	slot := ifuSlot{word: reply.Word, pc: u.cur.fetchAddr}
	inst := u.dec.Decode(reply.Word)
	switch {
	case inst.IsJAL():
		slot.predNextPC = slot.pc + uint32(inst.Imm)
		slot.predReady = true
		u.next.pc = slot.predNextPC
	case inst.IsBranch() || inst.IsJALR():
		// Fetch stalls here; the slot resolves when the prediction
		// arrives.
		u.next.predPending = true
		u.next.predPC = slot.pc
		u.next.predJALR = inst.IsJALR()
	default:
		slot.predNextPC = slot.pc + 4
		slot.predReady = true
		u.next.pc = slot.predNextPC
	}
	u.next.queue = append(u.next.queue, slot)
}

func (u *IFU) absorbPrediction() {
	reply := u.h.PredReply
	if !u.cur.predPending || !reply.Valid || reply.PC != u.cur.predPC {
		return
	}
	u.next.predPending = false

	// A taken prediction with no cached target falls back to the
	// sequential path.
	target := u.cur.predPC + 4
	if u.cur.predJALR {
		if reply.TargetKnown {
			target = reply.Target
		}
	} else if reply.Taken && reply.TargetKnown {
		target = reply.Target
	}

	last := len(u.next.queue) - 1
	u.next.queue[last].predNextPC = target
	u.next.queue[last].predReady = true
	u.next.pc = target
}

func (u *IFU) startFetch() {
	if u.next.fetchPending || u.next.predPending {
		return
	}
	if len(u.next.queue) >= u.capacity {
		return
	}
	u.next.fetchPending = true
	u.next.fetchAddr = u.next.pc
}

// Commit applies the staged state.
func (u *IFU) Commit() error {
	u.cur = u.next
	return nil
}
