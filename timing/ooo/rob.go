package ooo

import "github.com/sarchlab/rv32sim/insts"

type robEntry struct {
	valid     bool
	done      bool
	alloc     ROBAllocation
	value     uint32
	nextPC    uint32
	hasNextPC bool
	taken     bool
}

type robState struct {
	entries []robEntry
	head    int
	count   int

	allocPending bool
	allocIndex   uint8

	flushPending bool
	flushTarget  uint32

	halted bool
}

func (s robState) clone() robState {
	c := s
	c.entries = append([]robEntry(nil), s.entries...)
	return c
}

// ROB is the reorder buffer. Instructions enter in program order through
// an allocation handshake with the DU, complete out of order through CDB
// snooping, and retire strictly in order from the head, at most one per
// cycle. A mispredicted control retirement raises the flush wire on the
// following cycle. Retirement precedes allocation within a cycle, so a
// full buffer can retire and allocate in the same cycle.
type ROB struct {
	h        *Harness
	capacity int

	cur, next robState

	retireNow   Retirement
	haltNow     bool
	lastRetire  Retirement
	retiredLast bool
	flushedLast bool
}

// NewROB creates a reorder buffer with the given capacity.
func NewROB(h *Harness, capacity int) *ROB {
	return &ROB{
		h:        h,
		capacity: capacity,
		cur:      robState{entries: make([]robEntry, capacity)},
	}
}

// Name returns the module name.
func (r *ROB) Name() string { return "ROB" }

// Halted reports whether the halt word has retired.
func (r *ROB) Halted() bool { return r.cur.halted }

// RetiredThisCycle returns the retirement committed on the most recent
// cycle, if any.
func (r *ROB) RetiredThisCycle() (Retirement, bool) {
	return r.lastRetire, r.retiredLast
}

// FlushedThisCycle reports whether the most recent cycle was a flush
// cycle.
func (r *ROB) FlushedThisCycle() bool { return r.flushedLast }

// Combinational evaluates one settle pass.
func (r *ROB) Combinational() (bool, error) {
	r.next = r.cur.clone()
	r.retireNow = Retirement{}
	r.haltNow = false

	flushOut := Flush{Valid: r.cur.flushPending, Target: r.cur.flushTarget}
	allocOut := AllocReply{Valid: r.cur.allocPending, Index: r.cur.allocIndex}

	if r.cur.flushPending {
		r.next = robState{entries: make([]robEntry, r.capacity)}
	} else if !r.cur.halted {
		r.absorbCompletions()
		r.computeRetirement()
		r.handleAllocation()
	}

	changed := setWire(&r.h.Flush, flushOut)
	changed = setWire(&r.h.AllocReply, allocOut) || changed
	changed = setWire(&r.h.Retire, r.retireNow) || changed
	return changed, nil
}

func (r *ROB) absorbCompletions() {
	if msg := r.h.CDB; msg.Valid && !msg.EffAddr {
		e := &r.next.entries[int(msg.ROBIndex)%r.capacity]
		if e.valid {
			e.done = true
			e.value = msg.Value
			if msg.HasNextPC {
				e.nextPC = msg.NextPC
				e.hasNextPC = true
				e.taken = msg.Taken
			}
		}
	}

	if sr := r.h.StoreReady; sr.Valid {
		e := &r.next.entries[int(sr.ROBIndex)%r.capacity]
		if e.valid {
			e.done = true
		}
	}
}

func (r *ROB) computeRetirement() {
	if r.cur.count == 0 {
		return
	}
	head := r.cur.entries[r.cur.head]
	if !head.valid || !(head.done || head.alloc.Done) {
		return
	}

	taken := head.hasNextPC && head.nextPC != head.alloc.PC+4
	r.retireNow = Retirement{
		Valid:    true,
		ROBIndex: uint8(r.cur.head),
		PC:       head.alloc.PC,
		Word:     head.alloc.Word,
		Dest:     head.alloc.Dest,
		WritesRF: head.alloc.WritesRF,
		Value:    head.value,
		IsStore:  head.alloc.IsStore,
		IsBranch: head.alloc.IsBranch,
		IsJALR:   head.alloc.IsJALR,
		Taken:    head.taken || taken,
		Target:   head.nextPC,
	}

	if head.alloc.Word == insts.HaltWord {
		// The halt word terminates without architectural effect: its
		// register write is dropped, while the retirement itself is
		// still broadcast and counted.
		r.retireNow.WritesRF = false
		r.haltNow = true
	}

	r.next.entries[r.cur.head] = robEntry{}
	r.next.head = (r.cur.head + 1) % r.capacity
	r.next.count = r.cur.count - 1

	if head.alloc.IsControl && head.hasNextPC && head.nextPC != head.alloc.PredNextPC {
		r.next.flushPending = true
		r.next.flushTarget = head.nextPC
	}
	if r.haltNow {
		r.next.halted = true
	}
}

func (r *ROB) handleAllocation() {
	if r.cur.allocPending {
		if !r.h.AllocReq.Valid {
			r.next.allocPending = false
		}
		return
	}
	if !r.h.AllocReq.Valid || r.next.count >= r.capacity {
		return
	}

	tail := (r.cur.head + r.cur.count) % r.capacity
	e := &r.next.entries[tail]
	e.valid = true
	e.alloc = r.h.AllocReq.Entry
	e.done = false
	r.next.count++
	r.next.allocPending = true
	r.next.allocIndex = uint8(tail)
}

// Commit applies the staged state and records the cycle's retirement
// for observers.
func (r *ROB) Commit() error {
	r.retiredLast = r.retireNow.Valid
	r.lastRetire = r.retireNow
	r.flushedLast = r.cur.flushPending
	r.cur = r.next
	return nil
}
