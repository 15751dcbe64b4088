package ooo

import (
	"errors"
	"fmt"

	"github.com/sarchlab/rv32sim/emu"
)

type lsbEntry struct {
	valid    bool
	isStore  bool
	width    uint8
	unsigned bool
	dest     uint8

	addrReady bool
	addr      uint32

	dataReady  bool
	data       uint32
	hasDataTag bool
	dataTag    uint8

	committed   bool
	robNotified bool
	finished    bool
}

func (e *lsbEntry) overlaps(addr uint32, width uint8) bool {
	return e.addr < addr+uint32(width) && addr < e.addr+uint32(e.width)
}

type lsbFlight uint8

const (
	flightNone lsbFlight = iota
	flightLoad
	flightStore
)

type lsbState struct {
	entries []lsbEntry
	head    int
	count   int

	inFlight lsbFlight
	flIndex  int
	memReq   MemRequest
}

func (s lsbState) clone() lsbState {
	c := s
	c.entries = append([]lsbEntry(nil), s.entries...)
	return c
}

type lsbAction uint8

const (
	lsbStall lsbAction = iota
	lsbIssue
	lsbForward
)

// LSBStats holds statistics for the load/store buffer.
type LSBStats struct {
	// LoadsForwarded counts loads satisfied by store-to-load forwarding
	// instead of a memory read.
	LoadsForwarded uint64
}

// LSB is the load/store buffer, an ordered FIFO of in-flight memory
// operations. Addresses arrive through the ALU's effective-address
// broadcasts; store data arrives at dispatch, over the CDB, or from the
// retirement bus. The oldest ready load either forwards from the
// nearest older store with the exact same address and width, stalls
// behind an unresolved or overlapping older store, or reads through the
// MIU. Stores reach memory only after the ROB retires them; a flush
// discards everything except committed stores still waiting to drain.
type LSB struct {
	h        *Harness
	capacity int

	cur, next lsbState

	forwardedNow bool
	stats        LSBStats
}

// NewLSB creates a load/store buffer with the given capacity.
func NewLSB(h *Harness, capacity int) *LSB {
	return &LSB{h: h, capacity: capacity, cur: lsbState{entries: make([]lsbEntry, capacity)}}
}

// Name returns the module name.
func (l *LSB) Name() string { return "LSB" }

// Stats returns the buffer statistics.
func (l *LSB) Stats() LSBStats { return l.stats }

// Combinational evaluates one settle pass.
func (l *LSB) Combinational() (bool, error) {
	l.next = l.cur.clone()
	l.forwardedNow = false

	canAccept := l.cur.count < l.capacity
	storeReady := l.storeReadyOutput()
	offer := l.offerOutput()

	if l.h.Flush.Valid {
		l.flush()
	} else {
		l.fillFromBuses()
		// A retiring store is checked against the memory bounds now, since
		// it may drain to the MIU only after the halt word has retired.
		if ret := l.h.Retire; ret.Valid && ret.IsStore {
			for k := 0; k < l.cur.count; k++ {
				e := &l.next.entries[l.at(k)]
				if e.valid && e.isStore && !e.finished && e.dest == ret.ROBIndex &&
					uint64(e.addr)+uint64(e.width) > emu.MemorySize {
					return false, fmt.Errorf("out-of-range memory access at 0x%08X", e.addr)
				}
			}
		}
		l.absorbMemReply()
		l.popFinished()
		if err := l.acceptDispatch(); err != nil {
			return false, err
		}
		if l.next.inFlight == flightNone {
			l.initiate()
		}
	}

	changed := setWire(&l.h.LSBCanAccept, canAccept)
	changed = setWire(&l.h.StoreReady, storeReady) || changed
	changed = setWire(&l.h.LSBOffer, offer) || changed
	changed = setWire(&l.h.MemReq, l.cur.memReq) || changed
	return changed, nil
}

func (l *LSB) at(k int) int { return (l.cur.head + k) % l.capacity }

// storeReadyOutput reports the oldest fully resolved store the ROB has
// not been told about yet.
func (l *LSB) storeReadyOutput() StoreReady {
	for k := 0; k < l.cur.count; k++ {
		e := &l.cur.entries[l.at(k)]
		if !e.valid || !e.isStore || e.finished || e.robNotified {
			continue
		}
		if e.addrReady && e.dataReady {
			l.next.entries[l.at(k)].robNotified = true
			return StoreReady{Valid: true, ROBIndex: e.dest}
		}
	}
	return StoreReady{}
}

// offerOutput produces this cycle's CDB offer: a load completing from
// memory wins over a forwarding load.
func (l *LSB) offerOutput() CDBMessage {
	if l.cur.inFlight == flightLoad && l.h.MemReply.Valid {
		e := &l.cur.entries[l.cur.flIndex]
		return CDBMessage{
			Valid:    true,
			ROBIndex: e.dest,
			Value:    loadValue(l.h.MemReply.Data, e.width, e.unsigned),
		}
	}

	if k, value, ok := l.forwardCandidate(); ok {
		idx := l.at(k)
		e := &l.cur.entries[idx]
		l.next.entries[idx].finished = true
		l.forwardedNow = true
		return CDBMessage{
			Valid:    true,
			ROBIndex: e.dest,
			Value:    loadValue(value, e.width, e.unsigned),
		}
	}
	return CDBMessage{}
}

// forwardCandidate finds the oldest unfinished load whose dependence
// scan resolves to a forward, returning the store data to forward.
func (l *LSB) forwardCandidate() (int, uint32, bool) {
	k, ok := l.oldestReadyLoad(&l.cur)
	if !ok {
		return 0, 0, false
	}
	action, value := l.classifyLoad(&l.cur, k)
	if action != lsbForward {
		return 0, 0, false
	}
	return k, value, true
}

// oldestReadyLoad finds the oldest unfinished load with a resolved
// address. Loads complete in order relative to each other.
func (l *LSB) oldestReadyLoad(s *lsbState) (int, bool) {
	for k := 0; k < s.count; k++ {
		e := &s.entries[(s.head+k)%l.capacity]
		if !e.valid || e.isStore || e.finished {
			continue
		}
		if s.inFlight == flightLoad && (s.head+k)%l.capacity == s.flIndex {
			return 0, false
		}
		if !e.addrReady {
			return 0, false
		}
		return k, true
	}
	return 0, false
}

// classifyLoad scans the stores older than the load at offset k, nearest
// first. An older store with an unresolved address stalls the load; the
// nearest overlapping store forwards on an exact address and width match
// with ready data and stalls the load otherwise.
func (l *LSB) classifyLoad(s *lsbState, k int) (lsbAction, uint32) {
	load := &s.entries[(s.head+k)%l.capacity]
	for j := k - 1; j >= 0; j-- {
		e := &s.entries[(s.head+j)%l.capacity]
		if !e.valid || !e.isStore || e.finished {
			continue
		}
		if !e.addrReady {
			return lsbStall, 0
		}
		if !e.overlaps(load.addr, load.width) {
			continue
		}
		if e.addr == load.addr && e.width == load.width && e.dataReady {
			return lsbForward, e.data
		}
		return lsbStall, 0
	}
	return lsbIssue, 0
}

func (l *LSB) flush() {
	kept := make([]lsbEntry, 0, l.capacity)
	for k := 0; k < l.cur.count; k++ {
		e := l.cur.entries[l.at(k)]
		if e.valid && e.isStore && e.committed && !e.finished {
			kept = append(kept, e)
		}
	}
	l.next = lsbState{entries: make([]lsbEntry, l.capacity)}
	copy(l.next.entries, kept)
	l.next.count = len(kept)
	l.forwardedNow = false
}

// fillFromBuses absorbs address and store-data broadcasts, and marks
// stores committed as they retire.
func (l *LSB) fillFromBuses() {
	if msg := l.h.CDB; msg.Valid {
		for k := 0; k < l.cur.count; k++ {
			e := &l.next.entries[l.at(k)]
			if !e.valid || e.finished {
				continue
			}
			if msg.EffAddr {
				if e.dest == msg.ROBIndex && !e.addrReady {
					e.addr = msg.Value
					e.addrReady = true
				}
			} else if e.isStore && e.hasDataTag && !e.dataReady && e.dataTag == msg.ROBIndex {
				e.data = msg.Value
				e.dataReady = true
			}
		}
	}

	if ret := l.h.Retire; ret.Valid {
		for k := 0; k < l.cur.count; k++ {
			e := &l.next.entries[l.at(k)]
			if !e.valid || e.finished {
				continue
			}
			if ret.WritesRF && e.isStore && e.hasDataTag && !e.dataReady && e.dataTag == ret.ROBIndex {
				e.data = ret.Value
				e.dataReady = true
			}
			if ret.IsStore && e.isStore && e.dest == ret.ROBIndex {
				e.committed = true
			}
		}
	}
}

func (l *LSB) absorbMemReply() {
	if l.cur.inFlight == flightNone || !l.h.MemReply.Valid {
		return
	}
	l.next.entries[l.cur.flIndex].finished = true
	l.next.inFlight = flightNone
	l.next.memReq = MemRequest{}
}

// popFinished retires at most one finished entry from the head per
// cycle.
func (l *LSB) popFinished() {
	if l.next.count == 0 {
		return
	}
	head := l.next.head
	if e := &l.next.entries[head]; e.valid && e.finished {
		l.next.entries[head] = lsbEntry{}
		l.next.head = (head + 1) % l.capacity
		l.next.count--
	}
}

func (l *LSB) acceptDispatch() error {
	disp := l.h.LSBDispatch
	if !disp.Valid {
		return nil
	}
	if l.next.count >= l.capacity {
		return errors.New("dispatch into a full load/store buffer")
	}

	a := disp.Entry
	e := lsbEntry{
		valid:      true,
		isStore:    a.IsStore,
		width:      a.Width,
		unsigned:   a.Unsigned,
		dest:       a.Dest,
		dataReady:  a.DataReady,
		data:       a.Data,
		hasDataTag: a.HasDataTag,
		dataTag:    a.DataTag,
	}
	// The data producer may broadcast or retire in this very cycle.
	if e.hasDataTag && !e.dataReady {
		if msg := l.h.CDB; msg.Valid && !msg.EffAddr && msg.ROBIndex == e.dataTag {
			e.data = msg.Value
			e.dataReady = true
		} else if ret := l.h.Retire; ret.Valid && ret.WritesRF && ret.ROBIndex == e.dataTag {
			e.data = ret.Value
			e.dataReady = true
		}
	}

	tail := (l.next.head + l.next.count) % l.capacity
	l.next.entries[tail] = e
	l.next.count++
	return nil
}

// initiate picks the next memory transaction. An issueable load wins
// over a committed store; the dependence scan already keeps a load
// behind any older store it conflicts with.
func (l *LSB) initiate() {
	storeAt := -1
	for k := 0; k < l.next.count; k++ {
		e := &l.next.entries[(l.next.head+k)%l.capacity]
		if !e.valid || !e.isStore || e.finished {
			continue
		}
		if e.committed && e.addrReady && e.dataReady {
			storeAt = k
		}
		// Only the oldest unfinished store may drain.
		break
	}

	loadAt := -1
	if k, ok := l.oldestReadyLoad(&l.next); ok {
		if action, _ := l.classifyLoad(&l.next, k); action == lsbIssue {
			loadAt = k
		}
	}

	switch {
	case loadAt >= 0:
		idx := (l.next.head + loadAt) % l.capacity
		e := &l.next.entries[idx]
		l.next.inFlight = flightLoad
		l.next.flIndex = idx
		l.next.memReq = MemRequest{Valid: true, Addr: e.addr, Width: e.width}
	case storeAt >= 0:
		idx := (l.next.head + storeAt) % l.capacity
		e := &l.next.entries[idx]
		l.next.inFlight = flightStore
		l.next.flIndex = idx
		l.next.memReq = MemRequest{Valid: true, Store: true, Addr: e.addr, Width: e.width, Data: e.data}
	}
}

func loadValue(raw uint32, width uint8, unsigned bool) uint32 {
	switch width {
	case 1:
		raw &= 0xFF
	case 2:
		raw &= 0xFFFF
	}
	if !unsigned {
		raw = emu.SignExtend(raw, width)
	}
	return raw
}

// Commit applies the staged state.
func (l *LSB) Commit() error {
	if l.forwardedNow {
		l.stats.LoadsForwarded++
	}
	l.cur = l.next
	return nil
}
