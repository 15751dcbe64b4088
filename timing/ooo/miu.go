package ooo

import "github.com/sarchlab/rv32sim/emu"

type miuPhase uint8

const (
	miuIdle miuPhase = iota
	miuLoad
	miuStore
	miuFetch
)

type miuState struct {
	phase   miuPhase
	counter uint8
	addr    uint32
	width   uint8
	data    uint32
}

// MIU is the memory interface unit. It serializes all RAM traffic: data
// loads and stores from the LSB and instruction fetches from the IFU.
// Each transaction occupies the unit for a fixed latency; the LSB wins
// arbitration over the IFU. A flush aborts the transaction in flight, so
// an aborted store performs no write and the requester re-sends. An
// out-of-range address is fatal and aborts the simulation.
type MIU struct {
	h       *Harness
	mem     *emu.Memory
	latency uint8

	cur, next miuState
	doWrite   bool

	transactions uint64
}

// NewMIU creates a memory interface unit over mem.
func NewMIU(h *Harness, mem *emu.Memory, latency uint8) *MIU {
	return &MIU{h: h, mem: mem, latency: latency}
}

// Name returns the module name.
func (u *MIU) Name() string { return "MIU" }

// Transactions returns the number of completed memory transactions.
func (u *MIU) Transactions() uint64 { return u.transactions }

// Combinational evaluates one settle pass.
func (u *MIU) Combinational() (bool, error) {
	u.next = u.cur
	u.doWrite = false

	var memReply MemReply
	var fetchReply FetchReply

	switch {
	case u.h.Flush.Valid:
		u.next = miuState{}

	case u.cur.phase == miuIdle:
		switch {
		case u.h.MemReq.Valid:
			if err := u.mem.CheckAccess(u.h.MemReq.Addr, u.h.MemReq.Width); err != nil {
				return false, err
			}
			if u.h.MemReq.Store {
				u.next.phase = miuStore
			} else {
				u.next.phase = miuLoad
			}
			u.next.counter = u.latency
			u.next.addr = u.h.MemReq.Addr
			u.next.width = u.h.MemReq.Width
			u.next.data = u.h.MemReq.Data
		case u.h.FetchReq.Valid:
			if err := u.mem.CheckAccess(u.h.FetchReq.Addr, 4); err != nil {
				return false, err
			}
			u.next.phase = miuFetch
			u.next.counter = u.latency
			u.next.addr = u.h.FetchReq.Addr
		}

	case u.cur.counter > 1:
		u.next.counter = u.cur.counter - 1

	default:
		// Last cycle of the transaction: publish the reply and fall
		// back to idle. The store write lands at commit.
		switch u.cur.phase {
		case miuLoad:
			memReply = MemReply{Valid: true, Data: u.mem.ReadWidth(u.cur.addr, u.cur.width)}
		case miuStore:
			memReply = MemReply{Valid: true}
			u.doWrite = true
		case miuFetch:
			fetchReply = FetchReply{Valid: true, Addr: u.cur.addr, Word: u.mem.Read32(u.cur.addr)}
		}
		u.next = miuState{}
	}

	changed := setWire(&u.h.MemReply, memReply)
	changed = setWire(&u.h.FetchReply, fetchReply) || changed
	return changed, nil
}

// Commit applies the staged state and performs the store write for a
// completing store transaction.
func (u *MIU) Commit() error {
	if u.doWrite {
		u.mem.WriteWidth(u.cur.addr, u.cur.width, u.cur.data)
	}
	if u.cur.phase != miuIdle && u.next.phase == miuIdle && !u.h.Flush.Valid {
		u.transactions++
	}
	u.cur = u.next
	return nil
}
