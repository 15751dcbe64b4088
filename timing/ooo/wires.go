// Package ooo implements a cycle-accurate out-of-order RV32I core using
// Tomasulo's algorithm with a reorder buffer.
//
// The core is modeled as a set of hardware modules connected through a
// wire harness. Each cycle, module combinational logic is re-evaluated
// until every wire is stable, then all modules commit their staged state
// at once. Wire values are plain comparable structs so stabilization is
// detected with a simple equality check.
package ooo

import "github.com/sarchlab/rv32sim/insts"

// MemRequest asks the MIU for one data transaction. The LSB holds the
// request until the reply arrives.
type MemRequest struct {
	Valid bool
	Store bool
	Addr  uint32
	Width uint8
	Data  uint32
}

// MemReply carries the MIU's answer to a data request. For stores it is
// a bare acknowledgment.
type MemReply struct {
	Valid bool
	Data  uint32
}

// FetchRequest asks the MIU for an instruction word. The IFU holds the
// request until the reply arrives.
type FetchRequest struct {
	Valid bool
	Addr  uint32
}

// FetchReply carries a fetched instruction word.
type FetchReply struct {
	Valid bool
	Addr  uint32
	Word  uint32
}

// PredRequest asks the predictor for a prediction. The reply arrives the
// following cycle.
type PredRequest struct {
	Valid bool
	PC    uint32
	JALR  bool
}

// PredReply carries a prediction.
type PredReply struct {
	Valid       bool
	PC          uint32
	Taken       bool
	Target      uint32
	TargetKnown bool
}

// FetchedInst is the IFU queue head offered to the dispatch unit.
type FetchedInst struct {
	Valid      bool
	Word       uint32
	PC         uint32
	PredNextPC uint32
}

// ROBAllocation is the payload of a reorder buffer allocation.
type ROBAllocation struct {
	PC         uint32
	Word       uint32
	Dest       uint8
	WritesRF   bool
	IsStore    bool
	IsLoad     bool
	IsBranch   bool
	IsJALR     bool
	IsControl  bool
	PredNextPC uint32
	// Done marks instructions that need no execution (the halt word and
	// invalid words, which retire as no-ops).
	Done bool
}

// AllocRequest asks the ROB for a slot. The DU holds the request until
// the grant arrives.
type AllocRequest struct {
	Valid bool
	Entry ROBAllocation
}

// AllocReply grants a ROB slot.
type AllocReply struct {
	Valid bool
	Index uint8
}

// RFReadRequest asks the register file for up to two operand reads. The
// reply arrives the following cycle.
type RFReadRequest struct {
	Valid bool
	Reg1  uint8
	Use2  bool
	Reg2  uint8
}

// RFReadReply carries register values together with the mapping table
// state for each register, so the reader learns whether an in-flight
// producer must be awaited instead.
type RFReadReply struct {
	Valid     bool
	Val1      uint32
	Tag1Valid bool
	Tag1      uint8
	Val2      uint32
	Tag2Valid bool
	Tag2      uint8
}

// TagSet instructs the register file to point a register's mapping table
// entry at an in-flight ROB index. Asserted by the DU on dispatch.
type TagSet struct {
	Valid bool
	Reg   uint8
	Index uint8
}

// RSEntry is one reservation station entry. Vj/Vk hold resolved operand
// values; Qj/Qk hold pending ROB tags. Vk doubles as the immediate
// operand for register-immediate operations.
type RSEntry struct {
	Op      insts.Op
	Vj, Vk  uint32
	Qj, Qk  uint8
	QjValid bool
	QkValid bool
	Imm     int32
	PC      uint32
	Dest    uint8

	// EffAddr marks an address-generation entry for a load or store.
	EffAddr  bool
	IsBranch bool
	IsJAL    bool
	IsJALR   bool
}

// RSDispatch carries a new entry from the DU to the reservation
// stations.
type RSDispatch struct {
	Valid bool
	Entry RSEntry
}

// ALUIssue hands one ready reservation station entry to the ALU.
type ALUIssue struct {
	Valid bool
	Entry RSEntry
}

// LSBAllocation is the payload of a load/store buffer dispatch.
type LSBAllocation struct {
	IsStore    bool
	Width      uint8
	Unsigned   bool
	Dest       uint8
	DataReady  bool
	Data       uint32
	HasDataTag bool
	DataTag    uint8
}

// LSBDispatch carries a new entry from the DU to the load/store buffer.
type LSBDispatch struct {
	Valid bool
	Entry LSBAllocation
}

// CDBMessage is one common data bus broadcast. EffAddr marks an
// effective-address broadcast from the ALU, which only the LSB consumes.
type CDBMessage struct {
	Valid     bool
	ROBIndex  uint8
	Value     uint32
	NextPC    uint32
	HasNextPC bool
	Taken     bool
	EffAddr   bool
}

// StoreReady tells the ROB that a store's address and data are resolved
// so the store may retire.
type StoreReady struct {
	Valid    bool
	ROBIndex uint8
}

// Retirement is the ROB's retirement broadcast, observed by the register
// file, the DU, the LSB, and the predictor.
type Retirement struct {
	Valid    bool
	ROBIndex uint8
	PC       uint32
	Word     uint32
	Dest     uint8
	WritesRF bool
	Value    uint32
	IsStore  bool
	IsBranch bool
	IsJALR   bool
	Taken    bool
	Target   uint32
}

// Flush orders every module to discard speculative state and restart
// from Target. Raised by the ROB the cycle after a misprediction
// retires.
type Flush struct {
	Valid  bool
	Target uint32
}

// Harness carries every wire between modules. Each module owns a fixed
// subset of fields as its outputs; any module may read any field during
// the settle loop.
type Harness struct {
	// MIU outputs
	MemReply   MemReply
	FetchReply FetchReply

	// IFU outputs
	FetchReq FetchRequest
	PredReq  PredRequest
	Fetched  FetchedInst

	// Predictor outputs
	PredReply PredReply

	// DU outputs
	TakeFetched bool
	AllocReq    AllocRequest
	RFReadReq   RFReadRequest
	RSDispatch  RSDispatch
	LSBDispatch LSBDispatch
	TagSet      TagSet

	// RF outputs
	RFReadReply RFReadReply

	// ROB outputs
	AllocReply AllocReply
	Retire     Retirement
	Flush      Flush

	// RS outputs
	ALUIssue    ALUIssue
	RSCanAccept bool

	// ALU outputs
	ALUOffer     CDBMessage
	ALUCanAccept bool

	// LSB outputs
	MemReq       MemRequest
	LSBOffer     CDBMessage
	LSBCanAccept bool
	StoreReady   StoreReady

	// CDB outputs
	CDB           CDBMessage
	ALUOfferTaken bool
}

// setWire publishes a newly computed wire value and reports whether it
// differs from the previously published one.
func setWire[T comparable](wire *T, value T) bool {
	if *wire == value {
		return false
	}
	*wire = value
	return true
}
