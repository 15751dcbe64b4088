package ooo

type regTag struct {
	valid bool
	index uint8
}

type rfState struct {
	regs    [32]uint32
	tags    [32]regTag
	readReq RFReadRequest
}

// RegisterFile holds the 32 architectural registers and the mapping
// table of in-flight ROB tags. Reads are served with a one-cycle
// request/reply handshake; the reply carries both the value and the tag
// state so the dispatch unit knows whether to wait on a producer.
// Register writes happen at retirement only. x0 is never written and
// never tagged.
type RegisterFile struct {
	h         *Harness
	cur, next rfState
}

// NewRegisterFile creates a zeroed register file.
func NewRegisterFile(h *Harness) *RegisterFile {
	return &RegisterFile{h: h}
}

// Name returns the module name.
func (r *RegisterFile) Name() string { return "RF" }

// Reg returns the committed value of a register.
func (r *RegisterFile) Reg(reg uint8) uint32 {
	if reg == 0 {
		return 0
	}
	return r.cur.regs[reg&0x1F]
}

// Combinational evaluates one settle pass.
func (r *RegisterFile) Combinational() (bool, error) {
	r.next = r.cur

	var reply RFReadReply
	if req := r.cur.readReq; req.Valid {
		reply.Valid = true
		reply.Val1 = r.cur.regs[req.Reg1&0x1F]
		reply.Tag1Valid = r.cur.tags[req.Reg1&0x1F].valid
		reply.Tag1 = r.cur.tags[req.Reg1&0x1F].index
		if req.Use2 {
			reply.Val2 = r.cur.regs[req.Reg2&0x1F]
			reply.Tag2Valid = r.cur.tags[req.Reg2&0x1F].valid
			reply.Tag2 = r.cur.tags[req.Reg2&0x1F].index
		}
	}

	if r.h.Flush.Valid {
		// Register values survive a flush; the rename state does not.
		r.next.tags = [32]regTag{}
		r.next.readReq = RFReadRequest{}
	} else {
		if ret := r.h.Retire; ret.Valid {
			if ret.WritesRF && ret.Dest != 0 {
				r.next.regs[ret.Dest&0x1F] = ret.Value
			}
			tag := &r.next.tags[ret.Dest&0x1F]
			if ret.WritesRF && tag.valid && tag.index == ret.ROBIndex {
				tag.valid = false
			}
		}

		if ts := r.h.TagSet; ts.Valid && ts.Reg != 0 {
			r.next.tags[ts.Reg&0x1F] = regTag{valid: true, index: ts.Index}
		}

		r.next.readReq = r.h.RFReadReq
	}

	return setWire(&r.h.RFReadReply, reply), nil
}

// Commit applies the staged state.
func (r *RegisterFile) Commit() error {
	r.cur = r.next
	return nil
}
