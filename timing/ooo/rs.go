package ooo

type rsSlot struct {
	valid bool
	entry RSEntry
}

// RS is the reservation station pool. Entries wait unordered; any entry
// with a pending source tag captures matching CDB broadcasts. Each cycle
// at most one ready entry issues to the ALU, picking the smallest ROB
// index among the ready ones so older work tends to drain first.
type RS struct {
	h        *Harness
	capacity int

	cur, next []rsSlot
}

// NewRS creates a reservation station pool with the given capacity.
func NewRS(h *Harness, capacity int) *RS {
	return &RS{h: h, capacity: capacity, cur: make([]rsSlot, capacity)}
}

// Name returns the module name.
func (r *RS) Name() string { return "RS" }

// Combinational evaluates one settle pass.
func (r *RS) Combinational() (bool, error) {
	r.next = append([]rsSlot(nil), r.cur...)

	canAccept := false
	for _, s := range r.cur {
		if !s.valid {
			canAccept = true
			break
		}
	}

	pick := -1
	for i, s := range r.cur {
		if !s.valid || s.entry.QjValid || s.entry.QkValid {
			continue
		}
		if pick < 0 || s.entry.Dest < r.cur[pick].entry.Dest {
			pick = i
		}
	}
	var issue ALUIssue
	if pick >= 0 && r.h.ALUCanAccept {
		issue = ALUIssue{Valid: true, Entry: r.cur[pick].entry}
	}

	if r.h.Flush.Valid {
		r.next = make([]rsSlot, r.capacity)
	} else {
		r.capture()
		if issue.Valid {
			r.next[pick] = rsSlot{}
		}
		if disp := r.h.RSDispatch; disp.Valid {
			for i := range r.next {
				if !r.next[i].valid {
					r.next[i] = rsSlot{valid: true, entry: disp.Entry}
					break
				}
			}
		}
	}

	changed := setWire(&r.h.ALUIssue, issue)
	changed = setWire(&r.h.RSCanAccept, canAccept) || changed
	return changed, nil
}

// capture fills pending source tags from this cycle's CDB broadcast.
func (r *RS) capture() {
	msg := r.h.CDB
	if !msg.Valid || msg.EffAddr {
		return
	}
	for i := range r.next {
		s := &r.next[i]
		if !s.valid {
			continue
		}
		if s.entry.QjValid && s.entry.Qj == msg.ROBIndex {
			s.entry.Vj = msg.Value
			s.entry.QjValid = false
		}
		if s.entry.QkValid && s.entry.Qk == msg.ROBIndex {
			s.entry.Vk = msg.Value
			s.entry.QkValid = false
		}
	}
}

// Commit applies the staged state.
func (r *RS) Commit() error {
	r.cur = r.next
	return nil
}
