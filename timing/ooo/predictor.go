package ooo

// counterWeakTaken is the reset value of the 2-bit counters.
// States: 0=strongly not taken, 1=weakly not taken,
// 2=weakly taken, 3=strongly taken.
const counterWeakTaken uint8 = 2

// PredictorStats holds statistics for the branch predictor.
type PredictorStats struct {
	// Predictions is the total number of predictions served.
	Predictions uint64
	// TargetHits is the number of target cache hits.
	TargetHits uint64
	// TargetMisses is the number of target cache misses.
	TargetMisses uint64
}

type predState struct {
	reqPending bool
	reqPC      uint32
	reqJALR    bool
}

type predLearn struct {
	valid  bool
	pc     uint32
	taken  bool
	target uint32
	jalr   bool
}

// Predictor is a per-site 2-bit saturating counter predictor with a
// per-site branch target cache. The IFU requests a prediction in one
// cycle and receives the reply in the next. Learning happens at
// retirement; tables are mutated only at commit, so a retirement in
// cycle N shapes every prediction served from cycle N+1 on.
type Predictor struct {
	h *Harness

	counters map[uint32]uint8
	targets  map[uint32]uint32

	cur, next predState
	learn     predLearn

	stats PredictorStats
}

// NewPredictor creates a predictor with empty tables.
func NewPredictor(h *Harness) *Predictor {
	return &Predictor{
		h:        h,
		counters: make(map[uint32]uint8),
		targets:  make(map[uint32]uint32),
	}
}

// Name returns the module name.
func (p *Predictor) Name() string { return "PRED" }

// Stats returns the predictor statistics.
func (p *Predictor) Stats() PredictorStats { return p.stats }

func (p *Predictor) counter(pc uint32) uint8 {
	if c, ok := p.counters[pc]; ok {
		return c
	}
	return counterWeakTaken
}

// Combinational evaluates one settle pass.
func (p *Predictor) Combinational() (bool, error) {
	p.next = p.cur
	p.learn = predLearn{}

	var reply PredReply
	if p.cur.reqPending {
		reply.Valid = true
		reply.PC = p.cur.reqPC
		reply.Taken = p.counter(p.cur.reqPC) >= counterWeakTaken
		if target, ok := p.targets[p.cur.reqPC]; ok {
			reply.Target = target
			reply.TargetKnown = true
		}
	}

	if p.h.Flush.Valid {
		p.next = predState{}
	} else {
		p.next.reqPending = p.h.PredReq.Valid
		p.next.reqPC = p.h.PredReq.PC
		p.next.reqJALR = p.h.PredReq.JALR
	}

	if r := p.h.Retire; r.Valid && (r.IsBranch || r.IsJALR) {
		p.learn = predLearn{
			valid:  true,
			pc:     r.PC,
			taken:  r.Taken,
			target: r.Target,
			jalr:   r.IsJALR,
		}
	}

	return setWire(&p.h.PredReply, reply), nil
}

// Commit applies the staged request latch and any retirement learning.
func (p *Predictor) Commit() error {
	if p.cur.reqPending {
		p.stats.Predictions++
		if _, ok := p.targets[p.cur.reqPC]; ok {
			p.stats.TargetHits++
		} else {
			p.stats.TargetMisses++
		}
	}

	if p.learn.valid {
		if !p.learn.jalr {
			c := p.counter(p.learn.pc)
			if p.learn.taken {
				if c < 3 {
					c++
				}
			} else if c > 0 {
				c--
			}
			p.counters[p.learn.pc] = c
		}

		// The target cache records taken-branch targets, and always
		// records JALR targets.
		if p.learn.taken || p.learn.jalr {
			p.targets[p.learn.pc] = p.learn.target
		}
	}

	p.cur = p.next
	return nil
}
