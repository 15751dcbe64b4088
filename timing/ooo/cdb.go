package ooo

// CDBArbiter multiplexes the single common data bus. The LSB offer wins
// over the ALU offer; the losing ALU keeps holding its result and is
// acknowledged through ALUOfferTaken once the bus is free.
type CDBArbiter struct {
	h *Harness
}

// NewCDBArbiter creates the bus arbiter.
func NewCDBArbiter(h *Harness) *CDBArbiter {
	return &CDBArbiter{h: h}
}

// Name returns the module name.
func (c *CDBArbiter) Name() string { return "CDB" }

// Combinational evaluates one settle pass.
func (c *CDBArbiter) Combinational() (bool, error) {
	msg := c.h.ALUOffer
	aluTaken := c.h.ALUOffer.Valid
	if c.h.LSBOffer.Valid {
		msg = c.h.LSBOffer
		aluTaken = false
	}

	changed := setWire(&c.h.CDB, msg)
	changed = setWire(&c.h.ALUOfferTaken, aluTaken) || changed
	return changed, nil
}

// Commit is a no-op; the arbiter holds no state.
func (c *CDBArbiter) Commit() error { return nil }
