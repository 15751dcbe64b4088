package ooo

import "fmt"

// Module is one hardware unit driven by the settle-and-sync kernel.
//
// Combinational re-evaluates the module's outputs and staged next state
// from its committed state and the current harness inputs. It must be
// idempotent: every invocation within a cycle recomputes the full result
// rather than accumulating. It reports whether any published wire
// changed.
//
// Commit makes the staged state the committed state. It runs exactly
// once per cycle, after all wires have stabilized.
type Module interface {
	Name() string
	Combinational() (bool, error)
	Commit() error
}

// settle re-evaluates all modules until a full pass leaves every wire
// unchanged, or fails after bound passes.
func settle(modules []Module, bound int) error {
	for pass := 0; pass < bound; pass++ {
		changed := false
		for _, m := range modules {
			c, err := m.Combinational()
			if err != nil {
				return fmt.Errorf("%s: %w", m.Name(), err)
			}
			changed = changed || c
		}
		if !changed {
			return nil
		}
	}
	return fmt.Errorf("combinational logic did not settle within %d passes", bound)
}

// commit applies one cycle's staged state on every module.
func commit(modules []Module) error {
	for _, m := range modules {
		if err := m.Commit(); err != nil {
			return fmt.Errorf("%s: %w", m.Name(), err)
		}
	}
	return nil
}
