// Package constraint implements spec.md §3's "append-only list of
// algebraic equalities over the field produced by executing
// instructions" — the constraint system a proving-mode VM run builds
// alongside its ordinary evaluation.
//
// Grounded on other_examples' go-corset constraint-compiler shape (a
// flat, appendable list of named equalities over field elements); this
// package only models the append/rollback bookkeeping spec.md's
// conditional-execution rules need (§4.6 "If/Else/EndIf"), not an
// actual R1CS/PLONK arithmetization — on-chain proving-system
// primitives are out of scope (spec.md §1).
package constraint

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// Equality is one "left == right" algebraic constraint the VM asserted
// while executing an instruction, tagged with the conjunction of
// branch predicates active when it was recorded (spec.md §4.6
// "Conditional execution": "under the proving constraint system, both
// branches are evaluated and selected by the predicate").
type Equality struct {
	Label     string
	Left      fr.Element
	Right     fr.Element
	Predicate bool // the value of the active condition-stack conjunction at record time
	Satisfied bool
}

// System is the append-only constraint list a proving-mode Run
// accumulates. It is never mutated in place except by Rollback, which
// only ever truncates — nothing already appended is edited.
type System struct {
	equalities []Equality
}

// New returns an empty constraint system.
func New() *System { return &System{} }

// Len reports how many equalities have been recorded so far; used as
// a rollback mark (spec.md §4.6 "rollback of constraint side effects").
func (s *System) Len() int { return len(s.equalities) }

// Assert appends "left == right" under the given active predicate.
// Assertions recorded under a false predicate are kept (the constraint
// still encodes the falsehood, spec.md §4.6) but do not themselves
// cause Unsatisfied to report failure.
func (s *System) Assert(label string, left, right fr.Element, predicate bool) {
	s.equalities = append(s.equalities, Equality{
		Label:     label,
		Left:      left,
		Right:     right,
		Predicate: predicate,
		Satisfied: !predicate || left.Equal(&right),
	})
}

// Rollback truncates the system back to a mark obtained from Len,
// discarding every equality recorded since (spec.md §4.6 nested
// conditional/loop frames: a frame that is entered and then unwound
// without committing its writes must not leave constraint residue).
func (s *System) Rollback(mark int) {
	s.equalities = s.equalities[:mark]
}

// Equalities returns the recorded list, in append order (never sorted
// or rehashed — spec.md §5 "Determinism").
func (s *System) Equalities() []Equality {
	return s.equalities
}

// Keep re-appends an equality a caller pulled off the tail before a
// Rollback — used by the VM to restore an If branch's Assert-sourced
// equalities after discarding the rest of that branch's bookkeeping
// (spec.md §4.6: an assertion's constraint "still encodes the
// falsehood" even when the branch that contained it goes unselected).
func (s *System) Keep(eq Equality) {
	s.equalities = append(s.equalities, eq)
}

// Unsatisfied reports the first equality (if any) recorded under a
// true predicate whose two sides are unequal — i.e. an actual
// constraint violation the real prover would reject (spec.md §7
// RuntimeError.ConstraintUnsatisfied).
func (s *System) Unsatisfied() (Equality, bool) {
	for _, eq := range s.equalities {
		if eq.Predicate && !eq.Satisfied {
			return eq, true
		}
	}
	return Equality{}, false
}
