// Package cpdemo hosts example decision builders and constraints built
// against pkg/cpsolver's public surface, the same "engine vs. example
// content" split the teacher draws between internal/sat and its solver
// tests: the constraint library proper is an external collaborator
// (spec.md §1), and this package is one concrete, minimal instance of it,
// used by the CLI. pkg/cpsolver's scenario tests carry their own
// constraints and do not import it.
package cpdemo

import "github.com/gophercp/cpcore/pkg/cpsolver"

// allDifferent fails as soon as two of its variables are bound to the
// same value. It only checks bound pairs rather than pruning domains
// ahead of time, since the IntVar this demo builds against carries a
// bounds-only (no-hole) domain.
type allDifferent struct {
	vars []*cpsolver.IntVar
}

// AllDifferent posts a checking (not pruning) all-different constraint
// over vars.
func AllDifferent(s *cpsolver.Solver, vars []*cpsolver.IntVar) {
	s.AddConstraint(&allDifferent{vars: vars})
}

func (c *allDifferent) Post(s *cpsolver.Solver) {
	d := cpsolver.NewDemon(cpsolver.NormalPriority, c.check)
	for _, v := range c.vars {
		v.WhenBound(d)
	}
}

func (c *allDifferent) InitialPropagate(s *cpsolver.Solver) { c.check(s) }

func (c *allDifferent) check(s *cpsolver.Solver) {
	seen := make(map[int]bool, len(c.vars))
	for _, v := range c.vars {
		if !v.Bound() {
			continue
		}
		val := v.Value()
		if seen[val] {
			s.Fail()
			return
		}
		seen[val] = true
	}
}

// notEqualOffset fails once both a and b are bound and |a - b| == offset,
// the shape n-queens' diagonal non-attack rule needs on top of plain
// column all-differentness.
type notEqualOffset struct {
	a, b   *cpsolver.IntVar
	offset int
}

func (c *notEqualOffset) Post(s *cpsolver.Solver) {
	d := cpsolver.NewDemon(cpsolver.NormalPriority, c.check)
	c.a.WhenBound(d)
	c.b.WhenBound(d)
}

func (c *notEqualOffset) InitialPropagate(s *cpsolver.Solver) { c.check(s) }

func (c *notEqualOffset) check(s *cpsolver.Solver) {
	if !c.a.Bound() || !c.b.Bound() {
		return
	}
	diff := c.a.Value() - c.b.Value()
	if diff < 0 {
		diff = -diff
	}
	if diff == c.offset {
		s.Fail()
	}
}

// linearEquation fails once every term is bound and the weighted sum does
// not equal target; used for SEND+MORE=MONEY's column-sum arithmetic.
type linearEquation struct {
	vars    []*cpsolver.IntVar
	coeffs  []int
	target  int
}

func (c *linearEquation) Post(s *cpsolver.Solver) {
	d := cpsolver.NewDemon(cpsolver.NormalPriority, c.check)
	for _, v := range c.vars {
		v.WhenBound(d)
	}
}

func (c *linearEquation) InitialPropagate(s *cpsolver.Solver) { c.check(s) }

func (c *linearEquation) check(s *cpsolver.Solver) {
	sum := 0
	for i, v := range c.vars {
		if !v.Bound() {
			return
		}
		sum += c.coeffs[i] * v.Value()
	}
	if sum != c.target {
		s.Fail()
	}
}

// nonZero fails if v is ever bound to zero, the "no leading zero" rule
// SEND+MORE=MONEY's first letters need.
type nonZero struct {
	v *cpsolver.IntVar
}

func (c *nonZero) Post(s *cpsolver.Solver) {
	c.v.WhenBound(cpsolver.NewDemon(cpsolver.NormalPriority, c.check))
}

func (c *nonZero) InitialPropagate(s *cpsolver.Solver) { c.check(s) }

func (c *nonZero) check(s *cpsolver.Solver) {
	if c.v.Bound() && c.v.Value() == 0 {
		s.Fail()
	}
}

// assignSmallest is the canonical "first unbound variable, smallest
// remaining value" decision builder: at each node it commits the leftmost
// unbound variable to its current minimum, opening the right branch to
// exclude that value on refute.
type assignSmallest struct {
	vars []*cpsolver.IntVar
}

// AssignSmallest returns a DecisionBuilder that binds vars in order,
// trying each one's smallest remaining value first.
func AssignSmallest(vars []*cpsolver.IntVar) cpsolver.DecisionBuilder {
	return &assignSmallest{vars: vars}
}

func (b *assignSmallest) Next(s *cpsolver.Solver) cpsolver.Decision {
	for _, v := range b.vars {
		if !v.Bound() {
			return &cpsolver.AssignVariableValue{Var: v, Val: v.Min()}
		}
	}
	return nil
}
