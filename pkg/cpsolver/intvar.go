package cpsolver

import "fmt"

// IntVar is a minimal bounded-domain integer variable: enough state and
// demon plumbing to drive the Trail and Queue end to end without pulling
// in a full constraint library, which spec.md §1 keeps out of the core.
// A real constraint library builds richer variables (bitset domains,
// element/table constraints, ...) against the same Trail/Queue/Demon
// surface this exercises.
type IntVar struct {
	solver *Solver
	handle Handle
	name   string

	min, max int

	whenBound []Demon
	whenRange []Demon
}

// NewIntVar creates a variable ranging over [min, max].
func NewIntVar(s *Solver, min, max int, name string) *IntVar {
	if min > max {
		panic(newMisuse("NewIntVar", fmt.Sprintf("empty domain [%d, %d]", min, max)))
	}
	v := &IntVar{solver: s, handle: s.NewHandle(), min: min, max: max}
	if name != "" {
		s.SetName(v, name)
	}
	return v
}

func (v *IntVar) Handle() Handle    { return v.handle }
func (v *IntVar) BaseName() string  { return "IntVar" }
func (v *IntVar) String() string    { return v.solver.GetName(v) }
func (v *IntVar) Min() int          { return v.min }
func (v *IntVar) Max() int          { return v.max }
func (v *IntVar) Bound() bool       { return v.min == v.max }
func (v *IntVar) Value() int {
	if !v.Bound() {
		panic(newMisuse("Value", "variable is not bound"))
	}
	return v.min
}
func (v *IntVar) Contains(val int) bool { return val >= v.min && val <= v.max }

// WhenBound registers d to run whenever the domain becomes a singleton.
func (v *IntVar) WhenBound(d Demon) {
	v.whenBound = append(v.whenBound, d)
	v.solver.propagation.registerDemon(d)
}

// WhenRange registers d to run whenever either bound moves.
func (v *IntVar) WhenRange(d Demon) {
	v.whenRange = append(v.whenRange, d)
	v.solver.propagation.registerDemon(d)
}

func (v *IntVar) enqueueRange() {
	for _, d := range v.whenRange {
		v.solver.Enqueue(d)
	}
	if v.Bound() {
		for _, d := range v.whenBound {
			v.solver.Enqueue(d)
		}
	}
}

// SetMin tightens the lower bound, failing if the domain becomes empty.
func (v *IntVar) SetMin(m int) {
	if m <= v.min {
		return
	}
	if m > v.max {
		v.solver.Fail()
		return
	}
	v.solver.propagation.setMin(v, m)
	v.solver.SaveAndSetInt(&v.min, m)
	v.enqueueRange()
}

// SetMax tightens the upper bound, failing if the domain becomes empty.
func (v *IntVar) SetMax(m int) {
	if m >= v.max {
		return
	}
	if m < v.min {
		v.solver.Fail()
		return
	}
	v.solver.propagation.setMax(v, m)
	v.solver.SaveAndSetInt(&v.max, m)
	v.enqueueRange()
}

// SetRange tightens both bounds at once, failing if the resulting domain
// is empty. Equivalent to SetMin(lo) followed by SetMax(hi) but reported
// to propagation monitors as a single event.
func (v *IntVar) SetRange(lo, hi int) {
	lo = max(lo, v.min)
	hi = min(hi, v.max)
	if lo > hi {
		v.solver.Fail()
		return
	}
	if lo == v.min && hi == v.max {
		return
	}
	v.solver.propagation.setRange(v, lo, hi)
	if lo != v.min {
		v.solver.SaveAndSetInt(&v.min, lo)
	}
	if hi != v.max {
		v.solver.SaveAndSetInt(&v.max, hi)
	}
	v.enqueueRange()
}

// SetValue binds the variable to val, failing if val is outside the
// current domain.
func (v *IntVar) SetValue(val int) {
	if !v.Contains(val) {
		v.solver.Fail()
		return
	}
	v.solver.propagation.setValue(v, val)
	if v.min != val {
		v.solver.SaveAndSetInt(&v.min, val)
	}
	if v.max != val {
		v.solver.SaveAndSetInt(&v.max, val)
	}
	v.enqueueRange()
}

// RemoveValue removes val from the domain by tightening a bound; only the
// endpoints are supported, matching the bounds-only domain representation
// this minimal variable carries. RemoveInterval/RemoveValues from
// PropagationMonitor's event set belong to richer bitset domains and have
// no caller here.
func (v *IntVar) RemoveValue(val int) {
	switch {
	case val == v.min:
		v.solver.propagation.removeValue(v, val)
		v.SetMin(val + 1)
	case val == v.max:
		v.solver.propagation.removeValue(v, val)
		v.SetMax(val - 1)
	case v.Contains(val):
		panic(newMisuse("RemoveValue", "hole removal needs a bitset domain, which this minimal IntVar does not carry"))
	}
}

// assignDemon is a Demon adapter for a plain closure, so decision builders
// and constraints can register ad hoc reactions without a named type.
type assignDemon struct {
	BaseDemon
	priority DemonPriority
	run      func(s *Solver)
}

func (d *assignDemon) Run(s *Solver)          { d.run(s) }
func (d *assignDemon) Priority() DemonPriority { return d.priority }

// NewDemon adapts run into a Demon at the given priority.
func NewDemon(priority DemonPriority, run func(s *Solver)) Demon {
	return &assignDemon{priority: priority, run: run}
}

// AssignVariableValue is the canonical binary decision over an IntVar:
// Apply binds it to val, Refute removes val from the domain.
type AssignVariableValue struct {
	Var *IntVar
	Val int
}

func (d *AssignVariableValue) Apply(s *Solver)  { d.Var.SetValue(d.Val) }
func (d *AssignVariableValue) Refute(s *Solver) { d.Var.RemoveValue(d.Val) }
func (d *AssignVariableValue) String() string {
	return fmt.Sprintf("[%s == %d]", d.Var.solver.GetName(d.Var), d.Val)
}
