package cpsolver

import "fmt"

// ModelVisitor receives Accept callbacks from monitors/constraints that
// want to describe themselves. Event tags are plain strings (e.g.
// "AllDifferent") per spec.md §6; the core does not interpret them.
type ModelVisitor interface {
	VisitConstraint(tag string, args map[string]any)
}

// SearchMonitor is a heterogeneous observer registered with the active
// Search. Every hook has a documented default (a no-op, or the identity
// element of its combining rule) supplied by BaseMonitor; embed it and
// override only the hooks you need.
type SearchMonitor interface {
	EnterSearch(s *Solver)
	ExitSearch(s *Solver)
	RestartSearch(s *Solver)
	BeginInitialPropagation(s *Solver)
	EndInitialPropagation(s *Solver)
	NoMoreSolutions(s *Solver)

	BeginNextDecision(s *Solver, b DecisionBuilder)
	EndNextDecision(s *Solver, b DecisionBuilder, d Decision)
	ApplyDecision(s *Solver, d Decision)
	RefuteDecision(s *Solver, d Decision)
	AfterDecision(s *Solver, d Decision, apply bool)

	BeginFail(s *Solver)
	EndFail(s *Solver)

	// AcceptSolution is queried on every monitor even after the first
	// rejection (all-or-nothing conjunction, preserving the observer
	// contract that every monitor sees every leaf).
	AcceptSolution(s *Solver) bool
	// AtSolution is a disjunction: true if any monitor wants the search
	// to continue looking for further solutions.
	AtSolution(s *Solver) bool

	LocalOptimum(s *Solver) bool
	AcceptDelta(s *Solver, delta, deltaDelta any) bool
	AcceptNeighbor(s *Solver)

	PeriodicCheck(s *Solver)
	ProgressPercent(s *Solver) int

	Accept(s *Solver, visitor ModelVisitor)
}

// BaseMonitor implements every SearchMonitor hook as a documented no-op
// (or identity element). Embed it in a concrete monitor and override only
// what that monitor cares about.
type BaseMonitor struct{}

func (BaseMonitor) EnterSearch(*Solver)                       {}
func (BaseMonitor) ExitSearch(*Solver)                         {}
func (BaseMonitor) RestartSearch(*Solver)                      {}
func (BaseMonitor) BeginInitialPropagation(*Solver)            {}
func (BaseMonitor) EndInitialPropagation(*Solver)              {}
func (BaseMonitor) NoMoreSolutions(*Solver)                    {}
func (BaseMonitor) BeginNextDecision(*Solver, DecisionBuilder) {}
func (BaseMonitor) EndNextDecision(*Solver, DecisionBuilder, Decision) {
}
func (BaseMonitor) ApplyDecision(*Solver, Decision)         {}
func (BaseMonitor) RefuteDecision(*Solver, Decision)        {}
func (BaseMonitor) AfterDecision(*Solver, Decision, bool)   {}
func (BaseMonitor) BeginFail(*Solver)                       {}
func (BaseMonitor) EndFail(*Solver)                         {}
func (BaseMonitor) AcceptSolution(*Solver) bool             { return true }
func (BaseMonitor) AtSolution(*Solver) bool                 { return false }
func (BaseMonitor) LocalOptimum(*Solver) bool                { return false }
func (BaseMonitor) AcceptDelta(*Solver, any, any) bool       { return true }
func (BaseMonitor) AcceptNeighbor(*Solver)                   {}
func (BaseMonitor) PeriodicCheck(*Solver)                    {}
func (BaseMonitor) ProgressPercent(*Solver) int              { return 0 }
func (BaseMonitor) Accept(*Solver, ModelVisitor)             {}

// monitorBus fans out every search event to the Search's registered
// monitors, applying the documented combining rules (conjunction for
// AcceptSolution, disjunction for AtSolution, max for ProgressPercent).
type monitorBus struct {
	monitors []SearchMonitor
}

func (b *monitorBus) push(m SearchMonitor) {
	if m != nil {
		b.monitors = append(b.monitors, m)
	}
}

func (b *monitorBus) enterSearch(s *Solver) {
	for _, m := range b.monitors {
		m.EnterSearch(s)
	}
}
func (b *monitorBus) exitSearch(s *Solver) {
	for _, m := range b.monitors {
		m.ExitSearch(s)
	}
}
func (b *monitorBus) restartSearch(s *Solver) {
	for _, m := range b.monitors {
		m.RestartSearch(s)
	}
}
func (b *monitorBus) beginInitialPropagation(s *Solver) {
	for _, m := range b.monitors {
		m.BeginInitialPropagation(s)
	}
}
func (b *monitorBus) endInitialPropagation(s *Solver) {
	for _, m := range b.monitors {
		m.EndInitialPropagation(s)
	}
}
func (b *monitorBus) noMoreSolutions(s *Solver) {
	for _, m := range b.monitors {
		m.NoMoreSolutions(s)
	}
}
func (b *monitorBus) beginNextDecision(s *Solver, db DecisionBuilder) {
	for _, m := range b.monitors {
		m.BeginNextDecision(s, db)
	}
}
func (b *monitorBus) endNextDecision(s *Solver, db DecisionBuilder, d Decision) {
	for _, m := range b.monitors {
		m.EndNextDecision(s, db, d)
	}
}
func (b *monitorBus) applyDecision(s *Solver, d Decision) {
	for _, m := range b.monitors {
		m.ApplyDecision(s, d)
	}
}
func (b *monitorBus) refuteDecision(s *Solver, d Decision) {
	for _, m := range b.monitors {
		m.RefuteDecision(s, d)
	}
}
func (b *monitorBus) afterDecision(s *Solver, d Decision, apply bool) {
	for _, m := range b.monitors {
		m.AfterDecision(s, d, apply)
	}
}
func (b *monitorBus) beginFail(s *Solver) {
	for _, m := range b.monitors {
		m.BeginFail(s)
	}
}
func (b *monitorBus) endFail(s *Solver) {
	for _, m := range b.monitors {
		m.EndFail(s)
	}
}

// acceptSolution queries every monitor, even after the first rejection,
// and returns the conjunction.
func (b *monitorBus) acceptSolution(s *Solver) bool {
	ok := true
	for _, m := range b.monitors {
		if !m.AcceptSolution(s) {
			ok = false
		}
	}
	return ok
}

// atSolution returns true (continue searching) if any monitor asks for
// it.
func (b *monitorBus) atSolution(s *Solver) bool {
	continue_ := false
	for _, m := range b.monitors {
		if m.AtSolution(s) {
			continue_ = true
		}
	}
	return continue_
}

func (b *monitorBus) periodicCheck(s *Solver) {
	for _, m := range b.monitors {
		m.PeriodicCheck(s)
	}
}

func (b *monitorBus) progressPercent(s *Solver) int {
	best := 0
	for _, m := range b.monitors {
		if p := m.ProgressPercent(s); p > best {
			best = p
		}
	}
	return best
}

func (b *monitorBus) accept(s *Solver, v ModelVisitor) {
	for _, m := range b.monitors {
		m.Accept(s, v)
	}
}

// PropagationMonitor observes domain mutations and demon activity, one
// level below SearchMonitor's decision/fail/solution events. A variable
// bound tightening, a value removal, a demon registration or run, and a
// constraint's initial-propagation pass all fire here regardless of
// whether they happen inside a choice point. Embed BasePropagationMonitor
// and override only what a given monitor cares about.
type PropagationMonitor interface {
	SetMin(v *IntVar, m int)
	SetMax(v *IntVar, m int)
	SetRange(v *IntVar, lo, hi int)
	SetValue(v *IntVar, val int)
	SetValues(v *IntVar, vals []int)

	RemoveValue(v *IntVar, val int)
	RemoveInterval(v *IntVar, lo, hi int)
	RemoveValues(v *IntVar, vals []int)

	RegisterDemon(d Demon)
	BeginDemonRun(d Demon)
	EndDemonRun(d Demon)

	BeginConstraintInitialPropagation(c Constraint)
	EndConstraintInitialPropagation(c Constraint)

	PushContext(name string)
	PopContext()
}

// BasePropagationMonitor implements every PropagationMonitor hook as a
// no-op. Embed it in a concrete monitor and override only what it needs.
type BasePropagationMonitor struct{}

func (BasePropagationMonitor) SetMin(*IntVar, int)                {}
func (BasePropagationMonitor) SetMax(*IntVar, int)                {}
func (BasePropagationMonitor) SetRange(*IntVar, int, int)         {}
func (BasePropagationMonitor) SetValue(*IntVar, int)              {}
func (BasePropagationMonitor) SetValues(*IntVar, []int)           {}
func (BasePropagationMonitor) RemoveValue(*IntVar, int)           {}
func (BasePropagationMonitor) RemoveInterval(*IntVar, int, int)   {}
func (BasePropagationMonitor) RemoveValues(*IntVar, []int)        {}
func (BasePropagationMonitor) RegisterDemon(Demon)                {}
func (BasePropagationMonitor) BeginDemonRun(Demon)                {}
func (BasePropagationMonitor) EndDemonRun(Demon)                  {}
func (BasePropagationMonitor) BeginConstraintInitialPropagation(Constraint) {}
func (BasePropagationMonitor) EndConstraintInitialPropagation(Constraint)   {}
func (BasePropagationMonitor) PushContext(string)                 {}
func (BasePropagationMonitor) PopContext()                        {}

// propagationBus fans out every propagation event to the Solver's
// registered PropagationMonitors. Unlike monitorBus, it lives on the
// Solver itself (not the Search) since domain mutations happen both
// inside and outside an active search.
type propagationBus struct {
	monitors []PropagationMonitor
}

func (b *propagationBus) push(m PropagationMonitor) {
	if m != nil {
		b.monitors = append(b.monitors, m)
	}
}

func (b *propagationBus) setMin(v *IntVar, m int) {
	for _, mon := range b.monitors {
		mon.SetMin(v, m)
	}
}
func (b *propagationBus) setMax(v *IntVar, m int) {
	for _, mon := range b.monitors {
		mon.SetMax(v, m)
	}
}
func (b *propagationBus) setRange(v *IntVar, lo, hi int) {
	for _, mon := range b.monitors {
		mon.SetRange(v, lo, hi)
	}
}
func (b *propagationBus) setValue(v *IntVar, val int) {
	for _, mon := range b.monitors {
		mon.SetValue(v, val)
	}
}
func (b *propagationBus) removeValue(v *IntVar, val int) {
	for _, mon := range b.monitors {
		mon.RemoveValue(v, val)
	}
}
func (b *propagationBus) registerDemon(d Demon) {
	for _, mon := range b.monitors {
		mon.RegisterDemon(d)
	}
}
func (b *propagationBus) beginDemonRun(d Demon) {
	for _, mon := range b.monitors {
		mon.BeginDemonRun(d)
	}
}
func (b *propagationBus) endDemonRun(d Demon) {
	for _, mon := range b.monitors {
		mon.EndDemonRun(d)
	}
}
func (b *propagationBus) beginConstraintInitialPropagation(c Constraint) {
	for _, mon := range b.monitors {
		mon.BeginConstraintInitialPropagation(c)
	}
}
func (b *propagationBus) endConstraintInitialPropagation(c Constraint) {
	for _, mon := range b.monitors {
		mon.EndConstraintInitialPropagation(c)
	}
}
func (b *propagationBus) pushContext(name string) {
	for _, mon := range b.monitors {
		mon.PushContext(name)
	}
}
func (b *propagationBus) popContext() {
	for _, mon := range b.monitors {
		mon.PopContext()
	}
}

// demonProfiler is the built-in PropagationMonitor installed when
// SolverParameters.ProfileLevel is NormalProfiling. It tracks how many
// times each demon has run, mirroring the original's DemonProfiler.
type demonProfiler struct {
	BasePropagationMonitor
	runs map[Demon]int64
}

func newDemonProfiler() *demonProfiler {
	return &demonProfiler{runs: make(map[Demon]int64)}
}

func (p *demonProfiler) BeginDemonRun(d Demon) { p.runs[d]++ }

func (p *demonProfiler) runCount(d Demon) int64 { return p.runs[d] }

// printTracePropagationMonitor is the built-in PropagationMonitor
// installed when SolverParameters.TraceLevel is NormalTrace. It prints
// one line for each SetMin, SetMax, SetValue and RemoveValue event and
// for each constraint's initial-propagation bounds; the other
// propagation events (SetRange, demon runs, contexts, ...) print nothing.
type printTracePropagationMonitor struct {
	BasePropagationMonitor
}

func newPrintTracePropagationMonitor() *printTracePropagationMonitor {
	return &printTracePropagationMonitor{}
}

func (p *printTracePropagationMonitor) SetMin(v *IntVar, m int) {
	fmt.Printf("SetMin(%s, %d)\n", v.String(), m)
}
func (p *printTracePropagationMonitor) SetMax(v *IntVar, m int) {
	fmt.Printf("SetMax(%s, %d)\n", v.String(), m)
}
func (p *printTracePropagationMonitor) SetValue(v *IntVar, val int) {
	fmt.Printf("SetValue(%s, %d)\n", v.String(), val)
}
func (p *printTracePropagationMonitor) RemoveValue(v *IntVar, val int) {
	fmt.Printf("RemoveValue(%s, %d)\n", v.String(), val)
}
func (p *printTracePropagationMonitor) BeginConstraintInitialPropagation(c Constraint) {
	fmt.Printf("BeginConstraintInitialPropagation(%T)\n", c)
}
func (p *printTracePropagationMonitor) EndConstraintInitialPropagation(c Constraint) {
	fmt.Printf("EndConstraintInitialPropagation(%T)\n", c)
}
