// Package trace generalizes the teacher's io.Writer-backed Tracer
// (internal/sat.LoggingTracer / internal/solver.LoggingTracer) from a
// single conflict report to the full search-event surface a cpsolver
// SearchMonitor and PropagationMonitor see.
package trace

import (
	"fmt"
	"io"

	"github.com/gophercp/cpcore/pkg/cpsolver"
)

// None is the no-op monitor, the direct analog of the teacher's
// DefaultTracer{}: every hook is the BaseMonitor default.
type None struct {
	cpsolver.BaseMonitor
}

// Writer formats search and propagation events as one text line each to
// an underlying io.Writer, the same shape as the teacher's LoggingTracer
// but covering decisions, failures, and solutions as well as domain
// mutations instead of only conflicts. Only the hooks defined below print;
// every other event (SetRange, EndFail, EndDemonRun, ...) keeps the
// embedded no-op default and prints nothing.
type Writer struct {
	cpsolver.BaseMonitor
	cpsolver.BasePropagationMonitor
	W      io.Writer
	Prefix string
}

func (t Writer) logf(format string, args ...any) {
	fmt.Fprintf(t.W, t.Prefix+format+"\n", args...)
}

func (t Writer) EnterSearch(s *cpsolver.Solver) {
	t.logf("EnterSearch depth=%d", s.SolveDepth())
}

func (t Writer) ExitSearch(s *cpsolver.Solver) {
	t.logf("ExitSearch branches=%d fails=%d solutions=%d", s.Branches(), s.Fails(), s.Solutions())
}

func (t Writer) RestartSearch(s *cpsolver.Solver) {
	t.logf("RestartSearch depth=%d", s.SearchDepth())
}

func (t Writer) BeginInitialPropagation(s *cpsolver.Solver) {
	t.logf("BeginInitialPropagation")
}

func (t Writer) EndInitialPropagation(s *cpsolver.Solver) {
	t.logf("EndInitialPropagation")
}

func (t Writer) ApplyDecision(s *cpsolver.Solver, d cpsolver.Decision) {
	t.logf("Apply  %s", d.String())
}

func (t Writer) RefuteDecision(s *cpsolver.Solver, d cpsolver.Decision) {
	t.logf("Refute %s", d.String())
}

func (t Writer) BeginFail(s *cpsolver.Solver) {
	t.logf("Fail at depth=%d", s.SearchDepth())
}

func (t Writer) NoMoreSolutions(s *cpsolver.Solver) {
	t.logf("NoMoreSolutions branches=%d fails=%d", s.Branches(), s.Fails())
}

func (t Writer) AcceptSolution(s *cpsolver.Solver) bool {
	t.logf("Solution #%d", s.Solutions()+1)
	return true
}

func (t Writer) SetMin(v *cpsolver.IntVar, m int) {
	t.logf("SetMin(%s, %d)", v.String(), m)
}

func (t Writer) SetMax(v *cpsolver.IntVar, m int) {
	t.logf("SetMax(%s, %d)", v.String(), m)
}

func (t Writer) SetValue(v *cpsolver.IntVar, val int) {
	t.logf("SetValue(%s, %d)", v.String(), val)
}

func (t Writer) RemoveValue(v *cpsolver.IntVar, val int) {
	t.logf("RemoveValue(%s, %d)", v.String(), val)
}

func (t Writer) BeginDemonRun(d cpsolver.Demon) {
	t.logf("BeginDemonRun priority=%d", d.Priority())
}

func (t Writer) BeginConstraintInitialPropagation(c cpsolver.Constraint) {
	t.logf("BeginConstraintInitialPropagation %T", c)
}
