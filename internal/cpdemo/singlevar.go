package cpdemo

import "github.com/gophercp/cpcore/pkg/cpsolver"

// SingleVar builds the smallest possible model exercising the trail,
// queue, and search loop: one variable over [min, max] and nothing else,
// for callers where the point is the search machinery, not the model.
func SingleVar(s *cpsolver.Solver, min, max int) *cpsolver.IntVar {
	return cpsolver.NewIntVar(s, min, max, "X")
}
