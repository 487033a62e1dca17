package cpsat

import (
	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// PresolveResult is what gini could determine about a CNF before the CP
// core ever runs a search.
type PresolveResult struct {
	// Unsat is true if gini proved the clause set has no model; the
	// caller should report root infeasibility without paying for a
	// pkg/cpsolver tree walk.
	Unsat bool
	// Model holds gini's found assignment (1-indexed by variable,
	// Model[0] unused) when gini reached SAT. It seeds the CP variables'
	// initial decision order rather than replacing verification: the
	// core still re-derives and checks it through its own search.
	Model []bool
}

// Presolve hands cnf to a fresh gini instance and solves it directly.
// gini here is strictly a presolve/verification aid consumed through
// pkg/cpsolver's public interfaces (an AssignSmallest-style decision
// order hint) — not a replacement for the core's own search loop
// (spec.md §1).
func Presolve(cnf *CNF) PresolveResult {
	g := gini.New()
	for _, clause := range cnf.Clauses {
		for _, lit := range clause {
			g.Add(litOf(lit))
		}
		g.Add(0)
	}

	switch g.Solve() {
	case 1: // satisfiable
		model := make([]bool, cnf.NumVars+1)
		for v := 1; v <= cnf.NumVars; v++ {
			model[v] = g.Value(z.Var(v).Pos())
		}
		return PresolveResult{Model: model}
	case -1: // unsatisfiable
		return PresolveResult{Unsat: true}
	default: // gini gave up without a bound; treat as "no hint available"
		return PresolveResult{}
	}
}

func litOf(signed int) z.Lit {
	if signed < 0 {
		return z.Var(-signed).Neg()
	}
	return z.Var(signed).Pos()
}
