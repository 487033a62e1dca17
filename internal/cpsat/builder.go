package cpsat

import (
	"fmt"

	"github.com/gophercp/cpcore/pkg/cpsolver"
)

// Model is a CNF lowered onto pkg/cpsolver: one 0/1 IntVar per DIMACS
// variable, plus one checking clause constraint per CNF clause.
type Model struct {
	Vars  []*cpsolver.IntVar // 1-indexed; Vars[0] is nil
	Hint  []bool             // gini's model, if any, used only to order decisions
}

// Build lowers cnf onto s: a boolean IntVar per variable and a
// clauseConstraint per clause, wired through the same Constraint
// interface any other collaborator posts against.
func Build(s *cpsolver.Solver, cnf *CNF, presolve PresolveResult) *Model {
	vars := make([]*cpsolver.IntVar, cnf.NumVars+1)
	for v := 1; v <= cnf.NumVars; v++ {
		vars[v] = cpsolver.NewIntVar(s, 0, 1, fmt.Sprintf("b%d", v))
	}
	for _, clause := range cnf.Clauses {
		s.AddConstraint(&clauseConstraint{vars: vars, literals: clause})
	}
	return &Model{Vars: vars, Hint: presolve.Model}
}

// DecisionBuilder returns a builder that assigns every boolean variable
// in order, trying gini's hinted value first when a presolve hint is
// available, falling back to AssignSmallest's plain 0-first order
// otherwise.
func (m *Model) DecisionBuilder() cpsolver.DecisionBuilder {
	return &hintedAssign{model: m}
}

type hintedAssign struct {
	model *Model
}

func (b *hintedAssign) Next(s *cpsolver.Solver) cpsolver.Decision {
	for i, v := range b.model.Vars {
		if v == nil || v.Bound() {
			continue
		}
		val := v.Min()
		if b.model.Hint != nil && i < len(b.model.Hint) {
			if b.model.Hint[i] {
				val = 1
			} else {
				val = 0
			}
			if !v.Contains(val) {
				val = v.Min()
			}
		}
		return &cpsolver.AssignVariableValue{Var: v, Val: val}
	}
	return nil
}

// clauseConstraint fails once every literal in the clause is bound false;
// it is satisfied as soon as one literal is bound true.
type clauseConstraint struct {
	vars     []*cpsolver.IntVar
	literals []int
}

func (c *clauseConstraint) Post(s *cpsolver.Solver) {
	d := cpsolver.NewDemon(cpsolver.NormalPriority, c.check)
	for _, lit := range c.literals {
		c.vars[abs(lit)].WhenBound(d)
	}
}

func (c *clauseConstraint) InitialPropagate(s *cpsolver.Solver) { c.check(s) }

func (c *clauseConstraint) check(s *cpsolver.Solver) {
	for _, lit := range c.literals {
		v := c.vars[abs(lit)]
		if !v.Bound() {
			return // not everything is assigned yet; can't conclude
		}
		want := 1
		if lit < 0 {
			want = 0
		}
		if v.Value() == want {
			return // clause satisfied by this literal
		}
	}
	s.Fail()
}
