package cpsolver

// Decision is a binary branch in the search tree: Apply commits the left
// (positive) branch, Refute commits the right (negation) branch after the
// left has been fully explored and failed.
type Decision interface {
	Apply(s *Solver)
	Refute(s *Solver)
	String() string
}

// DecisionBuilder supplies the next Decision at each node of the tree, or
// nil once the current branch has reached a leaf.
type DecisionBuilder interface {
	Next(s *Solver) Decision
}

// DecisionBuilderFunc adapts a plain function to DecisionBuilder.
type DecisionBuilderFunc func(s *Solver) Decision

func (f DecisionBuilderFunc) Next(s *Solver) Decision { return f(s) }

// DecisionModification is how a Search's branch selector may rewrite a
// decision just returned by the DecisionBuilder, before it is applied.
type DecisionModification int

const (
	// NoChange applies the decision as returned.
	NoChange DecisionModification = iota
	// SwitchBranches wraps the decision so Apply and Refute swap.
	SwitchBranches
	// KeepLeft commits the left branch without opening a right branch.
	KeepLeft
	// KeepRight commits the right branch without opening a left branch.
	KeepRight
	// KillBoth fails immediately, exploring neither branch.
	KillBoth
)

// BranchSelector lets an installed callback choose the DecisionModification
// applied to every decision the active search makes.
type BranchSelector func(s *Solver, d Decision) DecisionModification

// reverseDecision swaps Apply and Refute of an underlying decision; used
// to implement SwitchBranches.
type reverseDecision struct {
	inner Decision
}

func (r *reverseDecision) Apply(s *Solver)  { r.inner.Refute(s) }
func (r *reverseDecision) Refute(s *Solver) { r.inner.Apply(s) }
func (r *reverseDecision) String() string   { return "Reverse(" + r.inner.String() + ")" }

// failDecision immediately fails on either branch. The search loop treats
// it specially: returning it from a DecisionBuilder fails before the two
// branches are even pushed, matching the original's FailDecision.
type failDecision struct{}

func (failDecision) Apply(s *Solver)  { s.Fail() }
func (failDecision) Refute(s *Solver) { s.Fail() }
func (failDecision) String() string   { return "FailDecision" }

// FailDecision returns the sentinel decision that forces an immediate
// failure when returned from a DecisionBuilder.
func FailDecision() Decision { return failDecision{} }

// AddConstraintDecisionBuilder returns a one-shot DecisionBuilder whose
// sole effect is posting c, used by CheckConstraint.
func AddConstraintDecisionBuilder(c Constraint) DecisionBuilder {
	return DecisionBuilderFunc(func(s *Solver) Decision {
		s.AddConstraint(c)
		return nil
	})
}
