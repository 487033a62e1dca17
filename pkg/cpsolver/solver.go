package cpsolver

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GlobalState is the Solver's top-level phase, mirroring the original's
// OUTSIDE_SEARCH/IN_ROOT_NODE/IN_SEARCH/AT_SOLUTION/NO_MORE_SOLUTIONS/
// PROBLEM_INFEASIBLE enum.
type GlobalState int

const (
	StateOutsideSearch GlobalState = iota
	StateInRootNode
	StateInSearch
	StateAtSolution
	StateNoMoreSolutions
	StateProblemInfeasible
)

func (g GlobalState) String() string {
	switch g {
	case StateOutsideSearch:
		return "OUTSIDE_SEARCH"
	case StateInRootNode:
		return "IN_ROOT_NODE"
	case StateInSearch:
		return "IN_SEARCH"
	case StateAtSolution:
		return "AT_SOLUTION"
	case StateNoMoreSolutions:
		return "NO_MORE_SOLUTIONS"
	case StateProblemInfeasible:
		return "PROBLEM_INFEASIBLE"
	default:
		return "UNKNOWN"
	}
}

// falseConstraint fails as soon as it is propagated; it is what a Fail()
// called outside any try-region degrades to (see poison below) instead of
// letting a panic escape uncaught.
type falseConstraint struct{ reason string }

func (falseConstraint) Post(*Solver) {}
func (c falseConstraint) InitialPropagate(s *Solver) {
	s.Fail()
}

// Solver is the root object of a constraint-programming run: it owns the
// reversible Trail, the propagation Queue, the stack of (possibly nested)
// Searches, and global bookkeeping (statistics, naming, rev-alloc).
// Everything a constraint or search procedure does flows back through one
// of its methods, the same "everything through the solver" shape the
// original C++ class has.
type Solver struct {
	name   string
	params SolverParameters

	trail *Trail
	queue *Queue
	names *nameRegistry

	propagation   propagationBus
	demonProfiler *demonProfiler

	searches []*Search

	state        GlobalState
	constraints  []Constraint
	failStamp    uint64
	anonymousIndex int

	branches, fails, decisions int64
	demonRuns                  [numPriorities]int64

	rng *rand.Rand

	failIntercept func()
	failHooks     []Action

	tryDepth int

	startTime time.Time
}

// NewSolver creates a Solver named name, applying opts over
// DefaultSolverParameters().
func NewSolver(name string, opts ...Option) *Solver {
	s := &Solver{
		name:      name,
		params:    DefaultSolverParameters(),
		names:     newNameRegistry(),
		rng:       rand.New(rand.NewPCG(42, 1)),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.trail = NewTrail(s.params.TrailBlockSize, s.params.CompressTrail)
	s.queue = newQueue(s)

	if s.params.ProfileLevel == NormalProfiling {
		s.demonProfiler = newDemonProfiler()
		s.propagation.push(s.demonProfiler)
	}
	if s.params.TraceLevel == NormalTrace {
		s.propagation.push(newPrintTracePropagationMonitor())
	}

	root := newSearch(s)
	s.searches = append(s.searches, root)
	s.pushSentinel(SolverCtorSentinel)
	return s
}

// Name returns the solver's display name.
func (s *Solver) Name() string { return s.name }

// Params returns the solver's effective configuration.
func (s *Solver) Params() SolverParameters { return s.params }

// Trail exposes the reversible log for constraint implementations that
// need direct access beyond the Save* convenience methods below.
func (s *Solver) Trail() *Trail { return s.trail }

// Rand returns the solver's deterministic random source, seeded at
// construction time so two runs over the same model explore the same tree.
func (s *Solver) Rand() *rand.Rand { return s.rng }

// --- reversible modification helpers ---

// SaveAndSetInt trails addr's current value, then sets it to v.
func (s *Solver) SaveAndSetInt(addr *int, v int) {
	if *addr != v {
		s.trail.SaveInt(addr)
		*addr = v
	}
}

// SaveAndSetInt64 trails addr's current value, then sets it to v.
func (s *Solver) SaveAndSetInt64(addr *int64, v int64) {
	if *addr != v {
		s.trail.SaveInt64(addr)
		*addr = v
	}
}

// SaveAndSetUint64 trails addr's current value, then sets it to v.
func (s *Solver) SaveAndSetUint64(addr *uint64, v uint64) {
	if *addr != v {
		s.trail.SaveUint64(addr)
		*addr = v
	}
}

// SaveAndSetBool trails addr's current value, then sets it to v.
func (s *Solver) SaveAndSetBool(addr *bool, v bool) {
	if *addr != v {
		s.trail.SaveBool(addr)
		*addr = v
	}
}

// SaveAndSetHandle trails addr's current value, then sets it to v.
func (s *Solver) SaveAndSetHandle(addr *Handle, v Handle) {
	if *addr != v {
		s.trail.SaveHandle(addr)
		*addr = v
	}
}

// RevAlloc registers an undo closure that runs on backtrack past this
// point, the Go-idiomatic stand-in for the original's rev-alloc family:
// there is nothing to free under a GC, only behavior to unwind.
func (s *Solver) RevAlloc(undo func()) { s.trail.DeferUndo(undo) }

// Stamp returns the Queue's monotonic stamp.
func (s *Solver) Stamp() uint64 { return s.queue.Stamp() }

// FailStamp returns a counter bumped each time the solver backtracks one
// level or to a sentinel, whether or not a failure caused it.
func (s *Solver) FailStamp() uint64 { return s.failStamp }

// FreezeQueue suspends demon draining until a matching UnfreezeQueue.
func (s *Solver) FreezeQueue() { s.queue.Freeze() }

// UnfreezeQueue resumes demon draining, running to fixpoint if this was
// the outermost freeze.
func (s *Solver) UnfreezeQueue() { s.queue.Unfreeze() }

// Enqueue schedules d to run, subject to the Queue's idempotence
// invariant.
func (s *Solver) Enqueue(d Demon) { s.queue.Enqueue(d) }

// SetActionOnFail registers a, to run once on the next failure.
func (s *Solver) SetActionOnFail(a Action) { s.queue.SetActionOnFail(a) }

// ClearActionOnFail cancels a previously registered on-failure Action.
func (s *Solver) ClearActionOnFail() { s.queue.ClearActionOnFail() }

// AddFailHook registers a to run, in FIFO order, on every failure from
// this point until backtracked past, cumulative with any other hooks
// already registered.
func (s *Solver) AddFailHook(a Action) {
	idx := len(s.failHooks)
	s.failHooks = append(s.failHooks, a)
	s.RevAlloc(func() { s.failHooks = s.failHooks[:idx] })
}

func (s *Solver) callFailHooks() {
	for _, h := range s.failHooks {
		h.Run(s)
	}
}

// Branches, Fails, Decisions, DemonRuns report running statistics.
func (s *Solver) Branches() int64                    { return s.branches }
func (s *Solver) Fails() int64                        { return s.fails }
func (s *Solver) Decisions() int64                    { return s.decisions }
func (s *Solver) DemonRuns(p DemonPriority) int64      { return s.demonRuns[p] }
func (s *Solver) WallTime() time.Duration              { return time.Since(s.startTime) }

// DemonRunCount reports how many times d has run, when the solver was
// built WithProfileLevel(NormalProfiling); zero otherwise.
func (s *Solver) DemonRunCount(d Demon) int64 {
	if s.demonProfiler == nil {
		return 0
	}
	return s.demonProfiler.runCount(d)
}

// State returns the solver's current top-level phase.
func (s *Solver) State() GlobalState { return s.state }

// SolveDepth is zero while State() is StateOutsideSearch, and otherwise
// the number of (possibly nested) searches on the search stack, the
// top-level search counting as one.
func (s *Solver) SolveDepth() int {
	if s.state == StateOutsideSearch {
		return 0
	}
	return len(s.searches)
}

func (s *Solver) activeSearch() *Search { return s.searches[len(s.searches)-1] }

func (s *Solver) parentSearch() *Search {
	if len(s.searches) < 2 {
		panic(newMisuse("parentSearch", "no parent search at top level"))
	}
	return s.searches[len(s.searches)-2]
}

// SearchDepth and SearchLeftDepth report the active search's current tree
// position: total branches taken, and branches taken on the leftmost
// (unrefuted) path.
func (s *Solver) SearchDepth() int     { return s.activeSearch().searchDepth }
func (s *Solver) SearchLeftDepth() int { return s.activeSearch().leftSearchDepth }

// Solutions returns how many solutions the active search has accepted.
func (s *Solver) Solutions() int64 { return s.activeSearch().solutionCounter }

// currentlyInSolve reports whether the active search was opened by Solve
// (as opposed to NewSearch/NextSolution called directly).
func (s *Solver) currentlyInSolve() bool {
	return s.activeSearch().createdBySolve
}

// --- constraints ---

// AddConstraint posts c. Outside a search it is recorded for the next
// NewSearch's root-node propagation; inside IN_ROOT_NODE it is queued to
// propagate alongside the rest of the root's constraints; inside
// IN_SEARCH it propagates immediately through the Queue.
func (s *Solver) AddConstraint(c Constraint) {
	switch s.state {
	case StateInSearch:
		s.queue.AddConstraint(c)
	case StateInRootNode:
		s.constraints = append(s.constraints, c)
	default:
		s.constraints = append(s.constraints, c)
	}
}

// AddCastConstraint posts constraint, the auxiliary constraint that
// enforces target == expr for an intermediate expression variable. It is
// plumbing for constraint libraries that model compound expressions as a
// fresh variable plus a linking constraint; the core only needs to post
// it like any other.
func (s *Solver) AddCastConstraint(constraint Constraint) {
	if constraint != nil {
		s.AddConstraint(constraint)
	}
}

func (s *Solver) postAndPropagate(c Constraint) {
	c.Post(s)
	s.queue.Freeze()
	s.propagation.beginConstraintInitialPropagation(c)
	s.PushContext(fmt.Sprintf("%T", c))
	c.InitialPropagate(s)
	s.PopContext()
	s.propagation.endConstraintInitialPropagation(c)
	s.queue.Unfreeze()
}

// PushContext and PopContext bracket a named region of propagation for
// PropagationMonitors that want to report where a domain mutation came
// from, mirroring the original's PushContext/PopContext pair that
// constraint libraries call around their own propagation passes.
func (s *Solver) PushContext(name string) { s.propagation.pushContext(name) }
func (s *Solver) PopContext()             { s.propagation.popContext() }

func (s *Solver) processConstraints() {
	for len(s.constraints) > 0 {
		pending := s.constraints
		s.constraints = nil
		for _, c := range pending {
			s.postAndPropagate(c)
		}
	}
}

// --- naming ---

// Naming and handle allocation live in names.go; Solver.NewHandle is
// defined there.

// --- failure / non-local escape ---

// Fail aborts the current decision path. Within a protected search-loop
// region it unwinds to the nearest enclosing BacktrackOneLevel/
// BacktrackToSentinel call via panic/recover; outside any such region
// (e.g. a constraint posted and immediately propagated before any search
// is open) it degrades safely by poisoning the solver instead of letting
// the panic escape uncaught, matching the spirit of the original's
// "failure with no jmp_buf installed" case.
func (s *Solver) Fail() {
	if s.failIntercept != nil {
		s.failIntercept()
		return
	}
	s.fails++
	if s.tryDepth == 0 {
		// No try-region is active anywhere on the call stack: record a
		// constraint that will fail the next time anyone actually
		// propagates, instead of letting the panic escape uncaught.
		s.constraints = append(s.constraints, falseConstraint{reason: "Fail() called outside of a search"})
		return
	}
	s.activeSearch().monitors.beginFail(s)
	panic(failSignal{})
}

// protect runs fn inside a try-region: a Fail() anywhere within fn (even
// through arbitrary intermediate call frames) is caught here instead of
// unwinding further, mirroring the original's CP_TRY/CP_ON_FAIL pair.
func (s *Solver) protect(fn func()) (failed bool) {
	s.tryDepth++
	defer func() { s.tryDepth-- }()
	return protect(fn)
}

// --- top-level search control ---

func sentinelForLevel(topLevel bool) int {
	if topLevel {
		return RootNodeSentinel
	}
	return InitialSearchSentinel
}

// NewSearch opens a new top-level search over db, installing monitors in
// the order given. It must not be called while a search is already open;
// use NestedSolve for that.
func (s *Solver) NewSearch(db DecisionBuilder, monitors ...SearchMonitor) {
	if s.state == StateInSearch || s.state == StateInRootNode {
		panic(newMisuse("NewSearch", "use NestedSolve inside an open search"))
	}
	search := s.activeSearch()
	search.createdBySolve = false

	s.backtrackToSentinel(InitialSearchSentinel)
	s.state = StateOutsideSearch

	for _, m := range monitors {
		search.monitors.push(m)
		if pm, ok := m.(PropagationMonitor); ok {
			s.propagation.push(pm)
		}
	}
	search.monitors.enterSearch(s)

	s.pushSentinel(InitialSearchSentinel)
	search.decisionBuilder = db
}

// NextSolution advances the active search to its next solution, returning
// false once the tree is exhausted or the root node is infeasible.
func (s *Solver) NextSolution() bool {
	search := s.activeSearch()
	var fd Decision
	solveDepth := s.SolveDepth()
	topLevel := solveDepth <= 1

	if solveDepth == 0 && search.decisionBuilder == nil {
		return false
	}

	if topLevel {
		switch s.state {
		case StateProblemInfeasible, StateNoMoreSolutions:
			return false
		case StateAtSolution:
			var noMore bool
			fd, noMore = s.backtrackOneLevel()
			if noMore {
				s.state = StateNoMoreSolutions
				return false
			}
			s.state = StateInSearch
		case StateOutsideSearch:
			s.state = StateInRootNode
			search.monitors.beginInitialPropagation(s)
			failed := s.protect(func() {
				s.processConstraints()
				search.monitors.endInitialPropagation(s)
				s.pushSentinel(RootNodeSentinel)
				s.state = StateInSearch
			})
			if failed {
				s.queue.AfterFailure()
				s.backtrackToSentinel(InitialSearchSentinel)
				s.state = StateProblemInfeasible
				return false
			}
		case StateInSearch:
			// Usually after RestartSearch.
		case StateInRootNode:
			panic(newMisuse("NextSolution", "should not happen"))
		}
	}

	var finish, result bool
	db := search.decisionBuilder

	for !finish {
		failed := s.protect(func() {
			if fd != nil {
				info := StateInfo{Decision: fd, MagicCode: 1, Depth: search.searchDepth, LeftDepth: search.leftSearchDepth}
				s.pushState(ChoicePointMarkerType, info)
				search.monitors.refuteDecision(s, fd)
				s.branches++
				fd.Refute(s)
				search.monitors.afterDecision(s, fd, false)
				search.rightMove()
				fd = nil
			}
			var d Decision
			for {
				search.monitors.beginNextDecision(s, db)
				d = db.Next(s)
				search.monitors.endNextDecision(s, db, d)
				if _, ok := d.(failDecision); ok {
					s.Fail()
				}
				if d == nil {
					break
				}
				modification := NoChange
				if search.branchSelector != nil {
					modification = search.branchSelector(s, d)
				}
				switch modification {
				case SwitchBranches:
					d = &reverseDecision{inner: d}
					fallthrough
				case NoChange:
					s.decisions++
					info := StateInfo{Decision: d, MagicCode: 0, Depth: search.searchDepth, LeftDepth: search.leftSearchDepth}
					s.pushState(ChoicePointMarkerType, info)
					search.monitors.applyDecision(s, d)
					s.branches++
					d.Apply(s)
					search.monitors.afterDecision(s, d, true)
					search.leftMove()
				case KeepLeft:
					search.monitors.applyDecision(s, d)
					d.Apply(s)
					search.monitors.afterDecision(s, d, true)
				case KeepRight:
					search.monitors.refuteDecision(s, d)
					d.Refute(s)
					search.monitors.afterDecision(s, d, false)
				case KillBoth:
					s.Fail()
				}
			}
			if search.monitors.acceptSolution(s) {
				search.solutionCounter++
				if !search.monitors.atSolution(s) || !s.currentlyInSolve() {
					result = true
					finish = true
				} else {
					s.Fail()
				}
			} else {
				s.Fail()
			}
		})
		if failed {
			s.queue.AfterFailure()
			switch {
			case search.shouldFinish:
				fd = nil
				s.backtrackToSentinel(sentinelForLevel(topLevel))
				result = false
				finish = true
				search.shouldFinish = false
				search.shouldRestart = false
			case search.shouldRestart:
				fd = nil
				s.backtrackToSentinel(sentinelForLevel(topLevel))
				search.shouldFinish = false
				search.shouldRestart = false
				s.pushSentinel(sentinelForLevel(topLevel))
				search.monitors.restartSearch(s)
			default:
				var noMore bool
				fd, noMore = s.backtrackOneLevel()
				if noMore {
					result = false
					finish = true
				}
			}
		}
	}
	if topLevel {
		if result {
			s.state = StateAtSolution
		} else {
			s.state = StateNoMoreSolutions
		}
	}
	return result
}

// EndSearch closes the top-level search opened by NewSearch.
func (s *Solver) EndSearch() {
	if len(s.searches) != 1 {
		panic(newMisuse("EndSearch", "nested searches still open"))
	}
	search := s.activeSearch()
	s.backtrackToSentinel(InitialSearchSentinel)
	search.monitors.exitSearch(s)
	search.reset()
	s.state = StateOutsideSearch
}

// Solve runs db to completion, returning whether at least one solution was
// accepted, and leaves no search open on return. If the root node was
// infeasible, State() reports StateProblemInfeasible afterwards.
func (s *Solver) Solve(db DecisionBuilder, monitors ...SearchMonitor) bool {
	s.NewSearch(db, monitors...)
	s.activeSearch().createdBySolve = true
	s.NextSolution()
	found := s.activeSearch().solutionCounter > 0
	infeasible := s.state == StateProblemInfeasible
	s.EndSearch()
	if infeasible {
		s.state = StateProblemInfeasible
	}
	return found
}

// RestartSearch discards every choice made since the last sentinel at the
// active search's level and resumes exploring from there, notifying every
// registered monitor's RestartSearch hook.
func (s *Solver) RestartSearch() {
	search := s.activeSearch()
	if search.sentinelPushed == 0 {
		panic(newMisuse("RestartSearch", "no sentinel pushed"))
	}
	topLevel := s.SolveDepth() == 1
	if topLevel {
		if search.sentinelPushed > 1 {
			s.backtrackToSentinel(RootNodeSentinel)
		}
		s.pushSentinel(RootNodeSentinel)
		s.state = StateInSearch
	} else {
		if search.sentinelPushed > 0 {
			s.backtrackToSentinel(InitialSearchSentinel)
		}
		s.pushSentinel(InitialSearchSentinel)
	}
	search.monitors.restartSearch(s)
}

// CheckAssignment restores solution's variable assignments through
// restoreFn, propagates every posted constraint, and reports whether the
// result is consistent. No search is left open on return.
func (s *Solver) CheckAssignment(restoreFn func(s *Solver)) bool {
	if s.state == StateInSearch || s.state == StateInRootNode {
		panic(newMisuse("CheckAssignment", "use NestedSolve inside an open search"))
	}
	search := s.activeSearch()
	search.createdBySolve = false

	s.backtrackToSentinel(InitialSearchSentinel)
	s.state = StateOutsideSearch
	search.monitors.enterSearch(s)

	s.pushSentinel(InitialSearchSentinel)
	search.monitors.beginInitialPropagation(s)

	var ok bool
	failed := s.protect(func() {
		s.state = StateInRootNode
		restoreFn(s)
		s.processConstraints()
		search.monitors.endInitialPropagation(s)
		s.backtrackToSentinel(InitialSearchSentinel)
		s.state = StateOutsideSearch
		ok = true
	})
	if failed {
		s.queue.AfterFailure()
		s.backtrackToSentinel(InitialSearchSentinel)
		s.state = StateProblemInfeasible
		return false
	}
	return ok
}

// CheckConstraint reports whether ct alone is satisfiable from the
// current state, without altering it.
func (s *Solver) CheckConstraint(ct Constraint) bool {
	return s.Solve(AddConstraintDecisionBuilder(ct))
}

// NestedSolve opens a fresh, inner Search over db, runs it to its first
// solution, and either restores the state it explored (restore=true) or
// migrates its reversible actions up to the parent search before leaving
// them in place (restore=false, via JumpToSentinelWhenNested). It is the
// core's only supported way to run a sub-search from inside a decision or
// constraint.
func (s *Solver) NestedSolve(db DecisionBuilder, restore bool, monitors ...SearchMonitor) bool {
	nested := newSearch(s)
	s.searches = append(s.searches, nested)

	for _, m := range monitors {
		nested.monitors.push(m)
		if pm, ok := m.(PropagationMonitor); ok {
			s.propagation.push(pm)
		}
	}
	nested.createdBySolve = true
	nested.monitors.enterSearch(s)
	s.pushSentinel(InitialSearchSentinel)
	nested.decisionBuilder = db

	res := s.NextSolution()
	if res {
		if restore {
			s.backtrackToSentinel(InitialSearchSentinel)
		} else {
			s.jumpToSentinelWhenNested()
		}
	}
	nested.monitors.exitSearch(s)
	nested.reset()
	s.searches = s.searches[:len(s.searches)-1]
	return res
}

func (s *Solver) String() string {
	return fmt.Sprintf("Solver(%s)", s.name)
}
