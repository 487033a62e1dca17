package cpsolver

// Search is one level of the solve stack: a marker stack recording every
// PushState since the level was opened, the DecisionBuilder currently
// driving it, its registered monitors, and the tree-position counters
// those monitors query. The root Search (searches[0]) starts with the
// solver-constructor sentinel and hosts the top-level search that
// NewSearch opens; NestedSolve pushes a fresh one for every nested search.
type Search struct {
	solver *Solver

	markers []*stateMarker
	monitors monitorBus

	decisionBuilder DecisionBuilder
	branchSelector  BranchSelector
	createdBySolve  bool

	solutionCounter int64
	searchDepth     int
	leftSearchDepth int
	sentinelPushed  int

	shouldRestart bool
	shouldFinish  bool
}

func newSearch(s *Solver) *Search {
	return &Search{solver: s}
}

// reset clears a Search back to its just-constructed state, so it can be
// reused by the next NewSearch/CheckAssignment on the same Solver.
func (sr *Search) reset() {
	sr.markers = nil
	sr.monitors = monitorBus{}
	sr.decisionBuilder = nil
	sr.branchSelector = nil
	sr.createdBySolve = false
	sr.solutionCounter = 0
	sr.searchDepth = 0
	sr.leftSearchDepth = 0
	sr.sentinelPushed = 0
	sr.shouldRestart = false
	sr.shouldFinish = false
}

func (sr *Search) leftMove()  { sr.searchDepth++; sr.leftSearchDepth++ }
func (sr *Search) rightMove() { sr.searchDepth++ }

// SetBranchSelector installs bs as the active search's decision rewriter,
// trailed so it reverts once the search backtracks past this point.
func (s *Solver) SetBranchSelector(bs BranchSelector) {
	search := s.activeSearch()
	depth := s.SolveDepth()
	s.AddBacktrackAction(ActionFunc(func(s *Solver) {
		if s.SolveDepth() == depth {
			s.activeSearch().branchSelector = nil
		}
	}), false)
	search.branchSelector = bs
}

// RestartAtSolution marks the active search to restart (rather than
// backtrack one level) on the next failure; used by monitors that want to
// abandon the current subtree and start over, e.g. after a timeout.
func (s *Solver) RestartAtSolution() { s.activeSearch().shouldRestart = true }

// FinishCurrentSearch marks the active search to unwind to its sentinel
// and stop (rather than keep backtracking) on the next failure.
func (s *Solver) FinishCurrentSearch() { s.activeSearch().shouldFinish = true }

// --- marker stack: PushState / PopState and friends ---

// pushState records a new marker of kind on the active search's stack,
// snapshotting the trail unless this is a fast (un-trailed) reversible
// action.
func (s *Solver) pushState(kind MarkerType, info StateInfo) {
	m := &stateMarker{kind: kind, info: info}
	if kind != ReversibleActionMarkerType || !info.FastAction {
		m.mark = s.trail.Mark()
	}
	search := s.activeSearch()
	search.markers = append(search.markers, m)
	s.queue.bumpStamp()
}

// PushState brackets the start of a plain reversible region.
func (s *Solver) PushState() { s.pushState(SimpleMarkerType, StateInfo{}) }

func (s *Solver) popState() (StateInfo, MarkerType) {
	search := s.activeSearch()
	if len(search.markers) == 0 {
		panic(newMisuse("PopState", "marker stack is empty"))
	}
	m := search.markers[len(search.markers)-1]
	search.markers = search.markers[:len(search.markers)-1]
	if m.kind != ReversibleActionMarkerType || !m.info.FastAction {
		s.trail.BacktrackTo(m.mark)
	}
	s.queue.bumpStamp()
	return m.info, m.kind
}

// PopState closes the most recently opened PushState region, undoing
// everything trailed since.
func (s *Solver) PopState() {
	info, kind := s.popState()
	if kind != SimpleMarkerType {
		panic(newMisuse("PopState", "marker is not a simple PushState region"))
	}
	_ = info
}

// AddBacktrackAction registers a, run when backtracking undoes past this
// point. fast skips the trail-mark snapshot, for actions that are known
// never to need it (the original's "fast reversible action" case).
func (s *Solver) AddBacktrackAction(a Action, fast bool) {
	s.pushState(ReversibleActionMarkerType, StateInfo{Action: a, FastAction: fast})
}

func (s *Solver) pushSentinel(magicCode int) {
	s.pushState(SentinelMarkerType, StateInfo{MagicCode: magicCode})
	if magicCode != SolverCtorSentinel {
		s.activeSearch().sentinelPushed++
	}
}

// backtrackOneLevel pops markers until it either finds an unrefuted
// (left-branch) choice point, which it returns so the caller can refute
// it, or hits the active search's sentinel, signaling the tree is
// exhausted.
func (s *Solver) backtrackOneLevel() (failDecision Decision, noMore bool) {
	search := s.activeSearch()
	for {
		info, kind := s.popState()
		switch kind {
		case SentinelMarkerType:
			search.sentinelPushed--
			noMore = true
			goto unwound
		case ChoicePointMarkerType:
			if info.MagicCode == 0 { // was the left branch, still open
				failDecision = info.Decision
				search.searchDepth = info.Depth
				search.leftSearchDepth = info.LeftDepth
				goto unwound
			}
		case ReversibleActionMarkerType:
			info.Action.Run(s)
		case SimpleMarkerType:
			// Should not be encountered during search; ignore.
		}
	}
unwound:
	search.monitors.endFail(s)
	s.callFailHooks()
	s.failStamp++
	if noMore {
		search.monitors.noMoreSolutions(s)
	}
	return failDecision, noMore
}

// backtrackToSentinel pops markers (running every reversible action it
// passes) until it finds a sentinel tagged magicCode.
func (s *Solver) backtrackToSentinel(magicCode int) {
	search := s.activeSearch()
	if search.sentinelPushed == 0 {
		s.failStamp++
		return
	}
	for {
		info, kind := s.popState()
		switch kind {
		case SentinelMarkerType:
			search.sentinelPushed--
			search.searchDepth = 0
			search.leftSearchDepth = 0
			if info.MagicCode == magicCode {
				s.failStamp++
				return
			}
		case ReversibleActionMarkerType:
			info.Action.Run(s)
		case ChoicePointMarkerType, SimpleMarkerType:
			// no-op
		}
	}
}

// jumpToSentinelWhenNested closes the active (nested) search without
// undoing its trail: every ReversibleAction marker it holds is migrated
// to the parent search so it still fires when the parent itself
// backtracks past this point; every other marker is simply dropped
// in place, per spec.md §9.
func (s *Solver) jumpToSentinelWhenNested() {
	if s.SolveDepth() <= 1 {
		panic(newMisuse("jumpToSentinelWhenNested", "called from the top level"))
	}
	child := s.activeSearch()
	parent := s.parentSearch()
	found := false
	for len(child.markers) > 0 {
		m := child.markers[len(child.markers)-1]
		child.markers = child.markers[:len(child.markers)-1]
		switch m.kind {
		case ReversibleActionMarkerType:
			parent.markers = append(parent.markers, m)
		case SentinelMarkerType:
			found = true
		}
	}
	child.searchDepth = 0
	child.leftSearchDepth = 0
	if !found {
		panic(newMisuse("jumpToSentinelWhenNested", "sentinel not found"))
	}
}
