package cpsolver

// MarkerType distinguishes what a StateMarker means to BacktrackOneLevel /
// BacktrackToSentinel as the marker stack unwinds.
type MarkerType int

const (
	// SimpleMarkerType brackets a plain PushState/PopState pair.
	SimpleMarkerType MarkerType = iota
	// ChoicePointMarkerType records a binary decision point.
	ChoicePointMarkerType
	// SentinelMarkerType bounds an unwind region with a magic code.
	SentinelMarkerType
	// ReversibleActionMarkerType carries a deferred undo Action.
	ReversibleActionMarkerType
)

// Sentinel magic codes, in the order they are pushed onto a Search's
// marker stack: one per solver, one per (nested or top-level) search, and
// one marking the end of root-node propagation.
const (
	SolverCtorSentinel = iota
	InitialSearchSentinel
	RootNodeSentinel
)

// StateInfo carries per-marker metadata. MagicCode is reused for two
// purposes depending on kind: on a SentinelMarkerType it is the sentinel's
// magic code; on a ChoicePointMarkerType it is the branch tag (0 = left
// branch still open, 1 = right branch already taken).
type StateInfo struct {
	Decision   Decision
	MagicCode  int
	Depth      int
	LeftDepth  int
	Action     Action
	FastAction bool
}

// stateMarker snapshots every trail kind's size, plus the MarkerType and
// StateInfo, at the moment it is pushed. Search owns a stack of these.
type stateMarker struct {
	kind MarkerType
	mark Mark
	info StateInfo
}
