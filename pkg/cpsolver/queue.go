package cpsolver

import "math"

// DemonPriority orders how demons drain relative to one another within a
// single propagation cycle. NORMAL strictly precedes VAR, which strictly
// precedes DELAYED.
type DemonPriority int

const (
	DelayedPriority DemonPriority = iota
	VarPriority
	NormalPriority
	numPriorities
)

// maxStamp inhibits a demon semi-permanently: no ordinary stamp bump will
// ever make it eligible to enqueue again.
const maxStamp = math.MaxUint64

// Demon is a reactive callback attached to a variable event. Concrete
// demons embed BaseDemon to get the stamp bookkeeping the Queue needs;
// the embedding mirrors the original's per-demon stamp field without
// exposing it as a public, independently mutable API.
type Demon interface {
	Run(s *Solver)
	Priority() DemonPriority
	stamp() uint64
	setStamp(v uint64)
}

// BaseDemon supplies the stamp bookkeeping every Demon implementation
// needs. Embed it and implement Run/Priority to define a demon.
type BaseDemon struct {
	s uint64
}

func (d *BaseDemon) stamp() uint64     { return d.s }
func (d *BaseDemon) setStamp(v uint64) { d.s = v }

// Inhibit semi-permanently suppresses the demon: it is trailed, so
// backtracking past this point desinhibits it again.
func (d *BaseDemon) Inhibit(s *Solver) {
	if d.s < maxStamp {
		s.SaveAndSetUint64(&d.s, maxStamp)
	}
}

// Desinhibit reverses Inhibit, re-arming the demon for the current stamp.
func (d *BaseDemon) Desinhibit(s *Solver) {
	if d.s == maxStamp {
		s.SaveAndSetUint64(&d.s, s.Stamp()-1)
	}
}

// Action is a deferred operation invoked on undo or on failure. Unlike a
// Demon it carries no priority and is never queued.
type Action interface {
	Run(s *Solver)
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(s *Solver)

func (f ActionFunc) Run(s *Solver) { f(s) }

// Constraint is posted once into the solver and propagates from then on
// through demons it registers. It is the minimal surface the core's Queue
// needs; the concrete constraint library is an external collaborator
// (spec.md §1) built against this interface, not part of the core.
type Constraint interface {
	Post(s *Solver)
	InitialPropagate(s *Solver)
}

// fifo is a simple ring-buffer FIFO queue of demons that doubles its
// backing slice when full and drops it on clear — the Go-idiomatic analog of
// the original's intrusive free-listed cell queue, which exists in C++
// to avoid a malloc per enqueue. Go's GC makes that concern moot; what
// remains worth keeping is a O(1) push/pop without per-demon allocation,
// which a slice used as a ring buffer already gives us.
type fifo struct {
	buf        []Demon
	head, size int
}

func (q *fifo) empty() bool { return q.size == 0 }

func (q *fifo) push(d Demon) {
	if q.size == len(q.buf) {
		grown := make([]Demon, max(4, len(q.buf)*2))
		for i := 0; i < q.size; i++ {
			grown[i] = q.buf[(q.head+i)%len(q.buf)]
		}
		q.buf = grown
		q.head = 0
	}
	q.buf[(q.head+q.size)%len(q.buf)] = d
	q.size++
}

func (q *fifo) pop() Demon {
	if q.size == 0 {
		return nil
	}
	d := q.buf[q.head]
	q.buf[q.head] = nil
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return d
}

func (q *fifo) clear() {
	q.buf = nil
	q.head, q.size = 0, 0
}

// Queue schedules demons to fixpoint under a freeze/unfreeze discipline,
// and separately drains constraints posted mid-search (possibly posting
// further constraints of their own) in FIFO order.
type Queue struct {
	solver *Solver
	lanes  [numPriorities]fifo

	stamp       uint64
	freezeLevel int
	inProcess   bool

	onFail Action

	pending []Constraint
	inAdd   bool
}

func newQueue(s *Solver) *Queue {
	return &Queue{solver: s, stamp: 1}
}

// Stamp returns the monotonically increasing value bumped by every
// Freeze/Unfreeze pair and by every marker push/pop.
func (q *Queue) Stamp() uint64 { return q.stamp }

func (q *Queue) bumpStamp() { q.stamp++ }

// Freeze suspends draining until a matching Unfreeze; nested freezes
// stack via a depth counter.
func (q *Queue) Freeze() {
	q.freezeLevel++
	q.stamp++
}

// Unfreeze drops the freeze depth by one and drains to fixpoint once it
// reaches zero.
func (q *Queue) Unfreeze() {
	q.freezeLevel--
	q.processIfUnfrozen()
}

// Enqueue schedules demon to run, unless it has already been enqueued at
// or after the current stamp (the idempotence invariant in spec.md §8).
func (q *Queue) Enqueue(d Demon) {
	if d.stamp() < q.stamp {
		d.setStamp(q.stamp)
		q.lanes[d.Priority()].push(d)
		q.processIfUnfrozen()
	}
}

func (q *Queue) processIfUnfrozen() {
	if q.freezeLevel == 0 {
		q.process()
	}
}

func (q *Queue) processOne(prio DemonPriority) {
	d := q.lanes[prio].pop()
	if d == nil {
		return
	}
	d.setStamp(q.stamp - 1)
	q.solver.demonRuns[prio]++
	q.solver.propagation.beginDemonRun(d)
	d.Run(q.solver)
	q.solver.propagation.endDemonRun(d)
}

// process drains NORMAL fully, then one VAR, repeating until both are
// empty, at which point it pops exactly one DELAYED demon and restarts —
// NORMAL has strict priority over VAR, VAR strict priority over DELAYED,
// and DELAYED runs one at a time so higher-priority work can re-enter.
// Re-entrant calls are ignored: the drain that is already running will
// see whatever was enqueued meanwhile.
func (q *Queue) process() {
	if q.inProcess {
		return
	}
	q.inProcess = true
	defer func() { q.inProcess = false }()
	for !q.lanes[VarPriority].empty() || !q.lanes[NormalPriority].empty() || !q.lanes[DelayedPriority].empty() {
		for !q.lanes[VarPriority].empty() || !q.lanes[NormalPriority].empty() {
			for !q.lanes[NormalPriority].empty() {
				q.processOne(NormalPriority)
			}
			q.processOne(VarPriority)
		}
		q.processOne(DelayedPriority)
	}
}

// AfterFailure discards every pending demon and constraint-add, resets
// freeze/re-entry state, and runs (then clears) the single registered
// on-failure Action. A second failure without re-registering the action
// will not re-run it — preserved intentionally, per spec.md §9.
func (q *Queue) AfterFailure() {
	for i := range q.lanes {
		q.lanes[i].clear()
	}
	if q.onFail != nil {
		act := q.onFail
		q.onFail = nil
		act.Run(q.solver)
	}
	q.freezeLevel = 0
	q.inProcess = false
	q.inAdd = false
	q.pending = q.pending[:0]
}

// SetActionOnFail registers the single Action to run on the next failure.
func (q *Queue) SetActionOnFail(a Action) { q.onFail = a }

// ClearActionOnFail cancels a previously registered on-failure Action.
func (q *Queue) ClearActionOnFail() { q.onFail = nil }

// AddConstraint appends c to the pending post list and drains it if this
// is not a re-entrant call; constraints may themselves add further
// constraints, which are posted within the same drain, FIFO.
func (q *Queue) AddConstraint(c Constraint) {
	q.pending = append(q.pending, c)
	q.processConstraints()
}

func (q *Queue) processConstraints() {
	if q.inAdd {
		return
	}
	q.inAdd = true
	for i := 0; i < len(q.pending); i++ {
		c := q.pending[i]
		q.solver.postAndPropagate(c)
	}
	q.inAdd = false
	q.pending = q.pending[:0]
}
