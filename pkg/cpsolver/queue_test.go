package cpsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingDemon struct {
	BaseDemon
	priority DemonPriority
	name     string
	run      func()
}

func (d *recordingDemon) Priority() DemonPriority { return d.priority }
func (d *recordingDemon) Run(s *Solver) {
	if d.run != nil {
		d.run()
	}
}

func TestQueueDrainsNormalBeforeVarBeforeDelayed(t *testing.T) {
	s := NewSolver("queue-order")
	var order []string

	var normal, varD, delayed *recordingDemon
	varD = &recordingDemon{priority: VarPriority, name: "var", run: func() {
		order = append(order, "var")
	}}
	delayed = &recordingDemon{priority: DelayedPriority, name: "delayed", run: func() {
		order = append(order, "delayed")
		// Re-enqueue normal work mid-delayed-drain: NORMAL must still cut
		// in front of any remaining VAR/DELAYED work.
		s.Enqueue(normal)
	}}
	normal = &recordingDemon{priority: NormalPriority, name: "normal", run: func() {
		order = append(order, "normal")
	}}

	s.queue.Freeze()
	s.Enqueue(delayed)
	s.Enqueue(varD)
	s.Enqueue(normal)
	s.queue.Unfreeze()

	assert.Equal(t, []string{"normal", "var", "delayed", "normal"}, order)
}

func TestQueueEnqueueIsIdempotentWithinAStamp(t *testing.T) {
	s := NewSolver("queue-idempotent")
	runs := 0
	d := &recordingDemon{priority: NormalPriority, run: func() { runs++ }}

	s.queue.Freeze()
	s.Enqueue(d)
	s.Enqueue(d)
	s.Enqueue(d)
	s.queue.Unfreeze()

	assert.Equal(t, 1, runs)
}

func TestQueueAfterFailureRunsOnFailOnceThenClears(t *testing.T) {
	s := NewSolver("queue-onfail")
	runs := 0
	s.SetActionOnFail(ActionFunc(func(s *Solver) { runs++ }))

	s.queue.AfterFailure()
	assert.Equal(t, 1, runs)

	s.queue.AfterFailure()
	assert.Equal(t, 1, runs, "on-fail action must not re-run without being re-registered")
}

func TestQueueFreezeNestingDefersDrainToOutermostUnfreeze(t *testing.T) {
	s := NewSolver("queue-freeze-nesting")
	ran := false
	d := &recordingDemon{priority: NormalPriority, run: func() { ran = true }}

	s.queue.Freeze()
	s.queue.Freeze()
	s.Enqueue(d)
	assert.False(t, ran)
	s.queue.Unfreeze()
	assert.False(t, ran, "still frozen one level deep")
	s.queue.Unfreeze()
	assert.True(t, ran)
}

func TestQueueAddConstraintDrainsFIFOIncludingSelfPosted(t *testing.T) {
	s := NewSolver("queue-add-constraint")
	var order []int

	third := &recordingConstraint{id: 3, order: &order}
	second := &recordingConstraint{id: 2, order: &order, thenPost: third}
	first := &recordingConstraint{id: 1, order: &order, thenPost: second}

	s.queue.AddConstraint(first)
	assert.Equal(t, []int{1, 2, 3}, order)
}

type recordingConstraint struct {
	id       int
	order    *[]int
	thenPost Constraint
}

func (c *recordingConstraint) Post(s *Solver) {}
func (c *recordingConstraint) InitialPropagate(s *Solver) {
	*c.order = append(*c.order, c.id)
	if c.thenPost != nil {
		s.queue.AddConstraint(c.thenPost)
	}
}
