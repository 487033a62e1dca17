package cpsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrailRestoresInLIFOOrder(t *testing.T) {
	for _, mode := range []TrailCompression{NoCompression, CompressWithZlib} {
		tr := NewTrail(4, mode)
		a, b, c := 1, 1, 1

		m0 := tr.Mark()
		tr.SaveInt(&a)
		a = 2
		tr.SaveInt(&b)
		b = 2
		tr.SaveInt(&c)
		c = 2

		assert.Equal(t, 2, a)
		assert.Equal(t, 2, b)
		assert.Equal(t, 2, c)

		tr.BacktrackTo(m0)
		assert.Equal(t, 1, a)
		assert.Equal(t, 1, b)
		assert.Equal(t, 1, c)
	}
}

func TestTrailNestedMarks(t *testing.T) {
	tr := NewTrail(4, NoCompression)
	x := 0

	outer := tr.Mark()
	tr.SaveInt(&x)
	x = 1

	inner := tr.Mark()
	tr.SaveInt(&x)
	x = 2
	assert.Equal(t, 2, x)

	tr.BacktrackTo(inner)
	assert.Equal(t, 1, x)

	tr.BacktrackTo(outer)
	assert.Equal(t, 0, x)
}

func TestTrailDeferUndoRunsLIFOWithCells(t *testing.T) {
	tr := NewTrail(4, NoCompression)
	var order []string
	v := 0

	m := tr.Mark()
	tr.SaveInt(&v)
	v = 1
	tr.DeferUndo(func() { order = append(order, "undo-1") })
	tr.SaveInt(&v)
	v = 2
	tr.DeferUndo(func() { order = append(order, "undo-2") })

	tr.BacktrackTo(m)
	assert.Equal(t, []string{"undo-2", "undo-1"}, order)
	assert.Equal(t, 0, v)
}

func TestTrailBoolSlots(t *testing.T) {
	tr := NewTrail(4, NoCompression)
	flag := false

	m := tr.Mark()
	tr.SaveBool(&flag)
	flag = true
	assert.True(t, flag)

	tr.BacktrackTo(m)
	assert.False(t, flag)
}

func TestTrailHandleSlots(t *testing.T) {
	tr := NewTrail(4, NoCompression)
	var h Handle

	m := tr.Mark()
	tr.SaveHandle(&h)
	h = Handle(7)
	assert.Equal(t, Handle(7), h)

	tr.BacktrackTo(m)
	assert.Equal(t, Handle(0), h)
}

// TestTrailCompressionEquivalence exercises enough pushes to force at
// least one block to roll from the warm buffer onto the compressed list
// and back, under both compression modes, and checks they restore
// identically.
func TestTrailCompressionEquivalence(t *testing.T) {
	const blockSize = 4
	const n = 50

	for _, mode := range []TrailCompression{NoCompression, CompressWithZlib} {
		tr := NewTrail(blockSize, mode)
		vals := make([]int, n)
		m := tr.Mark()
		for i := range vals {
			tr.SaveInt(&vals[i])
			vals[i] = i + 1
		}
		for i, v := range vals {
			assert.Equal(t, i+1, v)
		}
		tr.BacktrackTo(m)
		for _, v := range vals {
			assert.Equal(t, 0, v)
		}
	}
}

func TestTrailPopBackOnEmptyIsNoop(t *testing.T) {
	ct := newCompressedTrail[int](4, NoCompression)
	assert.NotPanics(t, func() { ct.PopBack() })
	assert.Equal(t, 0, ct.Size())
}
