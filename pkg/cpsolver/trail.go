package cpsolver

import (
	"bytes"
	"compress/zlib"
	"encoding/gob"
	"fmt"
)

// TrailCompression selects how cold trail blocks are held in memory once
// they fall behind the hot/warm window. It mirrors the two modes the
// original constraint solver ships: a raw copy and a zlib-compressed one.
type TrailCompression int

const (
	// NoCompression keeps every block as a plain in-memory copy.
	NoCompression TrailCompression = iota
	// CompressWithZlib packs blocks that fall out of the hot/warm window
	// through zlib before they are parked on the compressed-block list.
	CompressWithZlib
)

// DefaultTrailBlockSize is the block size used when SolverParameters does
// not override it.
const DefaultTrailBlockSize = 8000

// Handle is a stable, solver-owned identifier standing in for a raw
// pointer. The original trails a void*; identity-hashing a real Go
// pointer (and compressing its bit pattern) isn't safe or meaningful, so
// the "pointer" trail kind instead trails these handles.
type Handle int64

type addrVal[T any] struct {
	addr *T
	old  T
}

func (a addrVal[T]) restore() { *a.addr = a.old }

// block holds one fixed-size window of reversible cells. addrs never leave
// process memory (a Go pointer cannot be serialized across a
// compress/decompress round trip), only the old values they guard are
// candidates for compression.
type block[T any] struct {
	addrs []*T
	olds  []T
}

func newBlock[T any](size int) *block[T] {
	return &block[T]{addrs: make([]*T, size), olds: make([]T, size)}
}

func (b *block[T]) cell(i int) addrVal[T] {
	return addrVal[T]{addr: b.addrs[i], old: b.olds[i]}
}

func (b *block[T]) set(i int, c addrVal[T]) {
	b.addrs[i] = c.addr
	b.olds[i] = c.old
}

// packedBlock is a cold block: its addresses stay live (a slice of
// pointers, cheap to keep resident) while its old values are held as an
// opaque, possibly-compressed payload.
type packedBlock[T any] struct {
	addrs  []*T
	packed any
	next   *packedBlock[T]
}

type trailPacker[T any] interface {
	pack(olds []T) any
	unpack(data any, olds []T)
}

type noCompressionPacker[T any] struct{}

func (noCompressionPacker[T]) pack(olds []T) any {
	out := make([]T, len(olds))
	copy(out, olds)
	return out
}

func (noCompressionPacker[T]) unpack(data any, olds []T) {
	copy(olds, data.([]T))
}

type zlibPacker[T any] struct{}

func (zlibPacker[T]) pack(olds []T) any {
	buf := new(bytes.Buffer)
	zw := zlib.NewWriter(buf)
	if err := gob.NewEncoder(zw).Encode(olds); err != nil {
		panic(fmt.Errorf("cpsolver: trail zlib pack: %w", err))
	}
	if err := zw.Close(); err != nil {
		panic(fmt.Errorf("cpsolver: trail zlib pack close: %w", err))
	}
	return buf.Bytes()
}

func (zlibPacker[T]) unpack(data any, olds []T) {
	zr, err := zlib.NewReader(bytes.NewReader(data.([]byte)))
	if err != nil {
		panic(fmt.Errorf("cpsolver: trail zlib unpack: %w", err))
	}
	defer zr.Close()
	var out []T
	if err := gob.NewDecoder(zr).Decode(&out); err != nil {
		panic(fmt.Errorf("cpsolver: trail zlib unpack decode: %w", err))
	}
	copy(olds, out)
}

// compressedTrail is a per-primitive-kind reversible log split into
// fixed-size blocks. At most one hot block (data) and one warm block
// (buffer) are held uncompressed; everything older lives on the
// compressed blocks list, released to a free-list on pop.
type compressedTrail[T any] struct {
	blockSize int
	packer    trailPacker[T]

	data       *block[T]
	buffer     *block[T]
	bufferUsed bool

	head      *packedBlock[T]
	freeBlock *packedBlock[T]

	current int
	size    int
}

func newCompressedTrail[T any](blockSize int, mode TrailCompression) *compressedTrail[T] {
	var packer trailPacker[T]
	switch mode {
	case CompressWithZlib:
		packer = zlibPacker[T]{}
	default:
		packer = noCompressionPacker[T]{}
	}
	return &compressedTrail[T]{
		blockSize: blockSize,
		packer:    packer,
		data:      newBlock[T](blockSize),
		buffer:    newBlock[T](blockSize),
	}
}

func (c *compressedTrail[T]) Size() int { return c.size }

func (c *compressedTrail[T]) Back() addrVal[T] {
	if c.current == 0 {
		panic("cpsolver: Back() called on empty compressed trail")
	}
	return c.data.cell(c.current - 1)
}

func (c *compressedTrail[T]) newTopBlock() *packedBlock[T] {
	var b *packedBlock[T]
	if c.freeBlock != nil {
		b = c.freeBlock
		c.freeBlock = b.next
		b.packed = nil
	} else {
		b = &packedBlock[T]{}
	}
	b.next = c.head
	c.head = b
	return b
}

func (c *compressedTrail[T]) freeTopBlock() *packedBlock[T] {
	b := c.head
	c.head = b.next
	b.next = c.freeBlock
	c.freeBlock = b
	return b
}

func (c *compressedTrail[T]) PushBack(cell addrVal[T]) {
	if c.current >= c.blockSize {
		if c.bufferUsed {
			b := c.newTopBlock()
			b.addrs = append([]*T(nil), c.buffer.addrs...)
			b.packed = c.packer.pack(c.buffer.olds)
			c.data, c.buffer = c.buffer, c.data
		} else {
			c.data, c.buffer = c.buffer, c.data
			c.bufferUsed = true
		}
		c.current = 0
	}
	c.data.set(c.current, cell)
	c.current++
	c.size++
}

func (c *compressedTrail[T]) PopBack() {
	if c.size == 0 {
		return
	}
	c.current--
	if c.current <= 0 {
		if c.bufferUsed {
			c.data, c.buffer = c.buffer, c.data
			c.current = c.blockSize
			c.bufferUsed = false
		} else if c.head != nil {
			top := c.head
			c.data.addrs = append(c.data.addrs[:0], top.addrs...)
			c.packer.unpack(top.packed, c.data.olds)
			c.freeTopBlock()
			c.current = c.blockSize
		}
	}
	c.size--
}

// Trail is the reversible log of every mutation the solver has made since
// it was created. Backtracking to a mark undoes cells and runs deferred
// undo actions in LIFO order, restoring exactly the state observed when
// the mark was taken.
type Trail struct {
	ints    *compressedTrail[int]
	int64s  *compressedTrail[int64]
	uint64s *compressedTrail[uint64]
	handles *compressedTrail[Handle]

	boolAddrs []*bool
	boolOlds  []bool

	deferred []deferredEntry
}

type deferredEntry struct {
	fn func()
}

// NewTrail builds a trail with the given block size and compression mode
// for every primitive-kind sub-trail.
func NewTrail(blockSize int, mode TrailCompression) *Trail {
	if blockSize <= 0 {
		blockSize = DefaultTrailBlockSize
	}
	return &Trail{
		ints:    newCompressedTrail[int](blockSize, mode),
		int64s:  newCompressedTrail[int64](blockSize, mode),
		uint64s: newCompressedTrail[uint64](blockSize, mode),
		handles: newCompressedTrail[Handle](blockSize, mode),
	}
}

// SaveInt appends a reversible cell capturing addr's current value.
func (t *Trail) SaveInt(addr *int) { t.ints.PushBack(addrVal[int]{addr, *addr}) }

// SaveInt64 appends a reversible cell capturing addr's current value.
func (t *Trail) SaveInt64(addr *int64) { t.int64s.PushBack(addrVal[int64]{addr, *addr}) }

// SaveUint64 appends a reversible cell capturing addr's current value.
func (t *Trail) SaveUint64(addr *uint64) { t.uint64s.PushBack(addrVal[uint64]{addr, *addr}) }

// SaveHandle appends a reversible cell over a raw handle slot, the
// Handle-keyed stand-in for the original's void** trail.
func (t *Trail) SaveHandle(addr *Handle) { t.handles.PushBack(addrVal[Handle]{addr, *addr}) }

// SaveBool appends a reversible cell for a boolean slot. Routed to a pair
// of parallel, uncompressed slices per spec: booleans are small and dense
// enough that compressing them buys nothing.
func (t *Trail) SaveBool(addr *bool) {
	t.boolAddrs = append(t.boolAddrs, addr)
	t.boolOlds = append(t.boolOlds, *addr)
}

// DeferUndo registers fn to run once, in LIFO order relative to the other
// deferred undo functions, when backtracking passes this point;
// BacktrackTo runs them after it has restored every trailed cell. It
// collapses the original's array-free / object-destroy / raw-alloc-free
// families onto Go's garbage collector: there is nothing to deallocate,
// only undo behavior to run.
func (t *Trail) DeferUndo(fn func()) {
	t.deferred = append(t.deferred, deferredEntry{fn: fn})
}

// Mark is a snapshot of every sub-trail's length, sufficient to undo back
// to the moment it was taken.
type Mark struct {
	ints, int64s, uint64s, handles int
	bools                          int
	deferred                       int
}

// Mark snapshots the current trail sizes.
func (t *Trail) Mark() Mark {
	return Mark{
		ints:     t.ints.Size(),
		int64s:   t.int64s.Size(),
		uint64s:  t.uint64s.Size(),
		handles:  t.handles.Size(),
		bools:    len(t.boolAddrs),
		deferred: len(t.deferred),
	}
}

// BacktrackTo pops cells and deferred actions down to m, restoring the
// state that existed when m was taken. Each sub-trail is unwound in LIFO
// order, one kind after another, and the deferred undo functions run last.
func (t *Trail) BacktrackTo(m Mark) {
	for t.ints.Size() > m.ints {
		t.ints.Back().restore()
		t.ints.PopBack()
	}
	for t.int64s.Size() > m.int64s {
		t.int64s.Back().restore()
		t.int64s.PopBack()
	}
	for t.uint64s.Size() > m.uint64s {
		t.uint64s.Back().restore()
		t.uint64s.PopBack()
	}
	for t.handles.Size() > m.handles {
		t.handles.Back().restore()
		t.handles.PopBack()
	}
	for i := len(t.boolAddrs) - 1; i >= m.bools; i-- {
		*t.boolAddrs[i] = t.boolOlds[i]
	}
	t.boolAddrs = t.boolAddrs[:m.bools]
	t.boolOlds = t.boolOlds[:m.bools]

	for i := len(t.deferred) - 1; i >= m.deferred; i-- {
		t.deferred[i].fn()
	}
	t.deferred = t.deferred[:m.deferred]
}
