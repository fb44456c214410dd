package tree

import (
	"fmt"
	"sync/atomic"
)

// One generation of the search tree: a fixed array of node slots handed out
// by an atomic bump cursor. The only way to reclaim slots is Clear, which
// gives all of them back at once.
type Half[T MoveLike] struct {
	nodes []Node[T]
	used  atomic.Uint64 // may overshoot len(nodes) after exhaustion, read it with Used()
	half  bool
}

// Allocate 'capacity' placeholder nodes up front, the size never changes afterwards
func NewHalf[T MoveLike](capacity int, half bool) *Half[T] {
	if capacity <= 0 || capacity > MaxHalfCapacity {
		panic(fmt.Sprintf("tree: half capacity must be in [1, %d], got %d", MaxHalfCapacity, capacity))
	}

	// Zero value of a node is an Ongoing node without edges
	return &Half[T]{
		nodes: make([]Node[T], capacity),
		half:  half,
	}
}

// Claim the next free slot and reinitialize it. Returns Null when the half is exhausted,
// which is a signal to flip, not an error.
func (h *Half[T]) PushNew(state GameState) NodePtr {
	idx := h.used.Add(1) - 1
	if idx >= uint64(len(h.nodes)) {
		return Null
	}

	h.nodes[idx].SetNew(state)
	return NewNodePtr(h.half, uint32(idx))
}

// Give back every slot. Must only be called when no worker can dereference
// a pointer into this half anymore.
func (h *Half[T]) Clear() {
	h.used.Store(0)
}

// Null every edge of a live node that points into the other half.
// Must complete before the other half is cleared.
func (h *Half[T]) ClearPtrs() {
	other := !h.half
	used := h.Used()
	for i := 0; i < used; i++ {
		h.nodes[i].clearPtrsTo(other)
	}
}

// Node named by 'ptr', which must belong to this half
func (h *Half[T]) Node(ptr NodePtr) *Node[T] {
	if ptr.IsNull() || ptr.Half() != h.half {
		panic(fmt.Sprintf("tree: %v does not name half %s", ptr, halfName(h.half)))
	}
	idx := ptr.Index()
	if int(idx) >= len(h.nodes) {
		panic(fmt.Sprintf("tree: %v out of range, half capacity is %d", ptr, len(h.nodes)))
	}
	return &h.nodes[idx]
}

// Number of slots handed out since the last Clear
func (h *Half[T]) Used() int {
	return int(min(h.used.Load(), uint64(len(h.nodes))))
}

func (h *Half[T]) Capacity() int {
	return len(h.nodes)
}

func (h *Half[T]) IsEmpty() bool {
	return h.used.Load() == 0
}

func (h *Half[T]) IsFull() bool {
	return h.used.Load() >= uint64(len(h.nodes))
}

// Which half this is (false = A, true = B)
func (h *Half[T]) Half() bool {
	return h.half
}
