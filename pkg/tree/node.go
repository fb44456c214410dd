package tree

import (
	"slices"
	"sync"
	"sync/atomic"
)

type MoveLike comparable

// Outcome of the position at a node, from the side to move
type GameState uint32

const (
	Ongoing GameState = iota
	Draw
	Won  // side to move has won
	Lost // side to move has lost
)

func (s GameState) String() string {
	switch s {
	case Ongoing:
		return "Ongoing"
	case Draw:
		return "Draw"
	case Won:
		return "Won"
	case Lost:
		return "Lost"
	}
	return "Unknown"
}

func (s GameState) Terminal() bool {
	return s != Ongoing
}

// Value of a terminal state for the side to move, in [0, 1]
func (s GameState) Value() float64 {
	switch s {
	case Won:
		return 1.0
	case Lost:
		return 0.0
	}
	return 0.5
}

// Candidate move of a node together with its child pointer and statistics
type Edge[T MoveLike] struct {
	EdgeStats
	move   T
	policy float32
	ptr    uint32 // NodePtr, atomic
}

func (e *Edge[T]) Move() T {
	return e.move
}

// Prior weight given by the policy at expansion time
func (e *Edge[T]) Policy() float32 {
	return e.policy
}

func (e *Edge[T]) Ptr() NodePtr {
	return NodePtr(atomic.LoadUint32(&e.ptr))
}

func (e *Edge[T]) SetPtr(ptr NodePtr) {
	atomic.StoreUint32(&e.ptr, uint32(ptr))
}

func (e *Edge[T]) CompareAndSwapPtr(old, next NodePtr) bool {
	return atomic.CompareAndSwapUint32(&e.ptr, uint32(old), uint32(next))
}

func (e *Edge[T]) reset(move T, policy float32) {
	e.move = move
	e.policy = policy
	e.SetPtr(Null)
	e.EdgeStats.Reset()
}

func (e *Edge[T]) copyFrom(other *Edge[T]) {
	e.move = other.move
	e.policy = other.policy
	e.SetPtr(other.Ptr())
	e.EdgeStats.CopyFrom(&other.EdgeStats)
}

const (
	CanExpand     uint32 = 0
	ExpandingMask uint32 = 1
	ExpandedMask  uint32 = 2
)

// One slot of a half. Nodes are never freed one by one, the allocator
// reinitializes a slot in place with SetNew when it hands it out again.
// The zero value is an Ongoing node without edges.
type Node[T MoveLike] struct {
	mu    sync.RWMutex
	edges []Edge[T]
	state uint32 // GameState, atomic
	flags uint32 // expansion state, atomic
}

func NewNode[T MoveLike](state GameState) *Node[T] {
	return &Node[T]{state: uint32(state)}
}

// Reinitialize this slot for a new logical node. The edge list is truncated,
// its backing array is kept so the next expansion can reuse it.
// Caller guarantees no other worker references the slot under its new identity yet.
func (node *Node[T]) SetNew(state GameState) {
	node.mu.Lock()
	node.edges = node.edges[:0]
	node.mu.Unlock()
	atomic.StoreUint32(&node.state, uint32(state))
	atomic.StoreUint32(&node.flags, CanExpand)
}

func (node *Node[T]) State() GameState {
	return GameState(atomic.LoadUint32(&node.state))
}

func (node *Node[T]) SetState(state GameState) {
	atomic.StoreUint32(&node.state, uint32(state))
}

func (node *Node[T]) Terminal() bool {
	return node.State().Terminal()
}

// Shared, scoped access to the edge list. The callback must not retain the slice.
func (node *Node[T]) Edges(f func(edges []Edge[T])) {
	node.mu.RLock()
	defer node.mu.RUnlock()
	f(node.edges)
}

// Exclusive, scoped access to the edge list, for in-place changes of the existing edges
func (node *Node[T]) EdgesMut(f func(edges []Edge[T])) {
	node.mu.Lock()
	defer node.mu.Unlock()
	f(node.edges)
}

func (node *Node[T]) NumEdges() int {
	node.mu.RLock()
	defer node.mu.RUnlock()
	return len(node.edges)
}

// Pointer to the i-th edge. The edge list is only replaced by Expand, SetNew and CopyAcross,
// none of which run on a node other workers can reach, so the pointer stays valid
// until the node's half is cleared.
func (node *Node[T]) Edge(i int) *Edge[T] {
	node.mu.RLock()
	defer node.mu.RUnlock()
	return &node.edges[i]
}

// Replace the edge list with given moves. priors may be nil (every edge gets 0),
// otherwise it must have the same length as moves.
func (node *Node[T]) Expand(moves []T, priors []float32) {
	node.mu.Lock()
	defer node.mu.Unlock()

	node.edges = slices.Grow(node.edges[:0], len(moves))[:len(moves)]
	for i := range moves {
		var p float32
		if priors != nil {
			p = priors[i]
		}
		node.edges[i].reset(moves[i], p)
	}
}

// Make this node a copy of 'other': state, flags, edges with their child pointers and statistics
func (node *Node[T]) copyFrom(other *Node[T]) {
	if node == other {
		return
	}

	other.mu.RLock()
	defer other.mu.RUnlock()
	node.mu.Lock()
	defer node.mu.Unlock()

	node.edges = slices.Grow(node.edges[:0], len(other.edges))[:len(other.edges)]
	for i := range other.edges {
		node.edges[i].copyFrom(&other.edges[i])
	}

	atomic.StoreUint32(&node.state, atomic.LoadUint32(&other.state))
	flags := atomic.LoadUint32(&other.flags)
	if flags != ExpandedMask {
		flags = CanExpand
	}
	atomic.StoreUint32(&node.flags, flags)
}

// Nulls every child pointer that names 'half'
func (node *Node[T]) clearPtrsTo(half bool) {
	node.mu.Lock()
	defer node.mu.Unlock()

	for i := range node.edges {
		if ptr := node.edges[i].Ptr(); !ptr.IsNull() && ptr.Half() == half {
			node.edges[i].SetPtr(Null)
		}
	}
}

// Same as asking if the node has edges
func (node *Node[T]) Expanded() bool {
	return atomic.LoadUint32(&node.flags)&ExpandedMask == ExpandedMask
}

// See if currenlty node is being expanded
func (node *Node[T]) Expanding() bool {
	return atomic.LoadUint32(&node.flags)&ExpandingMask == ExpandingMask
}

// Should be called when we want to expand this node,
// if it's possible, sets the internal flag to 'currently expanding'
func (node *Node[T]) CanExpand() bool {
	return atomic.CompareAndSwapUint32(&node.flags, CanExpand, ExpandingMask)
}

// After successful 'CanExpand' call, use this function to set
// the state of the node to 'expanded'
func (node *Node[T]) FinishExpanding() {
	atomic.StoreUint32(&node.flags, ExpandedMask)
}
