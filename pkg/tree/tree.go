package tree

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Search tree stored in two halves. New nodes always go to the active half;
// when it runs out, or when a move is committed, the tree flips: the other half
// is wiped and becomes active, and nodes still needed are copied into it lazily
// as the search walks through them.
//
// Synchronization is stop-the-world: every simulation runs between Enter and Leave,
// and the structural operations (Flip, Reroot, Reset) wait until no simulation
// is in flight.
type Tree[T MoveLike] struct {
	halves    [2]*Half[T]
	active    atomic.Bool // false = A, true = B
	root      atomic.Uint32
	rootStats EdgeStats
	epoch     atomic.Uint64
	flips     atomic.Uint64
	guard     sync.RWMutex
}

func NewTree[T MoveLike](config *Config, rootState GameState) *Tree[T] {
	if config == nil {
		config = DefaultConfig()
	}
	capacity := HalfCapacity[T](config)

	t := &Tree[T]{
		halves: [2]*Half[T]{NewHalf[T](capacity, false), NewHalf[T](capacity, true)},
	}
	t.root.Store(uint32(t.halves[0].PushNew(rootState)))
	return t
}

func halfIndex(half bool) int {
	if half {
		return 1
	}
	return 0
}

// Start a simulation, returns the current epoch. Pointers read between Enter and Leave
// stay valid until Leave. Must not be nested.
func (t *Tree[T]) Enter() uint64 {
	t.guard.RLock()
	return t.epoch.Load()
}

func (t *Tree[T]) Leave() {
	t.guard.RUnlock()
}

// Incremented on every flip and reset
func (t *Tree[T]) Epoch() uint64 {
	return t.epoch.Load()
}

// Number of flips since creation
func (t *Tree[T]) Flips() uint64 {
	return t.flips.Load()
}

func (t *Tree[T]) ActiveHalf() bool {
	return t.active.Load()
}

// Get half A (false) or B (true)
func (t *Tree[T]) Half(half bool) *Half[T] {
	return t.halves[halfIndex(half)]
}

func (t *Tree[T]) Root() NodePtr {
	return NodePtr(t.root.Load())
}

// Statistics of the root node (it has no incoming edge to hold them)
func (t *Tree[T]) RootStats() *EdgeStats {
	return &t.rootStats
}

// Allocate a node in the active half, Null if it's full
func (t *Tree[T]) PushNew(state GameState) NodePtr {
	return t.halves[halfIndex(t.active.Load())].PushNew(state)
}

func (t *Tree[T]) Node(ptr NodePtr) *Node[T] {
	return t.halves[halfIndex(ptr.Half())].Node(ptr)
}

// Live nodes in both halves
func (t *Tree[T]) Used() int {
	return t.halves[0].Used() + t.halves[1].Used()
}

// Total number of slots, 2x single half capacity
func (t *Tree[T]) Capacity() int {
	return t.halves[0].Capacity() + t.halves[1].Capacity()
}

// Whether the active half is exhausted
func (t *Tree[T]) IsFull() bool {
	return t.halves[halfIndex(t.active.Load())].IsFull()
}

// Copy node 'from' into the slot 'to': state, edges, child pointers and statistics
func (t *Tree[T]) CopyAcross(from, to NodePtr) {
	if from == to {
		return
	}
	t.Node(to).copyFrom(t.Node(from))
}

// Child pointer of the i-th edge of 'parent', usable in the active half.
// A missing child is allocated with the state returned by 'state', a child left in the
// other half is copied into the active one. Returns Null if the active half is full.
func (t *Tree[T]) FetchChild(parent NodePtr, i int, state func() GameState) NodePtr {
	edge := t.Node(parent).Edge(i)
	ptr := edge.Ptr()
	active := t.active.Load()

	if !ptr.IsNull() && ptr.Half() == active {
		return ptr
	}

	var child NodePtr
	if ptr.IsNull() {
		if child = t.PushNew(state()); child.IsNull() {
			return Null
		}
	} else {
		if child = t.PushNew(t.Node(ptr).State()); child.IsNull() {
			return Null
		}
		t.CopyAcross(ptr, child)
	}

	// Someone else linked this edge first, use theirs, this slot is wasted until the next flip
	if !edge.CompareAndSwapPtr(ptr, child) {
		return edge.Ptr()
	}
	return child
}

// Flip if nobody else did since 'epoch' (as returned by Enter).
// Must be called outside of Enter/Leave. Returns whether this call flipped.
func (t *Tree[T]) FlipFrom(epoch uint64) bool {
	t.guard.Lock()
	defer t.guard.Unlock()

	if t.epoch.Load() != epoch {
		return false
	}
	t.flipLocked(true)
	return true
}

// Make the other half active, wiping it first. With copyRoot the root is
// copied into the new active half, otherwise the root becomes Null.
// Must be called outside of Enter/Leave.
func (t *Tree[T]) Flip(copyRoot bool) {
	t.guard.Lock()
	defer t.guard.Unlock()
	t.flipLocked(copyRoot)
}

func (t *Tree[T]) flipLocked(copyRoot bool) {
	root := t.Root()
	old := t.active.Load()
	if !root.IsNull() {
		// normally the same as the active one, Reroot may leave the root in the other half
		old = root.Half()
	}
	next := !old
	oldHalf, nextHalf := t.halves[halfIndex(old)], t.halves[halfIndex(next)]

	// 1. nothing in the surviving half may point into the one about to be wiped
	oldHalf.ClearPtrs()
	// 2. wipe it
	nextHalf.Clear()
	// 3. it's the new generation
	t.active.Store(next)
	t.epoch.Add(1)
	t.flips.Add(1)

	newRoot := Null
	if copyRoot && !root.IsNull() {
		newRoot = nextHalf.PushNew(t.Node(root).State())
		t.CopyAcross(root, newRoot)
	}
	t.root.Store(uint32(newRoot))

	log.Debug().
		Str("from", halfName(old)).
		Str("to", halfName(next)).
		Int("survivors", oldHalf.Used()).
		Uint64("flips", t.flips.Load()).
		Msg("tree-flip")
}

// Make the child reached by 'move' the new root, keeping its subtree and statistics.
// The rest of the old generation is discarded by a flip. If the move was never
// explored, the tree is reset with a fresh root in state 'fallback' and false is returned.
// Must be called outside of Enter/Leave.
func (t *Tree[T]) Reroot(move T, fallback GameState) bool {
	t.guard.Lock()
	defer t.guard.Unlock()

	root := t.Root()
	child, found := Null, false
	if !root.IsNull() {
		t.Node(root).Edges(func(edges []Edge[T]) {
			for i := range edges {
				if edges[i].Move() == move {
					child = edges[i].Ptr()
					if !child.IsNull() {
						found = true
						t.rootStats.CopyFrom(&edges[i].EdgeStats)
					}
					return
				}
			}
		})
	}

	if !found {
		t.resetLocked(fallback)
		log.Debug().Interface("move", move).Msg("tree-reroot-miss")
		return false
	}

	t.root.Store(uint32(child))
	t.flipLocked(true)
	log.Debug().Interface("move", move).Int32("visits", t.rootStats.N()).Msg("tree-reroot")
	return true
}

// Discard the whole tree and start over with a single root node.
// Must be called outside of Enter/Leave.
func (t *Tree[T]) Reset(rootState GameState) {
	t.guard.Lock()
	defer t.guard.Unlock()
	t.resetLocked(rootState)
}

func (t *Tree[T]) resetLocked(rootState GameState) {
	t.halves[0].Clear()
	t.halves[1].Clear()
	t.active.Store(false)
	t.epoch.Add(1)
	t.rootStats.Reset()
	t.root.Store(uint32(t.halves[0].PushNew(rootState)))
	log.Debug().Str("state", rootState.String()).Msg("tree-reset")
}

func (t *Tree[T]) String() string {
	return fmt.Sprintf("Tree={Root=%v, Active=%s, A=%d/%d, B=%d/%d, Flips=%d}",
		t.Root(), halfName(t.active.Load()),
		t.halves[0].Used(), t.halves[0].Capacity(),
		t.halves[1].Used(), t.halves[1].Capacity(),
		t.flips.Load())
}
