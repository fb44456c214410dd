package tree

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestTree(capacity int) *Tree[int] {
	return NewTree[int](DefaultConfig().SetHalfCapacity(capacity), Ongoing)
}

// Every non-null edge of a live node must name a live slot of some half
func checkNoDangling(t *testing.T, tr *Tree[int]) {
	t.Helper()
	for _, half := range []bool{false, true} {
		h := tr.Half(half)
		for i := 0; i < h.Used(); i++ {
			h.nodes[i].Edges(func(edges []Edge[int]) {
				for j := range edges {
					ptr := edges[j].Ptr()
					if ptr.IsNull() {
						continue
					}
					require.Less(t, int(ptr.Index()), tr.Half(ptr.Half()).Used(),
						"edge %d of %s:%d points to unallocated %v", j, halfName(half), i, ptr)
				}
			})
		}
	}
}

func TestTreeNew(t *testing.T) {
	tr := newTestTree(16)

	assert.Equal(t, NewNodePtr(false, 0), tr.Root())
	assert.False(t, tr.ActiveHalf())
	assert.Equal(t, 1, tr.Used())
	assert.Equal(t, 32, tr.Capacity())
	assert.Zero(t, tr.Flips())
	assert.Contains(t, tr.String(), "Active=A")
}

func TestTreeConfigCapacity(t *testing.T) {
	assert.Equal(t, 100, HalfCapacity[int](DefaultConfig().SetHalfCapacity(100)))
	assert.Equal(t, minHalfCapacity, HalfCapacity[int](DefaultConfig().SetHalfCapacity(0)))

	cfg := DefaultConfig().SetMbSize(1)
	want := int((1 << 20) / 2 / NodeSize[int]())
	assert.Equal(t, want, HalfCapacity[int](cfg))
	assert.Greater(t, want, 0)
}

// Node A (surviving half) has an edge to node B (half about to be recycled)
func TestTreeFlipSafety(t *testing.T) {
	tr := newTestTree(8)

	// Move the root to half B, its edges still point into half A
	root := tr.Root()
	tr.Node(root).Expand([]int{1, 2}, nil)
	childInA := tr.FetchChild(root, 0, func() GameState { return Ongoing })
	require.False(t, childInA.Half())

	tr.Flip(true)
	require.True(t, tr.ActiveHalf())
	rootB := tr.Root()
	require.True(t, rootB.Half())
	require.Equal(t, childInA, tr.Node(rootB).Edge(0).Ptr(), "root copy keeps its child in the old half")

	// Now flip back: half B survives, half A is recycled
	tr.Flip(true)

	assert.Equal(t, Null, tr.Node(rootB).Edge(0).Ptr(), "edge into the recycled half must be severed")
	assert.False(t, tr.ActiveHalf())
	assert.Equal(t, 1, tr.Half(false).Used(), "recycled half only holds the new root copy")
	assert.Equal(t, uint64(2), tr.Flips())
	checkNoDangling(t, tr)
}

func TestTreeFlipWithoutRoot(t *testing.T) {
	tr := newTestTree(4)
	tr.Flip(false)

	assert.Equal(t, Null, tr.Root())
	assert.True(t, tr.Half(true).IsEmpty())

	// with no root, flip starts from the active half
	tr.Flip(false)
	assert.False(t, tr.ActiveHalf())
}

func TestTreeFetchChildMigrates(t *testing.T) {
	tr := newTestTree(8)
	root := tr.Root()
	tr.Node(root).Expand([]int{1}, nil)

	child := tr.FetchChild(root, 0, func() GameState { return Ongoing })
	tr.Node(child).Expand([]int{5, 6}, nil)
	tr.Node(child).Edge(1).AddVvl(3, 0)
	tr.Node(child).Edge(1).AddQ(2)
	tr.Node(root).Edge(0).AddVvl(4, 0)

	tr.Flip(true)
	newRoot := tr.Root()
	stale := tr.Node(newRoot).Edge(0).Ptr()
	require.Equal(t, child, stale)

	migrated := tr.FetchChild(newRoot, 0, func() GameState {
		t.Fatal("existing child must not be created again")
		return Ongoing
	})
	require.True(t, migrated.Half(), "child copied into the active half")
	require.Equal(t, migrated, tr.Node(newRoot).Edge(0).Ptr(), "edge relinked to the copy")

	copied := tr.Node(migrated)
	require.Equal(t, 2, copied.NumEdges())
	assert.Equal(t, 6, copied.Edge(1).Move())
	assert.Equal(t, int32(3), copied.Edge(1).N())
	assert.InDelta(t, 2.0, copied.Edge(1).Q(), 1e-9)
	assert.Equal(t, int32(4), tr.Node(newRoot).Edge(0).N())

	// second fetch hits the fast path
	assert.Equal(t, migrated, tr.FetchChild(newRoot, 0, nil))
}

func TestTreeFetchChildExhausted(t *testing.T) {
	tr := newTestTree(2)
	root := tr.Root()
	tr.Node(root).Expand([]int{1, 2, 3}, nil)

	fresh := func() GameState { return Ongoing }
	require.False(t, tr.FetchChild(root, 0, fresh).IsNull())
	assert.Equal(t, Null, tr.FetchChild(root, 1, fresh))
	assert.Equal(t, Null, tr.Node(root).Edge(1).Ptr(), "failed fetch leaves the edge untouched")
	assert.True(t, tr.IsFull())

	require.True(t, tr.FlipFrom(tr.Epoch()))
	assert.False(t, tr.IsFull())
	assert.False(t, tr.FetchChild(tr.Root(), 1, fresh).IsNull())
}

func TestTreeFlipFromOnce(t *testing.T) {
	tr := newTestTree(4)
	epoch := tr.Epoch()

	g := errgroup.Group{}
	var flipped atomic.Int32
	for range 8 {
		g.Go(func() error {
			if tr.FlipFrom(epoch) {
				flipped.Add(1)
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), flipped.Load())
	assert.Equal(t, uint64(1), tr.Flips())
}

func TestTreeTwoGenerationBound(t *testing.T) {
	const capacity = 32
	tr := newTestTree(capacity)
	fresh := func() GameState { return Ongoing }

	// a long 'game': keep growing a chain below the root, flipping whenever full
	for step := 0; step < 2000; step++ {
		node := tr.Root()
		for depth := 0; depth < 6; depth++ {
			n := tr.Node(node)
			if n.CanExpand() {
				n.Expand([]int{2 * depth, 2*depth + 1}, nil)
				n.FinishExpanding()
			}
			child := tr.FetchChild(node, (step>>depth)&1, fresh)
			if child.IsNull() {
				tr.Flip(true)
				break
			}
			node = child
		}

		require.LessOrEqual(t, tr.Used(), 2*capacity)
		require.Equal(t, tr.ActiveHalf(), tr.Root().Half(), "root always lives in the active half")
	}
	assert.Greater(t, tr.Flips(), uint64(10))
	checkNoDangling(t, tr)
}

func TestTreeReroot(t *testing.T) {
	tr := newTestTree(16)
	root := tr.Root()
	tr.Node(root).Expand([]int{1, 2}, nil)
	tr.Node(root).Edge(1).AddVvl(7, 0)
	tr.Node(root).Edge(1).AddQ(3.5)

	child := tr.FetchChild(root, 1, func() GameState { return Ongoing })
	tr.Node(child).Expand([]int{10, 11, 12}, nil)
	grandchild := tr.FetchChild(child, 2, func() GameState { return Draw })

	require.True(t, tr.Reroot(2, Ongoing))

	newRoot := tr.Root()
	require.Equal(t, tr.ActiveHalf(), newRoot.Half())
	require.NotEqual(t, child, newRoot)
	assert.Equal(t, int32(7), tr.RootStats().N())
	assert.InDelta(t, 3.5, tr.RootStats().Q(), 1e-9)

	rn := tr.Node(newRoot)
	require.Equal(t, 3, rn.NumEdges())
	assert.Equal(t, grandchild, rn.Edge(2).Ptr(), "subtree survives the reroot")
	assert.Equal(t, Draw, tr.Node(rn.Edge(2).Ptr()).State())
	assert.Equal(t, 1, tr.Half(tr.ActiveHalf()).Used(), "siblings are left behind")
	checkNoDangling(t, tr)
}

func TestTreeRerootFromStaleHalf(t *testing.T) {
	tr := newTestTree(16)
	root := tr.Root()
	tr.Node(root).Expand([]int{1}, nil)
	child := tr.FetchChild(root, 0, func() GameState { return Ongoing })
	tr.Node(child).Expand([]int{9}, nil)

	// after the flip the root's child still lives in half A
	tr.Flip(true)
	require.True(t, tr.ActiveHalf())
	require.Equal(t, child, tr.Node(tr.Root()).Edge(0).Ptr())

	require.True(t, tr.Reroot(1, Ongoing))
	newRoot := tr.Root()
	assert.Equal(t, tr.ActiveHalf(), newRoot.Half())
	assert.Equal(t, 9, tr.Node(newRoot).Edge(0).Move())
	checkNoDangling(t, tr)
}

func TestTreeRerootMiss(t *testing.T) {
	tr := newTestTree(16)
	root := tr.Root()
	tr.Node(root).Expand([]int{1, 2}, nil)
	tr.RootStats().AddVvl(5, 0)

	// known move, but never visited
	assert.False(t, tr.Reroot(1, Ongoing))
	assert.Equal(t, 1, tr.Used())
	assert.Zero(t, tr.RootStats().N())
	assert.Zero(t, tr.Node(tr.Root()).NumEdges())

	// unknown move
	assert.False(t, tr.Reroot(99, Lost))
	assert.Equal(t, Lost, tr.Node(tr.Root()).State())
}

func TestTreeReset(t *testing.T) {
	tr := newTestTree(4)
	for range 8 {
		tr.PushNew(Ongoing)
	}
	tr.Flip(true)
	epoch := tr.Epoch()

	tr.Reset(Draw)
	assert.Greater(t, tr.Epoch(), epoch)
	assert.Equal(t, 1, tr.Used())
	assert.False(t, tr.ActiveHalf())
	assert.Equal(t, Draw, tr.Node(tr.Root()).State())
}

// Workers build and verify small chains between Enter and Leave while other
// goroutines keep flipping. A worker observing a slot reused under its feet means
// the flip ran while a simulation was in flight.
func TestTreeConcurrentFlipStress(t *testing.T) {
	const (
		workers    = 8
		iterations = 3000
		flippers   = 2
		flipsEach  = 200
	)

	tr := newTestTree(256)
	var exhausted atomic.Int64

	g := errgroup.Group{}
	for w := range workers {
		g.Go(func() error {
			for i := range iterations {
				id := w*iterations + i + 1
				epoch := tr.Enter()

				parent := tr.PushNew(Ongoing)
				child := tr.PushNew(Ongoing)
				if parent.IsNull() || child.IsNull() {
					tr.Leave()
					exhausted.Add(1)
					tr.FlipFrom(epoch)
					continue
				}

				tr.Node(parent).Expand([]int{id}, nil)
				tr.Node(parent).Edge(0).SetPtr(child)
				tr.Node(child).Expand([]int{-id, id}, nil)
				runtime.Gosched()

				got := tr.Node(parent).Edge(0).Ptr()
				cn := tr.Node(got)
				ok := got == child && cn.NumEdges() == 2 && cn.Edge(0).Move() == -id &&
					tr.Node(parent).Edge(0).Move() == id
				if epoch != tr.Epoch() {
					ok = false
				}
				tr.Leave()

				if !ok {
					return fmt.Errorf("worker %d iteration %d observed a recycled slot", w, i)
				}
			}
			return nil
		})
	}

	for range flippers {
		g.Go(func() error {
			for range flipsEach {
				tr.Flip(true)
				runtime.Gosched()
			}
			return nil
		})
	}

	require.NoError(t, g.Wait())
	assert.GreaterOrEqual(t, tr.Flips(), uint64(flippers*flipsEach))
	t.Logf("flips %d, exhausted %d, %v", tr.Flips(), exhausted.Load(), tr)
	checkNoDangling(t, tr)
}

// Simulations that follow edges across flips: readers descend root -> child and
// must only ever reach slots holding what the edge promised
func TestTreeConcurrentDescendAcrossFlips(t *testing.T) {
	const (
		workers    = 6
		iterations = 2000
	)

	tr := newTestTree(64)
	root := tr.Root()
	moves := []int{0, 1, 2, 3, 4, 5, 6, 7}
	tr.Node(root).Expand(moves, nil)
	tr.Node(root).CanExpand()
	tr.Node(root).FinishExpanding()

	g := errgroup.Group{}
	for w := range workers {
		g.Go(func() error {
			for i := range iterations {
				idx := (w + i) % len(moves)
				epoch := tr.Enter()
				r := tr.Root()
				child := tr.FetchChild(r, idx, func() GameState { return Ongoing })
				if child.IsNull() {
					tr.Leave()
					tr.FlipFrom(epoch)
					continue
				}

				node := tr.Node(child)
				if node.CanExpand() {
					// children remember which move led to them
					node.Expand([]int{100 + idx}, nil)
					node.FinishExpanding()
				}
				for node.Expanding() {
					runtime.Gosched()
				}
				ok := node.NumEdges() == 1 && node.Edge(0).Move() == 100+idx && child.Half() == tr.ActiveHalf()
				tr.Node(r).Edge(idx).AddVvl(1, 0)
				tr.Leave()

				if !ok {
					return fmt.Errorf("worker %d: child %v of edge %d holds foreign data", w, child, idx)
				}
				if i%97 == 0 {
					tr.Flip(true)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	var visits int32
	tr.Node(tr.Root()).Edges(func(edges []Edge[int]) {
		for i := range edges {
			visits += edges[i].N()
		}
	})
	assert.Greater(t, visits, int32(0))
	assert.Greater(t, tr.Flips(), uint64(0))
	checkNoDangling(t, tr)
}
