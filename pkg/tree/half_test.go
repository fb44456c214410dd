package tree

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestHalfPushNewIndices(t *testing.T) {
	const capacity = 64
	half := NewHalf[int](capacity, true)
	require.True(t, half.IsEmpty())

	for i := 0; i < capacity; i++ {
		ptr := half.PushNew(Ongoing)
		require.False(t, ptr.IsNull())
		require.True(t, ptr.Half())
		require.Equal(t, uint32(i), ptr.Index())
		require.Equal(t, i+1, half.Used())
	}
	assert.True(t, half.IsFull())
	assert.False(t, half.IsEmpty())
}

func TestHalfExhaustion(t *testing.T) {
	const capacity = 8
	half := NewHalf[int](capacity, false)
	for i := 0; i < capacity; i++ {
		require.False(t, half.PushNew(Ongoing).IsNull())
	}

	for i := 0; i < 10; i++ {
		assert.Equal(t, Null, half.PushNew(Ongoing))
	}
	assert.Equal(t, capacity, half.Used(), "failed allocations must not leak into the live count")
	assert.True(t, half.IsFull())

	half.Clear()
	assert.True(t, half.IsEmpty())
	assert.Zero(t, half.Used())
	assert.Equal(t, NewNodePtr(false, 0), half.PushNew(Ongoing))
}

func TestHalfReinitialization(t *testing.T) {
	half := NewHalf[int](4, false)
	ptr := half.PushNew(Ongoing)
	node := half.Node(ptr)
	node.Expand([]int{1, 2, 3}, nil)
	node.Edge(0).SetPtr(NewNodePtr(false, 3))
	node.CanExpand()
	node.FinishExpanding()

	half.Clear()
	again := half.PushNew(Won)
	require.Equal(t, ptr, again)

	reused := half.Node(again)
	assert.Equal(t, Won, reused.State())
	assert.Zero(t, reused.NumEdges())
	assert.False(t, reused.Expanded())
	reused.Edges(func(edges []Edge[int]) {
		assert.Empty(t, edges)
	})
}

func TestHalfClearPtrs(t *testing.T) {
	a := NewHalf[int](8, false)
	b := NewHalf[int](8, true)

	inA := a.PushNew(Ongoing)
	otherA := a.PushNew(Ongoing)
	inB := b.PushNew(Ongoing)

	node := a.Node(inA)
	node.Expand([]int{1, 2, 3, 4}, nil)
	node.Edge(0).SetPtr(inB)
	node.Edge(1).SetPtr(otherA)
	// edge 2 stays null
	node.Edge(3).SetPtr(NewNodePtr(true, 5))

	a.ClearPtrs()

	assert.Equal(t, Null, node.Edge(0).Ptr())
	assert.Equal(t, otherA, node.Edge(1).Ptr(), "pointers within the surviving half are kept")
	assert.Equal(t, Null, node.Edge(2).Ptr())
	assert.Equal(t, Null, node.Edge(3).Ptr())
}

// Flip safety at the level of a single pair of halves
func TestHalfFlipSequence(t *testing.T) {
	a := NewHalf[int](4, false)
	b := NewHalf[int](4, true)

	nodeA := a.PushNew(Ongoing)
	nodeB := b.PushNew(Ongoing)
	a.Node(nodeA).Expand([]int{42}, nil)
	a.Node(nodeA).Edge(0).SetPtr(nodeB)

	a.ClearPtrs()
	b.Clear()

	assert.Equal(t, Null, a.Node(nodeA).Edge(0).Ptr())
	assert.True(t, b.IsEmpty())
	assert.Equal(t, 1, a.Used())
}

func TestHalfNodeAssertions(t *testing.T) {
	half := NewHalf[int](4, false)
	half.PushNew(Ongoing)

	assert.Panics(t, func() { half.Node(NewNodePtr(true, 0)) }, "foreign half")
	assert.Panics(t, func() { half.Node(NewNodePtr(false, 4)) }, "out of range")
	assert.Panics(t, func() { half.Node(Null) })
	assert.NotPanics(t, func() { half.Node(NewNodePtr(false, 0)) })

	assert.Panics(t, func() { NewHalf[int](0, false) })
}

func TestHalfConcurrentPushNew(t *testing.T) {
	const (
		workers   = 8
		perWorker = 10_000
		capacity  = 100_000
	)

	half := NewHalf[int](capacity, false)
	results := make([][]NodePtr, workers)

	g := errgroup.Group{}
	for w := range workers {
		g.Go(func() error {
			ptrs := make([]NodePtr, 0, perWorker)
			for range perWorker {
				ptrs = append(ptrs, half.PushNew(Ongoing))
			}
			results[w] = ptrs
			return nil
		})
	}
	require.NoError(t, g.Wait())

	require.Equal(t, workers*perWorker, half.Used())

	all := make([]int, 0, workers*perWorker)
	for _, ptrs := range results {
		for _, ptr := range ptrs {
			require.False(t, ptr.IsNull())
			all = append(all, int(ptr.Index()))
		}
	}
	sort.Ints(all)
	for i := range all {
		require.Equal(t, i, all[i], "indices must be pairwise distinct and cover [0, N)")
	}
}

func TestHalfConcurrentExhaustion(t *testing.T) {
	const capacity = 1000
	half := NewHalf[int](capacity, true)

	var granted [8]int
	g := errgroup.Group{}
	for w := range granted {
		g.Go(func() error {
			for range capacity {
				if !half.PushNew(Ongoing).IsNull() {
					granted[w]++
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	total := 0
	for _, n := range granted {
		total += n
	}
	assert.Equal(t, capacity, total)
	assert.Equal(t, capacity, half.Used())
}

func BenchmarkHalfPushNew(b *testing.B) {
	half := NewHalf[int](1<<16, false)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if half.PushNew(Ongoing).IsNull() {
			half.Clear()
		}
	}
}

func BenchmarkHalfPushNewParallel(b *testing.B) {
	half := NewHalf[int](1<<24, false)
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			half.PushNew(Ongoing)
		}
	})
}
