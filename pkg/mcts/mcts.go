package mcts

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/IlikeChooros/go-mcts-arena/pkg/tree"
)

type TreeStats struct {
	maxdepth atomic.Int32
	cps      atomic.Uint32
	cycles   atomic.Uint32
}

type MCTS[T MoveLike] struct {
	TreeStats
	listener        *StatsListener[T]
	Limiter         LimiterLike
	selectionPolicy SelectionPolicy[T]
	Tree            *tree.Tree[T]
	wg              sync.WaitGroup
	collisionCount  atomic.Int32
}

// Create new search, with the tree sized by 'config' (nil for tree.DefaultConfig()).
// The root is in the position 'operations' currently holds.
func NewMCTS[T MoveLike](
	selectionPolicy SelectionPolicy[T],
	operations GameOperations[T],
	config *tree.Config,
) *MCTS[T] {
	if selectionPolicy == nil {
		selectionPolicy = PUCT[T]
	}

	listener := NewStatsListener[T]()
	mcts := &MCTS[T]{
		listener:        &listener,
		Limiter:         LimiterLike(NewLimiter()),
		selectionPolicy: selectionPolicy,
		Tree:            tree.NewTree[T](config, operations.State()),
	}

	// Set IsSearching to false
	mcts.Limiter.SetStop(true)

	// If that's random-based playouts, attach random number generator
	if rg, ok := operations.(RandGameOperations[T]); ok {
		rg.SetRand(rand.New(rand.NewSource(SeedGeneratorFn())))
	}

	return mcts
}

func (mcts *MCTS[T]) invokeListener(f ListenerFunc[T]) {
	if f != nil {
		f(toListenerStats(mcts))
	}
}

// The number of times a node was chosen, but it was already being expanded.
// Resulting in a 'waiting' state of the search thread
func (mcts *MCTS[T]) CollisionCount() int32 {
	return mcts.collisionCount.Load()
}

// Number of all collisions in the tree divided by the number of all cycles,
// for more info see CollisionCount
func (mcts *MCTS[T]) CollisionFactor() float64 {
	return float64(mcts.collisionCount.Load()) / float64(max(mcts.Cycles(), 1))
}

func (mcts *MCTS[T]) ResetListener() {
	mcts.listener.OnCycle(nil).OnDepth(nil).OnStop(nil)
}

func (mcts *MCTS[T]) StatsListener() *StatsListener[T] {
	return mcts.listener
}

func (mcts *MCTS[T]) SetListener(listener StatsListener[T]) {
	*mcts.listener = listener
}

// Adds custom context to the limiter, enabling cancellation through it
//
// Example:
//
//	ctx, cancel := context.WithCancel(context.Background())
//
//	search.SetContext(ctx)
//	go func() {
//	    time.Sleep(2 * time.Second)
//	    cancel() // Cancel the search after 2 seconds
//	}()
//
//	search.SearchMultiThreaded(ops)
//	search.Synchronize()
func (mcts *MCTS[T]) SetContext(ctx context.Context) {
	mcts.Limiter.SetContext(ctx)
}

func (mcts *MCTS[T]) IsSearching() bool {
	return !mcts.Limiter.Stop()
}

// Stop the search, workers finish their current simulation
func (mcts *MCTS[T]) Stop() {
	mcts.Limiter.SetStop(true)
}

// Maxiumum depth reach during the search, note that usually MaxDepth != len(pv)
func (mcts *MCTS[T]) MaxDepth() int {
	return int(mcts.maxdepth.Load())
}

// Total number of 'iterations', 'cycles', 'simluations' ran during the search
func (mcts *MCTS[T]) Cycles() int {
	return int(mcts.cycles.Load())
}

// Get cycles per second statistic
func (mcts *MCTS[T]) Cps() uint32 {
	return mcts.cps.Load()
}

// Get the reason why the search was stopped, valid after search ends
func (mcts *MCTS[T]) StopReason() StopReason {
	return mcts.Limiter.StopReason()
}

func (mcts *MCTS[T]) SetLimits(limits *Limits) {
	mcts.Limiter.SetLimits(limits)
}

func (mcts *MCTS[T]) Limits() *Limits {
	return mcts.Limiter.Limits()
}

func (mcts *MCTS[T]) String() string {
	return fmt.Sprintf("MCTS={Size=%d, Stats:{maxdepth=%d, cps=%d, cycles=%d, collisions=%d}, Stop=%v, %v}",
		mcts.Size(), mcts.MaxDepth(), mcts.Cps(), mcts.Cycles(), mcts.CollisionCount(),
		!mcts.IsSearching(), mcts.Tree)
}

// Number of live nodes in the tree (both halves)
func (mcts *MCTS[T]) Size() uint32 {
	return uint32(mcts.Tree.Used())
}

// Number of tree flips so far, each one recycles half of the memory
func (mcts *MCTS[T]) Flips() uint64 {
	return mcts.Tree.Flips()
}

// Make the child reached by 'move' the new root, keeping its subtree. The rest of the
// tree is discarded. Returns false if the move was never explored, then the tree starts over.
// The caller is responsible for playing 'move' on its own game operations.
func (mcts *MCTS[T]) MakeMove(move T) bool {
	// If the search is running, stop it first
	if mcts.IsSearching() {
		mcts.Stop()
	}
	mcts.Synchronize()

	found := mcts.Tree.Reroot(move, tree.Ongoing)
	if found {
		mcts.maxdepth.Store(max(0, int32(mcts.MaxDepth()-1)))
	} else {
		mcts.maxdepth.Store(0)
	}
	return found
}

// Remove previous tree, the new root is in the position of 'ops' after ops.Reset()
func (mcts *MCTS[T]) Reset(ops GameOperations[T]) {
	// Discard running search
	if mcts.IsSearching() {
		mcts.Stop()
	}
	mcts.Synchronize()

	ops.Reset()
	mcts.Tree.Reset(ops.State())
	mcts.maxdepth.Store(0)
	mcts.cycles.Store(0)
	mcts.cps.Store(0)
	mcts.collisionCount.Store(0)
}

// 'the best move' in the position
func (mcts *MCTS[T]) RootMove() T {
	var move T
	mcts.Tree.Enter()
	defer mcts.Tree.Leave()

	if root := mcts.Tree.Root(); !root.IsNull() {
		node := mcts.Tree.Node(root)
		if i := mcts.BestChild(node, BestChildMostVisits); i >= 0 {
			move = node.Edge(i).Move()
		}
	}
	return move
}

// Current evaluation of the position, from the root's side to move
func (mcts *MCTS[T]) RootScore() Result {
	mcts.Tree.Enter()
	defer mcts.Tree.Leave()

	if root := mcts.Tree.Root(); !root.IsNull() {
		node := mcts.Tree.Node(root)
		if i := mcts.BestChild(node, BestChildMostVisits); i >= 0 {
			return Result(node.Edge(i).AvgQ())
		}
	}
	return Result(math.NaN())
}

// Index of the best edge of 'node', based on the policy, -1 if there is none.
// Must be called between Tree.Enter and Tree.Leave.
func (mcts *MCTS[T]) BestChild(node *tree.Node[T], policy BestChildPolicy) int {
	best := -1

	node.Edges(func(edges []tree.Edge[T]) {
		switch policy {
		case BestChildMostVisits:
			maxVisits := int32(0)
			for i := range edges {
				if v := edges[i].RealVisits(); v > maxVisits {
					maxVisits = v
					best = i
				}
			}
		case BestChildWinRate:
			const minVisitsThreshold = 10
			bestWinRate := -1.0

			for i := range edges {
				if edges[i].RealVisits() > minVisitsThreshold {
					// We optimize the winning chances, looking from the node's side to move
					if winRate := edges[i].AvgQ(); winRate > bestWinRate {
						bestWinRate = winRate
						best = i
					}
				}
			}
		}
	})

	return best
}

type PvResult[T MoveLike] struct {
	Move     T
	Visits   int32
	Eval     float64
	Pv       []T
	Terminal bool
	Draw     bool
}

// Returns 'pvCount' best move lines, specified in the limits
func (mcts *MCTS[T]) MultiPv(policy BestChildPolicy) []PvResult[T] {
	mcts.Tree.Enter()
	defer mcts.Tree.Leave()

	rootPtr := mcts.Tree.Root()
	if rootPtr.IsNull() {
		return nil
	}
	root := mcts.Tree.Node(rootPtr)

	type candidate struct {
		index  int
		visits int32
	}

	var candidates []candidate
	root.Edges(func(edges []tree.Edge[T]) {
		for i := range edges {
			if v := edges[i].RealVisits(); v > 0 {
				candidates = append(candidates, candidate{i, v})
			}
		}
	})

	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return int(b.visits) - int(a.visits)
	})

	pvCount := min(mcts.Limiter.Limits().MultiPv, len(candidates))
	multipv := make([]PvResult[T], 0, pvCount)
	for _, c := range candidates[:pvCount] {
		edge := root.Edge(c.index)
		line := []T{edge.Move()}
		terminal, draw := false, false

		if child := edge.Ptr(); !child.IsNull() {
			node := mcts.Tree.Node(child)
			if node.Terminal() {
				terminal, draw = true, node.State() == tree.Draw
			} else {
				var rest []T
				rest, terminal, draw = mcts.pvFrom(node, policy)
				line = append(line, rest...)
			}
		}

		multipv = append(multipv, PvResult[T]{
			Move:     edge.Move(),
			Visits:   c.visits,
			Eval:     edge.AvgQ(),
			Pv:       line,
			Terminal: terminal,
			Draw:     draw,
		})
	}

	return multipv
}

// Get the pricipal variation from the root, returns (moves, terminal, draw),
// 'terminal' is set if the line ends in a finished game
func (mcts *MCTS[T]) Pv(policy BestChildPolicy) ([]T, bool, bool) {
	mcts.Tree.Enter()
	defer mcts.Tree.Leave()

	root := mcts.Tree.Root()
	if root.IsNull() {
		return nil, false, false
	}
	return mcts.pvFrom(mcts.Tree.Node(root), policy)
}

// Simply select 'best child' until there is no explored one
func (mcts *MCTS[T]) pvFrom(node *tree.Node[T], policy BestChildPolicy) ([]T, bool, bool) {
	pv := make([]T, 0, mcts.MaxDepth()+1)

	for {
		i := mcts.BestChild(node, policy)
		if i < 0 {
			return pv, false, false
		}

		edge := node.Edge(i)
		pv = append(pv, edge.Move())

		child := edge.Ptr()
		if child.IsNull() {
			return pv, false, false
		}

		node = mcts.Tree.Node(child)
		if node.Terminal() {
			return pv, true, node.State() == tree.Draw
		}
	}
}
