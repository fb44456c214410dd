package mcts

import (
	"math/rand"
	"runtime"
	"sync"

	"github.com/IlikeChooros/go-mcts-arena/pkg/tree"
	"github.com/rs/zerolog/log"
)

// Per-thread search state
type worker[T MoveLike] struct {
	ops      GameOperations[T]
	rand     *rand.Rand
	threadId int
	depth    int32

	// expansion buffers, reused between simulations
	buf    []MovePrior[T]
	moves  []T
	priors []float32
}

// Use when started multi-threaded search and want it to synchronize with this thread
func (mcts *MCTS[T]) Synchronize() {
	mcts.wg.Wait()
}

// Run multi-treaded search, to wait for the result, call Synchronize
func (mcts *MCTS[T]) SearchMultiThreaded(ops GameOperations[T]) {
	mcts.setupSearch()
	threads := max(1, mcts.Limiter.Limits().NThreads)

	log.Info().
		Int("threads", threads).
		Str("limits", mcts.Limiter.Limits().String()).
		Str("tree", mcts.Tree.String()).
		Msg("search-start")

	mcts.wg.Add(1)
	go func() {
		defer mcts.wg.Done()

		helpers := sync.WaitGroup{}
		for id := 1; id < threads; id++ {
			helpers.Add(1)
			go func(ops GameOperations[T]) {
				defer helpers.Done()
				mcts.Search(ops, id)
			}(ops.Clone())
		}

		mcts.Search(ops.Clone(), mainThreadId)
		helpers.Wait()

		log.Info().
			Int("cycles", mcts.Cycles()).
			Uint32("cps", mcts.Cps()).
			Int("maxdepth", mcts.MaxDepth()).
			Uint32("size", mcts.Size()).
			Uint64("flips", mcts.Flips()).
			Int32("collisions", mcts.CollisionCount()).
			Str("reason", mcts.StopReason().String()).
			Msg("search-stop")

		mcts.invokeListener(mcts.listener.onStop)
	}()
}

// This function only sets the limits, resets the counters, and the stop flag
// doesn't actually start the search
func (mcts *MCTS[T]) setupSearch() {
	mcts.Limiter.Reset()
	mcts.cps.Store(0)
	mcts.cycles.Store(0)
	mcts.maxdepth.Store(0)
}

// Actual search function implementation, repeats simulations:
//
// 1. selection - descend by the selection policy, fetching (or migrating) children on the way
//
// 2. expansion - on the second visit of a leaf, add its edges
//
// 3. rollout - evaluate the leaf on its first visit
//
// 4. backpropagate - update the edge statistics on the way back up
//
// Until runs out of the allocated time, nodes, or cycles. When the tree runs out
// of space, the simulation is dropped and the tree flips.
// threadId must be unique, 0 meaning it's the main search threads with some privileges
func (mcts *MCTS[T]) Search(ops GameOperations[T], threadId int) {
	w := &worker[T]{
		ops:      ops,
		rand:     rand.New(rand.NewSource(SeedGeneratorFn() + int64(threadId))),
		threadId: threadId,
	}

	// For random (light) playouts, set the random number generator
	if rg, ok := ops.(RandGameOperations[T]); ok {
		rg.SetRand(w.rand)
	}

	for mcts.Limiter.Ok(mcts.Size(), uint32(mcts.MaxDepth()), uint32(mcts.Cycles())) {
		epoch := mcts.Tree.Enter()
		root := mcts.Tree.Root()
		if root.IsNull() || mcts.Tree.Node(root).Terminal() {
			mcts.Tree.Leave()
			break
		}

		w.depth = 0
		ok := mcts.simulate(w, root)
		mcts.Tree.Leave()

		if !ok {
			// Out of space, only one of the threads that noticed it actually flips
			mcts.Tree.FlipFrom(epoch)
			continue
		}

		// Increment cycle count and store the cps
		mcts.cycles.Add(1)
		mcts.cps.Store(uint32(mcts.Cycles()) * 1000 / max(mcts.Limiter.Elapsed(), 1))

		mcts.updateDepth(w)
		if threadId == mainThreadId {
			mcts.listener.invokeCycle(mcts)
		}
	}

	// Evaluate the stop reason, only main thread will do this, then make the other threads quit
	if threadId == mainThreadId {
		mcts.Limiter.EvaluateStopReason(mcts.Size(), uint32(mcts.MaxDepth()), uint32(mcts.Cycles()))
		mcts.Limiter.SetStop(true)
	}
}

// Set the 'max depth', the depth listener is called only by the main thread
func (mcts *MCTS[T]) updateDepth(w *worker[T]) {
	for {
		current := mcts.maxdepth.Load()
		if w.depth <= current {
			return
		}
		if mcts.maxdepth.CompareAndSwap(current, w.depth) {
			break
		}
	}

	if w.threadId == mainThreadId {
		mcts.invokeListener(mcts.listener.onDepth)
	}
}

// Single simulation from the root, false if it had to be dropped (tree is full)
func (mcts *MCTS[T]) simulate(w *worker[T], root tree.NodePtr) bool {
	stats := mcts.Tree.RootStats()
	value, ok := mcts.playout(w, root, stats)
	if !ok {
		return false
	}

	stats.AddVvl(1, 0)
	stats.AddQ(1 - value)
	return true
}

// Descend from 'ptr' and return the value of its position for the side to move.
// 'stats' belong to the edge leading to 'ptr'.
func (mcts *MCTS[T]) playout(w *worker[T], ptr tree.NodePtr, stats *tree.EdgeStats) (float64, bool) {
	node := mcts.Tree.Node(ptr)
	if node.Terminal() {
		return node.State().Value(), true
	}

	if !node.Expanded() {
		// First visit of a leaf, evaluate it
		if w.depth > 0 && stats.RealVisits() == 0 {
			return float64(w.ops.Rollout()), true
		}

		if node.CanExpand() {
			mcts.expand(w, node)
			node.FinishExpanding()
		}

		// Currently expanding
		first := true
		for node.Expanding() {
			if first {
				// If this is the first time, increment the collision counter
				mcts.collisionCount.Add(1)
				first = false
			}
			runtime.Gosched()
		}

		if node.Terminal() {
			return node.State().Value(), true
		}
	}

	i := mcts.selectionPolicy(node, stats)
	edge := node.Edge(i)

	// Apply virtual loss
	edge.AddVvl(VirtualLoss, VirtualLoss)
	w.ops.Traverse(edge.Move())
	w.depth++

	child := mcts.Tree.FetchChild(ptr, i, w.ops.State)
	if child.IsNull() {
		w.ops.BackTraverse()
		edge.AddVvl(-VirtualLoss, -VirtualLoss)
		return 0, false
	}

	value, ok := mcts.playout(w, child, &edge.EdgeStats)
	w.ops.BackTraverse()
	if !ok {
		edge.AddVvl(-VirtualLoss, -VirtualLoss)
		return 0, false
	}

	// The edge holds the outcome for the side that played it
	edge.AddVvl(1-VirtualLoss, -VirtualLoss)
	edge.AddQ(1 - value)
	return 1 - value, true
}

// Add the edges of 'node', with normalised priors. A position without
// legal moves becomes terminal.
func (mcts *MCTS[T]) expand(w *worker[T], node *tree.Node[T]) {
	if state := w.ops.State(); state.Terminal() {
		node.SetState(state)
		return
	}

	w.buf = w.ops.GenerateMoves(w.buf[:0])
	if len(w.buf) == 0 {
		node.SetState(tree.Draw)
		return
	}

	w.moves = w.moves[:0]
	w.priors = w.priors[:0]
	sum := float32(0)
	for _, mp := range w.buf {
		w.moves = append(w.moves, mp.Move)
		w.priors = append(w.priors, max(mp.Prior, 0))
		sum += max(mp.Prior, 0)
	}

	if sum > 0 {
		for i := range w.priors {
			w.priors[i] /= sum
		}
	} else {
		uniform := 1 / float32(len(w.priors))
		for i := range w.priors {
			w.priors[i] = uniform
		}
	}

	node.Expand(w.moves, w.priors)
}
