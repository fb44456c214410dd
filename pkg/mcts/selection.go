package mcts

import (
	"math"

	"github.com/IlikeChooros/go-mcts-arena/pkg/tree"
)

// PUCT : Q + C * P * sqrt(parent_visits) / (1 + visits).
// Unvisited edges get FpuValue as their Q. Virtual loss counts as visits without outcome,
// so edges other threads are currently searching look worse.
func PUCT[T MoveLike](parent *tree.Node[T], stats *tree.EdgeStats) int {
	sqrtParentVisits := math.Sqrt(float64(max(stats.N(), 1)))
	best := 0
	bestScore := math.Inf(-1)

	parent.Edges(func(edges []tree.Edge[T]) {
		for i := range edges {
			edge := &edges[i]
			visits := edge.N()

			q := FpuValue
			if visits > 0 {
				q = edge.AvgQ()
			}

			score := q + PuctParam*float64(edge.Policy())*sqrtParentVisits/float64(1+visits)
			if score > bestScore {
				bestScore = score
				best = i
			}
		}
	})

	return best
}

// UCB1 : wins/visits + C * sqrt(ln(parent_visits)/visits).
// Picks the first edge without real visits, ignores the priors.
func UCB1[T MoveLike](parent *tree.Node[T], stats *tree.EdgeStats) int {
	lnParentVisits := math.Log(float64(max(stats.N(), 1)))
	best := 0
	bestScore := math.Inf(-1)

	parent.Edges(func(edges []tree.Edge[T]) {
		for i := range edges {
			edge := &edges[i]
			visits, vl := edge.GetVvl()

			// Pick the unvisited one
			if visits-vl == 0 {
				best = i
				return
			}

			ucb1 := edge.Q()/float64(visits) +
				ExplorationParam*math.Sqrt(lnParentVisits/float64(visits))

			if ucb1 > bestScore {
				bestScore = ucb1
				best = i
			}
		}
	})

	return best
}
