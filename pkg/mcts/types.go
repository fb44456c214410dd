package mcts

import "github.com/IlikeChooros/go-mcts-arena/pkg/tree"

// Other types, which didn't fit to MCTS or Node files

// Result of the rollout, should range from [0, 1] - 0 being loss from the leaf's node perspective
// and 1 being a win
type Result float64
type MoveLike = tree.MoveLike
type BestChildPolicy int

// Legal move together with its prior weight, given by the policy.
// Priors don't have to be normalised, the search does that on expansion.
type MovePrior[T MoveLike] struct {
	Move  T
	Prior float32
}

// Picks the edge of 'parent' to descend into. Called only on expanded nodes with at least one edge.
// 'stats' are the statistics of the edge leading to 'parent' (or the root's).
// Warning: edge statistics are shared between search threads, read them only with the provided methods
type SelectionPolicy[T MoveLike] func(parent *tree.Node[T], stats *tree.EdgeStats) int
type SeedGeneratorFnType func() int64
