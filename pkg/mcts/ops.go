package mcts

import (
	"math/rand"

	"github.com/IlikeChooros/go-mcts-arena/pkg/tree"
)

type GameOperations[T MoveLike] interface {
	// Legal moves in the current position, with their prior weights.
	// May reuse 'buf' for the result.
	GenerateMoves(buf []MovePrior[T]) []MovePrior[T]
	// Make a move on the internal position definition
	Traverse(T)
	// Go back up 1 time in the game tree (undo previous move, which was played in traverse)
	BackTraverse()
	// Outcome of the current position, from the side to move
	State() tree.GameState
	// Evaluate the current position from the side to move, in [0, 1].
	// Called on leaves, must leave the position unchanged.
	Rollout() Result
	// Reset game state to current internal position, called after changing
	// position, for example using SetNotation function in engine
	Reset()
	// Clone itself, without any shared memory with the other object
	Clone() GameOperations[T]
}

// Random-based rollout
type RandGameOperations[T MoveLike] interface {
	GameOperations[T]
	// Sets the random genertor
	SetRand(*rand.Rand)
}
