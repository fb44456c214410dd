// Package chess binds the search to the dragontoothmg move generator.
//
// Ops owns two boards: the game board, changed only by MakeMove, and the search board,
// changed by Traverse/BackTraverse and restored with Reset. Each search thread works
// on its own clone.
package chess

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/IlikeChooros/dragontoothmg"
	"github.com/IlikeChooros/go-mcts-arena/pkg/mcts"
	"github.com/IlikeChooros/go-mcts-arena/pkg/tree"
)

// Rollouts longer than this are scored as a draw
const DefaultRolloutPlies = 200

// Prior weight of 'move' in the position on 'board', must be >= 0.
// Called once per legal move when a node is expanded, the search normalises the weights.
type Policy func(board *dragontoothmg.Board, move dragontoothmg.Move) float32

// Every legal move is equally likely
func UniformPolicy(*dragontoothmg.Board, dragontoothmg.Move) float32 {
	return 1
}

type Ops struct {
	game         *dragontoothmg.Board
	board        *dragontoothmg.Board
	random       *rand.Rand
	policy       Policy
	rolloutPlies int
}

// Operations starting from 'board' (nil for the initial position)
func NewOps(board *dragontoothmg.Board) *Ops {
	if board == nil {
		board = dragontoothmg.NewBoard()
	}
	return &Ops{
		game:         board.Clone(),
		board:        board.Clone(),
		random:       rand.New(rand.NewSource(mcts.SeedGeneratorFn())),
		policy:       UniformPolicy,
		rolloutPlies: DefaultRolloutPlies,
	}
}

func (o *Ops) SetPolicy(policy Policy) *Ops {
	if policy == nil {
		policy = UniformPolicy
	}
	o.policy = policy
	return o
}

func (o *Ops) SetRolloutPlies(plies int) *Ops {
	o.rolloutPlies = max(plies, 1)
	return o
}

// Search board, including the moves of the ongoing simulation
func (o *Ops) Board() *dragontoothmg.Board {
	return o.board
}

// Play 'move' in the game (not just in the search)
func (o *Ops) MakeMove(move dragontoothmg.Move) {
	o.game.Make(move)
	o.board = o.game.Clone()
}

// Find the legal move written as 's' (e.g. 'e2e4') in the search board's position
func (o *Ops) ParseMove(s string) (dragontoothmg.Move, error) {
	for _, mv := range o.board.GenerateLegalMoves() {
		if mv.String() == s {
			return mv, nil
		}
	}
	return 0, fmt.Errorf("chess: illegal move %q", s)
}

func (o *Ops) GenerateMoves(buf []mcts.MovePrior[dragontoothmg.Move]) []mcts.MovePrior[dragontoothmg.Move] {
	moves := o.board.GenerateLegalMoves()
	if o.board.IsTerminated(len(moves)) {
		return buf
	}

	for _, mv := range moves {
		buf = append(buf, mcts.MovePrior[dragontoothmg.Move]{Move: mv, Prior: o.policy(o.board, mv)})
	}
	return buf
}

func (o *Ops) Traverse(move dragontoothmg.Move) {
	o.board.Make(move)
}

func (o *Ops) BackTraverse() {
	o.board.Undo()
}

// Checkmate is a loss for the side to move, every other termination is a draw
func (o *Ops) State() tree.GameState {
	if !o.board.IsTerminated(len(o.board.GenerateLegalMoves())) {
		return tree.Ongoing
	}
	if o.board.Termination() == dragontoothmg.TerminationCheckmate {
		return tree.Lost
	}
	return tree.Draw
}

// Light playout with random moves, capped at 'rolloutPlies'.
// Returns the result for the side to move at the leaf, the board is rewound afterwards.
func (o *Ops) Rollout() mcts.Result {
	var result mcts.Result = 0.5
	moveCount := 0
	leafIsWhite := o.board.Wtomove

	moves := o.board.GenerateLegalMoves()
	for !o.board.IsTerminated(len(moves)) && moveCount < o.rolloutPlies {
		moveCount++
		o.board.Make(moves[o.random.Intn(len(moves))])
		moves = o.board.GenerateLegalMoves()
	}

	// Checkmated side is the one to move
	if o.board.IsTerminated(len(moves)) && o.board.Termination() == dragontoothmg.TerminationCheckmate {
		if o.board.Wtomove == leafIsWhite {
			result = 0.0
		} else {
			result = 1.0
		}
	}

	for range moveCount {
		o.board.Undo()
	}
	return result
}

func (o *Ops) Reset() {
	o.board = o.game.Clone()
}

func (o *Ops) SetRand(r *rand.Rand) {
	o.random = r
}

func (o *Ops) Clone() mcts.GameOperations[dragontoothmg.Move] {
	return &Ops{
		game:         o.game.Clone(),
		board:        o.board.Clone(),
		random:       rand.New(rand.NewSource(mcts.SeedGeneratorFn())),
		policy:       o.policy,
		rolloutPlies: o.rolloutPlies,
	}
}

func MovesToString(mvs []dragontoothmg.Move) string {
	moves := make([]string, len(mvs))
	for i := range moves {
		moves[i] = mvs[i].String()
	}
	return strings.Join(moves, " ")
}
