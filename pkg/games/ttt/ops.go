package ttt

import (
	"math/rand"

	"github.com/IlikeChooros/go-mcts-arena/pkg/mcts"
	"github.com/IlikeChooros/go-mcts-arena/pkg/tree"
)

// Game operations for the search. Moves made with Traverse are undone by Reset,
// the moves actually played in the game go through MakeMove.
type Ops struct {
	position *Position
	base     *Position
	rand     *rand.Rand
}

func NewOps(position *Position) *Ops {
	if position == nil {
		position = NewPosition()
	}
	return &Ops{
		position: position.Clone(),
		base:     position.Clone(),
		rand:     rand.New(rand.NewSource(mcts.SeedGeneratorFn())),
	}
}

// Current position, including the moves of the ongoing simulation
func (o *Ops) Position() *Position {
	return o.position
}

// Play 'mv' in the game (not just in the search)
func (o *Ops) MakeMove(mv PosType) {
	o.base.MakeMove(mv)
	o.position = o.base.Clone()
}

func (o *Ops) GenerateMoves(buf []mcts.MovePrior[PosType]) []mcts.MovePrior[PosType] {
	moves := o.position.GenerateMoves()
	for _, mv := range moves.Slice() {
		buf = append(buf, mcts.MovePrior[PosType]{Move: mv, Prior: 1})
	}
	return buf
}

func (o *Ops) Traverse(mv PosType) {
	o.position.MakeMove(mv)
}

func (o *Ops) BackTraverse() {
	o.position.UndoMove()
}

func (o *Ops) State() tree.GameState {
	return stateOf(o.position)
}

// Outcome for the side to move
func stateOf(p *Position) tree.GameState {
	if !p.IsTerminated() {
		return tree.Ongoing
	}

	switch p.Termination() {
	case TerminationCrossWon:
		if p.Turn() == CrossTurn {
			return tree.Won
		}
		return tree.Lost
	case TerminationCircleWon:
		if p.Turn() == CircleTurn {
			return tree.Won
		}
		return tree.Lost
	}
	return tree.Draw
}

// Random playout until the game ends, the position is restored afterwards
func (o *Ops) Rollout() mcts.Result {
	turn := o.position.Turn()
	plies := 0

	for !o.position.IsTerminated() {
		moves := o.position.GenerateMoves()
		o.position.MakeMove(moves.Moves[o.rand.Intn(int(moves.Size))])
		plies++
	}

	var result mcts.Result = 0.5
	switch o.position.Termination() {
	case TerminationCrossWon:
		if turn == CrossTurn {
			result = 1
		} else {
			result = 0
		}
	case TerminationCircleWon:
		if turn == CircleTurn {
			result = 1
		} else {
			result = 0
		}
	}

	for range plies {
		o.position.UndoMove()
	}
	return result
}

func (o *Ops) Reset() {
	o.position = o.base.Clone()
}

func (o *Ops) SetRand(r *rand.Rand) {
	o.rand = r
}

func (o *Ops) Clone() mcts.GameOperations[PosType] {
	return &Ops{
		position: o.position.Clone(),
		base:     o.base.Clone(),
		rand:     rand.New(rand.NewSource(mcts.SeedGeneratorFn())),
	}
}
