package ttt

import "math/bits"

// Legal moves, none if the game is over
func (p *Position) GenerateMoves() *MoveList {
	movelist := NewMoveList()
	if p.IsTerminated() {
		return movelist
	}

	free := uint(0b111111111 ^ (p.bitboards[0] | p.bitboards[1]))
	for free != 0 {
		movelist.AppendMove(PosType(bits.TrailingZeros(free)))
		free &= free - 1
	}

	return movelist
}
