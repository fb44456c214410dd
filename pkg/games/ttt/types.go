package ttt

type PosType uint8
type TurnType bool
type PlayerType uint8

const (
	CrossTurn  TurnType = true
	CircleTurn TurnType = false
)

const (
	None   PlayerType = 0
	Cross  PlayerType = 1
	Circle PlayerType = 2
)

// Single entry of the position's history, the move and the side that played it
type HistoryState struct {
	lastMove PosType
	turn     TurnType
}

func (t TurnType) String() string {
	if t == CrossTurn {
		return "X"
	}
	return "O"
}
