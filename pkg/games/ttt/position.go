package ttt

import (
	"fmt"
	"strings"
)

const (
	_bitboardCrossIdx  = 0
	_bitboardCircleIdx = 1
)

type Position struct {
	board       [9]PlayerType
	bitboards   [2]uint16
	history     []HistoryState
	termination Termination
}

func NewPosition() *Position {
	history := make([]HistoryState, 1, 10)
	// Nobody moved yet, cross starts
	history[0] = HistoryState{lastMove: PosIllegal, turn: CircleTurn}

	return &Position{
		history: history,
	}
}

// Position after playing 'moves' from the start, in the 'B2' notation
func FromMoves(moves ...string) (*Position, error) {
	p := NewPosition()
	for _, s := range moves {
		mv, err := ParseSquare(s)
		if err != nil {
			return nil, err
		}
		if !p.IsLegal(mv) {
			return nil, fmt.Errorf("ttt: illegal move %s", s)
		}
		p.MakeMove(mv)
	}
	return p, nil
}

func (p *Position) Clone() *Position {
	clone := *p
	clone.history = make([]HistoryState, len(p.history), cap(p.history))
	copy(clone.history, p.history)
	return &clone
}

func (p *Position) lastHistory() *HistoryState {
	return &p.history[len(p.history)-1]
}

// Side to move
func (p *Position) Turn() TurnType {
	return !p.lastHistory().turn
}

// Number of moves played so far
func (p *Position) Ply() int {
	return len(p.history) - 1
}

func (p *Position) At(sq PosType) PlayerType {
	return p.board[sq]
}

func (p *Position) IsLegal(mv PosType) bool {
	return mv < 9 && p.board[mv] == None && !p.IsTerminated()
}

func (p *Position) MakeMove(mv PosType) {
	// Allow every move
	idx := _bitboardCrossIdx
	player := Cross
	turn := p.Turn()
	if turn == CircleTurn {
		player = Circle
		idx = _bitboardCircleIdx
	}

	p.bitboards[idx] ^= (1 << mv)
	p.board[mv] = player
	p.history = append(p.history, HistoryState{turn: turn, lastMove: mv})
	p.termination = TerminationNone
}

func (p *Position) UndoMove() {
	if len(p.history) <= 1 {
		return
	}

	hist := p.lastHistory()
	idx := _bitboardCrossIdx
	if hist.turn == CircleTurn {
		idx = _bitboardCircleIdx
	}

	p.bitboards[idx] ^= (1 << hist.lastMove)
	p.board[hist.lastMove] = None
	p.termination = TerminationNone
	p.history = p.history[:len(p.history)-1]
}

func (p *Position) String() string {
	builder := strings.Builder{}
	for row := 0; row < 3; row++ {
		fmt.Fprintf(&builder, "%d ", 3-row)
		for col := 0; col < 3; col++ {
			switch p.board[row*3+col] {
			case Cross:
				builder.WriteByte('X')
			case Circle:
				builder.WriteByte('O')
			default:
				builder.WriteByte('.')
			}
		}
		builder.WriteByte('\n')
	}
	builder.WriteString("  ABC\n")
	return builder.String()
}
