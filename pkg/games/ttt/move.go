package ttt

import "fmt"

// Enum for the squares
const (
	A3 PosType = iota
	B3
	C3
	A2
	B2
	C2
	A1
	B1
	C1
)

const (
	PosIllegal PosType = 255
)

var squareNames = [9]string{"A3", "B3", "C3", "A2", "B2", "C2", "A1", "B1", "C1"}

func (mv PosType) String() string {
	if mv < 9 {
		return squareNames[mv]
	}
	return "--"
}

// Parse a square in the 'B2' notation (case insensitive)
func ParseSquare(s string) (PosType, error) {
	if len(s) == 2 {
		file, rank := s[0]|0x20, s[1]
		if file >= 'a' && file <= 'c' && rank >= '1' && rank <= '3' {
			return PosType(int('3'-rank)*3 + int(file-'a')), nil
		}
	}
	return PosIllegal, fmt.Errorf("ttt: invalid square %q", s)
}

type MoveList struct {
	Moves [9]PosType
	Size  uint8
}

func NewMoveList() *MoveList {
	return &MoveList{}
}

func (ml *MoveList) AppendMove(mv PosType) {
	ml.Moves[ml.Size] = mv
	ml.Size++
}

func (ml *MoveList) Slice() []PosType {
	return ml.Moves[:ml.Size]
}
