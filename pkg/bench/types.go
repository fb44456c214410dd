package bench

import (
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/IlikeChooros/go-mcts-arena/pkg/mcts"
	"github.com/IlikeChooros/go-mcts-arena/pkg/tree"
)

// The search found nothing to play in a position that is not over
var ErrNoMoves = errors.New("bench: no move to play in an ongoing game")

// Game played by the self-play runner. Traverse/BackTraverse/Reset are the search side,
// MakeMove commits a move to the game itself (Reset returns to the last committed position).
type GameLike[T mcts.MoveLike] interface {
	mcts.GameOperations[T]
	MakeMove(T)
}

type GameResult int

const (
	FirstToMoveWin  GameResult = 1
	SecondToMoveWin GameResult = -1
	Draw            GameResult = 0
)

func (r GameResult) String() string {
	switch r {
	case FirstToMoveWin:
		return "1-0"
	case SecondToMoveWin:
		return "0-1"
	}
	return "1/2-1/2"
}

// Result of a finished game, given its final state (from the side to move)
// and the number of moves played
func computeOutcome(state tree.GameState, plies int) GameResult {
	switch state {
	case tree.Lost:
		// the side that just moved won
		if plies%2 == 1 {
			return FirstToMoveWin
		}
		return SecondToMoveWin
	case tree.Won:
		if plies%2 == 0 {
			return FirstToMoveWin
		}
		return SecondToMoveWin
	}
	return Draw
}

type SelfPlayStats struct {
	firstToMoveWins  uint32
	secondToMoveWins uint32
	draws            uint32
	moves            uint64
	flips            uint64
	peakUsed         uint32
}

func (s *SelfPlayStats) Total() int {
	return s.FirstToMoveWins() + s.SecondToMoveWins() + s.Draws()
}

func (s *SelfPlayStats) FirstToMoveWins() int {
	return int(atomic.LoadUint32(&s.firstToMoveWins))
}

func (s *SelfPlayStats) SecondToMoveWins() int {
	return int(atomic.LoadUint32(&s.secondToMoveWins))
}

func (s *SelfPlayStats) Draws() int {
	return int(atomic.LoadUint32(&s.draws))
}

// Moves played in all games
func (s *SelfPlayStats) Moves() int {
	return int(atomic.LoadUint64(&s.moves))
}

// Tree flips in all games
func (s *SelfPlayStats) Flips() uint64 {
	return atomic.LoadUint64(&s.flips)
}

// Largest number of live nodes any tree had after a search
func (s *SelfPlayStats) PeakUsed() int {
	return int(atomic.LoadUint32(&s.peakUsed))
}

func (s *SelfPlayStats) addResult(result GameResult) {
	switch result {
	case FirstToMoveWin:
		atomic.AddUint32(&s.firstToMoveWins, 1)
	case SecondToMoveWin:
		atomic.AddUint32(&s.secondToMoveWins, 1)
	default:
		atomic.AddUint32(&s.draws, 1)
	}
}

func (s *SelfPlayStats) observeUsed(used uint32) {
	for {
		peak := atomic.LoadUint32(&s.peakUsed)
		if used <= peak || atomic.CompareAndSwapUint32(&s.peakUsed, peak, used) {
			return
		}
	}
}

type WorkerInfo[T mcts.MoveLike] struct {
	WorkerID      int
	NGames        int
	FinishedGames int
	GameMoveNum   int
	Moves         []T
	Result        GameResult
	Used          uint32 // live nodes after the last search
	Capacity      int
	Flips         uint64 // flips of this worker's tree in the current game
}

type SummaryInfo struct {
	TotalGames       int    `json:"total_games"`
	FirstToMoveWins  int    `json:"first_to_move_wins"`
	SecondToMoveWins int    `json:"second_to_move_wins"`
	Draws            int    `json:"draws"`
	Moves            int    `json:"moves"`
	Flips            uint64 `json:"flips"`
	PeakUsed         int    `json:"peak_used"`
	Capacity         int    `json:"capacity"`
	Workers          int    `json:"workers"`
}

func (s SummaryInfo) String() string {
	builder := strings.Builder{}
	_ = json.NewEncoder(&builder).Encode(s)
	return builder.String()
}
