package bench

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/IlikeChooros/go-mcts-arena/pkg/mcts"
	"github.com/IlikeChooros/go-mcts-arena/pkg/tree"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

/*
Self-play benchmark, plays a series of games where a single search configuration
plays both sides. Every committed move re-roots the worker's tree, so each game
runs through the tree's flip cycle many times, the peak live node count shows
the memory bound holds.
*/

const DefaultMaxPlies = 400

type SelfPlay[T mcts.MoveLike] struct {
	SelfPlayStats
	NewGame  func() GameLike[T]
	Policy   mcts.SelectionPolicy[T]
	Config   *tree.Config
	Limits   *mcts.Limits
	NGames   int
	NWorkers int
	MaxPlies int // games reaching this length are scored as a draw
	ctx      context.Context
}

func NewSelfPlay[T mcts.MoveLike](newGame func() GameLike[T]) *SelfPlay[T] {
	return &SelfPlay[T]{
		NewGame:  newGame,
		Policy:   mcts.PUCT[T],
		Config:   tree.DefaultConfig(),
		Limits:   mcts.DefaultLimits().SetCycles(1000),
		NGames:   10,
		NWorkers: 2,
		MaxPlies: DefaultMaxPlies,
		ctx:      context.Background(),
	}
}

func (sp *SelfPlay[T]) WithContext(ctx context.Context) *SelfPlay[T] {
	sp.ctx = ctx
	return sp
}

func (sp *SelfPlay[T]) Setup(limits *mcts.Limits, config *tree.Config, nGames, nWorkers int) *SelfPlay[T] {
	sp.Limits = limits
	sp.Config = config
	sp.NGames = max(nGames, 0)
	sp.NWorkers = max(nWorkers, 1)
	return sp
}

func (sp *SelfPlay[T]) summary() SummaryInfo {
	return SummaryInfo{
		TotalGames:       sp.Total(),
		FirstToMoveWins:  sp.FirstToMoveWins(),
		SecondToMoveWins: sp.SecondToMoveWins(),
		Draws:            sp.Draws(),
		Moves:            sp.Moves(),
		Flips:            sp.Flips(),
		PeakUsed:         sp.PeakUsed(),
		Capacity:         2 * tree.HalfCapacity[T](sp.Config),
		Workers:          sp.NWorkers,
	}
}

// Play all games, spread equally between the workers. Blocks until every worker is done,
// the first error (or context cancellation) stops the others.
func (sp *SelfPlay[T]) Run(listener ListenerLike[T]) (SummaryInfo, error) {
	if listener == nil {
		listener = NopListener[T]{}
	}
	if sp.Config == nil {
		sp.Config = tree.DefaultConfig()
	}

	listener.OnStart(sp.NWorkers)
	g, ctx := errgroup.WithContext(sp.ctx)

	nGames := sp.NGames / sp.NWorkers
	rest := sp.NGames % sp.NWorkers
	for id := range sp.NWorkers {
		games := nGames
		if id < rest {
			games++
		}
		g.Go(func() error {
			return sp.worker(ctx, id, games, listener)
		})
	}

	err := g.Wait()
	summary := sp.summary()
	listener.Summary(summary)
	listener.OnEnd()

	log.Info().
		Int("games", summary.TotalGames).
		Int("moves", summary.Moves).
		Uint64("flips", summary.Flips).
		Int("peak-used", summary.PeakUsed).
		Int("capacity", summary.Capacity).
		Err(err).
		Msg("selfplay-done")
	return summary, err
}

func (sp *SelfPlay[T]) worker(ctx context.Context, id, nGames int, listener ListenerLike[T]) error {
	var search *mcts.MCTS[T]
	info := WorkerInfo[T]{WorkerID: id, NGames: nGames}

	for i := range nGames {
		if err := ctx.Err(); err != nil {
			return err
		}

		game := sp.NewGame()
		if search == nil {
			search = mcts.NewMCTS[T](sp.Policy, game, sp.Config)
			search.SetLimits(sp.Limits)
			search.SetContext(ctx)
		} else {
			search.Reset(game)
		}

		result, err := sp.playGame(ctx, search, game, listener, &info)
		if err != nil {
			return fmt.Errorf("bench: worker %d game %d: %w", id, i, err)
		}

		sp.addResult(result)
		info.FinishedGames++
		info.Result = result
		listener.OnFinishedGame(info)
	}

	listener.OnFinishedWork(info)
	return nil
}

func (sp *SelfPlay[T]) playGame(
	ctx context.Context, search *mcts.MCTS[T], game GameLike[T],
	listener ListenerLike[T], info *WorkerInfo[T],
) (GameResult, error) {
	flipsBefore := search.Flips()
	info.Moves = make([]T, 0, 64)
	info.GameMoveNum = 0

	for !game.State().Terminal() && len(info.Moves) < sp.MaxPlies {
		search.SearchMultiThreaded(game)
		search.Synchronize()

		if err := ctx.Err(); err != nil {
			return Draw, err
		}

		if len(search.MultiPv(mcts.BestChildMostVisits)) == 0 {
			return Draw, ErrNoMoves
		}

		used := search.Size()
		sp.observeUsed(used)
		move := search.RootMove()

		search.MakeMove(move)
		game.MakeMove(move)
		info.Moves = append(info.Moves, move)
		info.GameMoveNum = len(info.Moves)
		info.Used = used
		info.Capacity = search.Tree.Capacity()
		info.Flips = search.Flips() - flipsBefore
		listener.OnMoveMade(*info)
	}

	flips := search.Flips() - flipsBefore
	atomic.AddUint64(&sp.moves, uint64(len(info.Moves)))
	atomic.AddUint64(&sp.flips, flips)

	result := computeOutcome(game.State(), len(info.Moves))
	log.Debug().
		Int("worker", info.WorkerID).
		Int("plies", len(info.Moves)).
		Uint64("flips", flips).
		Str("result", result.String()).
		Msg("selfplay-game")
	return result, nil
}
