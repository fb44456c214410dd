package bench

import "github.com/IlikeChooros/go-mcts-arena/pkg/mcts"

// Self-play progress callbacks. Methods with WorkerInfo are called from the worker goroutines,
// OnStart, Summary and OnEnd once from the goroutine that called Run.
type ListenerLike[T mcts.MoveLike] interface {
	OnStart(workers int)
	OnMoveMade(info WorkerInfo[T])
	OnFinishedGame(info WorkerInfo[T])
	OnFinishedWork(info WorkerInfo[T])
	Summary(summary SummaryInfo)
	OnEnd()
}

// Listener that ignores everything
type NopListener[T mcts.MoveLike] struct{}

func (NopListener[T]) OnStart(int)                  {}
func (NopListener[T]) OnMoveMade(WorkerInfo[T])     {}
func (NopListener[T]) OnFinishedGame(WorkerInfo[T]) {}
func (NopListener[T]) OnFinishedWork(WorkerInfo[T]) {}
func (NopListener[T]) Summary(SummaryInfo)          {}
func (NopListener[T]) OnEnd()                       {}
