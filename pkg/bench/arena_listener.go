package bench

import "github.com/IlikeChooros/go-mcts-arena/pkg/mcts"

// Distributes the self-play events to several listeners, in order
type ArenaListener[T mcts.MoveLike] struct {
	listeners []ListenerLike[T]
}

func NewArenaListener[T mcts.MoveLike](listeners ...ListenerLike[T]) *ArenaListener[T] {
	al := &ArenaListener[T]{
		listeners: make([]ListenerLike[T], 0, len(listeners)),
	}
	for _, l := range listeners {
		if l != nil {
			al.listeners = append(al.listeners, l)
		}
	}
	return al
}

func (al *ArenaListener[T]) Add(l ListenerLike[T]) *ArenaListener[T] {
	if l != nil {
		al.listeners = append(al.listeners, l)
	}
	return al
}

func (al *ArenaListener[T]) OnStart(workers int) {
	for _, l := range al.listeners {
		l.OnStart(workers)
	}
}

func (al *ArenaListener[T]) OnMoveMade(info WorkerInfo[T]) {
	for _, l := range al.listeners {
		l.OnMoveMade(info)
	}
}

func (al *ArenaListener[T]) OnFinishedGame(info WorkerInfo[T]) {
	for _, l := range al.listeners {
		l.OnFinishedGame(info)
	}
}

func (al *ArenaListener[T]) OnFinishedWork(info WorkerInfo[T]) {
	for _, l := range al.listeners {
		l.OnFinishedWork(info)
	}
}

func (al *ArenaListener[T]) Summary(summary SummaryInfo) {
	for _, l := range al.listeners {
		l.Summary(summary)
	}
}

func (al *ArenaListener[T]) OnEnd() {
	for _, l := range al.listeners {
		l.OnEnd()
	}
}
