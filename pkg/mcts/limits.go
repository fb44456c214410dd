package mcts

import (
	"encoding/json"
	"math"
	"strings"
)

// Search limits. Memory is not one of them: the tree has a fixed size
// (see tree.Config) and recycles itself when it runs out of space.
type Limits struct {
	Depth    int
	Nodes    uint32 // live nodes in the tree, not the number ever allocated
	Cycles   uint32
	Movetime int
	Infinite bool
	NThreads int
	MultiPv  int
}

func (l Limits) String() string {
	builder := strings.Builder{}
	_ = json.NewEncoder(&builder).Encode(l)
	return builder.String()
}

const (
	DefaultDepthLimit    int    = math.MaxInt
	DefaultNodeLimit     uint32 = math.MaxUint32
	DefaultMovetimeLimit int    = -1
	DefaultCyclesLimit   uint32 = math.MaxUint32
)

func DefaultLimits() *Limits {
	return &Limits{
		Depth:    DefaultDepthLimit,
		Nodes:    DefaultNodeLimit,
		Cycles:   DefaultCyclesLimit,
		Movetime: DefaultMovetimeLimit,
		Infinite: true,
		NThreads: 1,
		MultiPv:  1,
	}
}

// Set the maximum depth of the search
func (l *Limits) SetDepth(depth int) *Limits {
	l.Depth = depth
	l.Infinite = false
	return l
}

// Set the maxiumum number of live nodes in the tree. It's compared against
// tree.Tree.Used(), which drops whenever the tree flips, so a limit above the
// capacity of a single half may never be reached, and one above tree.Tree.Capacity() never is.
func (l *Limits) SetNodes(nodes uint32) *Limits {
	l.Nodes = nodes
	l.Infinite = false
	return l
}

// Set the number of backpropagation cycles in monte-carlo tree search
func (l *Limits) SetCycles(visits uint32) *Limits {
	l.Cycles = visits
	l.Infinite = false
	return l
}

// Set the maximum time for engine to think
func (l *Limits) SetMovetime(movetime int) *Limits {
	l.Movetime = movetime
	l.Infinite = false
	return l
}

func (l *Limits) SetInfinite(infinite bool) *Limits {
	l.Infinite = infinite
	return l
}

func (l *Limits) SetThreads(threads int) *Limits {
	l.NThreads = max(threads, 1)
	return l
}

func (l *Limits) SetMultiPv(multipv int) *Limits {
	l.MultiPv = max(1, multipv)
	return l
}
