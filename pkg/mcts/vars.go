package mcts

import "time"

// Main thread id, which has some privileges, like calling the listener during the search
const mainThreadId = 0

// Virtual loss value, used in multithreaded MCTS to avoid multiple threads
// exploring the same node simultaneously
const VirtualLoss int32 = 2

// Exploration parameter used in UCB1 formula, higher values increase exploration
// while lower values increase exploitation. Theoretical perfect value is sqrt(2), but it has to be tuned for each problem.
// Default is 0.75
var ExplorationParam float64 = 0.75

// Set the exploration parameter used in UCB1 formula
func SetExplorationParam(c float64) {
	ExplorationParam = max(0.0, c)
}

// Exploration constant of the PUCT formula, scales the prior term
var PuctParam float64 = 1.41

func SetPuctParam(c float64) {
	PuctParam = max(0.0, c)
}

// Value assumed for edges that were never visited (first play urgency), in [0, 1]
var FpuValue float64 = 0.5

func SetFpuValue(v float64) {
	FpuValue = min(max(v, 0.0), 1.0)
}

var SeedGeneratorFn SeedGeneratorFnType = func() int64 {
	return time.Now().UnixNano()
}

// Set custom seed generator function for random number generators in MCTS,
// by default uses current time in nanoseconds
func SetSeedGeneratorFn(f SeedGeneratorFnType) {
	if f != nil {
		SeedGeneratorFn = f
	}
}

const (
	// When choosing the best child, choose the one with most visits,
	// this is the go-to method for MCTS
	BestChildMostVisits BestChildPolicy = iota

	// Experimental: choose the child with the best win rate
	BestChildWinRate
)
