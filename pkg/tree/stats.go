package tree

import (
	"fmt"
	"sync/atomic"
)

// Outcomes are accumulated as fixed point integers with this many units per 1.0
const qScale = 1e3

// Statistics of a single edge (or of the root, which has no incoming edge).
// Every field is accessed only with atomic operations, since many workers
// backpropagate through the same edges (the root's children especially).
type EdgeStats struct {
	q uint64 // float64 value of compounded outcomes with 10^-3 precision

	// This is visit counter, to read it together with virtual loss use GetVvl()
	n int32

	// Current virtual loss applied to visits, it always meets condition: visits - virtualLoss >= 0.
	// Read this value ONLY with GetVvl() or VirtualLoss() methods
	virtualLoss int32
}

// Average outcome through this edge, from the perspective of the side that plays the edge's move
func (stats *EdgeStats) AvgQ() float64 {
	n := stats.N()
	if n == 0 {
		return 0
	}
	return float64(atomic.LoadUint64(&stats.q)) / qScale / float64(n)
}

// Cumulated outcomes
func (stats *EdgeStats) Q() float64 {
	return float64(atomic.LoadUint64(&stats.q)) / qScale
}

// Raw cumulated outcomes, with 10^-3 precision
func (stats *EdgeStats) RawQ() uint64 {
	return atomic.LoadUint64(&stats.q)
}

// Add new outcome, must be in [0, 1]
func (stats *EdgeStats) AddQ(result float64) {
	atomic.AddUint64(&stats.q, uint64(result*qScale))
}

// Number of visits, including the ones still in flight (virtual loss)
func (stats *EdgeStats) N() int32 {
	return atomic.LoadInt32(&stats.n)
}

func (stats *EdgeStats) VirtualLoss() int32 {
	return atomic.LoadInt32(&stats.virtualLoss)
}

// Get both visits and virtual loss (to avoid situtation one of them is modified)
// returns (visits, virtual loss)
func (stats *EdgeStats) GetVvl() (visits int32, virtualLoss int32) {
	for {
		visits = atomic.LoadInt32(&stats.n)
		virtualLoss = atomic.LoadInt32(&stats.virtualLoss)

		// Always preserve the condition that actual visits >= 0
		if virtualLoss <= visits {
			return visits, virtualLoss
		}
	}
}

// Returns visits - virtual loss
func (stats *EdgeStats) RealVisits() int32 {
	visits, virtualLoss := stats.GetVvl()
	return visits - virtualLoss
}

// Adds to both visits and virtual loss counters.
// Virtual loss is updated first, so a reader in GetVvl only ever waits for the visit counter.
func (stats *EdgeStats) AddVvl(visits, virtualLoss int32) {
	atomic.AddInt32(&stats.virtualLoss, virtualLoss)
	atomic.AddInt32(&stats.n, visits)
}

// Sets visits and virtual loss to specified value
func (stats *EdgeStats) SetVvl(visits, virtualLoss int32) {
	if virtualLoss > visits {
		panic(fmt.Sprintf("tree: virtual loss (%d) cannot be greater than visits (%d)", virtualLoss, visits))
	}
	atomic.StoreInt32(&stats.virtualLoss, virtualLoss)
	atomic.StoreInt32(&stats.n, visits)
}

// Copy the counters of 'other' (without its virtual loss, which belongs to in-flight simulations)
func (stats *EdgeStats) CopyFrom(other *EdgeStats) {
	visits, virtualLoss := other.GetVvl()
	atomic.StoreUint64(&stats.q, other.RawQ())
	atomic.StoreInt32(&stats.virtualLoss, 0)
	atomic.StoreInt32(&stats.n, visits-virtualLoss)
}

func (stats *EdgeStats) Reset() {
	atomic.StoreUint64(&stats.q, 0)
	atomic.StoreInt32(&stats.virtualLoss, 0)
	atomic.StoreInt32(&stats.n, 0)
}
