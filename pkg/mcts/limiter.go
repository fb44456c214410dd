package mcts

import (
	"context"
	"sync/atomic"
	"time"
	"unsafe"
)

type StopReason int

const (
	StopNone      StopReason = iota
	StopInterrupt            = 1  // Stopped by user, by calling .SetStop(true) or context cancellation
	StopMovetime             = 2  // Time limit reached
	StopNodes                = 4  // Live node limit reached
	StopDepth                = 8  // Depth limit reached
	StopCycles               = 16 // Cycle limit reached
)

func (sr StopReason) String() string {
	if sr == StopNone {
		return "None"
	}

	reasons := []struct {
		flag StopReason
		name string
	}{
		{StopInterrupt, "Interrupt"},
		{StopMovetime, "Movetime"},
		{StopNodes, "Nodes"},
		{StopDepth, "Depth"},
		{StopCycles, "Cycles"},
	}

	var result string
	for _, r := range reasons {
		if sr&r.flag == r.flag {
			if result != "" {
				result += "|"
			}
			result += r.name
		}
	}

	return result
}

type LimiterLike interface {
	SetContext(ctx context.Context)
	// Set the limits
	SetLimits(*Limits)
	// Get the limits
	Limits() *Limits
	// Get elapsed time in ms (from the last 'Reset' call)
	Elapsed() uint32
	// Set the stop signal, will cause to exit search if set to true
	SetStop(bool)
	// Get the stop signal
	Stop() bool
	// Reset the limiter's flags, called on search setup
	Reset()
	// Wheter the search should go on, called in the main search loop
	Ok(nodes, depth, cycles uint32) bool
	// Get the reason why the search was stopped, valid after search ends
	StopReason() StopReason
	// Evaluate stop reason based on current state, and set it internally,
	// this will be called once (by main thread) after search ends
	EvaluateStopReason(nodes, depth, cycles uint32)
}

type timer struct {
	start    time.Time
	duration time.Duration
}

// Check if this timer has ended
func (t *timer) isEnd() bool {
	return t.duration > 0 && time.Since(t.start) >= t.duration
}

// In milliseconds, negative means no time limit
func (t *timer) movetime(movetime int) {
	if movetime < 0 {
		t.duration = -1
	} else {
		t.duration = time.Duration(movetime) * time.Millisecond
	}
}

func (t *timer) deltatime() int {
	return max(int(time.Since(t.start).Milliseconds()), 1)
}

type Limiter struct {
	limits *Limits
	timer  timer
	stop   atomic.Bool
	reason StopReason
	ctx    context.Context
}

func NewLimiter() *Limiter {
	return &Limiter{
		limits: DefaultLimits(),
		timer:  timer{start: time.Now(), duration: -1},
		ctx:    context.Background(),
	}
}

func (l *Limiter) Reset() {
	l.timer.movetime(l.limits.Movetime)
	l.timer.start = time.Now()
	l.stop.Store(false)
	l.reason = StopNone
}

func (l *Limiter) EvaluateStopReason(nodes, depth, cycles uint32) {
	l.reason = StopReason(l.LimitMask(nodes, depth, cycles))
}

func (l *Limiter) StopReason() StopReason {
	return l.reason
}

func (l *Limiter) SetContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.ctx = ctx
}

func (l *Limiter) SetStop(v bool) {
	l.stop.Store(v)
}

func (l *Limiter) Stop() bool {
	select {
	case <-l.ctx.Done():
		l.stop.Store(true)
	default:
	}
	return l.stop.Load()
}

func (l *Limiter) SetLimits(limits *Limits) {
	l.limits = limits
}

func (l *Limiter) Limits() *Limits {
	return l.limits
}

func (l *Limiter) Elapsed() uint32 {
	return uint32(l.timer.deltatime())
}

func toMask(val bool, offset int) int {
	return int(*(*byte)(unsafe.Pointer(&val))) << offset
}

// Bit set of reached limits, same layout as StopReason
func (l *Limiter) LimitMask(nodes, depth, cycles uint32) int {
	stop := l.Stop()
	// If infinite, only the stop signal counts
	if l.limits.Infinite {
		return toMask(stop, 0)
	}

	limitMask := 0
	limitMask |= toMask(stop, 0)
	limitMask |= toMask(l.timer.isEnd(), 1)
	limitMask |= toMask(l.limits.Nodes <= nodes, 2)
	limitMask |= toMask(l.limits.Depth <= int(depth), 3)
	limitMask |= toMask(l.limits.Cycles <= cycles, 4)

	return limitMask
}

func (l *Limiter) Ok(nodes, depth, cycles uint32) bool {
	return l.LimitMask(nodes, depth, cycles) == 0
}
