// Package schedule provides cancellable recurring tasks whose handle is owned
// by the component that started them.
package schedule

import (
	"sync"
	"sync/atomic"
	"time"
)

// Loop runs a function repeatedly. Each run is scheduled only after the
// previous one has returned, so runs never overlap.
type Loop struct {
	// Atomic fields first for ARM32 alignment
	runs int64

	interval time.Duration
	fn       func() bool

	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
}

// Every starts a Loop that calls fn after each interval for as long as fn
// returns true and the loop has not been cancelled. The first call happens
// one interval after Every returns.
func Every(interval time.Duration, fn func() bool) *Loop {
	l := &Loop{interval: interval, fn: fn}
	l.mu.Lock()
	l.timer = time.AfterFunc(interval, l.run)
	l.mu.Unlock()
	return l
}

func (l *Loop) run() {
	l.mu.Lock()
	if l.cancelled {
		l.mu.Unlock()
		return
	}
	l.timer = nil
	l.mu.Unlock()

	atomic.AddInt64(&l.runs, 1)
	cont := l.fn()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancelled || !cont {
		l.cancelled = true
		return
	}
	l.timer = time.AfterFunc(l.interval, l.run)
}

// Cancel stops the loop. No run starts after Cancel returns; a run already
// executing finishes but does not reschedule. Cancel is idempotent and safe
// to call from inside the loop function.
func (l *Loop) Cancel() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelled = true
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

// Done reports whether the loop will not run again.
func (l *Loop) Done() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancelled
}

// Pending reports whether a future run is currently scheduled.
func (l *Loop) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timer != nil && !l.cancelled
}

// Runs returns how many times the loop function has been invoked.
func (l *Loop) Runs() int64 {
	return atomic.LoadInt64(&l.runs)
}
