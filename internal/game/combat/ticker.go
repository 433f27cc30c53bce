package combat

import (
	"sync"
	"time"
)

// Ticker drives a session's background tick on a fixed real-time interval.
// It rearms itself after each callback and stops cleanly: a callback that
// fires after Stop is a no-op, and Stop is idempotent.
type Ticker struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func()
	timer    *time.Timer
	stopped  bool
	started  bool
}

// NewTicker creates a stopped Ticker that will invoke fn every interval once
// started.
//
// Precondition: interval > 0 and fn must be non-nil.
func NewTicker(interval time.Duration, fn func()) *Ticker {
	return &Ticker{interval: interval, fn: fn}
}

// Start arms the ticker. Calling Start more than once has no effect.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started || t.stopped {
		return
	}
	t.started = true
	t.timer = time.AfterFunc(t.interval, t.fire)
}

// fire runs one callback and rearms. The callback runs outside the mutex so
// Stop can be called from within it.
func (t *Ticker) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	t.fn()

	t.mu.Lock()
	if !t.stopped {
		t.timer = time.AfterFunc(t.interval, t.fire)
	}
	t.mu.Unlock()
}

// Stop disarms the ticker. A concurrent in-flight callback may still
// complete, but no further callbacks fire.
func (t *Ticker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
