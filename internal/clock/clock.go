// Package clock derives monotonic simulated time from real elapsed time.
//
// The rest of the game world shares one simulated clock: real seconds are
// multiplied by a scale factor to produce "simulated minutes total", the
// timestamp unit every combat timer is scheduled against.
package clock

import (
	"sync"
	"time"
)

// Clock converts real elapsed time into monotonic simulated minutes.
// All methods are safe for concurrent use.
//
// Invariant: NowTotalMinutes never decreases, even across SetScale or Advance.
type Clock struct {
	mu sync.Mutex
	// now is the real-time source; replaceable in tests.
	now func() time.Time
	// anchor is the real instant baseTotal was captured at.
	anchor time.Time
	// baseTotal is the simulated-minutes total accumulated up to anchor.
	baseTotal float64
	// scale is simulated minutes per real second.
	scale float64
	// lastTotal is the highest total ever returned.
	lastTotal float64
}

// Option configures a Clock at construction time.
type Option func(*Clock)

// WithNowFunc replaces the real-time source. Tests use this to freeze time.
func WithNowFunc(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// New creates a Clock running at the given scale (simulated minutes per real second).
//
// Precondition: scale > 0.
// Postcondition: NowTotalMinutes starts at 0.
func New(scale float64, opts ...Option) *Clock {
	if scale <= 0 {
		panic("clock: scale must be > 0")
	}
	c := &Clock{now: time.Now, scale: scale}
	for _, opt := range opts {
		opt(c)
	}
	c.anchor = c.now()
	return c
}

// NowTotalMinutes returns the current simulated-minutes total.
//
// Postcondition: Returns a value >= every previously returned value.
func (c *Clock) NowTotalMinutes() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalLocked()
}

func (c *Clock) totalLocked() float64 {
	elapsed := c.now().Sub(c.anchor).Seconds()
	total := c.baseTotal + elapsed*c.scale
	if total < c.lastTotal {
		total = c.lastTotal
	}
	c.lastTotal = total
	return total
}

// Advance adds mins simulated minutes immediately. Negative values are ignored
// so the monotonic invariant holds.
func (c *Clock) Advance(mins float64) {
	if mins <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseTotal = c.totalLocked() + mins
	c.anchor = c.now()
}

// SetScale changes the scale factor, rebasing so already-elapsed simulated
// time is preserved.
//
// Precondition: scale > 0 (invalid values are ignored).
func (c *Clock) SetScale(scale float64) {
	if scale <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseTotal = c.totalLocked()
	c.anchor = c.now()
	c.scale = scale
}

// RealNow returns the current real time from the clock's time source.
// Combat uses it for rules specified in real seconds (inactivity pressure).
func (c *Clock) RealNow() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now()
}

// Scale returns the current scale factor.
func (c *Clock) Scale() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scale
}
