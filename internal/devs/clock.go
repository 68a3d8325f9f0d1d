package devs

import "sync/atomic"

// Clock is a monotonic logical clock that numbers kernel steps.
//
// Simulation time is a float and several steps can share one instant
// (zero time advances), so traces order events by this sequence number
// instead. Safe for concurrent reads, e.g. from a metrics scrape.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock starting at start.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current value without incrementing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
