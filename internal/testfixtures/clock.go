package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually advanced time source. Attendance tests use it to pin
// entry timestamps and to walk sessions across their expiry window without
// sleeping.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock starting at the supplied instant. A zero start
// anchors the clock to ReferenceTime, the Monday the fixture month is built
// around.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = ReferenceTime()
	}
	return &Clock{current: start}
}

// Now returns the instant the clock currently reports.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// NowFunc adapts the clock to the func() time.Time shape the services take.
// A nil clock yields real time.
func (c *Clock) NowFunc() func() time.Time {
	if c == nil {
		return time.Now
	}
	return c.Now
}

// Set rewinds or jumps the clock to an absolute instant.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the resulting instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	c.current = c.current.Add(d)
	updated := c.current
	c.mu.Unlock()
	return updated
}

// Current reads the clock without implying any progression. Assertions use
// it when comparing stored timestamps against the fixture time.
func (c *Clock) Current() time.Time {
	return c.Now()
}
