package core

import (
	"sync"
	"time"
)

// Clock hands out unix timestamps that never decrease, even if the wall
// clock steps backwards.
type Clock struct {
	mu     sync.Mutex
	source func() int64
	last   int64
}

// NewClock returns a monotonic clock over source. A nil source uses the wall
// clock.
func NewClock(source func() int64) *Clock {
	c := &Clock{}
	c.SetSource(source)
	return c
}

// SetSource replaces the underlying time source.
func (c *Clock) SetSource(source func() int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if source == nil {
		source = func() int64 { return time.Now().Unix() }
	}
	c.source = source
}

// Now returns max(source(), last returned value).
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	ts := c.source()
	if ts < c.last {
		return c.last
	}
	c.last = ts
	return ts
}
