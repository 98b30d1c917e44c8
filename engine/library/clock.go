package library

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

// Clock is the only source of time for the engine. Rebases and reward accrual are evaluated
// lazily against it at call time.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock only moves when told to.
type ManualClock struct {
	now time.Time
	mu  *deadlock.Mutex
}

func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start, mu: &deadlock.Mutex{}}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
