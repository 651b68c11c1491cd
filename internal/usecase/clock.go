package usecase

import (
	"sync"
	"time"
)

// Clock abstracts wall time so pacing, expiry and flood-wait suspension can be
// driven by a virtual clock in tests.
type Clock interface {
	Now() time.Time
	// After fires once d has elapsed. Non-positive d fires immediately.
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

// RealClock is the wall clock.
var RealClock Clock = realClock{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time {
	if d <= 0 {
		ch := make(chan time.Time, 1)
		ch <- time.Now()
		return ch
	}
	return time.After(d)
}

// ManualClock is a virtual clock. In auto mode every After call advances
// virtual time by d and fires at once, so waits cost no wall time; otherwise
// waiters fire only when Advance moves time past their deadline.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	auto    bool
	waiters []manualWaiter
	slept   time.Duration
}

type manualWaiter struct {
	at time.Time
	ch chan time.Time
}

func NewManualClock(start time.Time, auto bool) *ManualClock {
	return &ManualClock{now: start, auto: auto}
}

func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *ManualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	if c.auto {
		c.now = c.now.Add(d)
		c.slept += d
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, manualWaiter{at: c.now.Add(d), ch: ch})
	return ch
}

// Advance moves time forward and fires due waiters.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(c.now) {
			w.ch <- c.now
			continue
		}
		kept = append(kept, w)
	}
	c.waiters = kept
}

// Waiters is the number of pending After calls.
func (c *ManualClock) Waiters() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

// Slept is the total virtual time spent in auto-fired waits.
func (c *ManualClock) Slept() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slept
}
