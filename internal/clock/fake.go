package clock

import (
	"sync"
	"time"
)

// Fake returns a FakeClock initialized to the given time.
//
// Unlike a wall clock, a FakeClock never blocks: After and Sleep advance
// the fake time by the requested duration and fire immediately. This keeps
// synchronous retry loops and poll loops single-goroutine in tests while
// still letting the test assert on every requested wait.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	return &FakeClock{current: initial}
}

// FakeClock is a deterministic, auto-advancing Clock for testing.
type FakeClock struct {
	mu      sync.Mutex
	current time.Time
	waits   []time.Duration
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After records d, advances the clock by d and returns a channel that
// already holds the new time.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	ch <- c.wait(d)
	return ch
}

// Sleep records d and advances the clock by d.
func (c *FakeClock) Sleep(d time.Duration) {
	c.wait(d)
}

// Advance moves the clock forward by d without recording a wait.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// Set moves the clock to t.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// Waits returns every duration passed to After or Sleep, in call order.
func (c *FakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, len(c.waits))
	copy(out, c.waits)
	return out
}

func (c *FakeClock) wait(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.waits = append(c.waits, d)
	if d > 0 {
		c.current = c.current.Add(d)
	}
	return c.current
}
