// Package testutil holds deterministic fakes shared by package tests.
package testutil

import (
	"slices"
	"sync"
	"time"

	"github.com/calvinalkan/cuckoodo/internal/reminder"
)

// Clock provides deterministic, monotonically increasing timestamps and
// manually fired timers.
type Clock struct {
	mu      sync.Mutex
	current time.Time
	step    time.Duration
	timers  []*Timer
}

// NewClock returns a clock initialized to a fixed UTC start time that
// advances one second per Now call.
func NewClock() *Clock {
	return &Clock{
		current: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		step:    time.Second,
	}
}

// SetStep changes how far each Now call advances. Zero freezes time.
func (c *Clock) SetStep(step time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.step = step
}

// Now advances the clock by its step and returns the new time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(c.step)

	return c.current
}

// Timer is a fake timer fired by [Clock.Advance].
type Timer struct {
	clock *Clock
	at    time.Time
	fn    func()
}

// Stop prevents the timer from firing. It reports whether it was pending.
func (t *Timer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	idx := slices.Index(t.clock.timers, t)
	if idx < 0 {
		return false
	}

	t.clock.timers = slices.Delete(t.clock.timers, idx, idx+1)

	return true
}

// AfterFunc registers fn to run once the clock has advanced by d.
func (c *Clock) AfterFunc(d time.Duration, fn func()) reminder.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &Timer{clock: c, at: c.current.Add(d), fn: fn}
	c.timers = append(c.timers, t)

	return t
}

// Advance moves the clock forward by d and runs every due timer, earliest
// first, on the calling goroutine.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	now := c.current

	var due []*Timer

	c.timers = slices.DeleteFunc(c.timers, func(t *Timer) bool {
		if t.at.After(now) {
			return false
		}

		due = append(due, t)

		return true
	})
	c.mu.Unlock()

	slices.SortStableFunc(due, func(a, b *Timer) int { return a.at.Compare(b.at) })

	for _, t := range due {
		t.fn()
	}
}

// Timers returns the number of timers that have not fired or been stopped.
func (c *Clock) Timers() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.timers)
}
