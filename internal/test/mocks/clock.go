// Package mocks holds hand-written test doubles for the domain ports.
package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/fredcamaral/carousel/internal/domain/ports"
)

// ManualClock is a ports.TimeProvider whose time only moves on Advance.
// Timer callbacks run synchronously inside Advance.
type ManualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*manualTimer
}

// NewManualClock creates a clock frozen at start
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the frozen time
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns the frozen time minus t
func (c *ManualClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// After returns a channel that receives once the clock passes d
func (c *ManualClock) After(d time.Duration) <-chan time.Time {
	return c.NewTimer(d).C()
}

// NewTimer creates a channel timer
func (c *ManualClock) NewTimer(d time.Duration) ports.Timer {
	return c.add(d, nil)
}

// AfterFunc creates a callback timer
func (c *ManualClock) AfterFunc(d time.Duration, f func()) ports.Timer {
	return c.add(d, f)
}

// Advance moves time forward and fires every timer that came due
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	var due []*manualTimer
	for _, t := range c.timers {
		if t.active && !t.deadline.After(now) {
			t.active = false
			due = append(due, t)
		}
	}
	c.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })
	for _, t := range due {
		if t.f != nil {
			t.f()
			continue
		}
		select {
		case t.ch <- now:
		default:
		}
	}
}

// Pending returns the number of armed timers
func (c *ManualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if t.active {
			n++
		}
	}
	return n
}

func (c *ManualClock) add(d time.Duration, f func()) *manualTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{
		clock:    c,
		deadline: c.now.Add(d),
		f:        f,
		ch:       make(chan time.Time, 1),
		active:   true,
	}
	c.timers = append(c.timers, t)
	return t
}

type manualTimer struct {
	clock    *ManualClock
	deadline time.Time
	f        func()
	ch       chan time.Time
	active   bool
}

func (t *manualTimer) C() <-chan time.Time {
	return t.ch
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.active = false
	return was
}

func (t *manualTimer) Reset(d time.Duration) bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.active
	t.deadline = t.clock.now.Add(d)
	t.active = true
	return was
}

var _ ports.TimeProvider = (*ManualClock)(nil)
