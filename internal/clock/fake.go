package clock

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Fake is a clockwork.FakeClock whose AfterFunc callbacks run synchronously
// on the goroutine calling Advance, one at a time in due order. Timers
// scheduled by a callback fire within the same Advance when they come due.
type Fake struct {
	*clockwork.FakeClock

	mu     sync.Mutex
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	clockwork.Timer
	clk *Fake
	due time.Time
	seq uint64
	f   func()
}

func NewFake(start time.Time) *Fake {
	return &Fake{FakeClock: clockwork.NewFakeClockAt(start)}
}

// AfterFunc schedules f. Reset on the returned timer is not supported.
func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{
		Timer: c.FakeClock.NewTimer(d),
		clk:   c,
		due:   c.FakeClock.Now().Add(d),
		seq:   c.seq,
		f:     f,
	}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clk.mu.Lock()
	defer t.clk.mu.Unlock()
	for i, other := range t.clk.timers {
		if other == t {
			t.clk.timers = append(t.clk.timers[:i], t.clk.timers[i+1:]...)
			t.Timer.Stop()
			return true
		}
	}
	return false
}

// Advance moves time forward by d, stopping at each due timer to run its
// callback.
func (c *Fake) Advance(d time.Duration) {
	target := c.FakeClock.Now().Add(d)
	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		if step := t.due.Sub(c.FakeClock.Now()); step > 0 {
			c.FakeClock.Advance(step)
		}
		<-t.Chan()
		t.f()
	}
	if rest := target.Sub(c.FakeClock.Now()); rest > 0 {
		c.FakeClock.Advance(rest)
	}
}

func (c *Fake) nextDue(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].due.Equal(c.timers[j].due) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].due.Before(c.timers[j].due)
	})
	first := c.timers[0]
	if first.due.After(target) {
		return nil
	}
	c.timers = c.timers[1:]
	return first
}

// Pending reports how many timers are scheduled and not yet run.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
