// Package clock builds debounced and periodic work on clockwork clocks so it
// can be driven step by step in tests.
package clock

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

type (
	Clock = clockwork.Clock
	Timer = clockwork.Timer
)

func Real() Clock {
	return clockwork.NewRealClock()
}

// Debouncer runs the most recently triggered function once the clock has been
// quiet for the configured delay. Triggering again cancels the pending run.
type Debouncer struct {
	clk   Clock
	delay time.Duration

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

func NewDebouncer(clk Clock, delay time.Duration) *Debouncer {
	return &Debouncer{clk: clk, delay: delay}
}

func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clk.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// A timer that lost the race with Stop must not run.
		if gen != d.gen || d.timer == nil {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()
		f()
	})
}

// Cancel drops the pending run, if any. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	d.gen++
	return true
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Repeater calls f every interval until stopped. The first call happens one
// interval after Start.
type Repeater struct {
	clk      Clock
	interval time.Duration
	f        func()

	mu      sync.Mutex
	timer   Timer
	stopped bool
}

func Every(clk Clock, interval time.Duration, f func()) *Repeater {
	r := &Repeater{clk: clk, interval: interval, f: f}
	r.mu.Lock()
	r.schedule()
	r.mu.Unlock()
	return r
}

func (r *Repeater) schedule() {
	r.timer = r.clk.AfterFunc(r.interval, func() {
		r.mu.Lock()
		if r.stopped {
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()

		r.f()

		r.mu.Lock()
		if !r.stopped {
			r.schedule()
		}
		r.mu.Unlock()
	})
}

func (r *Repeater) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}
	r.stopped = true
	if r.timer != nil {
		r.timer.Stop()
	}
}
