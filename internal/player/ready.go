package player

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"github.com/educheia/educheia/internal/clock"
)

const (
	APIPollInterval = 100 * time.Millisecond
	APIPollAttempts = 50
)

var ErrWidgetUnavailable = errors.New("widget API unavailable")

// Future resolves once, with nil when the widget API is available or
// ErrWidgetUnavailable when polling gave up.
type Future struct {
	mu      sync.Mutex
	done    chan struct{}
	err     error
	waiters []func(error)
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Err returns the resolution, or nil while pending.
func (f *Future) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.err
}

func (f *Future) Resolved() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Then calls fn with the result. A resolved future calls fn immediately.
func (f *Future) Then(fn func(error)) {
	f.mu.Lock()
	if !f.Resolved() {
		f.waiters = append(f.waiters, fn)
		f.mu.Unlock()
		return
	}
	err := f.err
	f.mu.Unlock()
	fn(err)
}

func (f *Future) resolve(err error) {
	f.mu.Lock()
	if f.Resolved() {
		f.mu.Unlock()
		return
	}
	f.err = err
	close(f.done)
	waiters := f.waiters
	f.waiters = nil
	f.mu.Unlock()

	for _, fn := range waiters {
		fn(err)
	}
}

// AwaitAPI polls api.Available every interval, at most attempts times.
func AwaitAPI(clk clock.Clock, api API, interval time.Duration, attempts int) *Future {
	f := newFuture()
	if api == nil {
		f.resolve(ErrWidgetUnavailable)
		return f
	}
	b := &backoff.Backoff{Min: interval, Max: interval, Factor: 1}

	var poll func()
	poll = func() {
		if api.Available() {
			f.resolve(nil)
			return
		}
		if int(b.Attempt())+1 >= attempts {
			slog.Warn("player: widget API did not load", "attempts", attempts)
			f.resolve(ErrWidgetUnavailable)
			return
		}
		clk.AfterFunc(b.Duration(), poll)
	}
	poll()
	return f
}
