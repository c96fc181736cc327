package player

import (
	"math"
	"sync"
)

const (
	HoldTolerance     = 1.0
	MaxOptimisticLead = 1.5
	// MaxHoldReports is the number of widget reports after which a hold is
	// dropped even if the widget never confirmed the target.
	MaxHoldReports = 20
)

// Reconciler merges a lagging authoritative clock with a locally advanced
// optimistic one. After Seek the effective value equals the seek target until
// the authoritative clock confirms arrival.
type Reconciler struct {
	mu            sync.Mutex
	authoritative float64
	optimistic    float64
	hold          float64
	holding       bool
	preSeek       float64
	holdReports   int
}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Reset forgets all state and starts at seconds.
func (r *Reconciler) Reset(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seconds = nonNegative(seconds)
	r.authoritative = 0
	r.optimistic = seconds
	r.hold = 0
	r.holding = false
	r.holdReports = 0
}

func (r *Reconciler) Seek(target float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	target = nonNegative(target)
	r.preSeek = r.authoritative
	r.hold = target
	r.optimistic = target
	r.holding = true
	r.holdReports = 0
}

// Observe records the widget-reported time. The hold is released when the
// report reaches the target, when it lands past the target at a time the
// pre-seek position could not explain, when playback stopped, or after
// MaxHoldReports reports.
func (r *Reconciler) Observe(authoritative float64, stopped bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if math.IsNaN(authoritative) || math.IsInf(authoritative, 0) {
		return
	}
	r.authoritative = nonNegative(authoritative)
	if !r.holding {
		return
	}
	r.holdReports++
	if stopped || r.holdReports >= MaxHoldReports || r.arrivedLocked() {
		r.holding = false
	}
}

func (r *Reconciler) arrivedLocked() bool {
	a := r.authoritative
	if a < r.hold-HoldTolerance {
		return false
	}
	if a <= r.optimistic+HoldTolerance {
		return true
	}
	// A stale report keeps moving on from where playback was before the seek.
	stale := r.preSeek + (r.optimistic - r.hold)
	return math.Abs(a-stale) > HoldTolerance
}

// Advance moves the optimistic clock forward by dt*rate while playing. Outside
// a hold it never runs more than MaxOptimisticLead ahead of the authoritative
// clock, and it never moves backwards.
func (r *Reconciler) Advance(dt, rate float64, playing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !playing || !(dt > 0) || !(rate > 0) {
		return
	}
	next := r.optimistic + dt*rate
	if !r.holding {
		limit := math.Max(r.optimistic, r.authoritative+MaxOptimisticLead)
		next = math.Min(next, limit)
	}
	r.optimistic = next
}

// Effective is the value to display.
func (r *Reconciler) Effective() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.holding {
		return r.optimistic
	}
	return math.Max(r.authoritative, r.optimistic)
}

func (r *Reconciler) Holding() (target float64, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hold, r.holding
}

func (r *Reconciler) Authoritative() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authoritative
}

func nonNegative(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}
