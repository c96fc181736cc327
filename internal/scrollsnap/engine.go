package scrollsnap

import (
	"math"
	"sync"
	"time"

	"github.com/educheia/educheia/internal/clock"
)

const (
	SnapMargin       = 100.0
	SnapQuietPeriod  = 150 * time.Millisecond
	SnapThreshold    = 5.0
	ScrollHintOffset = 20.0
)

// Layout reads the page geometry. Container and TrackWidth report false when
// the element is missing.
type Layout interface {
	Container() (Rect, bool)
	TrackWidth() (float64, bool)
	Cards() []Card
	Viewport() (width, height float64)
	ScrollY() float64
}

// Surface applies the engine's output to the page.
type Surface interface {
	SetTrackTranslate(x float64)
	SetProgressFill(fraction float64)
	SetHeader(opacity float64, interactive bool)
	SetCardActive(index int, active bool)
	ScrollTo(y float64, smooth bool)
	HideScrollHint()
}

// FrameScheduler runs f before the next repaint.
type FrameScheduler interface {
	RequestFrame(f func())
}

type Engine struct {
	layout  Layout
	surface Surface
	frames  FrameScheduler
	snap    *clock.Debouncer

	mu           sync.Mutex
	framePending bool
	hintHidden   bool
	last         Geometry
}

func New(layout Layout, surface Surface, frames FrameScheduler, clk clock.Clock) *Engine {
	if clk == nil {
		clk = clock.Real()
	}
	return &Engine{
		layout:  layout,
		surface: surface,
		frames:  frames,
		snap:    clock.NewDebouncer(clk, SnapQuietPeriod),
	}
}

// OnScroll handles a page scroll event. At most one frame update is pending
// at a time, and every scroll restarts the snap quiet period.
func (e *Engine) OnScroll() {
	if e.layout == nil {
		return
	}
	e.mu.Lock()
	schedule := !e.framePending
	if schedule {
		e.framePending = true
	}
	hideHint := !e.hintHidden && e.layout.ScrollY() > ScrollHintOffset
	if hideHint {
		e.hintHidden = true
	}
	e.mu.Unlock()

	if schedule {
		e.requestFrame(func() {
			e.Update()
			e.mu.Lock()
			e.framePending = false
			e.mu.Unlock()
		})
	}
	if hideHint && e.surface != nil {
		e.surface.HideScrollHint()
	}
	e.scheduleSnap()
}

func (e *Engine) OnResize() {
	e.Update()
}

func (e *Engine) requestFrame(f func()) {
	if e.frames == nil {
		f()
		return
	}
	e.frames.RequestFrame(f)
}

func (e *Engine) measure() (Geometry, []Card, bool) {
	if e.layout == nil {
		return Geometry{}, nil, false
	}
	container, ok := e.layout.Container()
	if !ok {
		return Geometry{}, nil, false
	}
	track, ok := e.layout.TrackWidth()
	if !ok {
		return Geometry{}, nil, false
	}
	vw, vh := e.layout.Viewport()
	return Measure(container, track, vw, vh), e.layout.Cards(), true
}

// Update recomputes the geometry and applies it to the surface.
func (e *Engine) Update() Geometry {
	g, cards, ok := e.measure()
	if !ok {
		return Geometry{}
	}
	e.mu.Lock()
	e.last = g
	e.mu.Unlock()

	if e.surface == nil {
		return g
	}
	e.surface.SetTrackTranslate(g.TranslateX)
	e.surface.SetProgressFill(g.Progress)
	e.surface.SetHeader(HeaderOpacity(g.Progress), g.Progress <= 0)
	for i, active := range ActiveCards(g, cards) {
		e.surface.SetCardActive(i, active)
	}
	return g
}

// Last returns the geometry applied by the most recent Update.
func (e *Engine) Last() Geometry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

func (e *Engine) scheduleSnap() {
	e.snap.Cancel()
	if !e.inSnapWindow() {
		return
	}
	e.snap.Trigger(func() {
		e.Snap()
	})
}

// inSnapWindow is false near the region's edges so the page can scroll
// naturally into the surrounding content.
func (e *Engine) inSnapWindow() bool {
	if e.layout == nil {
		return false
	}
	container, ok := e.layout.Container()
	if !ok {
		return false
	}
	_, vh := e.layout.Viewport()
	if container.Top > -SnapMargin {
		return false
	}
	return container.Bottom() >= vh+SnapMargin
}

// SnapTarget returns the page offset the snap would scroll to.
func (e *Engine) SnapTarget() (y float64, index int, ok bool) {
	g, cards, ok := e.measure()
	if !ok {
		return 0, 0, false
	}
	index, progress, ok := SnapTarget(g, cards)
	if !ok {
		return 0, 0, false
	}
	scrollY := e.layout.ScrollY()
	absTop := scrollY + g.Container.Top
	return absTop + progress*g.ScrollDistance, index, true
}

// Snap issues one smooth scroll to center the nearest card. It reports
// whether a scroll was issued.
func (e *Engine) Snap() bool {
	if !e.inSnapWindow() {
		return false
	}
	y, _, ok := e.SnapTarget()
	if !ok {
		return false
	}
	if math.Abs(e.layout.ScrollY()-y) <= SnapThreshold {
		return false
	}
	if e.surface != nil {
		e.surface.ScrollTo(y, true)
	}
	return true
}

// SnapPending reports whether a snap is waiting for the quiet period.
func (e *Engine) SnapPending() bool {
	return e.snap.Pending()
}

// JumpTarget is the end of the pinned region while in its first half,
// otherwise its start.
func (e *Engine) JumpTarget() (float64, bool) {
	g, _, ok := e.measure()
	if !ok || !g.Enabled() {
		return 0, false
	}
	scrollY := e.layout.ScrollY()
	start := scrollY + g.Container.Top
	if scrollY < start+g.ScrollDistance/2 {
		return start + g.ScrollDistance, true
	}
	return start, true
}

func (e *Engine) Jump() {
	y, ok := e.JumpTarget()
	if !ok || e.surface == nil {
		return
	}
	e.surface.ScrollTo(y, true)
}

// Reset scrolls to the page top instantly, as after a re-sort.
func (e *Engine) Reset() {
	e.snap.Cancel()
	if e.surface != nil {
		e.surface.ScrollTo(0, false)
	}
	e.Update()
}
