// Package scrollsnap maps vertical scroll through a tall sticky region onto a
// horizontal card track and snaps to the nearest card once scrolling settles.
package scrollsnap

import (
	"math"

	"github.com/educheia/educheia/internal/mathutil"
)

const (
	ActiveCardDivisor = 1.5
	HeaderFadeEnd     = 0.05
)

// Rect is the container's bounding box relative to the viewport.
type Rect struct {
	Top    float64
	Height float64
}

func (r Rect) Bottom() float64 {
	return r.Top + r.Height
}

// Card is a card's offset and width inside the track.
type Card struct {
	Left  float64
	Width float64
}

func (c Card) Center() float64 {
	return c.Left + c.Width/2
}

// Geometry is one scroll/resize frame's derived snapshot.
type Geometry struct {
	Container      Rect
	ViewportWidth  float64
	ViewportHeight float64
	TrackWidth     float64

	ScrollDistance float64
	MaxTranslate   float64
	Progress       float64
	TranslateX     float64
	Pinned         bool
}

// Enabled reports whether the region is tall enough to scroll through.
func (g Geometry) Enabled() bool {
	return g.ScrollDistance > 0
}

// CanTranslate reports whether the track is wider than the viewport.
func (g Geometry) CanTranslate() bool {
	return g.Enabled() && g.MaxTranslate > 0
}

// Measure derives progress and translation. Degenerate regions produce a
// zero progress and translation rather than NaN or Inf values.
func Measure(container Rect, trackWidth, viewportWidth, viewportHeight float64) Geometry {
	g := Geometry{
		Container:      container,
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
		TrackWidth:     trackWidth,
		ScrollDistance: container.Height - viewportHeight,
		MaxTranslate:   trackWidth - viewportWidth,
	}
	if !(g.ScrollDistance > 0) {
		return g
	}
	if p, ok := mathutil.SafeDiv(-container.Top, g.ScrollDistance); ok {
		g.Progress = mathutil.Clamp(p, 0, 1)
	}

	g.Pinned = container.Top <= 0 && container.Bottom() >= viewportHeight
	if !isFinite(g.MaxTranslate) || g.MaxTranslate <= 0 {
		g.TranslateX = 0
		return g
	}
	switch {
	case g.Pinned:
		g.TranslateX = -g.Progress * g.MaxTranslate
	case container.Top > 0:
		g.TranslateX = 0
	default:
		g.TranslateX = -g.MaxTranslate
	}
	return g
}

// ActiveCards marks each card whose center lies within width/1.5 of the
// visual center of the translation window.
func ActiveCards(g Geometry, cards []Card) []bool {
	active := make([]bool, len(cards))
	center := math.Abs(g.TranslateX) + g.ViewportWidth/2
	for i, c := range cards {
		if c.Width <= 0 {
			continue
		}
		active[i] = math.Abs(center-c.Center()) < c.Width/ActiveCardDivisor
	}
	return active
}

// SnapTarget picks the card whose centering progress is nearest the current
// progress. It reports false when there is nothing to snap to.
func SnapTarget(g Geometry, cards []Card) (index int, progress float64, ok bool) {
	if !g.CanTranslate() || len(cards) == 0 {
		return 0, 0, false
	}
	best := math.Inf(1)
	for i, c := range cards {
		required := mathutil.Clamp(g.ViewportWidth/2-c.Center(), -g.MaxTranslate, 0)
		p, valid := mathutil.SafeDiv(-required, g.MaxTranslate)
		if !valid {
			continue
		}
		if d := math.Abs(p - g.Progress); d < best {
			best = d
			index = i
			progress = p
			ok = true
		}
	}
	return index, progress, ok
}

// HeaderOpacity fades the section header from 1 to 0 over the first
// HeaderFadeEnd of progress.
func HeaderOpacity(progress float64) float64 {
	if progress > HeaderFadeEnd {
		return 0
	}
	return mathutil.Clamp(1-progress/HeaderFadeEnd, 0, 1)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
