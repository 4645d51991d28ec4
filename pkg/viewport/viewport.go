// Package viewport maps between screen pixels and world coordinates for a
// pannable, zoomable canvas.
//
// A screen point s maps to world as (s - origin - offset) / zoom, where
// origin is the canvas's top-left corner in screen space. Panning moves the
// offset in screen pixels, unscaled by zoom. Zoom is clamped to a
// configurable range.
package viewport

import (
	"math"

	"github.com/matzehuels/organigram/pkg/geom"
)

// Default zoom bounds and step.
const (
	DefaultMinZoom  = 0.1
	DefaultMaxZoom  = 3.0
	DefaultZoomStep = 0.1
)

// State is the part of a viewport that exports need to reproduce what is on
// screen.
type State struct {
	Offset geom.Point `json:"offset"`
	Zoom   float64    `json:"zoom"`
}

// Modifier is a keyboard modifier held during a wheel event.
type Modifier uint8

const (
	ModCtrl Modifier = 1 << iota
	ModMeta
	ModShift
)

// ModNone means no modifier is held.
const ModNone Modifier = 0

// WheelEvent is a scroll gesture in screen pixels.
type WheelEvent struct {
	Delta    geom.Point
	Modifier Modifier
}

// Option configures a Controller.
type Option func(*Controller)

// WithZoomBounds sets the zoom range. Invalid ranges are ignored.
func WithZoomBounds(lo, hi float64) Option {
	return func(c *Controller) {
		if lo > 0 && hi >= lo {
			c.minZoom, c.maxZoom = lo, hi
		}
	}
}

// WithZoomStep sets the zoom change per wheel notch or button press.
func WithZoomStep(step float64) Option {
	return func(c *Controller) {
		if step > 0 {
			c.step = step
		}
	}
}

// WithSize sets the initial canvas size in screen pixels.
func WithSize(s geom.Size) Option {
	return func(c *Controller) { c.size = s }
}

// Controller owns the pan offset and zoom of one canvas.
type Controller struct {
	offset  geom.Point
	zoom    float64
	size    geom.Size
	origin  geom.Point
	minZoom float64
	maxZoom float64
	step    float64
}

// New returns a controller at offset (0,0) and zoom 1.
func New(opts ...Option) *Controller {
	c := &Controller{
		zoom:    1,
		minZoom: DefaultMinZoom,
		maxZoom: DefaultMaxZoom,
		step:    DefaultZoomStep,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Offset returns the pan offset in screen pixels.
func (c *Controller) Offset() geom.Point { return c.offset }

// Zoom returns the zoom factor.
func (c *Controller) Zoom() float64 { return c.zoom }

// Size returns the canvas size in screen pixels.
func (c *Controller) Size() geom.Size { return c.size }

// Origin returns the canvas's top-left corner in screen space.
func (c *Controller) Origin() geom.Point { return c.origin }

// ZoomBounds returns the allowed zoom range.
func (c *Controller) ZoomBounds() (lo, hi float64) { return c.minZoom, c.maxZoom }

// State returns offset and zoom.
func (c *Controller) State() State { return State{Offset: c.offset, Zoom: c.zoom} }

// Restore sets offset and zoom from a saved state, clamping the zoom.
func (c *Controller) Restore(s State) {
	c.offset = s.Offset
	c.zoom = c.clamp(s.Zoom)
}

// ScreenToWorld converts a screen point to world coordinates.
func (c *Controller) ScreenToWorld(s geom.Point) geom.Point {
	return s.Sub(c.origin).Sub(c.offset).Scale(1 / c.zoom)
}

// WorldToScreen converts a world point to screen coordinates.
func (c *Controller) WorldToScreen(w geom.Point) geom.Point {
	return w.Scale(c.zoom).Add(c.offset).Add(c.origin)
}

// ScreenDelta converts a screen-space distance to world units.
func (c *Controller) ScreenDelta(d geom.Point) geom.Point {
	return d.Scale(1 / c.zoom)
}

// Pan shifts the offset by a screen-space delta.
func (c *Controller) Pan(d geom.Point) {
	c.offset = c.offset.Add(d)
}

// SetOffset sets the offset directly.
func (c *Controller) SetOffset(p geom.Point) { c.offset = p }

// ZoomBy adds delta to the zoom, clamped to the bounds. It reports whether
// the zoom changed.
func (c *Controller) ZoomBy(delta float64) bool {
	return c.SetZoom(c.zoom + delta)
}

// SetZoom sets the zoom, clamped to the bounds.
func (c *Controller) SetZoom(z float64) bool {
	z = c.clamp(z)
	if z == c.zoom {
		return false
	}
	c.zoom = z
	return true
}

// ZoomIn zooms in one step.
func (c *Controller) ZoomIn() bool { return c.ZoomBy(c.step) }

// ZoomOut zooms out one step.
func (c *Controller) ZoomOut() bool { return c.ZoomBy(-c.step) }

// ZoomPercent returns the zoom as a rounded percentage for display.
func (c *Controller) ZoomPercent() int { return int(c.zoom*100 + 0.5) }

func (c *Controller) clamp(z float64) float64 {
	if math.IsNaN(z) {
		return c.zoom
	}
	// Round away float drift from repeated steps.
	z = math.Round(z*1e6) / 1e6
	return geom.Clamp(z, c.minZoom, c.maxZoom)
}

// Reset returns to offset (0,0) and zoom 1.
func (c *Controller) Reset() {
	c.offset = geom.Point{}
	c.zoom = 1
}

// Wheel applies a scroll gesture. With Ctrl or Meta held it zooms one step,
// in for upward scrolls and out for downward ones; otherwise it pans by the
// negated delta.
func (c *Controller) Wheel(ev WheelEvent) {
	if ev.Modifier&(ModCtrl|ModMeta) != 0 {
		switch {
		case ev.Delta.Y > 0:
			c.ZoomOut()
		case ev.Delta.Y < 0:
			c.ZoomIn()
		}
		return
	}
	c.Pan(ev.Delta.Scale(-1))
}

// Resize records a new canvas size. Non-positive sizes are ignored.
func (c *Controller) Resize(s geom.Size) {
	if s.W > 0 && s.H > 0 {
		c.size = s
	}
}

// SetOrigin records where the canvas sits in screen space.
func (c *Controller) SetOrigin(p geom.Point) { c.origin = p }

// CenterOn pans so that the world point p appears at the center of the
// canvas.
func (c *Controller) CenterOn(p geom.Point) {
	center := geom.Pt(c.size.W/2, c.size.H/2)
	c.offset = center.Sub(p.Scale(c.zoom))
}

// VisibleWorld returns the world rectangle currently shown on the canvas.
func (c *Controller) VisibleWorld() geom.Rect {
	topLeft := geom.Point{}.Sub(c.offset.Scale(1 / c.zoom))
	return geom.RectAt(topLeft, geom.Sz(c.size.W/c.zoom, c.size.H/c.zoom))
}

// FitRect zooms and pans so that r fills the canvas with margin pixels to
// spare on each side. Empty rectangles and unsized canvases are ignored.
func (c *Controller) FitRect(r geom.Rect, margin float64) {
	if r.Empty() || c.size.W <= 2*margin || c.size.H <= 2*margin {
		return
	}
	zx := (c.size.W - 2*margin) / r.Width()
	zy := (c.size.H - 2*margin) / r.Height()
	c.zoom = c.clamp(min(zx, zy))
	c.CenterOn(r.Center())
}
