// Package minimap projects a chart and its viewport onto a small overview.
//
// [Project] is a pure function: it fits the padded bounding box of all
// blocks, at their nominal size, into a square of Options.Size pixels with
// one uniform scale, and maps the visible world rectangle into the same
// space. A [Navigator] turns presses and drags on the overview back into
// viewport offsets that center the clicked world point on the canvas.
package minimap

import (
	"math"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
)

// Options controls the overview geometry.
type Options struct {
	Size     float64   // edge length of the square overview, in pixels
	Padding  float64   // world units added around the block bounds
	NodeSize geom.Size // nominal block size in world units
}

// DefaultOptions returns a 150 pixel overview with 20 units of padding.
func DefaultOptions() Options {
	return Options{Size: 150, Padding: 20, NodeSize: geom.Sz(200, 100)}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Size <= 0 {
		o.Size = d.Size
	}
	if o.Padding < 0 {
		o.Padding = d.Padding
	}
	if o.NodeSize.W <= 0 || o.NodeSize.H <= 0 {
		o.NodeSize = d.NodeSize
	}
	return o
}

// emptyBounds is the world area shown for a chart without blocks.
var emptyBounds = geom.RectFromCorners(geom.Pt(0, 0), geom.Pt(1000, 600))

// Node is one block on the overview.
type Node struct {
	ID    chart.NodeID
	Rect  geom.Rect // overview pixels
	Color string
}

// Projection is one rendered frame of the overview.
type Projection struct {
	Size     float64   // edge length in pixels
	Bounds   geom.Rect // world area covered
	Scale    float64   // pixels per world unit
	Nodes    []Node
	Viewport geom.Rect // visible canvas, in overview pixels
}

// Project computes the overview of nodes with the visible world rectangle
// outlined.
func Project(nodes []chart.Node, visible geom.Rect, opts Options) Projection {
	opts = opts.withDefaults()

	bounds := emptyBounds
	if len(nodes) > 0 {
		bounds = geom.Rect{
			Min: geom.Pt(math.Inf(1), math.Inf(1)),
			Max: geom.Pt(math.Inf(-1), math.Inf(-1)),
		}
		for _, n := range nodes {
			bounds = bounds.Union(geom.RectAt(geom.Pt(n.X, n.Y), opts.NodeSize))
		}
		bounds = bounds.Inset(opts.Padding)
	}

	p := Projection{
		Size:   opts.Size,
		Bounds: bounds,
		Scale:  opts.Size / max(bounds.Width(), bounds.Height()),
		Nodes:  make([]Node, 0, len(nodes)),
	}
	for _, n := range nodes {
		p.Nodes = append(p.Nodes, Node{
			ID:    n.ID,
			Rect:  p.toMinimapRect(geom.RectAt(geom.Pt(n.X, n.Y), opts.NodeSize)),
			Color: n.Background(),
		})
	}
	p.Viewport = p.toMinimapRect(visible)
	return p
}

// ToMinimap maps a world point to overview pixels.
func (p Projection) ToMinimap(w geom.Point) geom.Point {
	return w.Sub(p.Bounds.Min).Scale(p.Scale)
}

// ToWorld maps overview pixels to a world point.
func (p Projection) ToWorld(m geom.Point) geom.Point {
	return m.Scale(1 / p.Scale).Add(p.Bounds.Min)
}

func (p Projection) toMinimapRect(r geom.Rect) geom.Rect {
	return geom.Rect{Min: p.ToMinimap(r.Min), Max: p.ToMinimap(r.Max)}
}

// Recenterer is a viewport that can center on a world point.
// *viewport.Controller implements it.
type Recenterer interface {
	CenterOn(p geom.Point)
}

// Navigator handles presses and drags on the overview.
type Navigator struct {
	vp       Recenterer
	dragging bool
}

// NewNavigator returns a navigator driving vp.
func NewNavigator(vp Recenterer) *Navigator {
	return &Navigator{vp: vp}
}

// Dragging reports whether a press is in progress.
func (n *Navigator) Dragging() bool { return n.dragging }

// Down starts a drag and jumps to the pressed point.
func (n *Navigator) Down(p Projection, at geom.Point) {
	n.dragging = true
	n.vp.CenterOn(p.ToWorld(at))
}

// Move follows the pointer while a drag is in progress.
func (n *Navigator) Move(p Projection, at geom.Point) {
	if !n.dragging {
		return
	}
	n.vp.CenterOn(p.ToWorld(at))
}

// Up ends the drag.
func (n *Navigator) Up() { n.dragging = false }
