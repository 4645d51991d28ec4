// Package geom provides the small set of planar types shared by the canvas
// packages: points, sizes and axis-aligned rectangles in world or screen units.
package geom

import "math"

// Point is a position in either world or screen space. Which space is meant is
// always stated by the API that accepts or returns it.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point { return Point{X: x, Y: y} }

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale multiplies both coordinates by k.
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// IsZero reports whether p is the origin.
func (p Point) IsZero() bool { return p.X == 0 && p.Y == 0 }

// Size is a width/height pair.
type Size struct {
	W float64 `json:"width" yaml:"width"`
	H float64 `json:"height" yaml:"height"`
}

// Sz is shorthand for Size{W: w, H: h}.
func Sz(w, h float64) Size { return Size{W: w, H: h} }

// Rect is an axis-aligned rectangle. Min is the top-left corner and Max the
// bottom-right corner (y grows downward, as on a canvas).
type Rect struct {
	Min, Max Point
}

// RectAt builds the rectangle anchored at its top-left corner p with size s.
func RectAt(p Point, s Size) Rect {
	return Rect{Min: p, Max: Point{p.X + s.W, p.Y + s.H}}
}

// RectFromCorners builds the normalized rectangle spanned by two arbitrary
// corners, whichever order they were given in.
func RectFromCorners(a, b Point) Rect {
	return Rect{
		Min: Point{math.Min(a.X, b.X), math.Min(a.Y, b.Y)},
		Max: Point{math.Max(a.X, b.X), math.Max(a.Y, b.Y)},
	}
}

// Width returns the horizontal span of the rectangle.
func (r Rect) Width() float64 { return r.Max.X - r.Min.X }

// Height returns the vertical span of the rectangle.
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size { return Size{r.Width(), r.Height()} }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Point {
	return Point{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// TopCenter returns the midpoint of the top edge.
func (r Rect) TopCenter() Point { return Point{(r.Min.X + r.Max.X) / 2, r.Min.Y} }

// BottomCenter returns the midpoint of the bottom edge.
func (r Rect) BottomCenter() Point { return Point{(r.Min.X + r.Max.X) / 2, r.Max.Y} }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y }

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether the open interiors of r and s overlap. Rectangles
// that only touch along an edge do not intersect, and a zero-area rectangle
// never intersects anything.
func (r Rect) Intersects(s Rect) bool {
	if r.Empty() || s.Empty() {
		return false
	}
	return r.Min.X < s.Max.X && r.Max.X > s.Min.X &&
		r.Min.Y < s.Max.Y && r.Max.Y > s.Min.Y
}

// Union returns the smallest rectangle containing both r and s.
func (r Rect) Union(s Rect) Rect {
	return Rect{
		Min: Point{math.Min(r.Min.X, s.Min.X), math.Min(r.Min.Y, s.Min.Y)},
		Max: Point{math.Max(r.Max.X, s.Max.X), math.Max(r.Max.Y, s.Max.Y)},
	}
}

// Inset grows (d > 0) or shrinks (d < 0) the rectangle on every side.
func (r Rect) Inset(d float64) Rect {
	return Rect{Min: Point{r.Min.X - d, r.Min.Y - d}, Max: Point{r.Max.X + d, r.Max.Y + d}}
}

// Snap rounds v to the nearest multiple of grid. A non-positive grid returns v
// unchanged.
func Snap(v, grid float64) float64 {
	if grid <= 0 {
		return v
	}
	return math.Round(v/grid) * grid
}

// SnapPoint snaps both coordinates of p to grid.
func SnapPoint(p Point, grid float64) Point {
	return Point{Snap(p.X, grid), Snap(p.Y, grid)}
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
