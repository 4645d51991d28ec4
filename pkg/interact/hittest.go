package interact

import (
	"math"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/graph"
)

// DefaultHandleRadius is the pick radius of connection handles and lines,
// in world units.
const DefaultHandleRadius = 6.0

// Scene is what HitTest needs to know about the chart. *graph.Model
// implements it.
type Scene interface {
	NodeIDs() []chart.NodeID
	Bounds(id chart.NodeID) (geom.Rect, bool)
	Edges() []chart.Edge
}

// HitTest finds the element under world point p. Later blocks are drawn on
// top, so they win. Handles win over bodies, and connection lines are only
// hit when no block is.
func HitTest(s Scene, p geom.Point, handleRadius float64) Target {
	if handleRadius <= 0 {
		handleRadius = DefaultHandleRadius
	}
	ids := s.NodeIDs()
	for i := len(ids) - 1; i >= 0; i-- {
		b, ok := s.Bounds(ids[i])
		if !ok {
			continue
		}
		if dist(p, b.TopCenter()) <= handleRadius {
			return Target{Kind: TargetHandle, Node: ids[i], Side: chart.SideTop}
		}
		if dist(p, b.BottomCenter()) <= handleRadius {
			return Target{Kind: TargetHandle, Node: ids[i], Side: chart.SideBottom}
		}
		if b.Contains(p) {
			return Target{Kind: TargetNode, Node: ids[i]}
		}
	}

	for _, e := range s.Edges() {
		from, okF := s.Bounds(e.From)
		to, okT := s.Bounds(e.To)
		if !okF || !okT {
			continue
		}
		if segmentDist(p, from.BottomCenter(), to.TopCenter()) <= handleRadius {
			return Target{Kind: TargetEdge, Edge: graph.Key(e)}
		}
	}
	return Canvas
}

func dist(a, b geom.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// segmentDist is the distance from p to the segment ab.
func segmentDist(p, a, b geom.Point) float64 {
	ab := b.Sub(a)
	l2 := ab.X*ab.X + ab.Y*ab.Y
	if l2 == 0 {
		return dist(p, a)
	}
	t := ((p.X-a.X)*ab.X + (p.Y-a.Y)*ab.Y) / l2
	t = geom.Clamp(t, 0, 1)
	return dist(p, a.Add(ab.Scale(t)))
}
