package interact

import (
	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
)

// state is the active mode together with the data only that mode needs.
type state interface {
	mode() Mode
}

type idle struct{}

type panning struct {
	last geom.Point // screen
}

type draggingNodes struct {
	start   geom.Point // screen
	pressed chart.NodeID
	initial map[chart.NodeID]geom.Point // world, captured at press
	moved   bool
}

type draggingConnection struct {
	source chart.NodeID
	side   chart.Side
	anchor geom.Point // world, handle position at press
	cursor geom.Point // world
}

type selectingBox struct {
	anchor  geom.Point // world
	current geom.Point // world
}

func (idle) mode() Mode                { return Idle }
func (*panning) mode() Mode            { return Panning }
func (*draggingNodes) mode() Mode      { return DraggingNodes }
func (*draggingConnection) mode() Mode { return DraggingConnection }
func (*selectingBox) mode() Mode       { return SelectingBox }

func (s *selectingBox) rect() geom.Rect { return geom.RectFromCorners(s.anchor, s.current) }

// positions returns the dragged blocks moved by a world-space delta.
func (s *draggingNodes) positions(delta geom.Point, grid float64) map[chart.NodeID]geom.Point {
	out := make(map[chart.NodeID]geom.Point, len(s.initial))
	for id, p := range s.initial {
		out[id] = geom.SnapPoint(p.Add(delta), grid)
	}
	return out
}
