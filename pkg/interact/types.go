package interact

import (
	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/graph"
	"github.com/matzehuels/organigram/pkg/viewport"
)

// Mode is the active interaction mode.
type Mode int

const (
	Idle Mode = iota
	Panning
	DraggingNodes
	DraggingConnection
	SelectingBox
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Panning:
		return "panning"
	case DraggingNodes:
		return "dragging-nodes"
	case DraggingConnection:
		return "dragging-connection"
	case SelectingBox:
		return "selecting-box"
	default:
		return "unknown"
	}
}

// Button is a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// TargetKind says what lies under the pointer.
type TargetKind int

const (
	TargetCanvas  TargetKind = iota // empty canvas
	TargetNode                      // block body
	TargetHandle                    // top or bottom connection handle
	TargetControl                   // a button drawn on a block
	TargetEdge                      // a connection line
)

// Target is the element under the pointer.
type Target struct {
	Kind TargetKind
	Node chart.NodeID  // TargetNode, TargetHandle, TargetControl
	Side chart.Side    // TargetHandle
	Edge graph.EdgeKey // TargetEdge
}

// Canvas is the empty-canvas target.
var Canvas = Target{Kind: TargetCanvas}

// PointerEvent is a pointer press, move or release in screen coordinates.
type PointerEvent struct {
	Screen geom.Point
	Button Button
	Target Target
}

// Key is a keyboard key the controller reacts to.
type Key int

const (
	KeySpace Key = iota
	KeyDelete
	KeyEscape
)

// Graph is the model the controller edits. *graph.Model implements it.
type Graph interface {
	Bounds(id chart.NodeID) (geom.Rect, bool)
	Position(id chart.NodeID) (geom.Point, bool)
	IsSelected(id chart.NodeID) bool
	SelectedNodes() []chart.NodeID
	SelectNodes(ids ...chart.NodeID) bool
	SelectEdge(parent, child chart.NodeID) bool
	ClearSelection() bool
	DeleteSelection() int
	MoveNodes(pos map[chart.NodeID]geom.Point) int
	AddEdge(src, dst chart.NodeID, srcSide, dstSide chart.Side) (chart.Edge, bool)
	NodesIn(r geom.Rect) []chart.NodeID
}

// Viewport is the coordinate transform the controller reads and pans.
// *viewport.Controller implements it.
type Viewport interface {
	ScreenToWorld(s geom.Point) geom.Point
	Zoom() float64
	Pan(d geom.Point)
	Wheel(ev viewport.WheelEvent)
}

// Overlay describes transient gesture feedback a renderer should draw on
// top of the chart, in world coordinates.
type Overlay struct {
	Mode Mode
	Box  *geom.Rect     // rubber band while selecting
	Line *[2]geom.Point // source handle to cursor while connecting
}
