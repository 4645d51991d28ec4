package interact

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/observability"
	"github.com/matzehuels/organigram/pkg/viewport"
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for mode transitions and rejected gestures.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSnap rounds final drag positions to multiples of grid. Zero disables
// snapping.
func WithSnap(grid float64) Option {
	return func(c *Controller) { c.grid = max(grid, 0) }
}

// Controller is the interaction state machine for one canvas.
type Controller struct {
	g         Graph
	vp        Viewport
	st        state
	spaceHeld bool
	grid      float64
	logger    *log.Logger
}

// New returns an idle controller editing g through vp.
func New(g Graph, vp Viewport, opts ...Option) *Controller {
	c := &Controller{
		g:      g,
		vp:     vp,
		st:     idle{},
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode { return c.st.mode() }

// SpaceHeld reports whether the pan modifier key is down.
func (c *Controller) SpaceHeld() bool { return c.spaceHeld }

func (c *Controller) enter(next state) {
	from, to := c.st.mode(), next.mode()
	c.st = next
	if from != to {
		c.logger.Debug("interaction mode", "from", from, "to", to)
		observability.Editor().OnModeChange(from.String(), to.String())
	}
}

// PointerDown starts a gesture. Presses while a gesture is active, on block
// controls, or with the secondary button are ignored. The middle button
// only pans. It reports whether the event was consumed.
func (c *Controller) PointerDown(ev PointerEvent) bool {
	if c.Mode() != Idle || ev.Target.Kind == TargetControl || ev.Button == ButtonSecondary {
		return false
	}

	if ev.Button == ButtonMiddle || c.spaceHeld {
		if ev.Target.Kind == TargetCanvas || ev.Target.Kind == TargetNode {
			c.enter(&panning{last: ev.Screen})
			return true
		}
		if ev.Button == ButtonMiddle {
			return false
		}
	}

	world := c.vp.ScreenToWorld(ev.Screen)
	switch ev.Target.Kind {
	case TargetCanvas:
		c.g.ClearSelection()
		c.enter(&selectingBox{anchor: world, current: world})
		return true

	case TargetEdge:
		return c.g.SelectEdge(ev.Target.Edge.Parent, ev.Target.Edge.Child)

	case TargetNode:
		id := ev.Target.Node
		if _, ok := c.g.Position(id); !ok {
			return false
		}
		if !c.g.IsSelected(id) {
			c.g.SelectNodes(id)
		}
		initial := make(map[chart.NodeID]geom.Point)
		for _, sel := range c.g.SelectedNodes() {
			if p, ok := c.g.Position(sel); ok {
				initial[sel] = p
			}
		}
		c.enter(&draggingNodes{start: ev.Screen, pressed: id, initial: initial})
		return true

	case TargetHandle:
		b, ok := c.g.Bounds(ev.Target.Node)
		if !ok {
			return false
		}
		anchor := b.BottomCenter()
		if ev.Target.Side == chart.SideTop {
			anchor = b.TopCenter()
		}
		c.enter(&draggingConnection{source: ev.Target.Node, side: ev.Target.Side, anchor: anchor, cursor: world})
		return true
	}
	return false
}

// PointerMove updates the active gesture. Only the active mode sees it.
func (c *Controller) PointerMove(ev PointerEvent) {
	switch s := c.st.(type) {
	case *panning:
		c.vp.Pan(ev.Screen.Sub(s.last))
		s.last = ev.Screen

	case *draggingNodes:
		if ev.Screen == s.start && !s.moved {
			return
		}
		s.moved = true
		c.g.MoveNodes(s.positions(c.worldDelta(s.start, ev.Screen), 0))

	case *draggingConnection:
		s.cursor = c.vp.ScreenToWorld(ev.Screen)

	case *selectingBox:
		s.current = c.vp.ScreenToWorld(ev.Screen)
	}
}

// PointerUp finishes the active gesture and always returns to idle.
func (c *Controller) PointerUp(ev PointerEvent) {
	switch s := c.st.(type) {
	case *draggingNodes:
		if !s.moved && ev.Screen == s.start {
			c.g.SelectNodes(s.pressed)
			break
		}
		c.g.MoveNodes(s.positions(c.worldDelta(s.start, ev.Screen), c.grid))

	case *draggingConnection:
		c.finishConnection(s, ev)

	case *selectingBox:
		s.current = c.vp.ScreenToWorld(ev.Screen)
		var hits []chart.NodeID
		if r := s.rect(); !r.Empty() {
			hits = c.g.NodesIn(r)
		}
		c.g.SelectNodes(hits...)
	}
	c.enter(idle{})
}

func (c *Controller) finishConnection(s *draggingConnection, ev PointerEvent) {
	t := ev.Target
	if (t.Kind != TargetNode && t.Kind != TargetHandle) || t.Node == s.source {
		c.logger.Debug("connection dropped", "source", s.source)
		observability.Editor().OnConnection(false)
		return
	}

	dstSide := t.Side
	if t.Kind == TargetNode {
		dstSide = chart.SideBottom
		if b, ok := c.g.Bounds(t.Node); ok && c.vp.ScreenToWorld(ev.Screen).Y < b.Center().Y {
			dstSide = chart.SideTop
		}
	}
	e, ok := c.g.AddEdge(s.source, t.Node, s.side, dstSide)
	if ok {
		c.logger.Debug("connection created", "parent", e.From, "child", e.To)
	} else {
		c.logger.Debug("connection rejected", "source", s.source, "target", t.Node)
	}
	observability.Editor().OnConnection(ok)
}

func (c *Controller) worldDelta(from, to geom.Point) geom.Point {
	return to.Sub(from).Scale(1 / c.vp.Zoom())
}

// Cancel abandons the active gesture. A block drag puts the blocks back
// where they were.
func (c *Controller) Cancel() {
	if s, ok := c.st.(*draggingNodes); ok && s.moved {
		c.g.MoveNodes(s.initial)
	}
	c.enter(idle{})
}

// KeyDown handles a key press. Space arms panning; Delete removes the
// selection when idle; Escape cancels the active gesture.
func (c *Controller) KeyDown(k Key) {
	switch k {
	case KeySpace:
		c.spaceHeld = true
	case KeyDelete:
		if c.Mode() == Idle {
			c.g.DeleteSelection()
		}
	case KeyEscape:
		c.Cancel()
	}
}

// KeyUp handles a key release.
func (c *Controller) KeyUp(k Key) {
	if k == KeySpace {
		c.spaceHeld = false
	}
}

// Wheel forwards scrolling to the viewport.
func (c *Controller) Wheel(ev viewport.WheelEvent) {
	c.vp.Wheel(ev)
}

// Overlay returns the feedback to draw for the active gesture.
func (c *Controller) Overlay() Overlay {
	o := Overlay{Mode: c.Mode()}
	switch s := c.st.(type) {
	case *selectingBox:
		r := s.rect()
		o.Box = &r
	case *draggingConnection:
		o.Line = &[2]geom.Point{s.anchor, s.cursor}
	}
	return o
}
