// Package session ties the canvas components of one open chart together.
//
// A [Session] owns a [graph.Model], a [viewport.Controller], an
// [interact.Controller] and a [minimap.Navigator] for a single chart. Each
// open chart gets its own session; nothing is shared between sessions.
//
// Sessions are not safe for concurrent use. Drive them from one event loop
// (a bubbletea program, an HTTP handler holding its own session, a test).
//
// # Usage
//
//	s := session.Open(c, session.WithSnap(20))
//	defer s.Close()
//
//	s.ResetLayout()
//	s.PointerDown(geom.Pt(120, 80), interact.ButtonPrimary)
//	s.PointerMove(geom.Pt(220, 80), interact.ButtonPrimary)
//	s.PointerUp(geom.Pt(220, 80), interact.ButtonPrimary)
//
//	if s.Dirty() {
//	    err := s.Save(ctx, st)
//	}
package session

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/graph"
	"github.com/matzehuels/organigram/pkg/interact"
	"github.com/matzehuels/organigram/pkg/layout"
	"github.com/matzehuels/organigram/pkg/minimap"
	"github.com/matzehuels/organigram/pkg/observability"
	"github.com/matzehuels/organigram/pkg/store"
	"github.com/matzehuels/organigram/pkg/viewport"
)

// DefaultGridSize is the snap grid used by WithSnap(0).
const DefaultGridSize = 20

// FitMargin is the screen margin kept around the chart by FitToContent.
const FitMargin = 40

// Option configures a Session.
type Option func(*config)

type config struct {
	logger    *log.Logger
	layout    layout.Options
	minimap   minimap.Options
	grid      float64
	nodeSize  geom.Size
	anchorGap float64
	pick      float64
	vpOpts    []viewport.Option
}

// WithLogger sets the logger used by the session and its interaction
// controller.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLayout sets the spacing used by ResetLayout.
func WithLayout(opts layout.Options) Option {
	return func(c *config) { c.layout = opts }
}

// WithMinimap sets the overview size and padding.
func WithMinimap(opts minimap.Options) Option {
	return func(c *config) { c.minimap = opts }
}

// WithSnap enables grid snapping for drags and block edits. A non-positive
// grid selects DefaultGridSize.
func WithSnap(grid float64) Option {
	return func(c *config) {
		if grid <= 0 {
			grid = DefaultGridSize
		}
		c.grid = grid
	}
}

// WithZoom sets the zoom bounds and the step of the zoom buttons.
func WithZoom(lo, hi, step float64) Option {
	return func(c *config) {
		c.vpOpts = append(c.vpOpts, viewport.WithZoomBounds(lo, hi), viewport.WithZoomStep(step))
	}
}

// WithCanvasSize sets the initial canvas size in screen pixels.
func WithCanvasSize(s geom.Size) Option {
	return func(c *config) { c.vpOpts = append(c.vpOpts, viewport.WithSize(s)) }
}

// WithNodeSize sets the size assumed for blocks that were never measured.
func WithNodeSize(s geom.Size) Option {
	return func(c *config) { c.nodeSize = s }
}

// WithAnchorGap sets the vertical distance between an anchor block and a
// block added next to it.
func WithAnchorGap(gap float64) Option {
	return func(c *config) { c.anchorGap = gap }
}

// WithHandleRadius sets the screen-space pick radius of connection handles
// and lines. Coarse pointers such as terminal cells need more than
// interact.DefaultHandleRadius.
func WithHandleRadius(r float64) Option {
	return func(c *config) {
		if r > 0 {
			c.pick = r
		}
	}
}

// Session is the editing state of one open chart.
type Session struct {
	Model       *graph.Model
	Viewport    *viewport.Controller
	Interaction *interact.Controller
	Navigator   *minimap.Navigator

	cfg         config
	edits       uint64
	saved       uint64
	unsubscribe func()
	log         *log.Logger
}

// Open starts a session on c. The chart is loaded as is; validate or repair
// imported charts first.
func Open(c chart.Chart, opts ...Option) *Session {
	cfg := config{
		logger:  log.New(io.Discard),
		layout:  layout.DefaultOptions(),
		minimap: minimap.DefaultOptions(),
		pick:    interact.DefaultHandleRadius,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var gopts []graph.Option
	if cfg.nodeSize.W > 0 && cfg.nodeSize.H > 0 {
		gopts = append(gopts, graph.WithDefaultSize(cfg.nodeSize))
		cfg.minimap.NodeSize = cfg.nodeSize
		if cfg.layout.NodeWidth == 0 {
			cfg.layout.NodeWidth = cfg.nodeSize.W
		}
	}
	if cfg.anchorGap > 0 {
		gopts = append(gopts, graph.WithAnchorGap(cfg.anchorGap))
	}

	m := graph.FromChart(c, gopts...)
	vp := viewport.New(cfg.vpOpts...)
	s := &Session{
		Model:    m,
		Viewport: vp,
		Interaction: interact.New(m, vp,
			interact.WithLogger(cfg.logger),
			interact.WithSnap(cfg.grid),
		),
		Navigator: minimap.NewNavigator(vp),
		cfg:       cfg,
		log:       cfg.logger,
	}
	s.unsubscribe = m.Subscribe(s.track)
	s.log.Debug("session opened", "chart", c.ID, "blocks", m.Len())
	return s
}

// track counts content changes. Selection changes do not make a chart dirty.
func (s *Session) track(ch graph.Change) {
	if ch.Kind != graph.SelectionChanged {
		s.edits++
	}
}

// Close releases the session. The session must not be used afterwards.
func (s *Session) Close() {
	s.Interaction.Cancel()
	s.unsubscribe()
	s.log.Debug("session closed", "chart", s.Model.Chart().ID)
}

// Chart returns a snapshot of the edited chart.
func (s *Session) Chart() chart.Chart { return s.Model.Chart() }

// Dirty reports whether the chart changed since it was opened or last saved.
func (s *Session) Dirty() bool { return s.edits != s.saved }

// MarkSaved records the current state as persisted.
func (s *Session) MarkSaved() { s.saved = s.edits }

// Save writes the chart to st and marks the session clean.
func (s *Session) Save(ctx context.Context, st store.Store) error {
	c := s.Chart()
	if err := st.Put(ctx, c); err != nil {
		return err
	}
	s.MarkSaved()
	s.log.Info("chart saved", "chart", c.ID, "blocks", len(c.Blocks))
	return nil
}

// ResetLayout recomputes every block position and applies them as one
// change.
func (s *Session) ResetLayout() layout.Result {
	nodes := s.Model.Nodes()
	observability.Editor().OnLayoutStart(len(nodes))
	start := time.Now()

	res := layout.Compute(nodes, s.Model.Edges(), s.cfg.layout)
	s.Model.ApplyLayout(res.Positions)

	elapsed := time.Since(start)
	observability.Editor().OnLayoutComplete(len(nodes), len(res.Skipped), elapsed)
	for _, e := range res.Skipped {
		s.log.Debug("connection ignored by layout", "parent", e.From, "child", e.To)
	}
	s.log.Debug("layout applied", "blocks", len(nodes), "roots", len(res.Roots), "skipped", len(res.Skipped), "took", elapsed)
	return res
}

// ResetZoom returns the viewport to zoom 1 at the origin.
func (s *Session) ResetZoom() { s.Viewport.Reset() }

// FitToContent zooms and pans so every block is visible.
func (s *Session) FitToContent() {
	s.Viewport.FitRect(s.Model.Extent(), FitMargin)
}

// AddNode adds a block.
func (s *Session) AddNode(p chart.Payload, opts ...graph.AddOption) chart.NodeID {
	return s.Model.AddNode(p, opts...)
}

// UpdateNode applies a block edit, snapping coordinates when snapping is on.
func (s *Session) UpdateNode(id chart.NodeID, p graph.Patch) bool {
	if s.cfg.grid > 0 {
		if p.X != nil {
			p.X = graph.Ptr(geom.Snap(*p.X, s.cfg.grid))
		}
		if p.Y != nil {
			p.Y = graph.Ptr(geom.Snap(*p.Y, s.cfg.grid))
		}
	}
	return s.Model.UpdateNode(id, p)
}

// DeleteSelection removes the selected blocks, or the selected connection
// when no block is selected.
func (s *Session) DeleteSelection() int { return s.Model.DeleteSelection() }

// HitTest returns the element under a screen point. Handle radius is kept
// constant on screen.
func (s *Session) HitTest(screen geom.Point) interact.Target {
	world := s.Viewport.ScreenToWorld(screen)
	return interact.HitTest(s.Model, world, s.cfg.pick/s.Viewport.Zoom())
}

// PointerDown hit-tests a press and forwards it to the interaction
// controller.
func (s *Session) PointerDown(screen geom.Point, b interact.Button) bool {
	return s.Interaction.PointerDown(s.event(screen, b))
}

// PointerMove forwards pointer motion.
func (s *Session) PointerMove(screen geom.Point, b interact.Button) {
	s.Interaction.PointerMove(s.event(screen, b))
}

// PointerUp hit-tests a release and forwards it.
func (s *Session) PointerUp(screen geom.Point, b interact.Button) {
	s.Interaction.PointerUp(s.event(screen, b))
}

func (s *Session) event(screen geom.Point, b interact.Button) interact.PointerEvent {
	return interact.PointerEvent{Screen: screen, Button: b, Target: s.HitTest(screen)}
}

// Minimap returns the overview of the current chart and view.
func (s *Session) Minimap() minimap.Projection {
	return minimap.Project(s.Model.Nodes(), s.Viewport.VisibleWorld(), s.cfg.minimap)
}

// MinimapDown starts a navigation drag at overview point at.
func (s *Session) MinimapDown(at geom.Point) { s.Navigator.Down(s.Minimap(), at) }

// MinimapMove continues a navigation drag.
func (s *Session) MinimapMove(at geom.Point) { s.Navigator.Move(s.Minimap(), at) }

// MinimapUp ends a navigation drag.
func (s *Session) MinimapUp() { s.Navigator.Up() }

// Grid returns the snap grid, or 0 when snapping is off.
func (s *Session) Grid() float64 { return s.cfg.grid }
