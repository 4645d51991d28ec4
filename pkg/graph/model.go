package graph

import (
	"slices"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
)

// Defaults for block placement and hit geometry.
const (
	DefaultAnchorGap = 150.0
	DefaultWidth     = 200.0
	DefaultHeight    = 100.0
)

// DefaultPosition is where blocks without an anchor or explicit position go.
var DefaultPosition = geom.Pt(50, 50)

// ChangeKind classifies a Change.
type ChangeKind int

const (
	NodeAdded ChangeKind = iota
	NodeUpdated
	NodesDeleted
	EdgeAdded
	EdgeDeleted
	NodesMoved
	LayoutApplied
	SelectionChanged
)

var changeKindNames = [...]string{
	NodeAdded:        "node-added",
	NodeUpdated:      "node-updated",
	NodesDeleted:     "nodes-deleted",
	EdgeAdded:        "edge-added",
	EdgeDeleted:      "edge-deleted",
	NodesMoved:       "nodes-moved",
	LayoutApplied:    "layout-applied",
	SelectionChanged: "selection-changed",
}

func (k ChangeKind) String() string {
	if int(k) < len(changeKindNames) {
		return changeKindNames[k]
	}
	return "unknown"
}

// Change describes one applied mutation.
type Change struct {
	Kind    ChangeKind
	Nodes   []chart.NodeID // blocks touched, in model order where it matters
	Version uint64
}

// EdgeKey identifies a connection by its endpoints.
type EdgeKey struct {
	Parent, Child chart.NodeID
}

// Key returns the endpoints of e.
func Key(e chart.Edge) EdgeKey { return EdgeKey{Parent: e.From, Child: e.To} }

// Option configures a Model.
type Option func(*Model)

// WithDefaultSize sets the size assumed for blocks that were never measured.
func WithDefaultSize(s geom.Size) Option {
	return func(m *Model) {
		if s.W > 0 && s.H > 0 {
			m.defaultSize = s
		}
	}
}

// WithAnchorGap sets the vertical distance between an anchored new block and
// its reference block.
func WithAnchorGap(gap float64) Option {
	return func(m *Model) { m.anchorGap = gap }
}

// WithDefaultPosition sets where unanchored blocks are placed.
func WithDefaultPosition(p geom.Point) Option {
	return func(m *Model) { m.defaultPos = p }
}

type listener struct {
	id int
	fn func(Change)
}

// Model is the editable state of one chart.
type Model struct {
	meta  chart.Chart
	nodes map[chart.NodeID]*chart.Node
	order []chart.NodeID
	edges []chart.Edge

	selNodes map[chart.NodeID]bool
	selEdge  *EdgeKey

	sizes       map[chart.NodeID]geom.Size
	defaultSize geom.Size
	anchorGap   float64
	defaultPos  geom.Point

	nextID       chart.NodeID
	version      uint64
	listeners    []listener
	nextListener int
}

// New returns an empty model.
func New(opts ...Option) *Model {
	m := &Model{
		nodes:       make(map[chart.NodeID]*chart.Node),
		selNodes:    make(map[chart.NodeID]bool),
		sizes:       make(map[chart.NodeID]geom.Size),
		defaultSize: geom.Sz(DefaultWidth, DefaultHeight),
		anchorGap:   DefaultAnchorGap,
		defaultPos:  DefaultPosition,
		nextID:      1,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FromChart loads a chart record. Structural invariants are not checked;
// imported data should be validated or repaired by the caller first.
func FromChart(c chart.Chart, opts ...Option) *Model {
	m := New(opts...)
	m.meta = chart.Chart{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
	for _, n := range c.Blocks {
		if _, ok := m.nodes[n.ID]; ok {
			continue
		}
		node := n
		m.nodes[n.ID] = &node
		m.order = append(m.order, n.ID)
		if n.ID >= m.nextID {
			m.nextID = n.ID + 1
		}
	}
	m.edges = append(m.edges, c.Connections...)
	return m
}

// Chart returns a snapshot of the model as a chart record.
func (m *Model) Chart() chart.Chart {
	c := m.meta
	c.Blocks = m.Nodes()
	c.Connections = m.Edges()
	return c
}

// Version returns the number of applied mutations.
func (m *Model) Version() uint64 { return m.version }

// Len returns the number of blocks.
func (m *Model) Len() int { return len(m.order) }

// Nodes returns copies of all blocks in insertion order.
func (m *Model) Nodes() []chart.Node {
	out := make([]chart.Node, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.nodes[id])
	}
	return out
}

// NodeIDs returns all block ids in insertion order.
func (m *Model) NodeIDs() []chart.NodeID { return slices.Clone(m.order) }

// Node returns a copy of the block with the given id.
func (m *Model) Node(id chart.NodeID) (chart.Node, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return chart.Node{}, false
	}
	return *n, true
}

// Has reports whether a block exists.
func (m *Model) Has(id chart.NodeID) bool {
	_, ok := m.nodes[id]
	return ok
}

// Position returns the top-left corner of a block.
func (m *Model) Position(id chart.NodeID) (geom.Point, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return geom.Point{}, false
	}
	return geom.Pt(n.X, n.Y), true
}

// Edges returns all connections in insertion order.
func (m *Model) Edges() []chart.Edge {
	out := make([]chart.Edge, len(m.edges))
	copy(out, m.edges)
	return out
}

// HasEdge reports whether the connection parent→child exists.
func (m *Model) HasEdge(parent, child chart.NodeID) bool {
	return m.edgeIndex(parent, child) >= 0
}

// Children returns the targets of connections leaving id, in insertion order.
func (m *Model) Children(id chart.NodeID) []chart.NodeID {
	var out []chart.NodeID
	for _, e := range m.edges {
		if e.From == id {
			out = append(out, e.To)
		}
	}
	return out
}

// Parents returns the sources of connections entering id, in insertion order.
func (m *Model) Parents(id chart.NodeID) []chart.NodeID {
	var out []chart.NodeID
	for _, e := range m.edges {
		if e.To == id {
			out = append(out, e.From)
		}
	}
	return out
}

func (m *Model) edgeIndex(parent, child chart.NodeID) int {
	return slices.IndexFunc(m.edges, func(e chart.Edge) bool {
		return e.From == parent && e.To == child
	})
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (m *Model) Subscribe(fn func(Change)) (unsubscribe func()) {
	id := m.nextListener
	m.nextListener++
	m.listeners = append(m.listeners, listener{id: id, fn: fn})
	return func() {
		m.listeners = slices.DeleteFunc(m.listeners, func(l listener) bool { return l.id == id })
	}
}

func (m *Model) emit(kind ChangeKind, ids []chart.NodeID) {
	m.version++
	ch := Change{Kind: kind, Nodes: ids, Version: m.version}
	for _, l := range slices.Clone(m.listeners) {
		l.fn(ch)
	}
}
