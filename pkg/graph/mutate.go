package graph

import (
	"slices"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
)

// AddOption configures AddNode.
type AddOption func(*addConfig)

type addConfig struct {
	anchor    chart.NodeID
	role      chart.Role
	hasAnchor bool
	pos       *geom.Point
}

// WithAnchor seeds the new block next to ref and connects the two. With
// RoleParent the new block goes one anchor gap above ref and becomes its
// parent; with RoleChild it goes below and becomes its child. A missing ref
// is ignored.
func WithAnchor(ref chart.NodeID, role chart.Role) AddOption {
	return func(c *addConfig) {
		c.anchor, c.role, c.hasAnchor = ref, role, true
	}
}

// WithPosition places the new block at p. It overrides the position seeded
// by an anchor but keeps the anchor's connection.
func WithPosition(p geom.Point) AddOption {
	return func(c *addConfig) { c.pos = &p }
}

// AddNode inserts a block with the given payload and returns its id.
func (m *Model) AddNode(p chart.Payload, opts ...AddOption) chart.NodeID {
	var cfg addConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if p.Color == "" {
		p.Color = chart.DefaultColor
	}
	id := m.nextID
	m.nextID++
	node := &chart.Node{ID: id, Payload: p, X: m.defaultPos.X, Y: m.defaultPos.Y}

	touched := []chart.NodeID{id}
	var edge *chart.Edge
	if ref, ok := m.nodes[cfg.anchor]; cfg.hasAnchor && ok {
		node.X = ref.X
		e := chart.Edge{FromSide: chart.SideBottom, ToSide: chart.SideTop}
		if cfg.role == chart.RoleParent {
			node.Y = ref.Y - m.anchorGap
			e.From, e.To = id, ref.ID
		} else {
			node.Y = ref.Y + m.anchorGap
			e.From, e.To = ref.ID, id
		}
		edge = &e
		touched = append(touched, ref.ID)
	}
	if cfg.pos != nil {
		node.X, node.Y = cfg.pos.X, cfg.pos.Y
	}

	m.nodes[id] = node
	m.order = append(m.order, id)
	if edge != nil {
		m.edges = append(m.edges, *edge)
	}
	m.emit(NodeAdded, touched)
	return id
}

// Patch is a partial block update. Nil fields are left unchanged.
type Patch struct {
	GroupName *string
	Name      *string
	Title     *string
	Comment   *string
	Image     *string
	Color     *string
	X, Y      *float64
	Collapsed *bool
}

// Ptr returns a pointer to v, for building a Patch.
func Ptr[T any](v T) *T { return &v }

// PatchFrom returns a patch that sets every payload field to p.
func PatchFrom(p chart.Payload) Patch {
	return Patch{
		GroupName: &p.GroupName,
		Name:      &p.Name,
		Title:     &p.Title,
		Comment:   &p.Comment,
		Image:     &p.Image,
		Color:     &p.Color,
	}
}

func (p Patch) empty() bool {
	return p == Patch{}
}

// UpdateNode applies a partial update. It reports false if the block does
// not exist or the patch is empty.
func (m *Model) UpdateNode(id chart.NodeID, p Patch) bool {
	n, ok := m.nodes[id]
	if !ok || p.empty() {
		return false
	}
	set(&n.GroupName, p.GroupName)
	set(&n.Name, p.Name)
	set(&n.Title, p.Title)
	set(&n.Comment, p.Comment)
	set(&n.Image, p.Image)
	set(&n.Color, p.Color)
	set(&n.X, p.X)
	set(&n.Y, p.Y)
	set(&n.Collapsed, p.Collapsed)
	m.emit(NodeUpdated, []chart.NodeID{id})
	return true
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// DeleteNode removes a block and every connection touching it.
func (m *Model) DeleteNode(id chart.NodeID) bool {
	return m.DeleteNodes([]chart.NodeID{id}) == 1
}

// DeleteNodes removes several blocks as one change and returns how many
// existed.
func (m *Model) DeleteNodes(ids []chart.NodeID) int {
	gone := make(map[chart.NodeID]bool, len(ids))
	var deleted []chart.NodeID
	for _, id := range ids {
		if _, ok := m.nodes[id]; ok && !gone[id] {
			gone[id] = true
			deleted = append(deleted, id)
		}
	}
	if len(deleted) == 0 {
		return 0
	}

	for _, id := range deleted {
		delete(m.nodes, id)
		delete(m.sizes, id)
		delete(m.selNodes, id)
	}
	m.order = slices.DeleteFunc(m.order, func(id chart.NodeID) bool { return gone[id] })
	m.edges = slices.DeleteFunc(m.edges, func(e chart.Edge) bool { return gone[e.From] || gone[e.To] })
	if m.selEdge != nil && (gone[m.selEdge.Parent] || gone[m.selEdge.Child]) {
		m.selEdge = nil
	}
	m.emit(NodesDeleted, deleted)
	return len(deleted)
}

// DeleteSelection deletes the selected blocks, or the selected connection
// when no block is selected. It returns the number of items removed.
func (m *Model) DeleteSelection() int {
	if len(m.selNodes) > 0 {
		return m.DeleteNodes(m.SelectedNodes())
	}
	if m.selEdge != nil && m.DeleteEdge(m.selEdge.Parent, m.selEdge.Child) {
		return 1
	}
	return 0
}

// Normalize resolves a handle-to-handle drag into a (parent, child) pair.
// Dragging bottom to top keeps the drag direction, top to bottom reverses
// it, and for same-side handles the lower block (larger y) becomes the
// child. srcY and dstY are the blocks' y coordinates.
func Normalize(src, dst chart.NodeID, srcSide, dstSide chart.Side, srcY, dstY float64) (parent, child chart.NodeID) {
	switch {
	case srcSide == chart.SideBottom && dstSide == chart.SideTop:
		return src, dst
	case srcSide == chart.SideTop && dstSide == chart.SideBottom:
		return dst, src
	case srcY > dstY:
		return dst, src
	default:
		return src, dst
	}
}

// AddEdge creates a connection from a handle drag. Direction is normalized
// with Normalize before the duplicate check. It reports false for missing
// blocks, self loops and connections that already exist.
func (m *Model) AddEdge(src, dst chart.NodeID, srcSide, dstSide chart.Side) (chart.Edge, bool) {
	a, okA := m.nodes[src]
	b, okB := m.nodes[dst]
	if !okA || !okB || src == dst {
		return chart.Edge{}, false
	}
	parent, child := Normalize(src, dst, srcSide, dstSide, a.Y, b.Y)
	if m.HasEdge(parent, child) {
		return chart.Edge{}, false
	}
	e := chart.Edge{From: parent, To: child, FromSide: chart.SideBottom, ToSide: chart.SideTop}
	m.edges = append(m.edges, e)
	m.emit(EdgeAdded, []chart.NodeID{parent, child})
	return e, true
}

// DeleteEdge removes the connection parent→child.
func (m *Model) DeleteEdge(parent, child chart.NodeID) bool {
	i := m.edgeIndex(parent, child)
	if i < 0 {
		return false
	}
	m.edges = slices.Delete(m.edges, i, i+1)
	if m.selEdge != nil && *m.selEdge == (EdgeKey{parent, child}) {
		m.selEdge = nil
	}
	m.emit(EdgeDeleted, []chart.NodeID{parent, child})
	return true
}

// MoveNodes sets the position of several blocks as one change. Unknown ids
// are skipped. It returns the number of blocks moved.
func (m *Model) MoveNodes(pos map[chart.NodeID]geom.Point) int {
	moved := m.applyPositions(pos)
	if len(moved) == 0 {
		return 0
	}
	m.emit(NodesMoved, moved)
	return len(moved)
}

// ApplyLayout writes computed positions and expands every block, as one
// change. Blocks missing from pos keep their coordinates.
func (m *Model) ApplyLayout(pos map[chart.NodeID]geom.Point) int {
	if len(m.order) == 0 {
		return 0
	}
	moved := m.applyPositions(pos)
	for _, id := range m.order {
		m.nodes[id].Collapsed = false
	}
	m.emit(LayoutApplied, moved)
	return len(moved)
}

func (m *Model) applyPositions(pos map[chart.NodeID]geom.Point) []chart.NodeID {
	var moved []chart.NodeID
	for _, id := range m.order {
		p, ok := pos[id]
		if !ok {
			continue
		}
		n := m.nodes[id]
		n.X, n.Y = p.X, p.Y
		moved = append(moved, id)
	}
	return moved
}
