package graph

import (
	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
)

// Selection is either a set of blocks or one connection.
type Selection struct {
	Nodes []chart.NodeID // in model order
	Edge  *EdgeKey
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return len(s.Nodes) == 0 && s.Edge == nil }

// Selection returns the current selection.
func (m *Model) Selection() Selection {
	s := Selection{Nodes: m.SelectedNodes()}
	if m.selEdge != nil {
		e := *m.selEdge
		s.Edge = &e
	}
	return s
}

// SelectedNodes returns the selected block ids in model order.
func (m *Model) SelectedNodes() []chart.NodeID {
	if len(m.selNodes) == 0 {
		return nil
	}
	out := make([]chart.NodeID, 0, len(m.selNodes))
	for _, id := range m.order {
		if m.selNodes[id] {
			out = append(out, id)
		}
	}
	return out
}

// SelectedEdge returns the selected connection, if any.
func (m *Model) SelectedEdge() (EdgeKey, bool) {
	if m.selEdge == nil {
		return EdgeKey{}, false
	}
	return *m.selEdge, true
}

// IsSelected reports whether a block is selected.
func (m *Model) IsSelected(id chart.NodeID) bool { return m.selNodes[id] }

// SelectNodes replaces the selection with the given blocks and clears any
// selected connection. Unknown ids are dropped; an empty list clears the
// selection.
func (m *Model) SelectNodes(ids ...chart.NodeID) bool {
	next := make(map[chart.NodeID]bool, len(ids))
	for _, id := range ids {
		if _, ok := m.nodes[id]; ok {
			next[id] = true
		}
	}
	if m.selEdge == nil && sameSet(next, m.selNodes) {
		return false
	}
	m.selNodes = next
	m.selEdge = nil
	m.emit(SelectionChanged, m.SelectedNodes())
	return true
}

// SelectEdge selects one connection and clears the block selection.
func (m *Model) SelectEdge(parent, child chart.NodeID) bool {
	key := EdgeKey{Parent: parent, Child: child}
	if !m.HasEdge(parent, child) {
		return false
	}
	if m.selEdge != nil && *m.selEdge == key && len(m.selNodes) == 0 {
		return false
	}
	m.selNodes = make(map[chart.NodeID]bool)
	m.selEdge = &key
	m.emit(SelectionChanged, []chart.NodeID{parent, child})
	return true
}

// ClearSelection deselects everything.
func (m *Model) ClearSelection() bool {
	if len(m.selNodes) == 0 && m.selEdge == nil {
		return false
	}
	m.selNodes = make(map[chart.NodeID]bool)
	m.selEdge = nil
	m.emit(SelectionChanged, nil)
	return true
}

// NodesIn returns the blocks whose bounds overlap r under the open-interval
// test, in model order. Blocks that merely touch r are excluded.
func (m *Model) NodesIn(r geom.Rect) []chart.NodeID {
	var out []chart.NodeID
	for _, id := range m.order {
		if b, _ := m.Bounds(id); b.Intersects(r) {
			out = append(out, id)
		}
	}
	return out
}

func sameSet(a, b map[chart.NodeID]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

// SetMeasuredSize records the rendered size of a block. Sizes are a derived
// cache fed by the renderer: they are never persisted and do not produce a
// Change. Non-positive sizes and unknown blocks are ignored.
func (m *Model) SetMeasuredSize(id chart.NodeID, s geom.Size) {
	if _, ok := m.nodes[id]; !ok || s.W <= 0 || s.H <= 0 {
		return
	}
	m.sizes[id] = s
}

// Size returns the measured size of a block, or the default size if the
// block was never measured.
func (m *Model) Size(id chart.NodeID) geom.Size {
	if s, ok := m.sizes[id]; ok {
		return s
	}
	return m.defaultSize
}

// DefaultSize returns the size assumed for unmeasured blocks.
func (m *Model) DefaultSize() geom.Size { return m.defaultSize }

// Bounds returns the world rectangle a block occupies.
func (m *Model) Bounds(id chart.NodeID) (geom.Rect, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return geom.Rect{}, false
	}
	return geom.RectAt(geom.Pt(n.X, n.Y), m.Size(id)), true
}

// Extent returns the union of all block bounds. It is empty for an empty
// model.
func (m *Model) Extent() geom.Rect {
	var r geom.Rect
	for i, id := range m.order {
		b, _ := m.Bounds(id)
		if i == 0 {
			r = b
			continue
		}
		r = r.Union(b)
	}
	return r
}
