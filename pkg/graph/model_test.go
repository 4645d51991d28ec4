package graph

import (
	"slices"
	"testing"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
)

func newTestModel(t *testing.T) (*Model, *[]Change) {
	t.Helper()
	m := New()
	var changes []Change
	m.Subscribe(func(c Change) { changes = append(changes, c) })
	return m, &changes
}

func TestAddNodeDefaults(t *testing.T) {
	m, changes := newTestModel(t)

	id := m.AddNode(chart.Payload{Name: "Ada"})
	n, ok := m.Node(id)
	if !ok {
		t.Fatal("node not found after AddNode")
	}
	if n.X != 50 || n.Y != 50 {
		t.Errorf("position = (%v,%v), want (50,50)", n.X, n.Y)
	}
	if n.Color != chart.DefaultColor {
		t.Errorf("Color = %q, want %q", n.Color, chart.DefaultColor)
	}
	if len(m.Edges()) != 0 {
		t.Error("unanchored node should not create an edge")
	}
	if len(*changes) != 1 || (*changes)[0].Kind != NodeAdded {
		t.Errorf("changes = %+v, want one NodeAdded", *changes)
	}
}

func TestAddNodeAnchor(t *testing.T) {
	tests := []struct {
		name     string
		role     chart.Role
		wantY    float64
		wantEdge func(ref, id chart.NodeID) EdgeKey
	}{
		{name: "parent", role: chart.RoleParent, wantY: 250, wantEdge: func(ref, id chart.NodeID) EdgeKey { return EdgeKey{id, ref} }},
		{name: "child", role: chart.RoleChild, wantY: 550, wantEdge: func(ref, id chart.NodeID) EdgeKey { return EdgeKey{ref, id} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			ref := m.AddNode(chart.Payload{}, WithPosition(geom.Pt(120, 400)))
			id := m.AddNode(chart.Payload{}, WithAnchor(ref, tt.role))

			n, _ := m.Node(id)
			if n.X != 120 || n.Y != tt.wantY {
				t.Errorf("position = (%v,%v), want (120,%v)", n.X, n.Y, tt.wantY)
			}
			edges := m.Edges()
			if len(edges) != 1 {
				t.Fatalf("got %d edges, want 1", len(edges))
			}
			if got, want := Key(edges[0]), tt.wantEdge(ref, id); got != want {
				t.Errorf("edge = %+v, want %+v", got, want)
			}
			if edges[0].FromSide != chart.SideBottom || edges[0].ToSide != chart.SideTop {
				t.Errorf("edge sides = %s/%s, want bottom/top", edges[0].FromSide, edges[0].ToSide)
			}
		})
	}
}

func TestAddNodeMissingAnchor(t *testing.T) {
	m := New()
	id := m.AddNode(chart.Payload{}, WithAnchor(42, chart.RoleChild))
	n, _ := m.Node(id)
	if n.X != 50 || n.Y != 50 || len(m.Edges()) != 0 {
		t.Errorf("missing anchor should fall back to default placement, got (%v,%v) edges=%d", n.X, n.Y, len(m.Edges()))
	}
}

func TestNextIDAfterLoad(t *testing.T) {
	m := FromChart(chart.Chart{Blocks: []chart.Node{{ID: 7}, {ID: 3}}})
	if id := m.AddNode(chart.Payload{}); id != 8 {
		t.Errorf("AddNode() id = %d, want 8", id)
	}
}

func TestUpdateNode(t *testing.T) {
	m, changes := newTestModel(t)
	id := m.AddNode(chart.Payload{Name: "old", Title: "keep"})
	*changes = nil

	if !m.UpdateNode(id, Patch{Name: Ptr("new"), X: Ptr(20.0)}) {
		t.Fatal("UpdateNode() = false")
	}
	n, _ := m.Node(id)
	if n.Name != "new" || n.Title != "keep" || n.X != 20 || n.Y != 50 {
		t.Errorf("unexpected node after patch: %+v", n)
	}
	if m.UpdateNode(999, Patch{Name: Ptr("x")}) {
		t.Error("UpdateNode() on missing id = true")
	}
	if m.UpdateNode(id, Patch{}) {
		t.Error("UpdateNode() with empty patch = true")
	}
	if len(*changes) != 1 {
		t.Errorf("got %d changes, want 1", len(*changes))
	}
}

// nodesAt builds a model with blocks at the given y coordinates, ids 1..n.
func nodesAt(ys ...float64) *Model {
	m := New()
	for _, y := range ys {
		m.AddNode(chart.Payload{}, WithPosition(geom.Pt(0, y)))
	}
	return m
}

func TestAddEdgeNormalization(t *testing.T) {
	tests := []struct {
		name             string
		srcY, dstY       float64
		srcSide, dstSide chart.Side
		want             EdgeKey
	}{
		{name: "bottom to top", srcY: 500, dstY: 0, srcSide: chart.SideBottom, dstSide: chart.SideTop, want: EdgeKey{1, 2}},
		{name: "top to bottom", srcY: 0, dstY: 500, srcSide: chart.SideTop, dstSide: chart.SideBottom, want: EdgeKey{2, 1}},
		{name: "bottom to bottom source higher", srcY: 0, dstY: 300, srcSide: chart.SideBottom, dstSide: chart.SideBottom, want: EdgeKey{1, 2}},
		{name: "bottom to bottom source lower", srcY: 300, dstY: 0, srcSide: chart.SideBottom, dstSide: chart.SideBottom, want: EdgeKey{2, 1}},
		{name: "top to top source lower", srcY: 300, dstY: 0, srcSide: chart.SideTop, dstSide: chart.SideTop, want: EdgeKey{2, 1}},
		{name: "top to top source higher", srcY: 0, dstY: 300, srcSide: chart.SideTop, dstSide: chart.SideTop, want: EdgeKey{1, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := nodesAt(tt.srcY, tt.dstY)
			e, ok := m.AddEdge(1, 2, tt.srcSide, tt.dstSide)
			if !ok {
				t.Fatal("AddEdge() = false")
			}
			if Key(e) != tt.want {
				t.Errorf("edge = %+v, want %+v", Key(e), tt.want)
			}
		})
	}
}

func TestAddEdgeRejects(t *testing.T) {
	m, changes := newTestModel(t)
	a := m.AddNode(chart.Payload{})
	b := m.AddNode(chart.Payload{}, WithPosition(geom.Pt(0, 300)))
	*changes = nil

	if _, ok := m.AddEdge(a, b, chart.SideBottom, chart.SideTop); !ok {
		t.Fatal("first AddEdge() = false")
	}
	if _, ok := m.AddEdge(a, b, chart.SideBottom, chart.SideTop); ok {
		t.Error("duplicate AddEdge() = true")
	}
	// Same pair after normalization.
	if _, ok := m.AddEdge(b, a, chart.SideTop, chart.SideBottom); ok {
		t.Error("reversed duplicate AddEdge() = true")
	}
	if _, ok := m.AddEdge(a, a, chart.SideBottom, chart.SideTop); ok {
		t.Error("self loop AddEdge() = true")
	}
	if _, ok := m.AddEdge(a, 99, chart.SideBottom, chart.SideTop); ok {
		t.Error("AddEdge() to missing node = true")
	}
	if len(m.Edges()) != 1 {
		t.Errorf("got %d edges, want 1", len(m.Edges()))
	}
	if len(*changes) != 1 {
		t.Errorf("got %d changes, want 1", len(*changes))
	}
}

func TestDeleteNodeCascade(t *testing.T) {
	m := New()
	a := m.AddNode(chart.Payload{})
	b := m.AddNode(chart.Payload{}, WithAnchor(a, chart.RoleChild))
	c := m.AddNode(chart.Payload{}, WithAnchor(b, chart.RoleChild))
	d := m.AddNode(chart.Payload{}, WithAnchor(a, chart.RoleChild))
	m.SetMeasuredSize(b, geom.Sz(300, 120))
	m.SelectNodes(b, d)

	if !m.DeleteNode(b) {
		t.Fatal("DeleteNode() = false")
	}
	if m.Has(b) {
		t.Error("node still present")
	}
	for _, e := range m.Edges() {
		if e.From == b || e.To == b {
			t.Errorf("edge %+v still references deleted node", e)
		}
	}
	if got := len(m.Edges()); got != 1 {
		t.Errorf("got %d edges, want 1 (a->d)", got)
	}
	if m.IsSelected(b) || !m.IsSelected(d) {
		t.Errorf("selection = %v, want [%d]", m.SelectedNodes(), d)
	}
	if m.Size(b) != m.DefaultSize() {
		t.Error("measured size should be dropped with the node")
	}
	if !m.Has(c) {
		t.Error("child of deleted node should survive")
	}
	if m.DeleteNode(b) {
		t.Error("second DeleteNode() = true")
	}
}

func TestDeleteSelection(t *testing.T) {
	m := New()
	a := m.AddNode(chart.Payload{})
	b := m.AddNode(chart.Payload{}, WithAnchor(a, chart.RoleChild))
	m.AddNode(chart.Payload{})

	if n := m.DeleteSelection(); n != 0 {
		t.Errorf("DeleteSelection() with empty selection = %d", n)
	}

	m.SelectEdge(a, b)
	if n := m.DeleteSelection(); n != 1 || len(m.Edges()) != 0 {
		t.Errorf("DeleteSelection() of edge = %d, edges left %d", n, len(m.Edges()))
	}

	m.SelectNodes(a, b)
	if n := m.DeleteSelection(); n != 2 || m.Len() != 1 {
		t.Errorf("DeleteSelection() = %d, nodes left %d", n, m.Len())
	}
}

func TestMoveNodesAtomic(t *testing.T) {
	m, changes := newTestModel(t)
	a := m.AddNode(chart.Payload{})
	b := m.AddNode(chart.Payload{})
	c := m.AddNode(chart.Payload{})
	*changes = nil

	var seen [][]geom.Point
	m.Subscribe(func(Change) {
		var ps []geom.Point
		for _, id := range []chart.NodeID{a, b, c} {
			p, _ := m.Position(id)
			ps = append(ps, p)
		}
		seen = append(seen, ps)
	})

	n := m.MoveNodes(map[chart.NodeID]geom.Point{
		a:  geom.Pt(60, 70),
		b:  geom.Pt(60, 70),
		c:  geom.Pt(60, 70),
		99: geom.Pt(1, 1),
	})
	if n != 3 {
		t.Errorf("MoveNodes() = %d, want 3", n)
	}
	if len(*changes) != 1 || (*changes)[0].Kind != NodesMoved {
		t.Fatalf("changes = %+v, want one NodesMoved", *changes)
	}
	for _, p := range seen[0] {
		if p != geom.Pt(60, 70) {
			t.Errorf("listener observed partial move: %v", seen[0])
		}
	}
	if m.MoveNodes(map[chart.NodeID]geom.Point{99: {}}) != 0 || len(*changes) != 1 {
		t.Error("moving only unknown nodes should be a no-op")
	}
}

func TestApplyLayoutExpands(t *testing.T) {
	m := New()
	a := m.AddNode(chart.Payload{})
	b := m.AddNode(chart.Payload{})
	m.UpdateNode(a, Patch{Collapsed: Ptr(true)})
	m.UpdateNode(b, Patch{Collapsed: Ptr(true)})
	v := m.Version()

	m.ApplyLayout(map[chart.NodeID]geom.Point{a: geom.Pt(50, 50)})
	na, _ := m.Node(a)
	nb, _ := m.Node(b)
	if na.Collapsed || nb.Collapsed {
		t.Error("ApplyLayout should expand every node")
	}
	if nb.X != 50 || nb.Y != 50 {
		t.Errorf("node missing from layout moved to (%v,%v)", nb.X, nb.Y)
	}
	if m.Version() != v+1 {
		t.Errorf("Version() = %d, want %d", m.Version(), v+1)
	}
}

func TestSelectionExclusive(t *testing.T) {
	m := New()
	a := m.AddNode(chart.Payload{})
	b := m.AddNode(chart.Payload{}, WithAnchor(a, chart.RoleChild))

	m.SelectNodes(a, b)
	if !m.SelectEdge(a, b) {
		t.Fatal("SelectEdge() = false")
	}
	if len(m.SelectedNodes()) != 0 {
		t.Error("selecting an edge should clear node selection")
	}

	m.SelectNodes(b)
	if _, ok := m.SelectedEdge(); ok {
		t.Error("selecting a node should clear edge selection")
	}
	if !slices.Equal(m.SelectedNodes(), []chart.NodeID{b}) {
		t.Errorf("SelectedNodes() = %v", m.SelectedNodes())
	}

	if m.SelectEdge(b, a) {
		t.Error("SelectEdge() of missing edge = true")
	}
	if !m.ClearSelection() || !m.Selection().Empty() {
		t.Error("ClearSelection() failed")
	}
	if m.ClearSelection() {
		t.Error("ClearSelection() on empty selection = true")
	}
}

func TestNodesIn(t *testing.T) {
	m := New()
	a := m.AddNode(chart.Payload{}, WithPosition(geom.Pt(10, 10)))
	m.AddNode(chart.Payload{}, WithPosition(geom.Pt(400, 400)))

	got := m.NodesIn(geom.RectFromCorners(geom.Pt(0, 0), geom.Pt(300, 300)))
	if !slices.Equal(got, []chart.NodeID{a}) {
		t.Errorf("NodesIn() = %v, want [%d]", got, a)
	}
}

func TestMeasuredSize(t *testing.T) {
	m := New()
	a := m.AddNode(chart.Payload{}, WithPosition(geom.Pt(0, 0)))
	v := m.Version()

	m.SetMeasuredSize(a, geom.Sz(240, 130))
	m.SetMeasuredSize(a, geom.Sz(0, 10))
	m.SetMeasuredSize(99, geom.Sz(10, 10))

	if got := m.Size(a); got != geom.Sz(240, 130) {
		t.Errorf("Size() = %v", got)
	}
	b, _ := m.Bounds(a)
	if b.Max != geom.Pt(240, 130) {
		t.Errorf("Bounds() = %+v", b)
	}
	if m.Version() != v {
		t.Error("measured sizes must not bump the version")
	}
	if _, ok := m.Node(a); !ok {
		t.Fatal("node lost")
	}
}

func TestChartSnapshot(t *testing.T) {
	in := chart.Chart{
		ID:          "c1",
		Name:        "Org",
		Blocks:      []chart.Node{{ID: 1, X: 5}, {ID: 2, Y: 250}},
		Connections: []chart.Edge{{From: 1, To: 2}},
	}
	m := FromChart(in)
	m.MoveNodes(map[chart.NodeID]geom.Point{1: geom.Pt(100, 100)})

	out := m.Chart()
	if out.ID != "c1" || out.Name != "Org" {
		t.Errorf("metadata lost: %+v", out)
	}
	if out.Blocks[0].X != 100 || in.Blocks[0].X != 5 {
		t.Error("snapshot should reflect moves without aliasing the input")
	}
	if len(out.Connections) != 1 {
		t.Errorf("got %d connections", len(out.Connections))
	}
}

func TestUnsubscribe(t *testing.T) {
	m := New()
	calls := 0
	unsubscribe := m.Subscribe(func(Change) { calls++ })
	m.AddNode(chart.Payload{})
	unsubscribe()
	m.AddNode(chart.Payload{})
	if calls != 1 {
		t.Errorf("listener called %d times, want 1", calls)
	}
}

func TestChildrenParents(t *testing.T) {
	m := New()
	a := m.AddNode(chart.Payload{})
	b := m.AddNode(chart.Payload{}, WithAnchor(a, chart.RoleChild))
	c := m.AddNode(chart.Payload{}, WithAnchor(a, chart.RoleChild))

	if got := m.Children(a); !slices.Equal(got, []chart.NodeID{b, c}) {
		t.Errorf("Children() = %v", got)
	}
	if got := m.Parents(c); !slices.Equal(got, []chart.NodeID{a}) {
		t.Errorf("Parents() = %v", got)
	}
}
