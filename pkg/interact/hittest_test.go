package interact

import (
	"testing"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/graph"
)

func TestHitTest(t *testing.T) {
	m := graph.New()
	a := m.AddNode(chart.Payload{}, graph.WithPosition(geom.Pt(0, 0)))
	b := m.AddNode(chart.Payload{}, graph.WithPosition(geom.Pt(0, 300)))
	c := m.AddNode(chart.Payload{}, graph.WithPosition(geom.Pt(150, 50)))
	m.AddEdge(a, b, chart.SideBottom, chart.SideTop)

	tests := []struct {
		name string
		p    geom.Point
		want Target
	}{
		{name: "empty canvas", p: geom.Pt(600, 600), want: Canvas},
		{name: "body", p: geom.Pt(20, 20), want: Target{Kind: TargetNode, Node: a}},
		{name: "top handle", p: geom.Pt(102, 298), want: Target{Kind: TargetHandle, Node: b, Side: chart.SideTop}},
		{name: "bottom handle outside body", p: geom.Pt(100, 104), want: Target{Kind: TargetHandle, Node: a, Side: chart.SideBottom}},
		{name: "topmost block wins", p: geom.Pt(170, 60), want: Target{Kind: TargetNode, Node: c}},
		{name: "edge line", p: geom.Pt(103, 200), want: Target{Kind: TargetEdge, Edge: graph.EdgeKey{Parent: a, Child: b}}},
		{name: "near but off edge", p: geom.Pt(120, 200), want: Canvas},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HitTest(m, tt.p, DefaultHandleRadius); got != tt.want {
				t.Errorf("HitTest(%v) = %+v, want %+v", tt.p, got, tt.want)
			}
		})
	}
}
