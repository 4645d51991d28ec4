package chart

import (
	stderrors "errors"
	"testing"

	"github.com/matzehuels/organigram/pkg/errors"
)

func validChart() Chart {
	return Chart{
		ID:   "c1",
		Name: "Org",
		Blocks: []Node{
			{ID: 1, Payload: Payload{Name: "A", Color: "#fff3e0"}},
			{ID: 2, Payload: Payload{Name: "B"}},
			{ID: 3, Payload: Payload{Name: "C"}},
		},
		Connections: []Edge{
			{From: 1, To: 2, FromSide: SideBottom, ToSide: SideTop},
			{From: 1, To: 3},
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Chart)
		wantErr error
	}{
		{name: "valid", mutate: func(c *Chart) {}},
		{name: "duplicate node", mutate: func(c *Chart) { c.Blocks[2].ID = 1 }, wantErr: ErrDuplicateNode},
		{name: "unknown node", mutate: func(c *Chart) { c.Connections[0].To = 99 }, wantErr: ErrUnknownNode},
		{name: "self loop", mutate: func(c *Chart) { c.Connections[0].To = 1 }, wantErr: ErrSelfLoop},
		{name: "duplicate edge", mutate: func(c *Chart) { c.Connections[1].To = 2 }, wantErr: ErrDuplicateEdge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validChart()
			tt.mutate(&c)
			err := Validate(&c)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if !stderrors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, errors.ErrCodeInvalidChart) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidChart)
			}
		})
	}
}

func TestValidateFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Chart)
	}{
		{name: "bad color", mutate: func(c *Chart) { c.Blocks[0].Color = "blue" }},
		{name: "bad side", mutate: func(c *Chart) { c.Connections[0].FromSide = "left" }},
		{name: "missing id", mutate: func(c *Chart) { c.ID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validChart()
			tt.mutate(&c)
			if err := Validate(&c); !errors.Is(err, errors.ErrCodeInvalidChart) {
				t.Errorf("Validate() error = %v, want INVALID_CHART", err)
			}
		})
	}
}

func TestRepair(t *testing.T) {
	c := validChart()
	c.Blocks = append(c.Blocks, Node{ID: 2, Payload: Payload{Name: "B2", Color: "nope"}})
	c.Connections = append(c.Connections,
		Edge{From: 1, To: 2},
		Edge{From: 3, To: 3},
		Edge{From: 3, To: 42},
		Edge{From: 2, To: 3, FromSide: "left"},
	)

	rep := Repair(&c)
	if !rep.Changed() {
		t.Fatal("Repair() reported no changes")
	}
	if got := rep.Renumbered[2]; got != 4 {
		t.Errorf("duplicate block 2 renumbered to %d, want 4", got)
	}
	if len(rep.DroppedEdges) != 3 {
		t.Errorf("dropped %d edges, want 3: %+v", len(rep.DroppedEdges), rep.DroppedEdges)
	}
	if len(rep.ClearedColor) != 1 || rep.ClearedColor[0] != 4 {
		t.Errorf("ClearedColor = %v, want [4]", rep.ClearedColor)
	}
	if rep.FixedSides != 1 {
		t.Errorf("FixedSides = %d, want 1", rep.FixedSides)
	}
	if err := Validate(&c); err != nil {
		t.Errorf("repaired chart still invalid: %v", err)
	}
}

func TestRepairCleanChart(t *testing.T) {
	c := validChart()
	if rep := Repair(&c); rep.Changed() {
		t.Errorf("Repair() changed a valid chart: %+v", rep)
	}
}
