package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
)

func TestCanvasLine(t *testing.T) {
	tests := []struct {
		name           string
		c0, r0, c1, r1 int
		want           string
	}{
		{"horizontal", 0, 1, 4, 1, "     \n*****\n     "},
		{"vertical", 2, 0, 2, 2, "  *  \n  *  \n  *  "},
		{"diagonal", 0, 0, 2, 2, "*    \n *   \n  *  "},
		{"reversed", 4, 2, 0, 2, "     \n     \n*****"},
		{"clipped", -3, 1, 1, 1, "     \n**   \n     "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := newCanvas(5, 3)
			cv.line(tt.c0, tt.r0, tt.c1, tt.r1, '*', classEdge)
			if got := cv.Plain(); got != tt.want {
				t.Errorf("got\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestCanvasBox(t *testing.T) {
	cv := newCanvas(6, 4)
	cv.line(0, 1, 5, 1, '*', classEdge)
	cv.box(1, 0, 4, 2, frameNormal, classBorder)

	want := " ╭──╮ \n*│  │*\n ╰──╯ \n      "
	if got := cv.Plain(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
	if c := cv.at(2, 1); c.class != classBorder {
		t.Errorf("interior class = %v, want border", c.class)
	}
}

func TestCanvasText(t *testing.T) {
	cv := newCanvas(8, 1)
	cv.text(1, 0, 5, "Engineering", className)
	if got := cv.Plain(); got != " Engi…  " {
		t.Errorf("got %q", got)
	}

	cv = newCanvas(4, 1)
	cv.text(0, 0, 4, "Bob", className)
	if got := cv.Plain(); got != "Bob " {
		t.Errorf("got %q", got)
	}
}

func TestCellMapping(t *testing.T) {
	for _, tt := range []struct{ col, row int }{{0, 0}, {3, 7}, {79, 23}} {
		col, row := toCell(cellCenter(tt.col, tt.row))
		if col != tt.col || row != tt.row {
			t.Errorf("toCell(cellCenter(%d,%d)) = %d,%d", tt.col, tt.row, col, row)
		}
	}
	if col, row := toCell(geom.Pt(-1, -1)); col != -1 || row != -1 {
		t.Errorf("negative point mapped to %d,%d", col, row)
	}
}

func TestDrawBlock(t *testing.T) {
	n := chart.Node{ID: 1, Payload: chart.Payload{GroupName: "Ops", Name: "Alice", Title: "CEO"}}
	cv := newCanvas(12, 6)
	drawBlock(cv, n, geom.Pt(0, 0), geom.Pt(12*cellWidth, 5*cellHeight), false)

	lines := strings.Split(cv.Plain(), "\n")
	want := []string{
		"╭────◦─────╮",
		"│   Ops    │",
		"│  Alice   │",
		"│   CEO    │",
		"╰────◦─────╯",
		"            ",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestDrawBlockSelectedAndTiny(t *testing.T) {
	n := chart.Node{ID: 1}
	cv := newCanvas(6, 3)
	drawBlock(cv, n, geom.Pt(0, 0), geom.Pt(6*cellWidth, 3*cellHeight), true)
	if got := cv.at(0, 0).r; got != '┏' {
		t.Errorf("selected corner = %q", got)
	}
	if !strings.Contains(cv.Plain(), "Unn…") {
		t.Errorf("unnamed block not labelled:\n%s", cv.Plain())
	}

	cv = newCanvas(3, 1)
	drawBlock(cv, n, geom.Pt(0, 0), geom.Pt(cellWidth, cellHeight), false)
	if got := cv.at(0, 0).r; got != '■' {
		t.Errorf("tiny block = %q, want ■", got)
	}
}
