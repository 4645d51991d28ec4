package minimap

import (
	"bytes"
	"image/png"
	"math"
	"testing"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/viewport"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestProjectBounds(t *testing.T) {
	nodes := []chart.Node{{ID: 1, X: 0, Y: 0}, {ID: 2, X: 500, Y: 200}}
	p := Project(nodes, geom.Rect{}, DefaultOptions())

	// Block extent (0,0)-(700,300) padded by 20.
	want := geom.RectFromCorners(geom.Pt(-20, -20), geom.Pt(720, 320))
	if p.Bounds != want {
		t.Errorf("Bounds = %+v, want %+v", p.Bounds, want)
	}
	if !approx(p.Scale, 150.0/740) {
		t.Errorf("Scale = %v, want %v", p.Scale, 150.0/740)
	}
	if got := p.Nodes[0].Rect.Min; !approx(got.X, 20*p.Scale) || !approx(got.Y, 20*p.Scale) {
		t.Errorf("first node at %v", got)
	}
	if !approx(p.Nodes[1].Rect.Width(), 200*p.Scale) {
		t.Errorf("node width = %v, want nominal width scaled", p.Nodes[1].Rect.Width())
	}
	if p.Nodes[0].Color != chart.DefaultColor {
		t.Errorf("Color = %q, want default", p.Nodes[0].Color)
	}
}

func TestProjectEmpty(t *testing.T) {
	p := Project(nil, geom.Rect{}, Options{})
	if p.Bounds != emptyBounds {
		t.Errorf("Bounds = %+v, want %+v", p.Bounds, emptyBounds)
	}
	if !approx(p.Scale, 0.15) || p.Size != 150 {
		t.Errorf("Scale = %v Size = %v", p.Scale, p.Size)
	}
}

func TestProjectViewport(t *testing.T) {
	vp := viewport.New(viewport.WithSize(geom.Sz(800, 600)))
	vp.SetZoom(2)
	vp.SetOffset(geom.Pt(-200, -100))

	nodes := []chart.Node{{ID: 1, X: 20, Y: 20}}
	p := Project(nodes, vp.VisibleWorld(), DefaultOptions())

	// Visible world is (100,50) with size 400x300.
	tl := p.ToWorld(p.Viewport.Min)
	br := p.ToWorld(p.Viewport.Max)
	if !approx(tl.X, 100) || !approx(tl.Y, 50) || !approx(br.X, 500) || !approx(br.Y, 350) {
		t.Errorf("viewport maps back to %v-%v", tl, br)
	}
}

func TestRoundTrip(t *testing.T) {
	p := Project([]chart.Node{{X: -300, Y: 40}, {X: 900, Y: 700}}, geom.Rect{}, DefaultOptions())
	for _, w := range []geom.Point{geom.Pt(0, 0), geom.Pt(-320, 20), geom.Pt(455.5, 123.25)} {
		back := p.ToWorld(p.ToMinimap(w))
		if !approx(back.X, w.X) || !approx(back.Y, w.Y) {
			t.Errorf("round trip of %v gave %v", w, back)
		}
	}
}

func TestNavigator(t *testing.T) {
	vp := viewport.New(viewport.WithSize(geom.Sz(800, 600)))
	vp.SetZoom(0.5)
	p := Project(nil, vp.VisibleWorld(), DefaultOptions())
	nav := NewNavigator(vp)

	nav.Move(p, geom.Pt(10, 10))
	if vp.Offset() != (geom.Point{}) {
		t.Error("Move() without a press changed the viewport")
	}

	// Overview (75,45) is world (500,300) at scale 0.15.
	nav.Down(p, geom.Pt(75, 45))
	if !nav.Dragging() {
		t.Error("Dragging() = false after Down")
	}
	want := geom.Pt(400-500*0.5, 300-300*0.5)
	if got := vp.Offset(); !approx(got.X, want.X) || !approx(got.Y, want.Y) {
		t.Errorf("Offset() = %v, want %v", got, want)
	}
	if c := vp.VisibleWorld().Center(); !approx(c.X, 500) || !approx(c.Y, 300) {
		t.Errorf("visible center = %v, want (500,300)", c)
	}

	nav.Move(p, geom.Pt(0, 0))
	if c := vp.VisibleWorld().Center(); !approx(c.X, 0) || !approx(c.Y, 0) {
		t.Errorf("visible center after drag = %v, want (0,0)", c)
	}
	nav.Up()
	nav.Move(p, geom.Pt(75, 45))
	if c := vp.VisibleWorld().Center(); !approx(c.X, 0) {
		t.Error("Move() after Up changed the viewport")
	}
}

func TestRenderPNG(t *testing.T) {
	nodes := []chart.Node{
		{ID: 1, Payload: chart.Payload{Color: "#e3f2fd"}},
		{ID: 2, X: 300, Y: 200},
	}
	p := Project(nodes, geom.RectFromCorners(geom.Pt(0, 0), geom.Pt(400, 300)), DefaultOptions())

	var buf bytes.Buffer
	if err := RenderPNG(&buf, p, "100%"); err != nil {
		t.Fatalf("RenderPNG() error: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 150 || b.Dy() != 150 {
		t.Errorf("image size = %dx%d, want 150x150", b.Dx(), b.Dy())
	}
}
