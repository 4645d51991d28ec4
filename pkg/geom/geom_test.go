package geom

import "testing"

func TestRectWidth(t *testing.T) {
	tests := []struct {
		name string
		rect Rect
		want float64
	}{
		{name: "positive width", rect: Rect{Min: Pt(10, 0), Max: Pt(50, 0)}, want: 40},
		{name: "zero width", rect: Rect{Min: Pt(10, 0), Max: Pt(10, 0)}, want: 0},
		{name: "from origin", rect: RectAt(Pt(0, 0), Sz(100, 10)), want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rect.Width(); got != tt.want {
				t.Errorf("Width() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectFromCorners(t *testing.T) {
	r := RectFromCorners(Pt(300, 20), Pt(10, 200))
	if r.Min != Pt(10, 20) || r.Max != Pt(300, 200) {
		t.Errorf("RectFromCorners = %+v, want min (10,20) max (300,200)", r)
	}
}

func TestRectIntersects(t *testing.T) {
	box := RectFromCorners(Pt(0, 0), Pt(300, 300))

	tests := []struct {
		name  string
		other Rect
		want  bool
	}{
		{name: "overlapping", other: RectAt(Pt(10, 10), Sz(200, 100)), want: true},
		{name: "outside", other: RectAt(Pt(400, 400), Sz(200, 100)), want: false},
		{name: "touching edge", other: RectAt(Pt(300, 0), Sz(200, 100)), want: false},
		{name: "containing", other: RectAt(Pt(-10, -10), Sz(1000, 1000)), want: true},
		{name: "zero area inside", other: RectAt(Pt(50, 50), Sz(0, 0)), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := box.Intersects(tt.other); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRectCenters(t *testing.T) {
	r := RectAt(Pt(0, 0), Sz(200, 100))
	if got := r.Center(); got != Pt(100, 50) {
		t.Errorf("Center() = %v, want (100,50)", got)
	}
	if got := r.TopCenter(); got != Pt(100, 0) {
		t.Errorf("TopCenter() = %v, want (100,0)", got)
	}
	if got := r.BottomCenter(); got != Pt(100, 100) {
		t.Errorf("BottomCenter() = %v, want (100,100)", got)
	}
}

func TestSnap(t *testing.T) {
	tests := []struct {
		v, grid, want float64
	}{
		{v: 29, grid: 20, want: 20},
		{v: 31, grid: 20, want: 40},
		{v: -11, grid: 20, want: -20},
		{v: 17.5, grid: 0, want: 17.5},
	}
	for _, tt := range tests {
		if got := Snap(tt.v, tt.grid); got != tt.want {
			t.Errorf("Snap(%v, %v) = %v, want %v", tt.v, tt.grid, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if got := Clamp(3.5, 0.1, 3); got != 3 {
		t.Errorf("Clamp high = %v, want 3", got)
	}
	if got := Clamp(0.05, 0.1, 3); got != 0.1 {
		t.Errorf("Clamp low = %v, want 0.1", got)
	}
}
