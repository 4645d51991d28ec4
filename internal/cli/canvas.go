package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/graph"
	"github.com/matzehuels/organigram/pkg/minimap"
	"github.com/matzehuels/organigram/pkg/session"
)

// A terminal cell stands for this many screen pixels of the canvas.
const (
	cellWidth  = 8.0
	cellHeight = 16.0
)

// cellClass selects the style of a canvas cell.
type cellClass uint8

const (
	classBlank cellClass = iota
	classEdge
	classEdgeSelected
	classBorder
	classBorderSelected
	classGroup
	className
	classTitle
	classHandle
	classOverlay
	classMinimap
	classMinimapNode
	classMinimapView
)

var classStyles = map[cellClass]lipgloss.Style{
	classEdge:           lipgloss.NewStyle().Foreground(colorGray),
	classEdgeSelected:   lipgloss.NewStyle().Foreground(colorBlue).Bold(true),
	classBorder:         lipgloss.NewStyle().Foreground(colorWhite),
	classBorderSelected: lipgloss.NewStyle().Foreground(colorBlue).Bold(true),
	classGroup:          lipgloss.NewStyle().Foreground(colorGray),
	className:           lipgloss.NewStyle().Foreground(colorWhite).Bold(true),
	classTitle:          lipgloss.NewStyle().Foreground(colorCyan),
	classHandle:         lipgloss.NewStyle().Foreground(colorCyan),
	classOverlay:        lipgloss.NewStyle().Foreground(colorYellow),
	classMinimap:        lipgloss.NewStyle().Foreground(colorDim),
	classMinimapNode:    lipgloss.NewStyle().Foreground(colorGray),
	classMinimapView:    lipgloss.NewStyle().Foreground(colorYellow),
}

type cell struct {
	r     rune
	class cellClass
}

// canvas is a character grid the chart is drawn onto.
type canvas struct {
	cols, rows int
	cells      []cell
}

func newCanvas(cols, rows int) *canvas {
	cols, rows = max(cols, 0), max(rows, 0)
	cv := &canvas{cols: cols, rows: rows, cells: make([]cell, cols*rows)}
	for i := range cv.cells {
		cv.cells[i] = cell{r: ' '}
	}
	return cv
}

func (cv *canvas) set(col, row int, r rune, class cellClass) {
	if col < 0 || row < 0 || col >= cv.cols || row >= cv.rows {
		return
	}
	cv.cells[row*cv.cols+col] = cell{r: r, class: class}
}

func (cv *canvas) at(col, row int) cell {
	if col < 0 || row < 0 || col >= cv.cols || row >= cv.rows {
		return cell{r: ' '}
	}
	return cv.cells[row*cv.cols+col]
}

// text writes s from col, clipped to width cells.
func (cv *canvas) text(col, row, width int, s string, class cellClass) {
	s = runewidth.Truncate(s, width, "…")
	for _, r := range s {
		if runewidth.RuneWidth(r) != 1 {
			r = '?'
		}
		cv.set(col, row, r, class)
		col++
	}
}

// line draws a straight segment between two cells.
func (cv *canvas) line(c0, r0, c1, r1 int, ch rune, class cellClass) {
	dc, dr := abs(c1-c0), -abs(r1-r0)
	sc, sr := sign(c1-c0), sign(r1-r0)
	e := dc + dr
	for {
		cv.set(c0, r0, ch, class)
		if c0 == c1 && r0 == r1 {
			return
		}
		e2 := 2 * e
		if e2 >= dr {
			e += dr
			c0 += sc
		}
		if e2 <= dc {
			e += dc
			r0 += sr
		}
	}
}

// box draws a frame and clears its interior.
func (cv *canvas) box(c0, r0, c1, r1 int, frame [6]rune, class cellClass) {
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			r := ' '
			switch {
			case row == r0 && col == c0:
				r = frame[0]
			case row == r0 && col == c1:
				r = frame[1]
			case row == r1 && col == c0:
				r = frame[2]
			case row == r1 && col == c1:
				r = frame[3]
			case row == r0 || row == r1:
				r = frame[4]
			case col == c0 || col == c1:
				r = frame[5]
			}
			cv.set(col, row, r, class)
		}
	}
}

// outline draws a frame without touching the interior.
func (cv *canvas) outline(c0, r0, c1, r1 int, horiz, vert rune, class cellClass) {
	for col := c0; col <= c1; col++ {
		cv.set(col, r0, horiz, class)
		cv.set(col, r1, horiz, class)
	}
	for row := r0; row <= r1; row++ {
		cv.set(c0, row, vert, class)
		cv.set(c1, row, vert, class)
	}
}

// String renders the grid with styles, one line per row.
func (cv *canvas) String() string {
	var b strings.Builder
	for row := 0; row < cv.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		var run strings.Builder
		class := classBlank
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if st, ok := classStyles[class]; ok {
				b.WriteString(st.Render(run.String()))
			} else {
				b.WriteString(run.String())
			}
			run.Reset()
		}
		for col := 0; col < cv.cols; col++ {
			c := cv.cells[row*cv.cols+col]
			if c.class != class {
				flush()
				class = c.class
			}
			run.WriteRune(c.r)
		}
		flush()
	}
	return b.String()
}

// Plain returns the grid without styling.
func (cv *canvas) Plain() string {
	var b strings.Builder
	for row := 0; row < cv.rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < cv.cols; col++ {
			b.WriteRune(cv.cells[row*cv.cols+col].r)
		}
	}
	return b.String()
}

var (
	frameNormal   = [6]rune{'╭', '╮', '╰', '╯', '─', '│'}
	frameSelected = [6]rune{'┏', '┓', '┗', '┛', '━', '┃'}
)

// toCell maps a screen point to the terminal cell containing it.
func toCell(p geom.Point) (col, row int) {
	return int(math.Floor(p.X / cellWidth)), int(math.Floor(p.Y / cellHeight))
}

// cellCenter maps a terminal cell to the screen point at its centre.
func cellCenter(col, row int) geom.Point {
	return geom.Pt((float64(col)+0.5)*cellWidth, (float64(row)+0.5)*cellHeight)
}

// drawSession paints the chart, the gesture overlay and optionally the
// minimap of s.
func drawSession(cv *canvas, s *session.Session, withMinimap bool) {
	m, vp := s.Model, s.Viewport
	sel, hasSel := m.SelectedEdge()

	for _, e := range m.Edges() {
		from, okF := m.Bounds(e.From)
		to, okT := m.Bounds(e.To)
		if !okF || !okT {
			continue
		}
		class := classEdge
		if hasSel && sel == graph.Key(e) {
			class = classEdgeSelected
		}
		c0, r0 := toCell(vp.WorldToScreen(from.BottomCenter()))
		c1, r1 := toCell(vp.WorldToScreen(to.TopCenter()))
		cv.line(c0, r0, c1, r1, '·', class)
	}

	for _, id := range m.NodeIDs() {
		n, _ := m.Node(id)
		b, _ := m.Bounds(id)
		drawBlock(cv, n, vp.WorldToScreen(b.Min), vp.WorldToScreen(b.Max), m.IsSelected(id))
	}

	drawOverlay(cv, s)
	if withMinimap {
		drawMinimap(cv, s.Minimap())
	}
}

func drawBlock(cv *canvas, n chart.Node, lo, hi geom.Point, selected bool) {
	c0, r0 := toCell(lo)
	c1, r1 := toCell(hi.Sub(geom.Pt(0.01, 0.01)))
	if c1-c0 < 2 || r1-r0 < 1 {
		cv.set(c0, r0, '■', classBorder)
		return
	}

	frame, border := frameNormal, classBorder
	if selected {
		frame, border = frameSelected, classBorderSelected
	}
	cv.box(c0, r0, c1, r1, frame, border)

	mid := (c0 + c1) / 2
	cv.set(mid, r0, '◦', classHandle)
	cv.set(mid, r1, '◦', classHandle)

	name := n.Name
	if name == "" {
		name = "Unnamed"
	}
	lines := []struct {
		s     string
		class cellClass
	}{
		{n.GroupName, classGroup},
		{name, className},
		{n.Title, classTitle},
	}
	width := c1 - c0 - 1
	row := r0 + 1
	for _, l := range lines {
		if row >= r1 {
			break
		}
		if l.s == "" {
			continue
		}
		w := min(runewidth.StringWidth(l.s), width)
		cv.text(c0+1+(width-w)/2, row, width, l.s, l.class)
		row++
	}
}

func drawOverlay(cv *canvas, s *session.Session) {
	ov := s.Interaction.Overlay()
	vp := s.Viewport
	if ov.Box != nil {
		c0, r0 := toCell(vp.WorldToScreen(ov.Box.Min))
		c1, r1 := toCell(vp.WorldToScreen(ov.Box.Max))
		cv.outline(c0, r0, c1, r1, '┄', '┆', classOverlay)
	}
	if ov.Line != nil {
		c0, r0 := toCell(vp.WorldToScreen(ov.Line[0]))
		c1, r1 := toCell(vp.WorldToScreen(ov.Line[1]))
		cv.line(c0, r0, c1, r1, '∙', classOverlay)
	}
}

// Minimap geometry in cells. Cells are twice as tall as wide, so the
// square overview is twice as many columns as rows.
const (
	minimapRows = 9
	minimapCols = 2 * minimapRows
)

// minimapOrigin is the top-left cell of the minimap frame.
func minimapOrigin(cv *canvas) (col, row int) {
	return cv.cols - minimapCols - 3, 1
}

// minimapPoint maps a cell inside the minimap frame to overview pixels.
func minimapPoint(cv *canvas, p minimap.Projection, col, row int) (geom.Point, bool) {
	oc, or := minimapOrigin(cv)
	c, r := col-oc-1, row-or-1
	if c < 0 || r < 0 || c >= minimapCols || r >= minimapRows {
		return geom.Point{}, false
	}
	return geom.Pt(
		(float64(c)+0.5)*p.Size/minimapCols,
		(float64(r)+0.5)*p.Size/minimapRows,
	), true
}

func drawMinimap(cv *canvas, p minimap.Projection) {
	oc, or := minimapOrigin(cv)
	if oc < 0 || or+minimapRows+1 >= cv.rows {
		return
	}
	cv.box(oc, or, oc+minimapCols+1, or+minimapRows+1, frameNormal, classMinimap)

	toCellMM := func(pt geom.Point) (int, int) {
		c := int(math.Floor(pt.X / p.Size * minimapCols))
		r := int(math.Floor(pt.Y / p.Size * minimapRows))
		return oc + 1 + clampInt(c, 0, minimapCols-1), or + 1 + clampInt(r, 0, minimapRows-1)
	}
	for _, n := range p.Nodes {
		c0, r0 := toCellMM(n.Rect.Min)
		c1, r1 := toCellMM(n.Rect.Max)
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				cv.set(col, row, '▪', classMinimapNode)
			}
		}
	}
	c0, r0 := toCellMM(p.Viewport.Min)
	c1, r1 := toCellMM(p.Viewport.Max)
	cv.outline(c0, r0, c1, r1, '·', '·', classMinimapView)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	}
	return 0
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
