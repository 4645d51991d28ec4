package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"

	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
	"github.com/matzehuels/organigram/pkg/graph"
	"github.com/matzehuels/organigram/pkg/viewport"
)

// Page and block drawing constants.
const (
	DefaultMargin = 50
	minPageSize   = 100
	cornerRadius  = 8
	imageSize     = 40
	handleDot     = 4
	edgeColor     = "#969696"
	borderColor   = "#c8c8c8"
	selectColor   = "#1976d2"
)

// SVGOption configures SVG rendering.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	nodeSize geom.Size
	sizes    map[chart.NodeID]geom.Size
	margin   float64
	view     *View
	images   bool
	selected map[chart.NodeID]bool
}

// View is an editor viewport to reproduce: its pan/zoom state and the
// canvas size in screen pixels.
type View struct {
	State viewport.State
	Size  geom.Size
}

// WithNodeSize sets the size of blocks that have no measured size.
func WithNodeSize(s geom.Size) SVGOption {
	return func(r *svgRenderer) {
		if s.W > 0 && s.H > 0 {
			r.nodeSize = s
		}
	}
}

// WithSizes supplies measured block sizes.
func WithSizes(sizes map[chart.NodeID]geom.Size) SVGOption {
	return func(r *svgRenderer) { r.sizes = sizes }
}

// WithMargin sets the page margin around the blocks.
func WithMargin(m float64) SVGOption {
	return func(r *svgRenderer) { r.margin = max(m, 0) }
}

// WithViewport renders the world region visible in v instead of the full
// chart extent.
func WithViewport(v View) SVGOption {
	return func(r *svgRenderer) { r.view = &v }
}

// WithoutImages omits portrait images.
func WithoutImages() SVGOption {
	return func(r *svgRenderer) { r.images = false }
}

// WithSelection outlines the given blocks.
func WithSelection(ids ...chart.NodeID) SVGOption {
	return func(r *svgRenderer) {
		r.selected = make(map[chart.NodeID]bool, len(ids))
		for _, id := range ids {
			r.selected[id] = true
		}
	}
}

// RenderSVG draws c as a standalone SVG document.
func RenderSVG(c chart.Chart, opts ...SVGOption) []byte {
	r := svgRenderer{
		nodeSize: geom.Sz(graph.DefaultWidth, graph.DefaultHeight),
		margin:   DefaultMargin,
		images:   true,
	}
	for _, opt := range opts {
		opt(&r)
	}

	rects := make(map[chart.NodeID]geom.Rect, len(c.Blocks))
	for _, n := range c.Blocks {
		rects[n.ID] = geom.RectAt(geom.Pt(n.X, n.Y), r.size(n.ID))
	}

	page, width, height := r.page(c.Blocks, rects)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%.1f %.1f %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		page.Min.X, page.Min.Y, page.Width(), page.Height(), width, height)
	fmt.Fprintf(&buf, `  <rect class="background" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#fafafa"/>`+"\n",
		page.Min.X, page.Min.Y, page.Width(), page.Height())

	for _, e := range c.Connections {
		from, okF := rects[e.From]
		to, okT := rects[e.To]
		if !okF || !okT {
			continue
		}
		renderEdge(&buf, from.BottomCenter(), to.TopCenter())
	}
	for _, n := range c.Blocks {
		r.renderBlock(&buf, n, rects[n.ID])
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r *svgRenderer) size(id chart.NodeID) geom.Size {
	if s, ok := r.sizes[id]; ok && s.W > 0 && s.H > 0 {
		return s
	}
	return r.nodeSize
}

// page returns the world rectangle to show and the output size in pixels.
func (r *svgRenderer) page(blocks []chart.Node, rects map[chart.NodeID]geom.Rect) (geom.Rect, float64, float64) {
	if r.view != nil && r.view.Size.W > 0 && r.view.Size.H > 0 {
		vp := viewport.New(viewport.WithSize(r.view.Size))
		vp.Restore(r.view.State)
		return vp.VisibleWorld(), r.view.Size.W, r.view.Size.H
	}

	if len(blocks) == 0 {
		return geom.RectAt(geom.Point{}, geom.Sz(minPageSize, minPageSize)), minPageSize, minPageSize
	}
	var ext geom.Rect
	for i, n := range blocks {
		if i == 0 {
			ext = rects[n.ID]
			continue
		}
		ext = ext.Union(rects[n.ID])
	}
	ext = ext.Inset(r.margin)
	ext.Max.X = max(ext.Max.X, ext.Min.X+minPageSize)
	ext.Max.Y = max(ext.Max.Y, ext.Min.Y+minPageSize)
	return ext, math.Ceil(ext.Width()), math.Ceil(ext.Height())
}

func renderEdge(buf *bytes.Buffer, from, to geom.Point) {
	fmt.Fprintf(buf, `  <line class="connection" x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s" stroke-width="2"/>`+"\n",
		from.X, from.Y, to.X, to.Y, edgeColor)
	for _, p := range []geom.Point{from, to} {
		fmt.Fprintf(buf, `  <circle cx="%.1f" cy="%.1f" r="%d" fill="%s"/>`+"\n", p.X, p.Y, handleDot, edgeColor)
	}
}

func (r *svgRenderer) renderBlock(buf *bytes.Buffer, n chart.Node, b geom.Rect) {
	stroke, width := borderColor, 1
	if r.selected[n.ID] {
		stroke, width = selectColor, 3
	}
	fmt.Fprintf(buf, `  <g id="block-%d">`+"\n", n.ID)
	fmt.Fprintf(buf, `    <rect class="block" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%d" ry="%d" fill="%s" stroke="%s" stroke-width="%d"/>`+"\n",
		b.Min.X, b.Min.Y, b.Width(), b.Height(), cornerRadius, cornerRadius, escape(n.Background()), stroke, width)

	y := b.Min.Y + 15
	if n.GroupName != "" {
		text(buf, b.Min.X+10, y, 10, "bold", "normal", "#646464", n.GroupName)
		y += 15
	}

	textX := b.Min.X + 15
	if n.Image != "" && r.images {
		fmt.Fprintf(buf, `    <image x="%.1f" y="%.1f" width="%d" height="%d" href="%s" preserveAspectRatio="xMidYMid slice"/>`+"\n",
			b.Min.X+10, y, imageSize, imageSize, escape(n.Image))
		textX = b.Min.X + 10 + imageSize + 10
	}

	y += 10
	name := n.Name
	if name == "" {
		name = "Unnamed"
	}
	text(buf, textX, y, 14, "bold", "normal", "#000000", name)
	if n.Title != "" {
		text(buf, textX, y+15, 12, "normal", "normal", "#000000", n.Title)
	}
	if n.Comment != "" {
		text(buf, textX, y+30, 10, "normal", "italic", "#505050", n.Comment)
	}
	buf.WriteString("  </g>\n")
}

func text(buf *bytes.Buffer, x, y float64, size int, weight, style, color, s string) {
	fmt.Fprintf(buf, `    <text x="%.1f" y="%.1f" font-family="Helvetica, Arial, sans-serif" font-size="%d" font-weight="%s" font-style="%s" fill="%s">%s</text>`+"\n",
		x, y, size, weight, style, color, escape(s))
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
