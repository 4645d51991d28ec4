package layout

import (
	"github.com/matzehuels/organigram/pkg/chart"
	"github.com/matzehuels/organigram/pkg/geom"
)

// Options controls spacing. Zero fields take the defaults.
type Options struct {
	NodeWidth       float64 // nominal block width
	HorizontalGap   float64 // minimum gap between sibling subtrees
	VerticalSpacing float64 // distance between levels
	LeftMargin      float64
	TopMargin       float64
	RootGapFactor   float64 // gap between root subtrees, in HorizontalGaps
}

// DefaultOptions returns the standard spacing.
func DefaultOptions() Options {
	return Options{
		NodeWidth:       200,
		HorizontalGap:   80,
		VerticalSpacing: 200,
		LeftMargin:      50,
		TopMargin:       50,
		RootGapFactor:   3,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.NodeWidth <= 0 {
		o.NodeWidth = d.NodeWidth
	}
	if o.HorizontalGap <= 0 {
		o.HorizontalGap = d.HorizontalGap
	}
	if o.VerticalSpacing <= 0 {
		o.VerticalSpacing = d.VerticalSpacing
	}
	if o.LeftMargin == 0 {
		o.LeftMargin = d.LeftMargin
	}
	if o.TopMargin == 0 {
		o.TopMargin = d.TopMargin
	}
	if o.RootGapFactor <= 0 {
		o.RootGapFactor = d.RootGapFactor
	}
	return o
}

// Result is the output of Compute.
type Result struct {
	Positions map[chart.NodeID]geom.Point     // top-left corner per block
	Widths    map[chart.NodeID]float64        // subtree width per block
	Levels    map[chart.NodeID]int            // depth below its root
	Children  map[chart.NodeID][]chart.NodeID // forest used for placement
	Roots     []chart.NodeID
	Skipped   []chart.Edge // connections not used for placement
}

// Extent returns the horizontal span [left, right) occupied by id's subtree.
func (r Result) Extent(id chart.NodeID, opts Options) (left, right float64) {
	opts = opts.withDefaults()
	p, ok := r.Positions[id]
	if !ok {
		return 0, 0
	}
	center := p.X + opts.NodeWidth/2
	w := r.Widths[id]
	return center - w/2, center + w/2
}

// Compute lays out blocks as a forest of top-down trees.
func Compute(nodes []chart.Node, edges []chart.Edge, opts Options) Result {
	opts = opts.withDefaults()
	f := buildForest(nodes, edges)

	res := Result{
		Positions: make(map[chart.NodeID]geom.Point, len(nodes)),
		Widths:    make(map[chart.NodeID]float64, len(nodes)),
		Levels:    make(map[chart.NodeID]int, len(nodes)),
		Children:  f.children,
		Roots:     f.roots,
		Skipped:   f.skipped,
	}
	if len(nodes) == 0 {
		return res
	}

	for _, root := range f.roots {
		subtreeWidth(root, f.children, res.Widths, opts)
	}

	left := opts.LeftMargin
	for _, root := range f.roots {
		place(root, left, 0, f.children, &res, opts)
		left += res.Widths[root] + opts.RootGapFactor*opts.HorizontalGap
	}
	return res
}

// subtreeWidth fills widths bottom-up. The forest is acyclic, so every block
// is visited once.
func subtreeWidth(id chart.NodeID, children map[chart.NodeID][]chart.NodeID, widths map[chart.NodeID]float64, opts Options) float64 {
	if w, ok := widths[id]; ok {
		return w
	}
	kids := children[id]
	var sum float64
	for _, c := range kids {
		sum += subtreeWidth(c, children, widths, opts)
	}
	if len(kids) > 1 {
		sum += opts.HorizontalGap * float64(len(kids)-1)
	}
	w := max(opts.NodeWidth, sum)
	widths[id] = w
	return w
}

func place(id chart.NodeID, left float64, level int, children map[chart.NodeID][]chart.NodeID, res *Result, opts Options) {
	w := res.Widths[id]
	res.Positions[id] = geom.Pt(
		left+w/2-opts.NodeWidth/2,
		opts.TopMargin+float64(level)*opts.VerticalSpacing,
	)
	res.Levels[id] = level

	kids := children[id]
	if len(kids) == 0 {
		return
	}
	span := opts.HorizontalGap * float64(len(kids)-1)
	for _, c := range kids {
		span += res.Widths[c]
	}
	x := left + (w-span)/2
	for _, c := range kids {
		place(c, x, level+1, children, res, opts)
		x += res.Widths[c] + opts.HorizontalGap
	}
}
