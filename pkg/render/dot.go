package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/organigram/pkg/chart"
)

// DOTOptions configures Graphviz output.
type DOTOptions struct {
	// Detailed adds title and group lines to each label. When false only
	// the person name is shown.
	Detailed bool
}

// ToDOT converts a chart to Graphviz DOT format. Blocks keep their palette
// colour; connections point from parent to child.
func ToDOT(c chart.Chart, opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"" + edgeColor + "\", arrowhead=none, penwidth=2];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	known := make(map[chart.NodeID]bool, len(c.Blocks))
	for _, n := range c.Blocks {
		known[n.ID] = true
		fmt.Fprintf(&buf, "  %q [label=%q, fillcolor=%q];\n", n.ID.String(), dotLabel(n, opts.Detailed), n.Background())
	}

	buf.WriteString("\n")
	for _, e := range c.Connections {
		if !known[e.From] || !known[e.To] {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From.String(), e.To.String())
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotLabel(n chart.Node, detailed bool) string {
	name := n.Name
	if name == "" {
		name = "Unnamed"
	}
	if !detailed {
		return name
	}
	lines := make([]string, 0, 3)
	if n.GroupName != "" {
		lines = append(lines, n.GroupName)
	}
	lines = append(lines, name)
	if n.Title != "" {
		lines = append(lines, n.Title)
	}
	return strings.Join(lines, "\n")
}

// RenderDOT lays out a DOT graph with Graphviz and returns SVG, ready for
// display or further conversion with ToPDF or ToPNG.
func RenderDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized root element with a
// pixel-sized one anchored at the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}
