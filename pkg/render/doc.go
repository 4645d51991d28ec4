// Package render exports organigram charts as static documents.
//
// # Overview
//
// [RenderSVG] draws a chart the way the canvas shows it: connections run
// from the parent's bottom centre to the child's top centre, and each block
// is a rounded rectangle in its palette colour with the group name, person
// name, title, comment and portrait image. Page bounds are the union of all
// blocks plus a margin. [WithViewport] instead reproduces exactly the
// region currently visible in an editor, using the same offset and zoom.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG using the external rsvg-convert tool
// (from librsvg):
//
//	svg := render.RenderSVG(c)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// # Graphviz
//
// [ToDOT] converts a chart to Graphviz DOT, and [RenderDOT] lays it out
// with Graphviz. This is an alternative automatic layout to compare against
// the tree layout of the editor.
//
// # Exporter
//
// [Exporter] renders any [Format] and keeps the result in a [cache.Cache]
// keyed by chart content and options.
package render
