// Package layout computes tidy top-down tree positions for an organigram.
//
// [Compute] is a pure function of blocks, connections and [Options]: it never
// reads prior positions and always returns the same result for the same
// input. It works in two passes over a spanning forest derived from the
// connections:
//
//  1. Bottom-up: each block's subtree width is the larger of the nominal
//     block width and the summed widths of its children plus the gaps
//     between them.
//  2. Top-down: roots are laid out left to right from the left margin,
//     separated by RootGapFactor gaps; every block is centered over the
//     span of its children, one VerticalSpacing further down per level.
//
// # Multiple Parents and Cycles
//
// Connections may form any directed graph. The layout keeps, for each block,
// only the first incoming connection in insertion order, and drops any
// connection that would close a cycle in the forest being built. Dropped
// connections are listed in [Result.Skipped]; they stay in the chart and are
// still drawn, they just do not influence placement.
//
// Rendered block sizes are ignored: every block counts as NodeWidth wide so
// that the result does not depend on what the renderer last measured.
package layout
