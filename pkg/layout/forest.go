package layout

import "github.com/matzehuels/organigram/pkg/chart"

type forest struct {
	parent   map[chart.NodeID]chart.NodeID
	children map[chart.NodeID][]chart.NodeID
	roots    []chart.NodeID
	skipped  []chart.Edge
}

// buildForest keeps the first incoming connection of every block, in
// insertion order, and skips connections that are dangling, loop on one
// block or would close a cycle. Blocks left without a parent are roots, in
// block order.
func buildForest(nodes []chart.Node, edges []chart.Edge) forest {
	f := forest{
		parent:   make(map[chart.NodeID]chart.NodeID, len(nodes)),
		children: make(map[chart.NodeID][]chart.NodeID, len(nodes)),
	}
	known := make(map[chart.NodeID]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}

	for _, e := range edges {
		if !known[e.From] || !known[e.To] || e.From == e.To {
			f.skipped = append(f.skipped, e)
			continue
		}
		if _, ok := f.parent[e.To]; ok {
			f.skipped = append(f.skipped, e)
			continue
		}
		if f.isAncestor(e.To, e.From) {
			f.skipped = append(f.skipped, e)
			continue
		}
		f.parent[e.To] = e.From
		f.children[e.From] = append(f.children[e.From], e.To)
	}

	seen := make(map[chart.NodeID]bool, len(nodes))
	for _, n := range nodes {
		if seen[n.ID] {
			continue
		}
		seen[n.ID] = true
		if _, ok := f.parent[n.ID]; !ok {
			f.roots = append(f.roots, n.ID)
		}
	}
	return f
}

// isAncestor reports whether a is b or one of b's ancestors in the forest
// built so far.
func (f *forest) isAncestor(a, b chart.NodeID) bool {
	for cur := b; ; {
		if cur == a {
			return true
		}
		p, ok := f.parent[cur]
		if !ok {
			return false
		}
		cur = p
	}
}
