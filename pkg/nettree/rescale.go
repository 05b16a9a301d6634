package nettree

import "fmt"

// CondRescale computes, per location, the multiplicative shunt factor
// describing how much a steady leak conductance placed at that
// location is attenuated by the rest of the network. gs holds one
// conductance per location, ordered like the root's location set; the
// returned factors use the same order.
//
// The sweep visits every node exactly once, children before parent,
// driven by per-node visit counters instead of recursion: at each
// non-root node the factors of the node's locations are divided by
// 1 + z_bar * sum(sf*g) over those locations.
func (t *Tree) CondRescale(gs []float64) ([]float64, error) {
	root := t.Root()
	if root == nil {
		return nil, ErrEmptyTree
	}
	if len(gs) != len(root.LocIdxs) {
		return nil, fmt.Errorf("nettree: got %d conductances for %d locations", len(gs), len(root.LocIdxs))
	}
	locPos := make(map[int]int, len(root.LocIdxs))
	for pos, idx := range root.LocIdxs {
		locPos[idx] = pos
	}

	sfs := make([]float64, len(gs))
	for i := range sfs {
		sfs[i] = 1
	}
	for _, n := range t.nodes {
		n.visits = 0
	}

	leaves := t.Leaves()
	cur, rest := leaves[0], leaves[1:]
	for {
		cur.visits++
		if cur.visits < len(cur.Children) {
			// Another child subtree is still pending; continue from
			// the next unvisited leaf.
			cur, rest = rest[0], rest[1:]
			continue
		}
		if t.IsRoot(cur) {
			break
		}
		denom := 1.0
		var acc float64
		for _, idx := range cur.LocIdxs {
			pos := locPos[idx]
			acc += sfs[pos] * gs[pos]
		}
		denom += cur.ZBar() * acc
		for _, idx := range cur.LocIdxs {
			sfs[locPos[idx]] /= denom
		}
		cur = t.nodes[cur.Parent]
	}

	for _, n := range t.nodes {
		n.visits = 0
	}
	return sfs, nil
}
