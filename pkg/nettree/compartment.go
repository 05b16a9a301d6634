package nettree

import "math"

// Compartmentalization partitions the tree's locations into
// electrically distinguishable compartments: any two locations in
// different compartments are separated by a segregation index of at
// least iz. Each returned sublist holds the indices of the nodes
// closest to the root associated with one compartment.
//
// The tree itself is left untouched: pruning runs on a deep copy, and
// the bookkeeping written by the marking pass is cleared before
// returning.
func (t *Tree) Compartmentalization(iz float64) ([][]int, error) {
	if t.Root() == nil {
		return nil, ErrEmptyTree
	}
	t.computeTentativeCompartments(iz)
	defer t.clearCompartmentScratch()

	cp := t.DeepCopy()
	cp.removeNonCompartments(cp.Leaves())

	var comps [][]int
	for _, n := range cp.compartmentLeafNodes() {
		comps = append(comps, append([]int(nil), n.compTentative[n.compRootPos]...))
	}
	return comps, nil
}

// CompartmentNodes is Compartmentalization with each node index
// resolved to the node object of this tree.
func (t *Tree) CompartmentNodes(iz float64) ([][]*Node, error) {
	comps, err := t.Compartmentalization(iz)
	if err != nil {
		return nil, err
	}
	out := make([][]*Node, len(comps))
	for i, comp := range comps {
		nodes := make([]*Node, len(comp))
		for j, idx := range comp {
			nodes[j] = t.Get(idx)
		}
		out[i] = nodes
	}
	return out, nil
}

// PruneNonCompartments runs the compartment pruning on the tree
// itself instead of a copy, removing every subtree that does not
// qualify as a distinct compartment at threshold iz. This mutates the
// caller's tree; the advisory warning makes the in-place modification
// explicit.
func (t *Tree) PruneNonCompartments(iz float64) {
	if t.Root() == nil {
		return
	}
	t.logger().Warn("pruning non-compartments in place, modifying original tree", "iz", iz)
	t.computeTentativeCompartments(iz)
	t.removeNonCompartments(t.Leaves())
	t.clearCompartmentScratch()
	t.SetNewLocIdxs()
}

// computeTentativeCompartments runs the top-down marking pass. For
// every node it accumulates, along the root-to-node path, the
// dependent (root-side) and independent (node-side) impedances per
// ancestor, and retains the ancestors for which the independent to
// dependent ratio exceeds iz. Each branch of the descent receives its
// own copy of the running accumulators, so sibling subtrees never
// observe each other's partial state.
func (t *Tree) computeTentativeCompartments(iz float64) {
	root := t.Root()
	root.compAncestors = nil
	root.compZRoot = nil
	root.compZComp = nil
	root.compTentative = nil

	type frame struct {
		idx       int
		zParent   float64
		ancestors []int
		zRoot     []float64
		zComp     []float64
	}
	var stack []frame
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{idx: root.Children[i], zParent: root.ZBar()})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[f.idx]

		zRoot := append([]float64(nil), f.zRoot...)
		if len(zRoot) > 0 {
			zRoot = append(zRoot, zRoot[len(zRoot)-1]+f.zParent)
		} else {
			zRoot = append(zRoot, f.zParent)
		}
		zComp := append([]float64(nil), f.zComp...)
		zComp = append(zComp, 0)
		for k := range zComp {
			zComp[k] += n.ZBar()
		}
		ancestors := append([]int(nil), f.ancestors...)
		ancestors = append(ancestors, n.Parent)

		n.compAncestors = nil
		n.compZRoot = nil
		n.compZComp = nil
		n.compTentative = nil
		for k := range ancestors {
			if zComp[k]/zRoot[k] > iz {
				n.compAncestors = append(n.compAncestors, ancestors[k])
				n.compZRoot = append(n.compZRoot, zRoot[k])
				n.compZComp = append(n.compZComp, zComp[k])
				n.compTentative = append(n.compTentative, []int{n.Index})
			}
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				idx:       n.Children[i],
				zParent:   n.ZBar(),
				ancestors: ancestors,
				zRoot:     zRoot,
				zComp:     zComp,
			})
		}
	}
}

// removeNonCompartments is the bottom-up pruning loop. It rotates a
// worklist of leaves; for each leaf it inspects the sibling group
// under the nearest branching ancestor and detaches the siblings that
// no longer qualify as distinct compartments. A stall counter bounds
// the number of consecutive unproductive rotations so the loop always
// terminates.
func (t *Tree) removeNonCompartments(leafs []*Node) {
	stall := 0
	for len(leafs) > 0 {
		before := len(leafs)
		leaf := leafs[0]
		leafs = append(leafs[1:], leaf)

		common, sisters, children := t.SisterLeaves(leaf)
		if len(sisters) == len(children) {
			qualifies := make(map[int]bool)
			for i, sl := range sisters {
				if t.walkCompartmentMarkers(sl, common.Index) != nil {
					qualifies[i] = true
				}
			}
			if len(qualifies) <= 1 && !t.IsRoot(common) {
				// At most one distinct compartment here: keep only the
				// sibling with the largest total impedance to root.
				best, bestZ := 0, math.Inf(-1)
				for i, sl := range sisters {
					if z := t.TotalImpedance(sl); z > bestZ {
						best, bestZ = i, z
					}
				}
				for i := range sisters {
					if i != best {
						if err := t.DetachSubtree(children[i]); err != nil {
							continue
						}
						leafs = removeFromWorklist(leafs, sisters[i])
					}
				}
			} else {
				for i := range sisters {
					if !qualifies[i] {
						if err := t.DetachSubtree(children[i]); err != nil {
							continue
						}
						leafs = removeFromWorklist(leafs, sisters[i])
					}
				}
			}
		}

		if len(leafs) != before {
			if len(leafs) == 0 {
				break
			}
			stall = 0
			continue
		}
		if stall >= len(leafs) {
			break
		}
		stall++
	}
}

// walkCompartmentMarkers ascends from leaf while the marker list of
// the current node names the common ancestor, returning the last node
// for which it did, or nil when the leaf does not qualify at all.
func (t *Tree) walkCompartmentMarkers(leaf *Node, commonIdx int) *Node {
	cur := leaf
	var last *Node
	for containsInt(cur.compAncestors, commonIdx) {
		last = cur
		if cur.Parent == NoParent {
			break
		}
		cur = t.nodes[cur.Parent]
	}
	return last
}

// compartmentLeafNodes recovers, per remaining leaf of the pruned
// tree, the node indexing its compartment, and records the position
// of the shared root in that node's marker list.
func (t *Tree) compartmentLeafNodes() []*Node {
	var out []*Node
	for _, leaf := range t.Leaves() {
		common, _, _ := t.SisterLeaves(leaf)
		n := t.walkCompartmentMarkers(leaf, common.Index)
		if n == nil {
			continue
		}
		n.compRootPos = indexOfInt(n.compAncestors, common.Index)
		out = append(out, n)
	}
	return out
}

// clearCompartmentScratch resets the per-node bookkeeping written by
// the marking pass.
func (t *Tree) clearCompartmentScratch() {
	for _, n := range t.nodes {
		n.clearCompartmentScratch()
	}
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func indexOfInt(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func removeFromWorklist(leafs []*Node, n *Node) []*Node {
	for i, l := range leafs {
		if l == n {
			return append(leafs[:i], leafs[i+1:]...)
		}
	}
	return leafs
}
