package nettree

import (
	"errors"
	"fmt"
)

// Indexing selects how location indices are reported in a reduced
// tree.
type Indexing int

const (
	// IndexingNET keeps the location indices of the full tree.
	IndexingNET Indexing = iota
	// IndexingLocs remaps location indices to positions within the
	// requested location list.
	IndexingLocs
)

func (i Indexing) String() string {
	switch i {
	case IndexingNET:
		return "net"
	case IndexingLocs:
		return "locs"
	default:
		return fmt.Sprintf("Indexing(%d)", int(i))
	}
}

// ReducedTree constructs a new tree retaining only the given
// locations, preserving the additive ancestry decomposition of the
// impedance matrix. Nodes that would not split the retained set are
// collapsed into their parent by kernel addition. Requesting a
// location the tree does not model is an error.
func (t *Tree) ReducedTree(locIdxs []int, indexing Indexing) (*Tree, error) {
	root := t.Root()
	if root == nil {
		return nil, ErrEmptyTree
	}
	if len(locIdxs) == 0 {
		return nil, errors.New("nettree: no locations requested")
	}

	// Deduplicate, keeping request order.
	retained := make([]int, 0, len(locIdxs))
	seen := make(map[int]bool)
	for _, idx := range locIdxs {
		if seen[idx] {
			continue
		}
		seen[idx] = true
		if !root.ContainsLoc(idx) {
			return nil, fmt.Errorf("nettree: location %d is not modeled by this tree", idx)
		}
		retained = append(retained, idx)
	}

	newRoot := NewNode(0, retained, root.ZKernel.Clone())
	nt := NewWithRoot(newRoot)
	nt.log = t.log

	// Depth-first descent with an explicit stack. Each frame carries
	// the subset retained at the reduced parent and the reduced node
	// the child may merge into.
	type frame struct {
		idx      int   // original node to visit
		retained []int // locations retained at the reduced parent
		target   int   // reduced node accumulating this branch
	}
	var stack []frame
	for i := len(root.Children) - 1; i >= 0; i-- {
		stack = append(stack, frame{root.Children[i], retained, newRoot.Index})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		node := t.nodes[f.idx]

		sub := make([]int, 0, len(f.retained))
		for _, idx := range f.retained {
			if node.ContainsLoc(idx) {
				sub = append(sub, idx)
			}
		}
		if len(sub) == 0 {
			continue
		}

		target := f.target
		if equalIntSlices(sub, f.retained) {
			// The child does not split the retained set; fold its
			// kernel into the current reduced node.
			tn := nt.Get(target)
			tn.ZKernel = tn.ZKernel.Add(node.ZKernel)
		} else {
			nn := NewNode(nt.Len(), sub, node.ZKernel.Clone())
			if err := nt.AddNode(nn, target); err != nil {
				return nil, err
			}
			target = nn.Index
		}
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{node.Children[i], sub, target})
		}
	}

	nt.SetNewLocIdxs()
	if indexing == IndexingLocs {
		for _, n := range nt.Nodes() {
			remapped := make([]int, 0, len(n.LocIdxs))
			for _, idx := range n.LocIdxs {
				for pos, req := range locIdxs {
					if req == idx {
						remapped = append(remapped, pos)
					}
				}
			}
			n.LocIdxs = remapped
		}
		nt.SetNewLocIdxs()
	}
	return nt, nil
}

func equalIntSlices(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
