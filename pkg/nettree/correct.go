package nettree

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// negligibleCorrection is the absolute impedance mismatch (MOhm) below
// which no correction leaf is inserted.
const negligibleCorrection = 1e-7

// ImproveInputResistance rescales kernel amplitudes so that the tree's
// reconstructed diagonal matches the diagonal of zMat, a reference
// impedance matrix indexed by absolute location index.
//
// Single-location nodes are rescaled as a whole. For a node that
// resolves new locations without being a single-location node, a
// single-location leaf child is inserted per new location, with its
// amplitude chosen to close the diagonal gap; negligible gaps are
// skipped. NewLocIdxs is recomputed before returning.
func (t *Tree) ImproveInputResistance(zMat mat.Matrix) error {
	root := t.Root()
	if root == nil {
		return ErrEmptyTree
	}
	r, c := zMat.Dims()
	if r != c {
		return fmt.Errorf("nettree: reference impedance matrix is %dx%d, want square", r, c)
	}
	for _, idx := range root.LocIdxs {
		if idx < 0 || idx >= r {
			return fmt.Errorf("nettree: location %d outside reference matrix of size %d", idx, r)
		}
	}

	maxIdx := t.MaxIndex()
	for _, n := range t.Nodes() {
		switch {
		case len(n.LocIdxs) == 1:
			idx := n.LocIdxs[0]
			var parentKBar float64
			if n.Parent != NoParent {
				parentKBar = t.TotalKernel(t.nodes[n.Parent]).KBar()
			}
			factor := (zMat.At(idx, idx) - parentKBar) / n.ZBar()
			for m := range n.ZKernel.C {
				n.ZKernel.C[m] *= factor
			}
		case len(n.NewLocIdxs) > 0:
			approx := t.TotalKernel(n).KBar()
			for _, idx := range n.NewLocIdxs {
				maxIdx++
				gap := zMat.At(idx, idx) - approx
				if math.Abs(gap) <= negligibleCorrection {
					continue
				}
				factor := gap / n.ZBar()
				zk := n.ZKernel.Clone()
				for m := range zk.C {
					zk.C[m] *= factor
				}
				leaf := NewNode(maxIdx, []int{idx}, zk)
				leaf.NewLocIdxs = []int{idx}
				if err := t.AddNode(leaf, n.Index); err != nil {
					return err
				}
			}
			n.NewLocIdxs = nil
		}
	}

	t.SetNewLocIdxs()
	return nil
}
