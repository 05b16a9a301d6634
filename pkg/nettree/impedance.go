package nettree

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LocPair is an unordered pair of location indices, normalized so that
// I < J.
type LocPair struct {
	I, J int
}

// NewLocPair normalizes the pair so the smaller index comes first.
func NewLocPair(i, j int) LocPair {
	if j < i {
		i, j = j, i
	}
	return LocPair{I: i, J: j}
}

// ImpedanceMatrix reconstructs the dense symmetric impedance matrix
// the tree encodes: every node adds its ZBar to each (i,j) entry with
// both locations in the node's set. Rows and columns follow the order
// of the root's location set.
func (t *Tree) ImpedanceMatrix() *mat.Dense {
	root := t.Root()
	if root == nil {
		return nil
	}
	nLoc := len(root.LocIdxs)
	locPos := make(map[int]int, nLoc)
	for pos, idx := range root.LocIdxs {
		locPos[idx] = pos
	}
	z := mat.NewDense(nLoc, nLoc, nil)
	for _, n := range t.Nodes() {
		zb := n.ZBar()
		for _, i := range n.LocIdxs {
			pi := locPos[i]
			for _, j := range n.LocIdxs {
				pj := locPos[j]
				z.Set(pi, pj, z.At(pi, pj)+zb)
			}
		}
	}
	return z
}

// IzPair computes the segregation index between two locations: the
// tree is reduced to the pair, and with z_common the reduced root's
// impedance and z_i, z_j the impedances of the leaves introducing each
// location (zero when the root itself introduces it),
//
//	Iz = (z_i + z_j) / (2*z_common) - 1.
func (t *Tree) IzPair(i, j int) (float64, error) {
	red, err := t.ReducedTree([]int{i, j}, IndexingNET)
	if err != nil {
		return 0, err
	}
	zi := red.leafImpedance(i)
	zj := red.leafImpedance(j)
	return (zi+zj)/(2*red.Root().ZBar()) - 1, nil
}

// leafImpedance returns the ZBar of the node introducing the location,
// or zero when that node is the root.
func (t *Tree) leafImpedance(locIdx int) float64 {
	n := t.LeafLocNode(locIdx)
	if n == nil || t.IsRoot(n) {
		return 0
	}
	return n.ZBar()
}

// Iz computes the segregation index for every unordered pair of the
// given locations, keyed by the normalized pair.
func (t *Tree) Iz(locIdxs []int) (map[LocPair]float64, error) {
	if len(locIdxs) < 2 {
		return nil, fmt.Errorf("nettree: need at least two locations, got %d", len(locIdxs))
	}
	out := make(map[LocPair]float64)
	for a := 1; a < len(locIdxs); a++ {
		for b := 0; b < a; b++ {
			i, j := locIdxs[a], locIdxs[b]
			iz, err := t.IzPair(i, j)
			if err != nil {
				return nil, err
			}
			out[NewLocPair(i, j)] = iz
		}
	}
	return out, nil
}

// IzMatrix computes the segregation index for every location pair in
// closed form from the reconstructed impedance matrix, using
// z_i = Z[i,i] - Z[i,j] and z_common = Z[i,j]. Off-diagonal entries
// agree with IzPair; the diagonal is -1 (a location is never
// segregated from itself).
func (t *Tree) IzMatrix() *mat.Dense {
	z := t.ImpedanceMatrix()
	if z == nil {
		return nil
	}
	n, _ := z.Dims()
	iz := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			zij := z.At(i, j)
			zi := z.At(i, i) - zij
			zj := z.At(j, j) - zij
			iz.Set(i, j, (zi+zj)/(2*zij)-1)
		}
	}
	return iz
}
