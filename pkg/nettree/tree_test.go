package nettree

import (
	"math"
	"testing"

	"github.com/chazu/nevtree/pkg/kernel"
)

// pairTree builds the two-location reference scenario: the root
// covers {0,1} with z_bar 2, a single child covers {1} with z_bar 5.
func pairTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewWithRoot(NewNode(0, []int{0, 1}, kernel.NewScalar(2)))
	if err := tree.AddNode(NewNode(1, []int{1}, kernel.NewScalar(5)), 0); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	tree.SetNewLocIdxs()
	return tree
}

// branchTree builds a symmetric four-location tree:
//
//	root {0,1,2,3} z=1
//	├── nA {0,1} z=50
//	│   ├── nA0 {0} z=200
//	│   └── nA1 {1} z=200
//	└── nB {2,3} z=50
//	    ├── nB0 {2} z=200
//	    └── nB1 {3} z=200
//
// Node indices: root=0, nA=1, nA0=2, nA1=3, nB=4, nB0=5, nB1=6.
func branchTree(t *testing.T) *Tree {
	t.Helper()
	tree := NewWithRoot(NewNode(0, []int{0, 1, 2, 3}, kernel.NewScalar(1)))
	add := func(n *Node, parent int) {
		t.Helper()
		if err := tree.AddNode(n, parent); err != nil {
			t.Fatalf("AddNode(%d) error = %v", n.Index, err)
		}
	}
	add(NewNode(1, []int{0, 1}, kernel.NewScalar(50)), 0)
	add(NewNode(2, []int{0}, kernel.NewScalar(200)), 1)
	add(NewNode(3, []int{1}, kernel.NewScalar(200)), 1)
	add(NewNode(4, []int{2, 3}, kernel.NewScalar(50)), 0)
	add(NewNode(5, []int{2}, kernel.NewScalar(200)), 4)
	add(NewNode(6, []int{3}, kernel.NewScalar(200)), 4)
	tree.SetNewLocIdxs()
	return tree
}

func TestAddNodeErrors(t *testing.T) {
	tree := NewWithRoot(NewNode(0, []int{0}, kernel.NewScalar(1)))
	if err := tree.AddNode(NewNode(1, []int{0}, kernel.NewScalar(1)), 99); err == nil {
		t.Error("AddNode() with missing parent: error = nil, want error")
	}
	if err := tree.AddNode(NewNode(0, []int{0}, kernel.NewScalar(1)), 0); err == nil {
		t.Error("AddNode() with duplicate index: error = nil, want error")
	}
}

func TestNodesOrder(t *testing.T) {
	tree := branchTree(t)
	var got []int
	for _, n := range tree.Nodes() {
		got = append(got, n.Index)
	}
	want := []int{0, 1, 2, 3, 4, 5, 6}
	if !equalIntSlices(got, want) {
		t.Errorf("Nodes() order = %v, want %v", got, want)
	}
}

func TestNodesCorruptChildLink(t *testing.T) {
	// Each index is visited at most once, so a child link pointing
	// back at the root cannot loop the traversal.
	tree := pairTree(t)
	tree.Get(1).Children = []int{0}
	var got []int
	for _, n := range tree.Nodes() {
		got = append(got, n.Index)
	}
	if !equalIntSlices(got, []int{0, 1}) {
		t.Errorf("Nodes() = %v, want [0 1]", got)
	}
}

func TestLeaves(t *testing.T) {
	tree := branchTree(t)
	var got []int
	for _, n := range tree.Leaves() {
		got = append(got, n.Index)
	}
	want := []int{2, 3, 5, 6}
	if !equalIntSlices(got, want) {
		t.Errorf("Leaves() = %v, want %v", got, want)
	}
}

func TestPathToRoot(t *testing.T) {
	tree := branchTree(t)
	var got []int
	for _, n := range tree.PathToRoot(tree.Get(2)) {
		got = append(got, n.Index)
	}
	want := []int{2, 1, 0}
	if !equalIntSlices(got, want) {
		t.Errorf("PathToRoot(2) = %v, want %v", got, want)
	}
}

func TestSetNewLocIdxsPartition(t *testing.T) {
	// After SetNewLocIdxs, the NewLocIdxs sets are pairwise disjoint
	// and their union equals the root's location set.
	for name, tree := range map[string]*Tree{
		"pair":   pairTree(t),
		"branch": branchTree(t),
	} {
		t.Run(name, func(t *testing.T) {
			seen := make(map[int]int)
			for _, n := range tree.Nodes() {
				for _, idx := range n.NewLocIdxs {
					seen[idx]++
				}
			}
			for idx, count := range seen {
				if count > 1 {
					t.Errorf("location %d resolved by %d nodes, want 1", idx, count)
				}
			}
			for _, idx := range tree.Root().LocIdxs {
				if seen[idx] == 0 {
					t.Errorf("location %d resolved by no node", idx)
				}
			}
			if len(seen) != len(tree.Root().LocIdxs) {
				t.Errorf("resolved %d locations, want %d", len(seen), len(tree.Root().LocIdxs))
			}
		})
	}
}

func TestLeafLocNode(t *testing.T) {
	tree := pairTree(t)
	if n := tree.LeafLocNode(0); n == nil || n.Index != 0 {
		t.Errorf("LeafLocNode(0) = %v, want root", n)
	}
	if n := tree.LeafLocNode(1); n == nil || n.Index != 1 {
		t.Errorf("LeafLocNode(1) = %v, want node 1", n)
	}
	if n := tree.LeafLocNode(42); n != nil {
		t.Errorf("LeafLocNode(42) = %v, want nil", n)
	}
}

func TestTotalImpedance(t *testing.T) {
	tree := pairTree(t)
	if got := tree.TotalImpedance(tree.Get(1)); got != 7 {
		t.Errorf("TotalImpedance(child) = %g, want 7", got)
	}
	if got := tree.TotalImpedance(tree.Root()); got != 2 {
		t.Errorf("TotalImpedance(root) = %g, want 2", got)
	}
}

func TestTotalKernel(t *testing.T) {
	tree := branchTree(t)
	zk := tree.TotalKernel(tree.Get(2))
	if got := zk.KBar(); math.Abs(got-251) > 1e-12 {
		t.Errorf("TotalKernel(nA0).KBar() = %g, want 251", got)
	}
	// The path nodes keep their own kernels.
	if tree.Get(2).ZBar() != 200 {
		t.Errorf("nA0 z_bar changed to %g", tree.Get(2).ZBar())
	}
}

func TestZBarReadOnly(t *testing.T) {
	tree := pairTree(t)
	if err := tree.Root().SetZBar(3); err != ErrZBarReadOnly {
		t.Errorf("SetZBar() error = %v, want ErrZBarReadOnly", err)
	}
}

func TestDeepCopyIndependence(t *testing.T) {
	tree := pairTree(t)
	cp := tree.DeepCopy()
	cp.Get(1).ZKernel.C[0] = 99
	cp.Get(1).LocIdxs[0] = 99
	if tree.Get(1).ZBar() != 5 {
		t.Errorf("copy shares kernels: original z_bar = %g", tree.Get(1).ZBar())
	}
	if tree.Get(1).LocIdxs[0] != 1 {
		t.Errorf("copy shares location slices: %v", tree.Get(1).LocIdxs)
	}
}

func TestDetachSubtree(t *testing.T) {
	tree := branchTree(t)
	if err := tree.DetachSubtree(tree.Get(1)); err != nil {
		t.Fatalf("DetachSubtree() error = %v", err)
	}
	if tree.Len() != 4 {
		t.Errorf("Len() after detach = %d, want 4", tree.Len())
	}
	if tree.Get(2) != nil || tree.Get(3) != nil {
		t.Error("detached subtree still in arena")
	}
	if err := tree.DetachSubtree(tree.Root()); err == nil {
		t.Error("DetachSubtree(root): error = nil, want error")
	}
}

func TestSisterLeaves(t *testing.T) {
	tree := branchTree(t)
	common, leaves, children := tree.SisterLeaves(tree.Get(2))
	if common.Index != 1 {
		t.Errorf("common ancestor = %d, want 1", common.Index)
	}
	gotLeaves := indexList(leaves)
	if !equalIntSlices(gotLeaves, []int{2, 3}) {
		t.Errorf("sister leaves = %v, want [2 3]", gotLeaves)
	}
	gotChildren := indexList(children)
	if !equalIntSlices(gotChildren, []int{2, 3}) {
		t.Errorf("corresponding children = %v, want [2 3]", gotChildren)
	}
}

func TestSisterLeavesThroughChain(t *testing.T) {
	// Make nA's branch a chain: only one leaf below nA.
	tree := branchTree(t)
	if err := tree.DetachSubtree(tree.Get(3)); err != nil {
		t.Fatalf("DetachSubtree() error = %v", err)
	}
	common, leaves, children := tree.SisterLeaves(tree.Get(2))
	if common.Index != 0 {
		t.Errorf("common ancestor = %d, want root", common.Index)
	}
	gotLeaves := indexList(leaves)
	if !equalIntSlices(gotLeaves, []int{2, 5, 6}) {
		t.Errorf("sister leaves = %v, want [2 5 6]", gotLeaves)
	}
	gotChildren := indexList(children)
	if !equalIntSlices(gotChildren, []int{1, 4}) {
		t.Errorf("corresponding children = %v, want [1 4]", gotChildren)
	}
}

func indexList(nodes []*Node) []int {
	var out []int
	for _, n := range nodes {
		out = append(out, n.Index)
	}
	return out
}
