package nettree

import (
	"errors"
	"fmt"

	"github.com/chazu/nevtree/pkg/kernel"
)

// NoParent is the Parent value of a root node.
const NoParent = -1

// ErrZBarReadOnly is returned when a caller tries to assign the derived
// steady-state impedance of a node. ZBar is computed from the node's
// kernel; scale the kernel amplitudes to change it.
var ErrZBarReadOnly = errors.New("nettree: z_bar is read-only; scale the kernel amplitudes to change it")

// Node is a single NET node. It integrates the impedance contribution
// shared by the locations in LocIdxs; NewLocIdxs holds the locations
// first resolved at this node, i.e. those not covered by any child.
// The JSON wire form of a tree is the parent-indexed node list in
// serialize.go, not the Node struct itself.
type Node struct {
	Index      int
	Parent     int // NoParent for the root
	Children   []int
	LocIdxs    []int
	NewLocIdxs []int

	// ZKernel is the impedance kernel with which the node integrates
	// its inputs (amplitudes in MOhm, rates in kHz).
	ZKernel *kernel.Kernel

	// Compartmentalization bookkeeping, populated by the tentative
	// marking pass and cleared once a compartmentalization run
	// finishes.
	compAncestors []int     // ancestor indices passing the threshold test
	compZRoot     []float64 // dependent (root-side) impedance per ancestor
	compZComp     []float64 // independent (node-side) impedance per ancestor
	compTentative [][]int   // tentative single-node compartment per ancestor
	compRootPos   int       // position of the shared root in compAncestors
	visits        int       // child-visit counter for sweeps
}

// NewNode creates a node with the given index and location set.
// The location slice is copied.
func NewNode(index int, locIdxs []int, zk *kernel.Kernel) *Node {
	return &Node{
		Index:   index,
		Parent:  NoParent,
		LocIdxs: append([]int(nil), locIdxs...),
		ZKernel: zk,
	}
}

// ZBar returns the steady-state impedance of the node's kernel (MOhm).
// It is derived from the kernel and cannot be assigned.
func (n *Node) ZBar() float64 {
	return n.ZKernel.KBar()
}

// SetZBar always fails: the steady-state impedance is derived from the
// node's kernel.
func (n *Node) SetZBar(float64) error {
	return ErrZBarReadOnly
}

// ContainsLoc reports whether the node integrates the given location.
func (n *Node) ContainsLoc(locIdx int) bool {
	for _, idx := range n.LocIdxs {
		if idx == locIdx {
			return true
		}
	}
	return false
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.Parent == NoParent }

func (n *Node) String() string {
	parent := "none"
	if n.Parent != NoParent {
		parent = fmt.Sprintf("%d", n.Parent)
	}
	return fmt.Sprintf("NETNode %d, loc idxs %v, newloc idxs %v, parent %s, z_bar (MOhm) = %g",
		n.Index, n.LocIdxs, n.NewLocIdxs, parent, n.ZBar())
}

// clone returns a deep copy of the node, bookkeeping included.
func (n *Node) clone() *Node {
	c := &Node{
		Index:       n.Index,
		Parent:      n.Parent,
		Children:    append([]int(nil), n.Children...),
		LocIdxs:     append([]int(nil), n.LocIdxs...),
		NewLocIdxs:  append([]int(nil), n.NewLocIdxs...),
		compRootPos: n.compRootPos,
		visits:      n.visits,
	}
	if n.ZKernel != nil {
		c.ZKernel = n.ZKernel.Clone()
	}
	c.compAncestors = append([]int(nil), n.compAncestors...)
	c.compZRoot = append([]float64(nil), n.compZRoot...)
	c.compZComp = append([]float64(nil), n.compZComp...)
	for _, comp := range n.compTentative {
		c.compTentative = append(c.compTentative, append([]int(nil), comp...))
	}
	return c
}

// clearCompartmentScratch resets the compartmentalization bookkeeping.
func (n *Node) clearCompartmentScratch() {
	n.compAncestors = nil
	n.compZRoot = nil
	n.compZComp = nil
	n.compTentative = nil
	n.compRootPos = 0
}
