package nettree

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/chazu/nevtree/pkg/kernel"
)

// ErrEmptyTree is returned by operations that need at least a root.
var ErrEmptyTree = errors.New("nettree: tree has no root")

// Tree is a rooted tree of NET nodes. Nodes are owned by the tree's
// arena and refer to each other by integer index; a node's Parent is
// the only upward reference.
type Tree struct {
	nodes map[int]*Node
	root  int
	log   *slog.Logger
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{nodes: make(map[int]*Node), root: NoParent}
}

// NewWithRoot creates a tree holding the given node as root.
func NewWithRoot(root *Node) *Tree {
	t := New()
	root.Parent = NoParent
	t.nodes[root.Index] = root
	t.root = root.Index
	return t
}

// SetLogger routes the tree's advisory warnings to the given logger.
// The default is slog.Default.
func (t *Tree) SetLogger(log *slog.Logger) { t.log = log }

func (t *Tree) logger() *slog.Logger {
	if t.log != nil {
		return t.log
	}
	return slog.Default()
}

// Root returns the root node, or nil for an empty tree.
func (t *Tree) Root() *Node {
	if t.root == NoParent {
		return nil
	}
	return t.nodes[t.root]
}

// Get returns the node with the given index, or nil.
func (t *Tree) Get(index int) *Node {
	return t.nodes[index]
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// NextIndex returns an index not yet used by any node.
func (t *Tree) NextIndex() int { return t.MaxIndex() + 1 }

// MaxIndex returns the largest node index in use, or -1 for an empty
// tree.
func (t *Tree) MaxIndex() int {
	max := -1
	for idx := range t.nodes {
		if idx > max {
			max = idx
		}
	}
	return max
}

// LocIdxs returns the full set of locations the tree models, i.e. the
// root's location set.
func (t *Tree) LocIdxs() []int {
	if r := t.Root(); r != nil {
		return r.LocIdxs
	}
	return nil
}

// AddNode attaches n under the node with index parent. The node's
// index must be unused.
func (t *Tree) AddNode(n *Node, parent int) error {
	p, ok := t.nodes[parent]
	if !ok {
		return fmt.Errorf("nettree: parent node %d does not exist", parent)
	}
	if _, exists := t.nodes[n.Index]; exists {
		return fmt.Errorf("nettree: node index %d already in use", n.Index)
	}
	n.Parent = parent
	p.Children = append(p.Children, n.Index)
	t.nodes[n.Index] = n
	return nil
}

// Nodes returns all nodes reachable from the root in depth-first
// preorder, children in order. The traversal uses an explicit stack
// and visits each index at most once, so corrupted child links cannot
// loop it; Validate reports such links as findings.
func (t *Tree) Nodes() []*Node {
	if t.root == NoParent {
		return nil
	}
	out := make([]*Node, 0, len(t.nodes))
	seen := make(map[int]bool, len(t.nodes))
	stack := []int{t.root}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[idx] {
			continue
		}
		seen[idx] = true
		n, ok := t.nodes[idx]
		if !ok {
			continue
		}
		out = append(out, n)
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
	}
	return out
}

// Leaves returns the childless nodes in depth-first order.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	for _, n := range t.Nodes() {
		if len(n.Children) == 0 {
			leaves = append(leaves, n)
		}
	}
	return leaves
}

// IsLeaf reports whether the node has no children.
func (t *Tree) IsLeaf(n *Node) bool { return len(n.Children) == 0 }

// IsRoot reports whether the node is the tree's root.
func (t *Tree) IsRoot(n *Node) bool { return n.Index == t.root }

// PathToRoot returns the nodes on the path from n to the root,
// inclusive, starting at n.
func (t *Tree) PathToRoot(n *Node) []*Node {
	var path []*Node
	for cur := n; cur != nil; {
		path = append(path, cur)
		if cur.Parent == NoParent {
			break
		}
		cur = t.nodes[cur.Parent]
	}
	return path
}

// LeafLocNode returns the node whose NewLocIdxs first resolve the
// given location, or nil if no node does.
func (t *Tree) LeafLocNode(locIdx int) *Node {
	for _, n := range t.Nodes() {
		for _, idx := range n.NewLocIdxs {
			if idx == locIdx {
				return n
			}
		}
	}
	return nil
}

// SetNewLocIdxs recomputes NewLocIdxs for every node as the node's
// location set minus the union of its children's sets. It must be
// re-run after any mutation of the tree structure.
func (t *Tree) SetNewLocIdxs() {
	for _, n := range t.Nodes() {
		covered := make(map[int]bool)
		for _, ci := range n.Children {
			for _, idx := range t.nodes[ci].LocIdxs {
				covered[idx] = true
			}
		}
		newIdxs := make([]int, 0)
		for _, idx := range n.LocIdxs {
			if !covered[idx] {
				newIdxs = append(newIdxs, idx)
			}
		}
		n.NewLocIdxs = newIdxs
	}
}

// TotalImpedance returns the sum of ZBar over the path from n to the
// root, inclusive.
func (t *Tree) TotalImpedance(n *Node) float64 {
	var sum float64
	for _, pn := range t.PathToRoot(n) {
		sum += pn.ZBar()
	}
	return sum
}

// TotalKernel returns the sum of the kernels on the path from n to the
// root, inclusive, as a new kernel.
func (t *Tree) TotalKernel(n *Node) *kernel.Kernel {
	zk := n.ZKernel.Clone()
	if n.Parent != NoParent {
		for _, pn := range t.PathToRoot(t.nodes[n.Parent]) {
			zk = zk.Add(pn.ZKernel)
		}
	}
	return zk
}

// DeepCopy returns an independent copy of the tree: nodes, kernels and
// bookkeeping included.
func (t *Tree) DeepCopy() *Tree {
	c := New()
	c.root = t.root
	c.log = t.log
	for idx, n := range t.nodes {
		c.nodes[idx] = n.clone()
	}
	return c
}

// DetachSubtree removes n and its whole subtree from the tree. The
// root cannot be detached.
func (t *Tree) DetachSubtree(n *Node) error {
	if t.IsRoot(n) {
		return errors.New("nettree: cannot detach the root")
	}
	p := t.nodes[n.Parent]
	for i, ci := range p.Children {
		if ci == n.Index {
			p.Children = append(p.Children[:i], p.Children[i+1:]...)
			break
		}
	}
	stack := []int{n.Index}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur := t.nodes[idx]
		stack = append(stack, cur.Children...)
		delete(t.nodes, idx)
	}
	return nil
}

// SisterLeaves locates the nearest branching ancestor of leaf (the
// root if the whole path is unbranched) and collects the leaves below
// each of that ancestor's children. children holds one entry per
// child of the common ancestor; leaves holds every leaf below it, in
// child order. When each child chain carries exactly one leaf the two
// slices correspond element-wise.
func (t *Tree) SisterLeaves(leaf *Node) (common *Node, leaves, children []*Node) {
	cur := leaf
	for cur.Parent != NoParent && len(t.nodes[cur.Parent].Children) == 1 {
		cur = t.nodes[cur.Parent]
	}
	if cur.Parent == NoParent {
		common = cur
	} else {
		common = t.nodes[cur.Parent]
	}
	for _, ci := range common.Children {
		children = append(children, t.nodes[ci])
		leaves = append(leaves, t.leavesUnder(t.nodes[ci])...)
	}
	return common, leaves, children
}

// leavesUnder returns the leaves in the subtree rooted at n, in
// depth-first order.
func (t *Tree) leavesUnder(n *Node) []*Node {
	var leaves []*Node
	stack := []int{n.Index}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur := t.nodes[idx]
		if len(cur.Children) == 0 {
			leaves = append(leaves, cur)
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return leaves
}

func (t *Tree) String() string {
	var b strings.Builder
	b.WriteString(">>> NET tree\n")
	type frame struct {
		idx   int
		depth int
	}
	if t.root != NoParent {
		stack := []frame{{t.root, 0}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			n := t.nodes[f.idx]
			b.WriteString(strings.Repeat("    ", f.depth))
			b.WriteString(n.String())
			b.WriteByte('\n')
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, frame{n.Children[i], f.depth + 1})
			}
		}
	}
	return b.String()
}
