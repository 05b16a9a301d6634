package nettree

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chazu/nevtree/pkg/kernel"
)

// nodeRecord is the wire form of a node: a parent-indexed entry with
// its location set and kernel.
type nodeRecord struct {
	Index      int            `json:"index"`
	Parent     int            `json:"parent"`
	LocIdxs    []int          `json:"loc_idxs"`
	NewLocIdxs []int          `json:"newloc_idxs,omitempty"`
	ZKernel    *kernel.Kernel `json:"z_kernel"`
}

type treeRecord struct {
	Nodes []nodeRecord `json:"nodes"`
}

// MarshalJSON encodes the tree as a parent-indexed node list in
// depth-first order.
func (t *Tree) MarshalJSON() ([]byte, error) {
	rec := treeRecord{Nodes: make([]nodeRecord, 0, t.Len())}
	for _, n := range t.Nodes() {
		rec.Nodes = append(rec.Nodes, nodeRecord{
			Index:      n.Index,
			Parent:     n.Parent,
			LocIdxs:    n.LocIdxs,
			NewLocIdxs: n.NewLocIdxs,
			ZKernel:    n.ZKernel,
		})
	}
	return json.Marshal(rec)
}

// UnmarshalJSON rebuilds a tree from a parent-indexed node list.
// Children keep the order in which they appear in the list. Exactly
// one node must be a root, every parent reference must resolve, and
// node indices must be unique.
func (t *Tree) UnmarshalJSON(data []byte) error {
	var rec treeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("nettree: decoding node list: %w", err)
	}
	if len(rec.Nodes) == 0 {
		return errors.New("nettree: node list is empty")
	}

	nodes := make(map[int]*Node, len(rec.Nodes))
	root := NoParent
	for _, nr := range rec.Nodes {
		if _, dup := nodes[nr.Index]; dup {
			return fmt.Errorf("nettree: duplicate node index %d", nr.Index)
		}
		if nr.ZKernel == nil {
			return fmt.Errorf("nettree: node %d has no kernel", nr.Index)
		}
		nodes[nr.Index] = &Node{
			Index:      nr.Index,
			Parent:     nr.Parent,
			LocIdxs:    nr.LocIdxs,
			NewLocIdxs: nr.NewLocIdxs,
			ZKernel:    nr.ZKernel,
		}
		if nr.Parent == NoParent {
			if root != NoParent {
				return fmt.Errorf("nettree: multiple roots (%d and %d)", root, nr.Index)
			}
			root = nr.Index
		}
	}
	if root == NoParent {
		return errors.New("nettree: no root node in list")
	}
	for _, nr := range rec.Nodes {
		if nr.Parent == NoParent {
			continue
		}
		p, ok := nodes[nr.Parent]
		if !ok {
			return fmt.Errorf("nettree: node %d references missing parent %d", nr.Index, nr.Parent)
		}
		p.Children = append(p.Children, nr.Index)
	}

	t.nodes = nodes
	t.root = root
	return nil
}
