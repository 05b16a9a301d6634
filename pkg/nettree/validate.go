package nettree

import "fmt"

// ValidationSeverity indicates whether a validation finding breaks the
// tree's invariants or is merely advisory.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // invariant violation
	SeverityWarning                           // advisory
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeIndex int // offending node, or NoParent for tree-level findings
	Message   string
	Severity  ValidationSeverity
}

func (e ValidationError) Error() string {
	if e.NodeIndex == NoParent {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %d: %s", e.Severity, e.NodeIndex, e.Message)
}

// Validate runs structural checks over the tree and returns every
// finding. An empty result means the tree honors its invariants. The
// tree is never mutated.
//
// Checked: the tree has a root; parent/child links are mutually
// consistent; every arena node is reachable from the root (no cycles,
// no orphans); every node carries a kernel and a non-empty location
// set; each node's location set is a superset of the union of its
// children's sets. Stale NewLocIdxs (not matching a recomputation)
// are reported as warnings.
func (t *Tree) Validate() []ValidationError {
	var errs []ValidationError
	root := t.Root()
	if root == nil {
		return append(errs, ValidationError{NodeIndex: NoParent, Message: "tree has no root", Severity: SeverityError})
	}
	if root.Parent != NoParent {
		errs = append(errs, ValidationError{NodeIndex: root.Index, Message: "root has a parent reference", Severity: SeverityError})
	}

	// Validate walks the child links itself rather than through
	// Nodes(): the traversal records every arrival, so a child index
	// reached a second time surfaces as a finding instead of being
	// skipped.
	reached := make(map[int]bool, len(t.nodes))
	stack := []int{root.Index}
	for len(stack) > 0 {
		idx := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[idx] {
			errs = append(errs, ValidationError{NodeIndex: idx, Message: "node reached twice: cycle or shared child", Severity: SeverityError})
			continue
		}
		reached[idx] = true
		n := t.nodes[idx]

		for _, ci := range n.Children {
			child, ok := t.nodes[ci]
			if !ok {
				errs = append(errs, ValidationError{NodeIndex: n.Index, Message: fmt.Sprintf("child %d does not exist", ci), Severity: SeverityError})
				continue
			}
			if child.Parent != n.Index {
				errs = append(errs, ValidationError{NodeIndex: ci, Message: fmt.Sprintf("parent reference %d does not match actual parent %d", child.Parent, n.Index), Severity: SeverityError})
			}
		}

		if n.ZKernel == nil {
			errs = append(errs, ValidationError{NodeIndex: n.Index, Message: "node has no kernel", Severity: SeverityError})
		}
		if len(n.LocIdxs) == 0 {
			errs = append(errs, ValidationError{NodeIndex: n.Index, Message: "node integrates no locations", Severity: SeverityError})
		}
		for _, ci := range n.Children {
			child, ok := t.nodes[ci]
			if !ok {
				continue
			}
			for _, idx := range child.LocIdxs {
				if !n.ContainsLoc(idx) {
					errs = append(errs, ValidationError{NodeIndex: n.Index, Message: fmt.Sprintf("location %d of child %d missing from node's set", idx, ci), Severity: SeverityError})
				}
			}
		}

		if stale := t.staleNewLocIdxs(n); stale {
			errs = append(errs, ValidationError{NodeIndex: n.Index, Message: "newloc_idxs is stale; re-run SetNewLocIdxs", Severity: SeverityWarning})
		}

		for i := len(n.Children) - 1; i >= 0; i-- {
			if _, ok := t.nodes[n.Children[i]]; ok {
				stack = append(stack, n.Children[i])
			}
		}
	}
	for idx := range t.nodes {
		if !reached[idx] {
			errs = append(errs, ValidationError{NodeIndex: idx, Message: "node not reachable from root", Severity: SeverityError})
		}
	}
	return errs
}

// staleNewLocIdxs reports whether the node's NewLocIdxs differ from a
// fresh recomputation.
func (t *Tree) staleNewLocIdxs(n *Node) bool {
	covered := make(map[int]bool)
	for _, ci := range n.Children {
		child, ok := t.nodes[ci]
		if !ok {
			continue
		}
		for _, idx := range child.LocIdxs {
			covered[idx] = true
		}
	}
	want := make(map[int]bool)
	for _, idx := range n.LocIdxs {
		if !covered[idx] {
			want[idx] = true
		}
	}
	if len(want) != len(n.NewLocIdxs) {
		return true
	}
	for _, idx := range n.NewLocIdxs {
		if !want[idx] {
			return true
		}
	}
	return false
}
