package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alexanderramin/cronograma/internal/domain"
)

// Tree is the live WBS of one project: parent/child adjacency plus the
// subtasks of each node. Soft-deleted nodes are not part of it.
//
// The tree is independent from the dependency Graph; both are keyed by the
// same node ids.
type Tree struct {
	nodes    map[string]*domain.WbsNode
	children map[string][]string // "" holds the roots
	subtasks map[string][]*domain.Subtask
}

// NewTree indexes nodes and subtasks. Siblings are ordered by SortOrder,
// then WbsCode. A node whose parent is not among the live nodes is treated
// as a root.
func NewTree(nodes []*domain.WbsNode, subtasks []*domain.Subtask) *Tree {
	t := &Tree{
		nodes:    make(map[string]*domain.WbsNode, len(nodes)),
		children: make(map[string][]string),
		subtasks: make(map[string][]*domain.Subtask),
	}
	for _, n := range nodes {
		if n.IsDeleted() {
			continue
		}
		t.nodes[n.ID] = n
	}
	for _, n := range nodes {
		if n.IsDeleted() {
			continue
		}
		key := n.ParentKey()
		if _, ok := t.nodes[key]; !ok {
			key = ""
		}
		t.children[key] = append(t.children[key], n.ID)
	}
	for key := range t.children {
		t.sortSiblings(key)
	}
	for _, s := range subtasks {
		if _, ok := t.nodes[s.BacklogID]; ok {
			t.subtasks[s.BacklogID] = append(t.subtasks[s.BacklogID], s)
		}
	}
	return t
}

func (t *Tree) sortSiblings(key string) {
	ids := t.children[key]
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := t.nodes[ids[i]], t.nodes[ids[j]]
		if a.SortOrder != b.SortOrder {
			return a.SortOrder < b.SortOrder
		}
		return a.WbsCode < b.WbsCode
	})
}

// Len returns the number of live nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node looks up a live node.
func (t *Tree) Node(id string) (*domain.WbsNode, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Roots returns the root phase ids in sibling order.
func (t *Tree) Roots() []string { return t.children[""] }

// Children returns the direct child ids of a node in sibling order.
func (t *Tree) Children(id string) []string {
	if id == "" {
		return nil
	}
	return t.children[id]
}

// Subtasks returns the subtasks of a node.
func (t *Tree) Subtasks(id string) []*domain.Subtask { return t.subtasks[id] }

// HasChildren reports whether the node has live children.
func (t *Tree) HasChildren(id string) bool { return len(t.Children(id)) > 0 }

// IsLeaf reports whether the node has neither live children nor subtasks.
func (t *Tree) IsLeaf(id string) bool {
	return !t.HasChildren(id) && len(t.subtasks[id]) == 0
}

// IsAncestor reports whether ancestor lies on the parent chain of id.
func (t *Tree) IsAncestor(ancestor, id string) bool {
	n, ok := t.nodes[id]
	for ok && n.ParentID != nil {
		if *n.ParentID == ancestor {
			return true
		}
		n, ok = t.nodes[*n.ParentID]
	}
	return false
}

// Related reports whether a and b sit on the same root-to-leaf path.
func (t *Tree) Related(a, b string) bool {
	return t.IsAncestor(a, b) || t.IsAncestor(b, a)
}

// Descendants returns every node below id in pre-order.
func (t *Tree) Descendants(id string) []string {
	var out []string
	stack := append([]string(nil), reverse(t.Children(id))...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)
		stack = append(stack, reverse(t.Children(cur))...)
	}
	return out
}

// PreOrder returns all live node ids, parents before children.
func (t *Tree) PreOrder() []string {
	var out []string
	for _, root := range t.Roots() {
		out = append(out, root)
		out = append(out, t.Descendants(root)...)
	}
	return out
}

// PostOrder returns all live node ids, children before parents.
func (t *Tree) PostOrder() []string {
	out := make([]string, 0, len(t.nodes))
	var walk func(id string)
	walk = func(id string) {
		for _, c := range t.Children(id) {
			walk(c)
		}
		out = append(out, id)
	}
	for _, root := range t.Roots() {
		walk(root)
	}
	return out
}

// Height is the number of levels below id (0 for a leaf).
func (t *Tree) Height(id string) int {
	h := 0
	for _, c := range t.Children(id) {
		if ch := t.Height(c) + 1; ch > h {
			h = ch
		}
	}
	return h
}

// NextSortOrder returns max sibling SortOrder + 1 under parentID ("" = roots).
func (t *Tree) NextSortOrder(parentID string) int {
	next := 1
	for _, id := range t.children[parentID] {
		if n := t.nodes[id]; n.SortOrder >= next {
			next = n.SortOrder + 1
		}
	}
	return next
}

// SortOrderTaken reports whether a live sibling already uses order.
func (t *Tree) SortOrderTaken(parentID string, order int, except string) bool {
	for _, id := range t.children[parentID] {
		if id != except && t.nodes[id].SortOrder == order {
			return true
		}
	}
	return false
}

// DeriveCode builds a node's WBS code from its parent's code and its sort order.
func DeriveCode(parentCode string, sortOrder int) string {
	if parentCode == "" {
		return strconv.Itoa(sortOrder)
	}
	return parentCode + "." + strconv.Itoa(sortOrder)
}

// Attach places a new node under parentID, filling Level and WbsCode and
// taking the next sort order when SortOrder is zero. It fails with
// ErrInvalidHierarchy when the parent is unknown, the order is taken, or the
// level would exceed maxDepth (levels start at 0; maxDepth <= 0 disables the
// check).
func (t *Tree) Attach(n *domain.WbsNode, maxDepth int) error {
	parentCode, level := "", 0
	key := n.ParentKey()
	if key != "" {
		parent, ok := t.nodes[key]
		if !ok {
			return domain.NewValidationError(domain.ErrInvalidHierarchy, "parent not found in project", key)
		}
		if parent.ProjectID != n.ProjectID {
			return domain.NewValidationError(domain.ErrInvalidHierarchy, "parent belongs to another project", key)
		}
		parentCode, level = parent.WbsCode, parent.Level+1
	}
	if maxDepth > 0 && level > maxDepth {
		return domain.NewValidationError(domain.ErrInvalidHierarchy,
			fmt.Sprintf("level %d exceeds max depth %d", level, maxDepth), key)
	}
	if n.SortOrder <= 0 {
		n.SortOrder = t.NextSortOrder(key)
	} else if t.SortOrderTaken(key, n.SortOrder, n.ID) {
		return domain.NewValidationError(domain.ErrInvalidHierarchy,
			fmt.Sprintf("sort order %d already used by a sibling", n.SortOrder), key)
	}
	n.Level = level
	n.WbsCode = DeriveCode(parentCode, n.SortOrder)

	t.nodes[n.ID] = n
	t.children[key] = append(t.children[key], n.ID)
	t.sortSiblings(key)
	return nil
}

// Move re-parents id under newParentID ("" = root), appending it to the new
// sibling group and re-deriving Level and WbsCode across the whole subtree.
// It returns the nodes whose structural fields changed.
func (t *Tree) Move(id, newParentID string, maxDepth int) ([]*domain.WbsNode, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, domain.NewValidationError(domain.ErrInvalidHierarchy, "node not found in project", id)
	}
	if newParentID == id || (newParentID != "" && t.IsAncestor(id, newParentID)) {
		return nil, domain.NewValidationError(domain.ErrCycleDetected, "new parent is the node itself or one of its descendants", id, newParentID)
	}
	level := 0
	if newParentID != "" {
		parent, ok := t.nodes[newParentID]
		if !ok {
			return nil, domain.NewValidationError(domain.ErrInvalidHierarchy, "new parent not found in project", newParentID)
		}
		level = parent.Level + 1
	}
	if maxDepth > 0 && level+t.Height(id) > maxDepth {
		return nil, domain.NewValidationError(domain.ErrInvalidHierarchy,
			fmt.Sprintf("moved subtree would exceed max depth %d", maxDepth), id)
	}

	oldKey := n.ParentKey()
	t.children[oldKey] = remove(t.children[oldKey], id)
	n.SortOrder = t.NextSortOrder(newParentID)
	if newParentID == "" {
		n.ParentID = nil
	} else {
		pid := newParentID
		n.ParentID = &pid
	}
	t.children[newParentID] = append(t.children[newParentID], id)
	t.sortSiblings(newParentID)

	return t.relabel(id), nil
}

// relabel re-derives Level and WbsCode for id and its subtree.
func (t *Tree) relabel(id string) []*domain.WbsNode {
	var changed []*domain.WbsNode
	var walk func(id string)
	walk = func(id string) {
		n := t.nodes[id]
		parentCode, level := "", 0
		if p, ok := t.nodes[n.ParentKey()]; ok {
			parentCode, level = p.WbsCode, p.Level+1
		}
		n.Level = level
		n.WbsCode = DeriveCode(parentCode, n.SortOrder)
		changed = append(changed, n)
		for _, c := range t.Children(id) {
			walk(c)
		}
	}
	walk(id)
	return changed
}

// CheckHierarchy verifies the level and code invariants for every live node
// and returns one error per violation.
func (t *Tree) CheckHierarchy() []error {
	var errs []error
	for _, id := range t.PreOrder() {
		n := t.nodes[id]
		p, hasParent := t.nodes[n.ParentKey()]
		switch {
		case !hasParent && n.Level != 0:
			errs = append(errs, domain.NewValidationError(domain.ErrInvalidHierarchy,
				fmt.Sprintf("root level is %d, want 0", n.Level), id))
		case hasParent && n.Level != p.Level+1:
			errs = append(errs, domain.NewValidationError(domain.ErrInvalidHierarchy,
				fmt.Sprintf("level is %d, want %d", n.Level, p.Level+1), id))
		case hasParent && !strings.HasPrefix(n.WbsCode, p.WbsCode+"."):
			errs = append(errs, domain.NewValidationError(domain.ErrInvalidHierarchy,
				fmt.Sprintf("code %q does not extend parent code %q", n.WbsCode, p.WbsCode), id))
		}
	}
	return errs
}

func reverse(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

func remove(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
