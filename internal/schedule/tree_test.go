package schedule

import (
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Tree {
	return NewTree([]*domain.WbsNode{
		node("b", code("2"), order(2)),
		node("a", code("1"), order(1)),
		node("a2", under("a"), code("1.2"), order(2), level(1)),
		node("a1", under("a"), code("1.1"), order(1), level(1)),
		node("a11", under("a1"), code("1.1.1"), order(1), level(2)),
	}, []*domain.Subtask{
		{ID: "s1", BacklogID: "a2", Name: "x", Status: domain.SubtaskPending},
		{ID: "orphan", BacklogID: "missing", Name: "y", Status: domain.SubtaskPending},
	})
}

func TestTree_OrderingAndTraversal(t *testing.T) {
	tree := sampleTree()

	assert.Equal(t, []string{"a", "b"}, tree.Roots())
	assert.Equal(t, []string{"a1", "a2"}, tree.Children("a"))
	assert.Equal(t, []string{"a", "a1", "a11", "a2", "b"}, tree.PreOrder())
	assert.Equal(t, []string{"a11", "a1", "a2", "a", "b"}, tree.PostOrder())
	assert.Equal(t, []string{"a1", "a11", "a2"}, tree.Descendants("a"))
	assert.Equal(t, 2, tree.Height("a"))
	assert.Equal(t, 0, tree.Height("b"))
}

func TestTree_LeafAndAncestry(t *testing.T) {
	tree := sampleTree()

	assert.True(t, tree.IsLeaf("a11"))
	assert.True(t, tree.IsLeaf("b"))
	assert.False(t, tree.IsLeaf("a2"), "subtasks make a node non-leaf")
	assert.False(t, tree.IsLeaf("a"))
	assert.Len(t, tree.Subtasks("a2"), 1)
	assert.Empty(t, tree.Subtasks("missing"))

	assert.True(t, tree.IsAncestor("a", "a11"))
	assert.False(t, tree.IsAncestor("a11", "a"))
	assert.True(t, tree.Related("a11", "a"))
	assert.False(t, tree.Related("a2", "a11"))
}

func TestTree_SkipsDeletedNodes(t *testing.T) {
	gone := time.Now()
	tree := NewTree([]*domain.WbsNode{
		node("a", code("1"), order(1)),
		node("a1", under("a"), code("1.1"), order(1), level(1), func(n *domain.WbsNode) { n.DeletedAt = &gone }),
	}, nil)

	assert.Equal(t, 1, tree.Len())
	assert.True(t, tree.IsLeaf("a"))
	_, ok := tree.Node("a1")
	assert.False(t, ok)
}

func TestTree_AttachDerivesCodeAndLevel(t *testing.T) {
	tree := sampleTree()

	n := node("a3", under("a"))
	require.NoError(t, tree.Attach(n, 8))
	assert.Equal(t, 3, n.SortOrder)
	assert.Equal(t, "1.3", n.WbsCode)
	assert.Equal(t, 1, n.Level)

	root := node("c")
	require.NoError(t, tree.Attach(root, 8))
	assert.Equal(t, "3", root.WbsCode)
	assert.Equal(t, 0, root.Level)

	explicit := node("a9", under("a"), order(9))
	require.NoError(t, tree.Attach(explicit, 8))
	assert.Equal(t, "1.9", explicit.WbsCode)
	assert.Equal(t, []string{"a1", "a2", "a3", "a9"}, tree.Children("a"))
}

func TestTree_AttachRejectsInvalidHierarchy(t *testing.T) {
	tests := []struct {
		name     string
		node     *domain.WbsNode
		maxDepth int
	}{
		{"missing parent", node("x", under("nope")), 8},
		{"parent in other project", node("x", under("a"), func(n *domain.WbsNode) { n.ProjectID = "p2" }), 8},
		{"sort order taken", node("x", under("a"), order(1)), 8},
		{"too deep", node("x", under("a11")), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := sampleTree()
			err := tree.Attach(tt.node, tt.maxDepth)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
			_, ok := tree.Node("x")
			assert.False(t, ok)
		})
	}
}

func TestTree_MoveRelabelsSubtree(t *testing.T) {
	tree := sampleTree()

	changed, err := tree.Move("a1", "b", 8)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a1", "a11"}, ids(changed...))

	a1, _ := tree.Node("a1")
	a11, _ := tree.Node("a11")
	assert.Equal(t, "2.1", a1.WbsCode)
	assert.Equal(t, 1, a1.Level)
	assert.Equal(t, "2.1.1", a11.WbsCode)
	assert.Equal(t, 2, a11.Level)
	assert.Equal(t, []string{"a2"}, tree.Children("a"))
	assert.Empty(t, tree.CheckHierarchy())
}

func TestTree_MoveToRoot(t *testing.T) {
	tree := sampleTree()

	_, err := tree.Move("a11", "", 8)
	require.NoError(t, err)

	n, _ := tree.Node("a11")
	assert.Nil(t, n.ParentID)
	assert.Equal(t, "3", n.WbsCode)
	assert.Equal(t, 0, n.Level)
}

func TestTree_MoveUnderDescendantIsCycle(t *testing.T) {
	tree := sampleTree()

	_, err := tree.Move("a", "a11", 8)
	require.ErrorIs(t, err, domain.ErrCycleDetected)
	assert.Contains(t, domain.OffendingIDs(err), "a")

	_, err = tree.Move("a", "a", 8)
	assert.ErrorIs(t, err, domain.ErrCycleDetected)
}

func TestTree_AttachAtMaxDepth(t *testing.T) {
	tree := sampleTree()

	n := node("x", under("a11"))
	require.NoError(t, tree.Attach(n, 3), "level 3 equals the max and is allowed")
	assert.Equal(t, 3, n.Level)
	assert.Equal(t, "1.1.1.1", n.WbsCode)

	err := tree.Attach(node("y", under("x")), 3)
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
}

func TestTree_MoveDepthOverflow(t *testing.T) {
	tree := sampleTree()

	_, err := tree.Move("a1", "a2", 2)
	assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
	a1, _ := tree.Node("a1")
	assert.Equal(t, "1.1", a1.WbsCode, "rejected move leaves the tree alone")

	_, err = tree.Move("a1", "a2", 3)
	require.NoError(t, err, "a11 lands on level 3, the max")
	a11, _ := tree.Node("a11")
	assert.Equal(t, 3, a11.Level)
}

func TestTree_CheckHierarchyReportsBrokenCodes(t *testing.T) {
	tree := NewTree([]*domain.WbsNode{
		node("a", code("1"), order(1)),
		node("a1", under("a"), code("2.1"), order(1), level(1)),
		node("a2", under("a"), code("1.2"), order(2), level(3)),
	}, nil)

	errs := tree.CheckHierarchy()
	require.Len(t, errs, 2)
	for _, err := range errs {
		assert.ErrorIs(t, err, domain.ErrInvalidHierarchy)
	}
}

// Random sequences of Attach and Move always keep level and code consistent.
func TestTree_Invariants_HierarchyConsistency(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		tree := NewTree(nil, nil)
		var known []string
		for i := 0; i < 40; i++ {
			id := "n" + string(rune('A'+i%26)) + string(rune('a'+i/26))
			n := node(id)
			if len(known) > 0 && rng.Intn(4) > 0 {
				n = node(id, under(known[rng.Intn(len(known))]))
			}
			if err := tree.Attach(n, 6); err == nil {
				known = append(known, id)
			}
			if len(known) > 2 && rng.Intn(3) == 0 {
				target := known[rng.Intn(len(known))]
				parent := ""
				if rng.Intn(2) == 0 {
					parent = known[rng.Intn(len(known))]
				}
				_, _ = tree.Move(target, parent, 6)
			}
		}

		assert.Empty(t, tree.CheckHierarchy(), "trial %d", trial)
		for _, id := range tree.PreOrder() {
			n, _ := tree.Node(id)
			if p, ok := tree.Node(n.ParentKey()); ok {
				assert.Equal(t, p.Level+1, n.Level)
				assert.True(t, strings.HasPrefix(n.WbsCode, p.WbsCode+"."))
			} else {
				assert.Equal(t, 0, n.Level)
			}
		}
	}
}
