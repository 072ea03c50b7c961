package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/types"
)

func strPtr(s string) *string                        { return &s }
func statusPtr(s types.ItemStatus) *types.ItemStatus { return &s }

// TestApplyPatchMergeSemantics verifies a patch overwrites exactly the set
// fields and keeps everything else, including children
func TestApplyPatchMergeSemantics(t *testing.T) {
	tree := sampleTree()

	patched := ApplyPatch(tree, NodePatch{
		ID:    "S1",
		Title: strPtr("Shopping cart"),
	})

	node := FindByID(patched, "S1")
	require.NotNil(t, node)
	assert.Equal(t, "Shopping cart", node.Title)
	assert.Equal(t, types.TypeStory, node.Type, "unset fields must survive")
	assert.True(t, node.Active)
	require.Len(t, node.Children, 2, "children list must never be replaced by a patch")
	assert.Equal(t, types.ItemID("T1"), node.Children[0].ID)

	// The original tree is untouched.
	assert.Equal(t, "Cart", FindByID(tree, "S1").Title)
}

// TestApplyPatchStructuralSharing verifies untouched subtrees are reused by
// reference while the path to the match is copied
func TestApplyPatchStructuralSharing(t *testing.T) {
	tree := sampleTree()

	patched := ApplyPatch(tree, NodePatch{
		ID:     "T3",
		Status: statusPtr(types.StatusDone),
	})

	// E2 is off the patch path and must be the same node.
	assert.Same(t, tree[1], patched[1], "untouched root reused")

	// E1 and S2 are on the path and must be copies.
	assert.NotSame(t, tree[0], patched[0], "ancestor copied")
	assert.NotSame(t, tree[0].Children[1], patched[0].Children[1])

	// S1 hangs off a copied ancestor but is itself untouched.
	assert.Same(t, tree[0].Children[0], patched[0].Children[0])

	// The matched node carries the new field and keeps its children.
	node := FindByID(patched, "T3")
	require.NotNil(t, node)
	assert.Equal(t, types.StatusDone, node.Status)
	require.Len(t, node.Children, 1)
	assert.Same(t, tree[0].Children[1].Children[0].Children[0], node.Children[0])
}

// TestApplyPatchNoMatchIsNoOp verifies a patch for an absent id returns a
// tree deep-equal to the input, not an error
func TestApplyPatchNoMatchIsNoOp(t *testing.T) {
	tree := sampleTree()

	patched := ApplyPatch(tree, NodePatch{
		ID:    "not-present",
		Title: strPtr("ghost"),
	})

	assert.Equal(t, tree, patched)
}

func TestApplyPatchEmptyTree(t *testing.T) {
	assert.Nil(t, ApplyPatch(nil, NodePatch{ID: "x"}))
	assert.Empty(t, ApplyPatch([]*types.WorkItem{}, NodePatch{ID: "x"}))
}

// TestApplyPatchDeepMatch verifies traversal reaches nodes at any depth
func TestApplyPatchDeepMatch(t *testing.T) {
	tree := sampleTree()
	active := false

	patched := ApplyPatch(tree, NodePatch{ID: "U1", Active: &active})

	node := FindByID(patched, "U1")
	require.NotNil(t, node)
	assert.False(t, node.Active)
	assert.True(t, FindByID(tree, "U1").Active, "input tree untouched")
}

func TestApplyPatchAllFields(t *testing.T) {
	tree := sampleTree()
	hours := 8.0
	order := 3
	active := false
	prio := types.PriorityCritical

	patched := ApplyPatch(tree, NodePatch{
		ID:                 "T1",
		Title:              strPtr("Add item to cart"),
		Description:        strPtr("With quantity selector"),
		Status:             statusPtr(types.StatusApproved),
		Priority:           &prio,
		Active:             &active,
		EstimatedHours:     &hours,
		OrderIndex:         &order,
		AcceptanceCriteria: []string{"quantity respected"},
	})

	node := FindByID(patched, "T1")
	require.NotNil(t, node)
	assert.Equal(t, "Add item to cart", node.Title)
	assert.Equal(t, "With quantity selector", node.Description)
	assert.Equal(t, types.StatusApproved, node.Status)
	assert.Equal(t, types.PriorityCritical, node.Priority)
	assert.False(t, node.Active)
	require.NotNil(t, node.EstimatedHours)
	assert.Equal(t, 8.0, *node.EstimatedHours)
	assert.Equal(t, 3, node.OrderIndex)
	assert.Equal(t, []string{"quantity respected"}, node.AcceptanceCriteria)
}
