package hierarchy

import (
	"github.com/taskdeck/taskdeck/internal/types"
)

// NodePatch is a partial update for one work item, addressed by id. Only
// non-nil fields overwrite; everything else on the matched node, including
// its children, is retained. Children can never be replaced through a
// patch — edits that restructure the tree go through a full refetch.
type NodePatch struct {
	ID                 types.ItemID
	Title              *string
	Description        *string
	Status             *types.ItemStatus
	Priority           *types.ItemPriority
	Active             *bool
	EstimatedHours     *float64
	OrderIndex         *int
	AcceptanceCriteria []string
}

func (p NodePatch) applyTo(node *types.WorkItem) {
	if p.Title != nil {
		node.Title = *p.Title
	}
	if p.Description != nil {
		node.Description = *p.Description
	}
	if p.Status != nil {
		node.Status = *p.Status
	}
	if p.Priority != nil {
		node.Priority = *p.Priority
	}
	if p.Active != nil {
		node.Active = *p.Active
	}
	if p.EstimatedHours != nil {
		node.EstimatedHours = p.EstimatedHours
	}
	if p.OrderIndex != nil {
		node.OrderIndex = *p.OrderIndex
	}
	if p.AcceptanceCriteria != nil {
		node.AcceptanceCriteria = p.AcceptanceCriteria
	}
}

// ApplyPatch merges the patch into the node it addresses and returns the
// resulting tree. The matched node and its ancestors are copied; untouched
// subtrees are reused by reference, so dozens of views can hold slices of
// the previous tree without seeing partial writes.
//
// Traversal is unconditional depth-first through every children list — the
// patch has to find its node wherever it sits, so no branch is skipped.
// When no node matches, the input tree is returned unchanged.
func ApplyPatch(tree []*types.WorkItem, patch NodePatch) []*types.WorkItem {
	out, _ := patchNodes(tree, patch)
	return out
}

func patchNodes(nodes []*types.WorkItem, patch NodePatch) ([]*types.WorkItem, bool) {
	if len(nodes) == 0 {
		return nodes, false
	}
	out := make([]*types.WorkItem, len(nodes))
	changed := false
	for i, node := range nodes {
		if node.ID == patch.ID {
			merged := *node
			patch.applyTo(&merged)
			merged.Children = node.Children
			out[i] = &merged
			changed = true
			continue
		}
		children, childChanged := patchNodes(node.Children, patch)
		if childChanged {
			copied := *node
			copied.Children = children
			out[i] = &copied
			changed = true
		} else {
			out[i] = node
		}
	}
	if !changed {
		return nodes, false
	}
	return out, true
}
