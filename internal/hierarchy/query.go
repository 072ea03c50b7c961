package hierarchy

import (
	"github.com/taskdeck/taskdeck/internal/types"
)

// The query functions are pure: they walk a tree value obtained from the
// store and never touch the store itself. Not-found is never an error here;
// callers get nil/empty results and decide what "missing" means.

// FindByID returns the first node with the given id in depth-first order
// (sibling order first, then descend). Behavior with duplicate ids is
// undefined; callers must guarantee uniqueness.
func FindByID(tree []*types.WorkItem, id types.ItemID) *types.WorkItem {
	for _, node := range tree {
		if node.ID == id {
			return node
		}
		if found := FindByID(node.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// CollectByType returns every node in the tree, at any depth, whose type
// matches, in depth-first order.
func CollectByType(tree []*types.WorkItem, typ types.ItemType) []*types.WorkItem {
	var out []*types.WorkItem
	for _, node := range tree {
		if node.Type == typ {
			out = append(out, node)
		}
		out = append(out, CollectByType(node.Children, typ)...)
	}
	return out
}

// CollectByTypeUnder finds the node with the given parent id depth-first and
// returns exactly that node's direct children of the requested type.
//
// Once the parent is located the search stops: siblings and other branches
// are never visited, even when the parent has no matching children. Existing
// views depend on this short-circuit, so it is kept as-is.
func CollectByTypeUnder(tree []*types.WorkItem, typ types.ItemType, parentID types.ItemID) []*types.WorkItem {
	out, _ := collectUnder(tree, typ, parentID)
	return out
}

func collectUnder(nodes []*types.WorkItem, typ types.ItemType, parentID types.ItemID) ([]*types.WorkItem, bool) {
	for _, node := range nodes {
		if node.ID == parentID {
			var out []*types.WorkItem
			for _, child := range node.Children {
				if child.Type == typ {
					out = append(out, child)
				}
			}
			return out, true
		}
		if out, found := collectUnder(node.Children, typ, parentID); found {
			return out, true
		}
	}
	return nil, false
}

// ChildrenOf returns the direct children of the node with the given id, or
// nil when the node is absent or a leaf.
func ChildrenOf(tree []*types.WorkItem, id types.ItemID) []*types.WorkItem {
	node := FindByID(tree, id)
	if node == nil {
		return nil
	}
	return node.Children
}
