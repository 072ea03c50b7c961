package hierarchy

import (
	"context"

	"github.com/taskdeck/taskdeck/internal/types"
)

// Bindings are the thin adapters between views and the cache. A view
// declares the slice it needs; the binding reads the current snapshot,
// triggers a fetch when nothing is cached, and signals the view on every
// cache change so it can re-derive. Views never fetch on their own.

// binding holds the parts shared by slice and node bindings.
type binding struct {
	coord   *Coordinator
	project types.ItemID
	changes <-chan struct{}
	cancel  func()
}

// Changes delivers a coalesced signal after every cache commit for the
// bound project. Receive and re-read; the channel carries no payload.
func (b *binding) Changes() <-chan struct{} { return b.changes }

// Loading reports whether a fetch for the bound project is in flight.
func (b *binding) Loading() bool { return b.coord.store.Loading(b.project) }

// Err returns the last fetch failure recorded for the bound project.
func (b *binding) Err() error { return b.coord.store.LastError(b.project) }

// Refetch forces a fresh snapshot regardless of TTL or recorded auth
// failures.
func (b *binding) Refetch(ctx context.Context) error {
	_, err := b.coord.EnsureFresh(ctx, b.project, true)
	return err
}

// Close unsubscribes the binding from cache change notifications.
func (b *binding) Close() { b.cancel() }

// maybeFetch triggers a background fetch when the view has nothing to show.
// satisfied reports whether the current snapshot already covers the view.
// No fetch starts while one is in flight or after a recorded 401/403; auth
// failures stay suppressed until Refetch, so a dead session does not cause
// a retry storm.
func (b *binding) maybeFetch(ctx context.Context, satisfied bool) {
	store := b.coord.store
	if satisfied {
		return
	}
	if store.Loading(b.project) {
		return
	}
	if IsAuthError(store.LastError(b.project)) {
		return
	}
	go func() {
		// The error is recorded on the key; views read it via Err.
		_, _ = b.coord.EnsureFresh(ctx, b.project, false)
	}()
}

// SliceBinding gives a view the work items of one type under one parent
// (both optional) for a project.
type SliceBinding struct {
	binding
	typ    types.ItemType
	parent types.ItemID
}

// BindSlice declares a view's interest in a slice of the project tree.
// Zero-valued typ means all roots; zero-valued parent means the whole tree.
// The caller must Close the binding when the view unmounts.
func (c *Coordinator) BindSlice(ctx context.Context, projectID types.ItemID, typ types.ItemType, parentID types.ItemID) *SliceBinding {
	b := &SliceBinding{
		binding: binding{coord: c, project: projectID},
		typ:     typ,
		parent:  parentID,
	}
	b.changes, b.cancel = c.store.Subscribe(projectID)
	_, cached := c.store.Entry(projectID)
	b.maybeFetch(ctx, cached)
	return b
}

// Items derives the requested slice from the current snapshot. Nil when
// nothing is cached yet.
func (s *SliceBinding) Items() []*types.WorkItem {
	tree, ok := s.coord.store.Tree(s.project)
	if !ok {
		return nil
	}
	switch {
	case s.parent != "":
		return CollectByTypeUnder(tree, s.typ, s.parent)
	case s.typ != "":
		return CollectByType(tree, s.typ)
	default:
		return tree
	}
}

// NodeBinding resolves a single work item by id.
type NodeBinding struct {
	binding
	id types.ItemID
}

// BindNode declares a view's interest in one work item. The caller must
// Close the binding when the view unmounts.
func (c *Coordinator) BindNode(ctx context.Context, projectID, id types.ItemID) *NodeBinding {
	b := &NodeBinding{
		binding: binding{coord: c, project: projectID},
		id:      id,
	}
	b.changes, b.cancel = c.store.Subscribe(projectID)
	b.maybeFetch(ctx, b.Node() != nil)
	return b
}

// Node returns the bound work item from the current snapshot, or nil when
// the snapshot is absent or the id is not in it.
func (n *NodeBinding) Node() *types.WorkItem {
	tree, ok := n.coord.store.Tree(n.project)
	if !ok {
		return nil
	}
	return FindByID(tree, n.id)
}
