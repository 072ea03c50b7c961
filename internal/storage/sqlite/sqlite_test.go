package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal/types"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedProject(t *testing.T, s *SQLiteStorage) *types.Project {
	t.Helper()
	p := &types.Project{Name: "Dashboard"}
	require.NoError(t, s.CreateProject(context.Background(), p))
	return p
}

func seedItem(t *testing.T, s *SQLiteStorage, item *types.WorkItem) *types.WorkItem {
	t.Helper()
	require.NoError(t, s.CreateWorkItem(context.Background(), item))
	return item
}

func TestProjectCRUD(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	p := seedProject(t, s)
	assert.NotEmpty(t, p.ID, "create assigns an id")
	assert.True(t, p.Active)

	got, err := s.GetProject(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dashboard", got.Name)

	all, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, s.DeleteProject(ctx, p.ID))
	_, err = s.GetProject(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateWorkItemValidation(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	p := seedProject(t, s)

	// Missing title.
	err := s.CreateWorkItem(ctx, &types.WorkItem{ProjectID: p.ID, Type: types.TypeEpic})
	assert.Error(t, err)

	// Non-epic without a parent.
	err = s.CreateWorkItem(ctx, &types.WorkItem{ProjectID: p.ID, Type: types.TypeStory, Title: "orphan"})
	assert.Error(t, err)

	// Unknown project.
	err = s.CreateWorkItem(ctx, &types.WorkItem{ProjectID: "nope", Type: types.TypeEpic, Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	epic := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, Type: types.TypeEpic, Title: "Checkout"})

	// A task cannot hang directly off an epic.
	err = s.CreateWorkItem(ctx, &types.WorkItem{
		ProjectID: p.ID, ParentID: epic.ID, Type: types.TypeTask, Title: "skipped a level",
	})
	assert.Error(t, err)

	// Defaults applied on create.
	story := seedItem(t, s, &types.WorkItem{
		ProjectID: p.ID, ParentID: epic.ID, Type: types.TypeStory, Title: "Cart",
	})
	assert.Equal(t, types.StatusTodo, story.Status)
	assert.Equal(t, types.PriorityMedium, story.Priority)
	assert.True(t, story.Active)
}

func TestUpdateWorkItem(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	p := seedProject(t, s)
	epic := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, Type: types.TypeEpic, Title: "Checkout"})

	updated, err := s.UpdateWorkItem(ctx, epic.ID, map[string]interface{}{
		"title":               "Checkout v2",
		"status":              "in_review",
		"acceptance_criteria": []string{"loads under 1s"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Checkout v2", updated.Title)
	assert.Equal(t, types.StatusInReview, updated.Status)
	assert.Equal(t, []string{"loads under 1s"}, updated.AcceptanceCriteria)
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	_, err = s.UpdateWorkItem(ctx, epic.ID, map[string]interface{}{"status": "bogus"})
	assert.Error(t, err, "invalid status rejected")

	_, err = s.UpdateWorkItem(ctx, epic.ID, map[string]interface{}{"parent_id": "E9"})
	assert.Error(t, err, "structural fields are not updatable")

	_, err = s.UpdateWorkItem(ctx, "missing", map[string]interface{}{"title": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListWorkItemsFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	p := seedProject(t, s)
	epic := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, Type: types.TypeEpic, Title: "Checkout"})
	s1 := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, ParentID: epic.ID, Type: types.TypeStory, Title: "Cart", OrderIndex: 1})
	s2 := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, ParentID: epic.ID, Type: types.TypeStory, Title: "Payment", OrderIndex: 0})
	seedItem(t, s, &types.WorkItem{ProjectID: p.ID, ParentID: s1.ID, Type: types.TypeTask, Title: "Add button"})

	typ := types.TypeStory
	stories, err := s.ListWorkItems(ctx, p.ID, types.WorkItemFilter{Type: &typ})
	require.NoError(t, err)
	require.Len(t, stories, 2)
	assert.Equal(t, s2.ID, stories[0].ID, "order_index sorts before creation time")

	children, err := s.ListWorkItems(ctx, p.ID, types.WorkItemFilter{ParentID: &s1.ID})
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "Add button", children[0].Title)
}

func TestHierarchyAssembly(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	p := seedProject(t, s)
	e1 := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, Type: types.TypeEpic, Title: "Checkout", OrderIndex: 1})
	e2 := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, Type: types.TypeEpic, Title: "Search", OrderIndex: 0})
	s1 := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, ParentID: e1.ID, Type: types.TypeStory, Title: "Cart"})
	t1 := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, ParentID: s1.ID, Type: types.TypeTask, Title: "Add button"})

	tree, err := s.Hierarchy(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, e2.ID, tree[0].ID, "roots ordered by order_index")
	assert.Equal(t, e1.ID, tree[1].ID)
	require.Len(t, tree[1].Children, 1)
	require.Len(t, tree[1].Children[0].Children, 1)
	assert.Equal(t, t1.ID, tree[1].Children[0].Children[0].ID)

	_, err = s.Hierarchy(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetActiveCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	p := seedProject(t, s)
	epic := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, Type: types.TypeEpic, Title: "Checkout"})
	story := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, ParentID: epic.ID, Type: types.TypeStory, Title: "Cart"})
	task := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, ParentID: story.ID, Type: types.TypeTask, Title: "Add button"})
	other := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, Type: types.TypeEpic, Title: "Search"})

	updated, err := s.SetActive(ctx, story.ID, false)
	require.NoError(t, err)
	assert.False(t, updated.Active)

	got, err := s.GetWorkItem(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, got.Active, "descendants follow the toggle")

	got, err = s.GetWorkItem(ctx, epic.ID)
	require.NoError(t, err)
	assert.True(t, got.Active, "ancestors are untouched")

	got, err = s.GetWorkItem(ctx, other.ID)
	require.NoError(t, err)
	assert.True(t, got.Active, "siblings outside the subtree are untouched")

	// Reactivating restores the whole subtree.
	_, err = s.SetActive(ctx, story.ID, true)
	require.NoError(t, err)
	got, err = s.GetWorkItem(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	p := seedProject(t, s)
	epic := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, Type: types.TypeEpic, Title: "Checkout"})
	story := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, ParentID: epic.ID, Type: types.TypeStory, Title: "Cart"})

	require.NoError(t, s.DeleteWorkItem(ctx, epic.ID))
	_, err := s.GetWorkItem(ctx, story.ID)
	assert.ErrorIs(t, err, ErrNotFound, "children deleted with the parent")
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	p := seedProject(t, s)
	hours := 3.5
	epic := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, Type: types.TypeEpic, Title: "Checkout", Priority: types.PriorityHigh})
	story := seedItem(t, s, &types.WorkItem{ProjectID: p.ID, ParentID: epic.ID, Type: types.TypeStory, Title: "Cart"})
	seedItem(t, s, &types.WorkItem{
		ProjectID: p.ID, ParentID: story.ID, Type: types.TypeTask, Title: "Add button",
		Status: types.StatusDone, EstimatedHours: &hours,
	})

	stats, err := s.Stats(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalItems)
	assert.Equal(t, 1, stats.ByType["epic"])
	assert.Equal(t, 1, stats.ByType["story"])
	assert.Equal(t, 1, stats.ByType["task"])
	assert.Equal(t, 2, stats.ByStatus["todo"])
	assert.Equal(t, 1, stats.ByStatus["done"])
	assert.Equal(t, 1, stats.ByPriority["high"])
	assert.InDelta(t, 3.5, stats.TotalEstimatedHours, 0.001)
}
