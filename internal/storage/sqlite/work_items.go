package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal/types"
)

// ErrNotFound is returned when a project or work item does not exist
var ErrNotFound = errors.New("not found")

const workItemColumns = `id, project_id, parent_id, item_type, title, description,
	status, priority, acceptance_criteria, estimated_hours, order_index, active,
	created_at, updated_at`

// CreateWorkItem inserts a new work item. A missing ID is assigned a UUID,
// a missing status and priority get defaults, and the parent (when set) must
// exist and sit one hierarchy level above the new item.
func (s *SQLiteStorage) CreateWorkItem(ctx context.Context, item *types.WorkItem) error {
	if item.Status == "" {
		item.Status = types.StatusTodo
	}
	if item.Priority == "" {
		item.Priority = types.PriorityMedium
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid work item: %w", err)
	}
	if item.ID == "" {
		item.ID = types.ItemID(uuid.New().String())
	}

	if _, err := s.GetProject(ctx, item.ProjectID); err != nil {
		return err
	}
	if item.ParentID != "" {
		parent, err := s.GetWorkItem(ctx, item.ParentID)
		if err != nil {
			return fmt.Errorf("parent %s: %w", item.ParentID, ErrNotFound)
		}
		if parent.Type.Level()+1 != item.Type.Level() {
			return fmt.Errorf("a %s cannot be a child of a %s", item.Type, parent.Type)
		}
	} else if item.Type != types.TypeEpic {
		return fmt.Errorf("a %s requires a parent; only epics are roots", item.Type)
	}

	criteria, err := json.Marshal(item.AcceptanceCriteria)
	if err != nil {
		return fmt.Errorf("failed to encode acceptance criteria: %w", err)
	}

	now := time.Now().UTC()
	item.Active = true
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO work_items (id, project_id, parent_id, item_type, title, description,
			status, priority, acceptance_criteria, estimated_hours, order_index, active,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID.String(), item.ProjectID.String(), nullableID(item.ParentID),
		string(item.Type), item.Title, item.Description,
		string(item.Status), string(item.Priority), string(criteria),
		item.EstimatedHours, item.OrderIndex, item.Active, now, now)
	if err != nil {
		return fmt.Errorf("failed to create work item: %w", err)
	}
	return nil
}

// GetWorkItem returns a work item by ID, or ErrNotFound.
func (s *SQLiteStorage) GetWorkItem(ctx context.Context, id types.ItemID) (*types.WorkItem, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+workItemColumns+` FROM work_items WHERE id = ?`, id.String())
	item, err := scanWorkItem(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get work item: %w", err)
	}
	return item, nil
}

// ListWorkItems returns a project's work items as a flat list, newest last,
// narrowed by the filter.
func (s *SQLiteStorage) ListWorkItems(ctx context.Context, projectID types.ItemID, filter types.WorkItemFilter) ([]*types.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items WHERE project_id = ?`
	args := []interface{}{projectID.String()}

	if filter.Type != nil {
		query += ` AND item_type = ?`
		args = append(args, string(*filter.Type))
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*filter.Status))
	}
	if filter.Priority != nil {
		query += ` AND priority = ?`
		args = append(args, string(*filter.Priority))
	}
	if filter.ParentID != nil {
		query += ` AND parent_id = ?`
		args = append(args, filter.ParentID.String())
	}
	query += ` ORDER BY order_index, created_at`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}
	defer rows.Close()

	var items []*types.WorkItem
	for rows.Next() {
		item, err := scanWorkItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// updatableColumns maps update keys to their SQL columns. Structural fields
// (project, parent, type) are deliberately absent; moves are not supported.
var updatableColumns = map[string]string{
	"title":               "title",
	"description":         "description",
	"status":              "status",
	"priority":            "priority",
	"acceptance_criteria": "acceptance_criteria",
	"estimated_hours":     "estimated_hours",
	"order_index":         "order_index",
}

// UpdateWorkItem applies a partial update and returns the updated item.
// Unknown keys are rejected rather than silently dropped.
func (s *SQLiteStorage) UpdateWorkItem(ctx context.Context, id types.ItemID, updates map[string]interface{}) (*types.WorkItem, error) {
	if len(updates) == 0 {
		return s.GetWorkItem(ctx, id)
	}

	setClauses := make([]string, 0, len(updates)+1)
	args := make([]interface{}, 0, len(updates)+2)
	for key, value := range updates {
		column, ok := updatableColumns[key]
		if !ok {
			return nil, fmt.Errorf("cannot update field %q", key)
		}
		if key == "status" {
			if !types.ItemStatus(fmt.Sprint(value)).IsValid() {
				return nil, fmt.Errorf("invalid status: %v", value)
			}
		}
		if key == "priority" {
			if !types.ItemPriority(fmt.Sprint(value)).IsValid() {
				return nil, fmt.Errorf("invalid priority: %v", value)
			}
		}
		if key == "acceptance_criteria" {
			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("failed to encode acceptance criteria: %w", err)
			}
			value = string(encoded)
		}
		setClauses = append(setClauses, column+" = ?")
		args = append(args, value)
	}
	setClauses = append(setClauses, "updated_at = ?")
	args = append(args, time.Now().UTC(), id.String())

	res, err := s.db.ExecContext(ctx,
		`UPDATE work_items SET `+strings.Join(setClauses, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update work item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	return s.GetWorkItem(ctx, id)
}

// DeleteWorkItem removes a work item; foreign keys cascade to descendants.
func (s *SQLiteStorage) DeleteWorkItem(ctx context.Context, id types.ItemID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM work_items WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete work item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("work item %s: %w", id, ErrNotFound)
	}
	return nil
}

// Hierarchy returns the project's work items assembled into nested trees,
// epics as roots. Siblings are ordered by order_index, then creation time.
// Orphans (parent missing from the result set) are dropped.
func (s *SQLiteStorage) Hierarchy(ctx context.Context, projectID types.ItemID) ([]*types.WorkItem, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	items, err := s.ListWorkItems(ctx, projectID, types.WorkItemFilter{})
	if err != nil {
		return nil, err
	}

	byID := make(map[types.ItemID]*types.WorkItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	var roots []*types.WorkItem
	for _, item := range items {
		if item.ParentID == "" {
			roots = append(roots, item)
			continue
		}
		if parent, ok := byID[item.ParentID]; ok {
			parent.Children = append(parent.Children, item)
		}
	}

	// ListWorkItems already orders rows, but appends interleave children
	// from different parents, so each sibling list is sorted again.
	var sortChildren func(nodes []*types.WorkItem)
	sortChildren = func(nodes []*types.WorkItem) {
		sort.SliceStable(nodes, func(i, j int) bool {
			if nodes[i].OrderIndex != nodes[j].OrderIndex {
				return nodes[i].OrderIndex < nodes[j].OrderIndex
			}
			return nodes[i].CreatedAt.Before(nodes[j].CreatedAt)
		})
		for _, node := range nodes {
			sortChildren(node.Children)
		}
	}
	sortChildren(roots)

	return roots, nil
}

// SetActive toggles a work item's active flag and cascades the change to
// every descendant in one statement.
func (s *SQLiteStorage) SetActive(ctx context.Context, id types.ItemID, active bool) (*types.WorkItem, error) {
	if _, err := s.GetWorkItem(ctx, id); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM work_items WHERE id = ?
			UNION ALL
			SELECT w.id FROM work_items w JOIN subtree s ON w.parent_id = s.id
		)
		UPDATE work_items SET active = ?, updated_at = ?
		WHERE id IN (SELECT id FROM subtree)
	`, id.String(), active, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to toggle active: %w", err)
	}

	return s.GetWorkItem(ctx, id)
}

// Stats returns aggregate counts over a project's work items.
func (s *SQLiteStorage) Stats(ctx context.Context, projectID types.ItemID) (*types.WorkItemStats, error) {
	if _, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	stats := &types.WorkItemStats{
		ByType:     make(map[string]int),
		ByStatus:   make(map[string]int),
		ByPriority: make(map[string]int),
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_type, status, priority, COUNT(*), SUM(COALESCE(estimated_hours, 0))
		FROM work_items WHERE project_id = ?
		GROUP BY item_type, status, priority
	`, projectID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var itemType, status, priority string
		var sumHours float64
		var count int
		if err := rows.Scan(&itemType, &status, &priority, &count, &sumHours); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.TotalItems += count
		stats.ByType[itemType] += count
		stats.ByStatus[status] += count
		stats.ByPriority[priority] += count
		stats.TotalEstimatedHours += sumHours
	}
	return stats, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanWorkItem(row scanner) (*types.WorkItem, error) {
	var item types.WorkItem
	var parentID sql.NullString
	var criteria string
	var hours sql.NullFloat64

	err := row.Scan(&item.ID, &item.ProjectID, &parentID, &item.Type, &item.Title,
		&item.Description, &item.Status, &item.Priority, &criteria, &hours,
		&item.OrderIndex, &item.Active, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		item.ParentID = types.ItemID(parentID.String)
	}
	if hours.Valid {
		item.EstimatedHours = &hours.Float64
	}
	if criteria != "" {
		if err := json.Unmarshal([]byte(criteria), &item.AcceptanceCriteria); err != nil {
			return nil, fmt.Errorf("failed to decode acceptance criteria: %w", err)
		}
	}
	return &item, nil
}

func nullableID(id types.ItemID) interface{} {
	if id == "" {
		return nil
	}
	return id.String()
}
