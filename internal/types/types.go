package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ItemID is the canonical work item identifier. The backend historically
// served numeric ids for some rows and string ids for others, so ids are
// normalized to strings at the JSON boundary and compared as plain strings
// everywhere else.
type ItemID string

// UnmarshalJSON accepts both string and numeric identifiers.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		*id = ItemID(v)
	case float64:
		*id = ItemID(strconv.FormatFloat(v, 'f', -1, 64))
	case nil:
		*id = ""
	default:
		return fmt.Errorf("invalid item id: %v (%T)", raw, raw)
	}
	return nil
}

func (id ItemID) String() string { return string(id) }

// WorkItem is one node in a project's hierarchy. Children are owned by the
// parent; ParentID is a back-reference only and is never used for traversal.
type WorkItem struct {
	ID                 ItemID       `json:"id"`
	ProjectID          ItemID       `json:"project_id,omitempty"`
	ParentID           ItemID       `json:"parent_id,omitempty"`
	Type               ItemType     `json:"type"`
	Title              string       `json:"title"`
	Description        string       `json:"description,omitempty"`
	Status             ItemStatus   `json:"status"`
	Priority           ItemPriority `json:"priority"`
	AcceptanceCriteria []string     `json:"acceptance_criteria,omitempty"`
	EstimatedHours     *float64     `json:"estimated_hours,omitempty"`
	OrderIndex         int          `json:"order_index"`
	Active             bool         `json:"active"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at,omitzero"`
	Children           []*WorkItem  `json:"children,omitempty"`
}

// Validate checks if the work item has valid field values
func (w *WorkItem) Validate() error {
	if len(w.Title) == 0 {
		return fmt.Errorf("title is required")
	}
	if len(w.Title) > 255 {
		return fmt.Errorf("title must be 255 characters or less (got %d)", len(w.Title))
	}
	if !w.Type.IsValid() {
		return fmt.Errorf("invalid item type: %s", w.Type)
	}
	if !w.Status.IsValid() {
		return fmt.Errorf("invalid status: %s", w.Status)
	}
	if !w.Priority.IsValid() {
		return fmt.Errorf("invalid priority: %s", w.Priority)
	}
	if w.EstimatedHours != nil && *w.EstimatedHours < 0 {
		return fmt.Errorf("estimated_hours cannot be negative")
	}
	return nil
}

// ItemType categorizes a work item by its level in the hierarchy
type ItemType string

const (
	TypeProject ItemType = "project"
	TypeEpic    ItemType = "epic"
	TypeStory   ItemType = "story"
	TypeTask    ItemType = "task"
	TypeSubtask ItemType = "subtask"
)

// IsValid checks if the item type value is valid
func (t ItemType) IsValid() bool {
	switch t {
	case TypeProject, TypeEpic, TypeStory, TypeTask, TypeSubtask:
		return true
	}
	return false
}

// Level returns the depth of the type in the hierarchy: project=0, epic=1,
// story=2, task=3, subtask=4. Unknown types return -1.
func (t ItemType) Level() int {
	switch t {
	case TypeProject:
		return 0
	case TypeEpic:
		return 1
	case TypeStory:
		return 2
	case TypeTask:
		return 3
	case TypeSubtask:
		return 4
	}
	return -1
}

// ItemStatus represents the review state of a work item
type ItemStatus string

const (
	StatusAIGenerated ItemStatus = "ai_generated"
	StatusTodo        ItemStatus = "todo"
	StatusInReview    ItemStatus = "in_review"
	StatusReviewed    ItemStatus = "reviewed"
	StatusApproved    ItemStatus = "approved"
	StatusDone        ItemStatus = "done"
)

// IsValid checks if the status value is valid
func (s ItemStatus) IsValid() bool {
	switch s {
	case StatusAIGenerated, StatusTodo, StatusInReview, StatusReviewed, StatusApproved, StatusDone:
		return true
	}
	return false
}

// ItemPriority represents the priority assigned to a work item
type ItemPriority string

const (
	PriorityLow      ItemPriority = "low"
	PriorityMedium   ItemPriority = "medium"
	PriorityHigh     ItemPriority = "high"
	PriorityCritical ItemPriority = "critical"
)

// IsValid checks if the priority value is valid
func (p ItemPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Rank orders priorities for sorting, lower sorts first: critical=0, low=3.
// Unknown priorities sort last.
func (p ItemPriority) Rank() int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Project is the root container that work item hierarchies hang off of
type Project struct {
	ID          ItemID    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Validate checks if the project has valid field values
func (p *Project) Validate() error {
	if len(p.Name) == 0 {
		return fmt.Errorf("name is required")
	}
	if len(p.Name) > 255 {
		return fmt.Errorf("name must be 255 characters or less (got %d)", len(p.Name))
	}
	return nil
}

// WorkItemStats provides aggregate counts over a project's work items
type WorkItemStats struct {
	TotalItems          int            `json:"total_items"`
	ByType              map[string]int `json:"by_type"`
	ByStatus            map[string]int `json:"by_status"`
	ByPriority          map[string]int `json:"by_priority"`
	TotalEstimatedHours float64        `json:"total_estimated_hours"`
}

// WorkItemFilter narrows work item list queries
type WorkItemFilter struct {
	Type     *ItemType
	Status   *ItemStatus
	Priority *ItemPriority
	ParentID *ItemID
	Limit    int
}

// FilterActive returns a copy of the tree with inactive nodes removed.
// Inactive nodes stay in storage and in the cache; only presentation
// filters them out.
func FilterActive(tree []*WorkItem) []*WorkItem {
	if tree == nil {
		return nil
	}
	out := make([]*WorkItem, 0, len(tree))
	for _, node := range tree {
		if !node.Active {
			continue
		}
		kept := *node
		kept.Children = FilterActive(node.Children)
		out = append(out, &kept)
	}
	return out
}

// CountNodes returns the total number of nodes in the tree, at any depth.
func CountNodes(tree []*WorkItem) int {
	n := 0
	for _, node := range tree {
		n += 1 + CountNodes(node.Children)
	}
	return n
}
