package types

import (
	"encoding/json"
	"testing"
	"time"
)

// TestWorkItemValidate verifies validation of required and bounded fields
func TestWorkItemValidate(t *testing.T) {
	now := time.Now()
	item := WorkItem{
		ID:        "wi-1",
		Type:      TypeTask,
		Title:     "Implement login form",
		Status:    StatusTodo,
		Priority:  PriorityMedium,
		Active:    true,
		CreatedAt: now,
	}

	if err := item.Validate(); err != nil {
		t.Errorf("valid work item failed validation: %v", err)
	}

	missing := item
	missing.Title = ""
	if err := missing.Validate(); err == nil {
		t.Error("expected error for empty title")
	}

	badType := item
	badType.Type = ItemType("milestone")
	if err := badType.Validate(); err == nil {
		t.Error("expected error for unknown item type")
	}

	negative := item
	hours := -2.0
	negative.EstimatedHours = &hours
	if err := negative.Validate(); err == nil {
		t.Error("expected error for negative estimated hours")
	}
}

// TestItemTypeLevels verifies the hierarchy ordering of item types
func TestItemTypeLevels(t *testing.T) {
	ordered := []ItemType{TypeProject, TypeEpic, TypeStory, TypeTask, TypeSubtask}
	for i, typ := range ordered {
		if typ.Level() != i {
			t.Errorf("%s.Level() = %d, want %d", typ, typ.Level(), i)
		}
		if !typ.IsValid() {
			t.Errorf("%s should be valid", typ)
		}
	}
	if ItemType("sprint").Level() != -1 {
		t.Error("unknown type should have level -1")
	}
}

func TestItemStatusIsValid(t *testing.T) {
	tests := []struct {
		status ItemStatus
		want   bool
	}{
		{StatusAIGenerated, true},
		{StatusTodo, true},
		{StatusInReview, true},
		{StatusReviewed, true},
		{StatusApproved, true},
		{StatusDone, true},
		{ItemStatus("archived"), false},
		{ItemStatus(""), false},
	}

	for _, tt := range tests {
		if got := tt.status.IsValid(); got != tt.want {
			t.Errorf("IsValid() = %v, want %v for status %q", got, tt.want, tt.status)
		}
	}
}

func TestItemPriorityRank(t *testing.T) {
	if PriorityCritical.Rank() >= PriorityHigh.Rank() {
		t.Error("critical should rank before high")
	}
	if PriorityHigh.Rank() >= PriorityMedium.Rank() {
		t.Error("high should rank before medium")
	}
	if ItemPriority("urgent").Rank() != 4 {
		t.Error("unknown priority should rank last")
	}
}

// TestItemIDNormalization verifies that numeric ids from legacy backend rows
// are canonicalized to strings at the JSON boundary
func TestItemIDNormalization(t *testing.T) {
	var item WorkItem
	payload := []byte(`{"id": 42, "type": "task", "title": "Numeric id row", "status": "todo", "priority": "low", "active": true}`)
	if err := json.Unmarshal(payload, &item); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if item.ID != ItemID("42") {
		t.Errorf("numeric id not normalized: got %q, want %q", item.ID, "42")
	}

	var str WorkItem
	payload = []byte(`{"id": "wi-7", "type": "task", "title": "String id row", "status": "todo", "priority": "low", "active": true}`)
	if err := json.Unmarshal(payload, &str); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if str.ID != ItemID("wi-7") {
		t.Errorf("string id mangled: got %q", str.ID)
	}

	var bad WorkItem
	payload = []byte(`{"id": {"oid": 1}, "type": "task", "title": "x"}`)
	if err := json.Unmarshal(payload, &bad); err == nil {
		t.Error("expected error for object-valued id")
	}
}

// TestFilterActive verifies inactive nodes and their subtrees are dropped
// without mutating the input tree
func TestFilterActive(t *testing.T) {
	tree := []*WorkItem{
		{
			ID: "e1", Type: TypeEpic, Active: true,
			Children: []*WorkItem{
				{ID: "s1", Type: TypeStory, Active: false, Children: []*WorkItem{
					{ID: "t1", Type: TypeTask, Active: true},
				}},
				{ID: "s2", Type: TypeStory, Active: true},
			},
		},
		{ID: "e2", Type: TypeEpic, Active: false},
	}

	filtered := FilterActive(tree)
	if len(filtered) != 1 {
		t.Fatalf("expected 1 root, got %d", len(filtered))
	}
	if len(filtered[0].Children) != 1 || filtered[0].Children[0].ID != "s2" {
		t.Errorf("expected only s2 to survive under e1, got %+v", filtered[0].Children)
	}

	// Input must be untouched
	if len(tree[0].Children) != 2 {
		t.Error("FilterActive mutated the input tree")
	}
	if CountNodes(tree) != 5 {
		t.Errorf("CountNodes = %d, want 5", CountNodes(tree))
	}
}
