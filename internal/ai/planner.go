// Package ai turns a plain-language project description into a draft work
// item hierarchy. Generated items land with status ai_generated so reviewers
// can tell them apart from human-written ones.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/taskdeck/taskdeck/internal/types"
)

const (
	// ModelSonnet is the high-end model for plan generation
	ModelSonnet = "claude-sonnet-4-5-20250929"

	// ModelHaiku is the cost-efficient model for small projects
	ModelHaiku = "claude-3-5-haiku-20241022"
)

// GetDefaultModel returns the default model, checking TASKDECK_AI_MODEL first
func GetDefaultModel() string {
	if model := os.Getenv("TASKDECK_AI_MODEL"); model != "" {
		return model
	}
	return ModelSonnet
}

// Planner generates work item hierarchies with the Anthropic API
type Planner struct {
	client *anthropic.Client
	model  string
}

// Config holds planner configuration
type Config struct {
	APIKey string // Anthropic API key (if empty, reads from ANTHROPIC_API_KEY env var)
	Model  string // Model to use (default: claude-sonnet-4-5-20250929)
}

// NewPlanner creates a new AI planner
func NewPlanner(cfg *Config) (*Planner, error) {
	if cfg == nil {
		cfg = &Config{}
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = GetDefaultModel()
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Planner{client: &client, model: model}, nil
}

// PlannedItem is one node of a generated hierarchy
type PlannedItem struct {
	Type               types.ItemType     `json:"type"`
	Title              string             `json:"title"`
	Description        string             `json:"description"`
	Priority           types.ItemPriority `json:"priority"`
	AcceptanceCriteria []string           `json:"acceptance_criteria"`
	EstimatedHours     *float64           `json:"estimated_hours"`
	Children           []*PlannedItem     `json:"children"`
}

const planPrompt = `You are a project planner. Break the project described below into a work
item hierarchy: epics at the top, stories under epics, tasks under stories.

Project: %s

Respond with ONLY a raw JSON array (no markdown fences, no extra text):
[
  {
    "type": "epic",
    "title": "...",
    "description": "...",
    "priority": "low|medium|high|critical",
    "acceptance_criteria": ["..."],
    "estimated_hours": 4.0,
    "children": [
      {"type": "story", "title": "...", "children": [
        {"type": "task", "title": "...", "children": []}
      ]}
    ]
  }
]

Aim for 2-4 epics, 2-4 stories each, 2-5 tasks per story. Keep titles under
255 characters.`

// GeneratePlan asks the model for a hierarchy draft and parses it. A failed
// parse is retried once with the parse error fed back into the prompt.
func (p *Planner) GeneratePlan(ctx context.Context, description string) ([]*PlannedItem, error) {
	prompt := fmt.Sprintf(planPrompt, description)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if lastErr != nil {
			prompt = fmt.Sprintf("%s\n\nYour previous response failed to parse: %v\nRespond with ONLY raw JSON.", prompt, lastErr)
		}

		resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(p.model),
			MaxTokens: 8192,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("anthropic API call failed: %w", err)
		}

		var responseText string
		for _, block := range resp.Content {
			if block.Type == "text" {
				responseText += block.Text
			}
		}

		plan, err := ParsePlan(responseText)
		if err != nil {
			lastErr = err
			continue
		}
		return plan, nil
	}
	return nil, fmt.Errorf("failed to parse plan: %w", lastErr)
}

// ParsePlan decodes a model response into planned items and validates the
// hierarchy levels.
func ParsePlan(response string) ([]*PlannedItem, error) {
	cleaned, err := extractJSON(response)
	if err != nil {
		return nil, err
	}

	var plan []*PlannedItem
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("plan is empty")
	}

	var validate func(items []*PlannedItem, parentType types.ItemType) error
	validate = func(items []*PlannedItem, parentType types.ItemType) error {
		for _, item := range items {
			if item.Title == "" {
				return fmt.Errorf("item without a title")
			}
			if !item.Type.IsValid() || item.Type == types.TypeProject {
				return fmt.Errorf("invalid item type %q", item.Type)
			}
			if item.Type.Level() != parentType.Level()+1 {
				return fmt.Errorf("a %s cannot be a child of a %s", item.Type, parentType)
			}
			if item.Priority != "" && !item.Priority.IsValid() {
				return fmt.Errorf("invalid priority %q", item.Priority)
			}
			if err := validate(item.Children, item.Type); err != nil {
				return err
			}
		}
		return nil
	}
	if err := validate(plan, types.TypeProject); err != nil {
		return nil, err
	}
	return plan, nil
}

// ItemStore defines the storage operations plan materialization needs.
// Both the server's storage backend and the REST client satisfy it.
type ItemStore interface {
	CreateWorkItem(ctx context.Context, item *types.WorkItem) error
}

// Materialize writes a generated plan into storage under a project. Items are
// created top-down so parents exist before their children; returns the
// created items in creation order.
func (p *Planner) Materialize(ctx context.Context, store ItemStore, projectID types.ItemID, plan []*PlannedItem) ([]*types.WorkItem, error) {
	var created []*types.WorkItem

	var create func(items []*PlannedItem, parentID types.ItemID) error
	create = func(items []*PlannedItem, parentID types.ItemID) error {
		for i, spec := range items {
			priority := spec.Priority
			if priority == "" {
				priority = types.PriorityMedium
			}
			item := &types.WorkItem{
				ProjectID:          projectID,
				ParentID:           parentID,
				Type:               spec.Type,
				Title:              spec.Title,
				Description:        spec.Description,
				Status:             types.StatusAIGenerated,
				Priority:           priority,
				AcceptanceCriteria: spec.AcceptanceCriteria,
				EstimatedHours:     spec.EstimatedHours,
				OrderIndex:         i,
			}
			if err := store.CreateWorkItem(ctx, item); err != nil {
				return fmt.Errorf("failed to create %q: %w", spec.Title, err)
			}
			created = append(created, item)
			if err := create(spec.Children, item.ID); err != nil {
				return err
			}
		}
		return nil
	}

	if err := create(plan, ""); err != nil {
		return created, err
	}
	return created, nil
}
