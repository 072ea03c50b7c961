package repl

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/taskdeck/taskdeck/internal/client"
	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/types"
)

// currentTree returns the active project's hierarchy, fetching through the
// cache when the entry is missing or stale.
func (r *REPL) currentTree(force bool) ([]*types.WorkItem, error) {
	if r.project == "" {
		return nil, fmt.Errorf("no project selected; use 'use <project-id>' first")
	}
	return r.coord.EnsureFresh(r.ctx, r.project, force)
}

func (r *REPL) cmdProjects(args []string) error {
	projects, err := r.api.ListProjects(r.ctx)
	if err != nil {
		return err
	}
	if len(projects) == 0 {
		fmt.Println("No projects yet.")
		return nil
	}
	bold := color.New(color.Bold).SprintFunc()
	for _, p := range projects {
		marker := " "
		if p.ID == r.project {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, bold(p.ID), p.Name)
	}
	return nil
}

func (r *REPL) cmdUse(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: use <project-id>")
	}
	r.project = types.ItemID(args[0])
	fmt.Printf("Switched to project %s\n", r.project)
	return nil
}

func (r *REPL) cmdTree(args []string) error {
	tree, err := r.currentTree(false)
	if err != nil {
		return err
	}
	if len(tree) == 0 {
		fmt.Println("No work items in this project.")
		return nil
	}
	printTree(tree, "")
	return nil
}

func (r *REPL) cmdList(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: list <type> [parent-id]")
	}
	typ := types.ItemType(args[0])
	if !typ.IsValid() || typ == types.TypeProject {
		return fmt.Errorf("invalid type %q (epic, story, task, subtask)", args[0])
	}

	tree, err := r.currentTree(false)
	if err != nil {
		return err
	}

	var items []*types.WorkItem
	if len(args) == 2 {
		items = hierarchy.CollectByTypeUnder(tree, typ, types.ItemID(args[1]))
	} else {
		items = hierarchy.CollectByType(tree, typ)
	}
	if len(items) == 0 {
		fmt.Println("No matching items.")
		return nil
	}
	for _, item := range items {
		printLine(item)
	}
	return nil
}

func (r *REPL) cmdFind(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: find <id>")
	}
	tree, err := r.currentTree(false)
	if err != nil {
		return err
	}
	item := hierarchy.FindByID(tree, types.ItemID(args[0]))
	if item == nil {
		return fmt.Errorf("no work item %s in project %s", args[0], r.project)
	}

	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s %s\n", bold(item.ID), item.Title)
	fmt.Printf("  type: %s  status: %s  priority: %s  active: %v\n",
		item.Type, item.Status, item.Priority, item.Active)
	if item.Description != "" {
		fmt.Printf("  %s\n", item.Description)
	}
	for _, criterion := range item.AcceptanceCriteria {
		fmt.Printf("  - %s\n", criterion)
	}
	if item.EstimatedHours != nil {
		fmt.Printf("  estimated: %.1fh\n", *item.EstimatedHours)
	}
	return nil
}

// cmdSet writes the edit through the API, then patches the cached tree in
// place instead of refetching.
func (r *REPL) cmdSet(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("usage: set <id> <field> <value>")
	}
	id := types.ItemID(args[0])
	field := args[1]
	value := strings.Join(args[2:], " ")

	var update client.WorkItemUpdate
	var patch hierarchy.NodePatch
	patch.ID = id
	switch field {
	case "title":
		update.Title = &value
		patch.Title = &value
	case "status":
		status := types.ItemStatus(value)
		if !status.IsValid() {
			return fmt.Errorf("invalid status %q", value)
		}
		update.Status = &status
		patch.Status = &status
	case "priority":
		priority := types.ItemPriority(value)
		if !priority.IsValid() {
			return fmt.Errorf("invalid priority %q", value)
		}
		update.Priority = &priority
		patch.Priority = &priority
	default:
		return fmt.Errorf("cannot set field %q (title, status, priority)", field)
	}

	if _, err := r.api.UpdateWorkItem(r.ctx, id, update); err != nil {
		return err
	}
	if r.project != "" {
		r.store.PatchNode(r.project, patch)
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Updated %s\n", green("✓"), id)
	return nil
}

// cmdToggle flips active on the server. The server cascades the flag through
// the subtree, so the cached tree is refetched rather than patched.
func (r *REPL) cmdToggle(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: toggle <id>")
	}
	id := types.ItemID(args[0])

	tree, err := r.currentTree(false)
	if err != nil {
		return err
	}
	item := hierarchy.FindByID(tree, id)
	if item == nil {
		return fmt.Errorf("no work item %s in project %s", id, r.project)
	}

	updated, err := r.api.SetActive(r.ctx, id, !item.Active)
	if err != nil {
		return err
	}
	if _, err := r.currentTree(true); err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s %s is now active=%v\n", green("✓"), id, updated.Active)
	return nil
}

func (r *REPL) cmdRefresh(args []string) error {
	if _, err := r.currentTree(true); err != nil {
		return err
	}
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Printf("%s Refreshed %s\n", green("✓"), r.project)
	return nil
}

func (r *REPL) cmdStats(args []string) error {
	if r.project == "" {
		return fmt.Errorf("no project selected; use 'use <project-id>' first")
	}
	stats, err := r.api.Stats(r.ctx, r.project)
	if err != nil {
		return err
	}
	bold := color.New(color.Bold).SprintFunc()
	fmt.Printf("%s: %d items, %.1f estimated hours\n", bold(r.project.String()), stats.TotalItems, stats.TotalEstimatedHours)
	for _, typ := range []string{"epic", "story", "task", "subtask"} {
		if n := stats.ByType[typ]; n > 0 {
			fmt.Printf("  %-8s %d\n", typ, n)
		}
	}
	for status, n := range stats.ByStatus {
		fmt.Printf("  %-14s %d\n", status, n)
	}
	return nil
}

// printTree renders nodes with box-drawing connectors, dimming inactive
// subtrees.
func printTree(nodes []*types.WorkItem, prefix string) {
	for i, node := range nodes {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(nodes)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		fmt.Printf("%s%s%s\n", prefix, connector, formatNode(node))
		printTree(node.Children, childPrefix)
	}
}

func printLine(item *types.WorkItem) {
	fmt.Printf("%s\n", formatNode(item))
}

func formatNode(item *types.WorkItem) string {
	bold := color.New(color.Bold).SprintFunc()
	line := fmt.Sprintf("%s %s [%s]", bold(item.ID), item.Title, statusColor(item.Status)(string(item.Status)))
	if !item.Active {
		dim := color.New(color.Faint).SprintFunc()
		line = dim(line + " (inactive)")
	}
	return line
}

func statusColor(status types.ItemStatus) func(a ...interface{}) string {
	switch status {
	case types.StatusDone, types.StatusApproved:
		return color.New(color.FgGreen).SprintFunc()
	case types.StatusInReview, types.StatusReviewed:
		return color.New(color.FgYellow).SprintFunc()
	case types.StatusAIGenerated:
		return color.New(color.FgMagenta).SprintFunc()
	default:
		return color.New(color.FgCyan).SprintFunc()
	}
}
