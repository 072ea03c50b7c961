package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/hierarchy"
	"github.com/taskdeck/taskdeck/internal/types"
)

var treeShowInactive bool

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Show a project's work item hierarchy",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		projectID, err := requireProject()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		coord := hierarchy.NewCoordinator(hierarchy.NewStore(), newClient(), cfg.CacheTTL)
		tree, err := coord.EnsureFresh(ctx, projectID, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to fetch hierarchy: %v\n", err)
			os.Exit(1)
		}
		if !treeShowInactive {
			tree = types.FilterActive(tree)
		}

		if len(tree) == 0 {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("%s\n", gray("No work items in this project"))
			return
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("\n%s\n", cyan(fmt.Sprintf("=== Project %s (%d items) ===", projectID, types.CountNodes(tree))))
		fmt.Println()
		renderTree(tree, "")
		fmt.Println()
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeShowInactive, "all", false, "include inactive items")
	rootCmd.AddCommand(treeCmd)
}

// renderTree prints nodes with box-drawing connectors
func renderTree(nodes []*types.WorkItem, prefix string) {
	for i, node := range nodes {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(nodes)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		fmt.Printf("%s%s%s\n", prefix, connector, renderNode(node))
		renderTree(node.Children, childPrefix)
	}
}

func renderNode(node *types.WorkItem) string {
	bold := color.New(color.Bold).SprintFunc()
	line := fmt.Sprintf("%s %s %s", bold(node.ID), node.Title, renderStatus(node.Status))
	if node.Priority == types.PriorityCritical || node.Priority == types.PriorityHigh {
		red := color.New(color.FgRed).SprintFunc()
		line += " " + red("!"+string(node.Priority))
	}
	if !node.Active {
		gray := color.New(color.FgHiBlack).SprintFunc()
		line = gray(line + " (inactive)")
	}
	return line
}

func renderStatus(status types.ItemStatus) string {
	switch status {
	case types.StatusDone, types.StatusApproved:
		return color.New(color.FgGreen).Sprintf("[%s]", status)
	case types.StatusInReview, types.StatusReviewed:
		return color.New(color.FgYellow).Sprintf("[%s]", status)
	case types.StatusAIGenerated:
		return color.New(color.FgMagenta).Sprintf("[%s]", status)
	default:
		return color.New(color.FgCyan).Sprintf("[%s]", status)
	}
}
