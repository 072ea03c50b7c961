package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/types"
)

var (
	listType     string
	listStatus   string
	listPriority string
	listParent   string
	listPage     int
	listPageSize int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List a project's work items as a flat table",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		projectID, err := requireProject()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var typ *types.ItemType
		if listType != "" {
			t := types.ItemType(listType)
			if !t.IsValid() || t == types.TypeProject {
				fmt.Fprintf(os.Stderr, "Error: invalid type %q\n", listType)
				os.Exit(1)
			}
			typ = &t
		}

		items, err := newClient().ListWorkItems(ctx, projectID, typ)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list work items: %v\n", err)
			os.Exit(1)
		}

		// Status, priority and parent narrowing happen client-side; the
		// list endpoint only filters by type.
		filtered := items[:0]
		for _, item := range items {
			if listStatus != "" && string(item.Status) != listStatus {
				continue
			}
			if listPriority != "" && string(item.Priority) != listPriority {
				continue
			}
			if listParent != "" && item.ParentID.String() != listParent {
				continue
			}
			filtered = append(filtered, item)
		}

		total := len(filtered)
		if listPageSize > 0 {
			page := listPage
			if page < 1 {
				page = 1
			}
			start := (page - 1) * listPageSize
			if start > total {
				start = total
			}
			end := start + listPageSize
			if end > total {
				end = total
			}
			filtered = filtered[start:end]
		}

		if len(filtered) == 0 {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("%s\n", gray("No matching work items"))
			return
		}

		bold := color.New(color.Bold).SprintFunc()
		for _, item := range filtered {
			hours := ""
			if item.EstimatedHours != nil {
				hours = fmt.Sprintf("  %.1fh", *item.EstimatedHours)
			}
			fmt.Printf("%s  %-8s %s %s%s\n",
				bold(item.ID), item.Type, item.Title, renderStatus(item.Status), hours)
		}
		if listPageSize > 0 && total > len(filtered) {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("%s\n", gray(fmt.Sprintf("(%d of %d items; use --page to see more)", len(filtered), total)))
		}
	},
}

func init() {
	listCmd.Flags().StringVarP(&listType, "type", "t", "", "filter by type (epic, story, task, subtask)")
	listCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by status")
	listCmd.Flags().StringVar(&listPriority, "priority", "", "filter by priority")
	listCmd.Flags().StringVar(&listParent, "parent", "", "filter by parent id")
	listCmd.Flags().IntVar(&listPage, "page", 1, "page number (with --page-size)")
	listCmd.Flags().IntVar(&listPageSize, "page-size", 0, "items per page (0 shows everything)")
	rootCmd.AddCommand(listCmd)
}
