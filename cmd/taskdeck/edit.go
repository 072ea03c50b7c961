package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/client"
	"github.com/taskdeck/taskdeck/internal/types"
)

var (
	editTitle       string
	editDescription string
	editStatus      string
	editPriority    string
	editHours       float64
	editOrder       int
)

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a work item's fields",
	Long: `Edit one or more fields of a work item. Only flags that are set are sent;
everything else is left untouched.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		id := types.ItemID(args[0])

		var update client.WorkItemUpdate
		if cmd.Flags().Changed("title") {
			update.Title = &editTitle
		}
		if cmd.Flags().Changed("description") {
			update.Description = &editDescription
		}
		if cmd.Flags().Changed("status") {
			status := types.ItemStatus(editStatus)
			if !status.IsValid() {
				fmt.Fprintf(os.Stderr, "Error: invalid status %q\n", editStatus)
				os.Exit(1)
			}
			update.Status = &status
		}
		if cmd.Flags().Changed("priority") {
			priority := types.ItemPriority(editPriority)
			if !priority.IsValid() {
				fmt.Fprintf(os.Stderr, "Error: invalid priority %q\n", editPriority)
				os.Exit(1)
			}
			update.Priority = &priority
		}
		if cmd.Flags().Changed("hours") {
			update.EstimatedHours = &editHours
		}
		if cmd.Flags().Changed("order") {
			update.OrderIndex = &editOrder
		}

		updated, err := newClient().UpdateWorkItem(ctx, id, update)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to update %s: %v\n", id, err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Updated %s: %s %s\n", green("✓"), updated.ID, updated.Title, renderStatus(updated.Status))
	},
}

func init() {
	editCmd.Flags().StringVar(&editTitle, "title", "", "new title")
	editCmd.Flags().StringVar(&editDescription, "description", "", "new description")
	editCmd.Flags().StringVar(&editStatus, "status", "", "new status (ai_generated, todo, in_review, reviewed, approved, done)")
	editCmd.Flags().StringVar(&editPriority, "priority", "", "new priority (low, medium, high, critical)")
	editCmd.Flags().Float64Var(&editHours, "hours", 0, "new estimated hours")
	editCmd.Flags().IntVar(&editOrder, "order", 0, "new order index")
	rootCmd.AddCommand(editCmd)
}
