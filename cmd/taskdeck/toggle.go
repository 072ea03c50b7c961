package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/types"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Flip a work item's active flag",
	Long: `Flip a work item between active and inactive. The change cascades to all
descendants on the server; inactive items stay in storage but are hidden
from the default tree view.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		id := types.ItemID(args[0])
		api := newClient()

		current, err := api.GetWorkItem(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get %s: %v\n", id, err)
			os.Exit(1)
		}

		updated, err := api.SetActive(ctx, id, !current.Active)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to toggle %s: %v\n", id, err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		state := "inactive"
		if updated.Active {
			state = "active"
		}
		fmt.Printf("%s %s and its descendants are now %s\n", green("✓"), updated.ID, state)
	},
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}
