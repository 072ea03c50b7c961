package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate counts for a project",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		projectID, err := requireProject()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		stats, err := newClient().Stats(ctx, projectID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to get stats: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Printf("\n%s\n\n", cyan(fmt.Sprintf("=== Project %s ===", projectID)))
		fmt.Printf("Total items: %d\n", stats.TotalItems)
		fmt.Printf("Estimated:   %.1f hours\n\n", stats.TotalEstimatedHours)

		fmt.Printf("%s\n", yellow("By type:"))
		for _, typ := range []string{"epic", "story", "task", "subtask"} {
			if n := stats.ByType[typ]; n > 0 {
				fmt.Printf("  %-10s %d\n", typ, n)
			}
		}

		fmt.Printf("\n%s\n", yellow("By status:"))
		for _, status := range []string{"ai_generated", "todo", "in_review", "reviewed", "approved", "done"} {
			if n := stats.ByStatus[status]; n > 0 {
				fmt.Printf("  %-14s %d\n", status, n)
			}
		}

		fmt.Printf("\n%s\n", yellow("By priority:"))
		for _, priority := range []string{"critical", "high", "medium", "low"} {
			if n := stats.ByPriority[priority]; n > 0 {
				fmt.Printf("  %-10s %d\n", priority, n)
			}
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
