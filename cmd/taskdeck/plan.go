package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/ai"
	"github.com/taskdeck/taskdeck/internal/client"
	"github.com/taskdeck/taskdeck/internal/types"
)

var (
	planDryRun bool
	planFile   string
)

var planCmd = &cobra.Command{
	Use:   "plan [description]",
	Short: "Generate a work item hierarchy with AI",
	Long: `Generate a draft epic/story/task hierarchy from a plain-language project
description, given inline or with -f requirements.md. Generated items are
created with status ai_generated so they can be reviewed before work starts.

Requires ANTHROPIC_API_KEY.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		description := strings.Join(args, " ")
		if planFile != "" {
			raw, err := os.ReadFile(planFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: failed to read %s: %v\n", planFile, err)
				os.Exit(1)
			}
			description = strings.TrimSpace(string(raw))
		}
		if description == "" {
			fmt.Fprintln(os.Stderr, "Error: a description is required; pass it inline or with -f")
			os.Exit(1)
		}

		projectID, err := requireProject()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		planner, err := ai.NewPlanner(&ai.Config{Model: cfg.AIModel})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("Generating plan...")
		plan, err := planner.GeneratePlan(ctx, description)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: plan generation failed: %v\n", err)
			os.Exit(1)
		}

		printPlan(plan, "")

		if planDryRun {
			fmt.Println("\nDry run; nothing created.")
			return
		}

		store := clientItemStore{api: newClient(), projectID: projectID}
		created, err := planner.Materialize(ctx, store, projectID, plan)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: created %d items before failing: %v\n", len(created), err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("\n%s Created %d work items in project %s\n", green("✓"), len(created), projectID)
		fmt.Println("Review them with 'taskdeck list --status ai_generated'")
	},
}

// clientItemStore adapts the REST client to the planner's store interface
type clientItemStore struct {
	api       *client.Client
	projectID types.ItemID
}

func (c clientItemStore) CreateWorkItem(ctx context.Context, item *types.WorkItem) error {
	created, err := c.api.CreateWorkItem(ctx, c.projectID, item)
	if err != nil {
		return err
	}
	item.ID = created.ID
	return nil
}

func printPlan(items []*ai.PlannedItem, prefix string) {
	bold := color.New(color.Bold).SprintFunc()
	for i, item := range items {
		connector := "├── "
		childPrefix := prefix + "│   "
		if i == len(items)-1 {
			connector = "└── "
			childPrefix = prefix + "    "
		}
		fmt.Printf("%s%s%s %s\n", prefix, connector, bold(string(item.Type)), item.Title)
		printPlan(item.Children, childPrefix)
	}
}

func init() {
	planCmd.Flags().BoolVar(&planDryRun, "dry-run", false, "print the plan without creating items")
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "read the description from a file")
	rootCmd.AddCommand(planCmd)
}
