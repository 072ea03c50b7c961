package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/types"
)

var projectDescription string

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List projects",
	Run: func(cmd *cobra.Command, args []string) {
		projects, err := newClient().ListProjects(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list projects: %v\n", err)
			os.Exit(1)
		}
		if len(projects) == 0 {
			gray := color.New(color.FgHiBlack).SprintFunc()
			fmt.Printf("%s\n", gray("No projects yet; create one with 'taskdeck projects create <name>'"))
			return
		}
		bold := color.New(color.Bold).SprintFunc()
		for _, p := range projects {
			fmt.Printf("%s  %s\n", bold(p.ID), p.Name)
			if p.Description != "" {
				fmt.Printf("    %s\n", p.Description)
			}
		}
	},
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		created, err := newClient().CreateProject(context.Background(), &types.Project{
			Name:        strings.Join(args, " "),
			Description: projectDescription,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to create project: %v\n", err)
			os.Exit(1)
		}
		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Created project %s: %s\n", green("✓"), created.ID, created.Name)
	},
}

func init() {
	projectsCreateCmd.Flags().StringVarP(&projectDescription, "description", "d", "", "project description")
	projectsCmd.AddCommand(projectsCreateCmd)
	rootCmd.AddCommand(projectsCmd)
}
