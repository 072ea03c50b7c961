package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/repl"
	"github.com/taskdeck/taskdeck/internal/types"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse work items interactively",
	Long: `Open an interactive shell over the hierarchy cache. Trees are fetched once
per freshness window and navigated locally; edits write through to the
backend and patch the cached tree in place.`,
	Run: func(cmd *cobra.Command, args []string) {
		r, err := repl.New(&repl.Config{
			Client:   newClient(),
			CacheTTL: cfg.CacheTTL,
			Project:  types.ItemID(projectArg),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := r.Run(context.Background()); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
