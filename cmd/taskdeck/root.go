package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/client"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/types"
)

var (
	cfg        config.Config
	configPath string
	projectArg string
)

var rootCmd = &cobra.Command{
	Use:   "taskdeck",
	Short: "Project management for hierarchical work items",
	Long: `taskdeck manages projects broken into epics, stories, tasks and subtasks.

Read commands go through a client-side hierarchy cache: a project's tree is
fetched once and reused for five minutes, so browsing stays fast without
hammering the backend.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", ".taskdeck.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&projectArg, "project", "p", "", "project id")
}

// newClient builds the REST client from the loaded config
func newClient() *client.Client {
	opts := []client.Option{
		client.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
	}
	if cfg.APIToken != "" {
		opts = append(opts, client.WithToken(cfg.APIToken))
	}
	return client.New(cfg.APIBaseURL, opts...)
}

// requireProject returns the project id from --project or errors
func requireProject() (types.ItemID, error) {
	if projectArg == "" {
		return "", fmt.Errorf("a project is required; pass --project <id>")
	}
	return types.ItemID(projectArg), nil
}
