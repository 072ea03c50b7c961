package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/server"
	"github.com/taskdeck/taskdeck/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the taskdeck backend server",
	Long: `Run the REST API backed by a local SQLite database. The dashboard, the CLI
and the interactive browser all talk to this server.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		store, err := storage.NewStorage(ctx, &storage.Config{Path: cfg.DBPath})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to open storage: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		srv := server.New(store, cfg.APIToken)

		errCh := make(chan error, 1)
		go func() {
			log.WithField("addr", cfg.ListenAddr).Info("taskdeck server starting")
			errCh <- srv.Start(cfg.ListenAddr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "Error: server failed: %v\n", err)
				os.Exit(1)
			}
		case sig := <-sigCh:
			log.WithField("signal", sig.String()).Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: shutdown failed: %v\n", err)
				os.Exit(1)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
