package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/4thel00z/insights/internal"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "insights-embedding-daemon: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "insights-embedding-daemon",
		Short:         "Embedding daemon for insights",
		Long:          `Serves embedding requests over a local endpoint and exits after an idle period. Normally spawned on demand by the insights CLI.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          runDaemon,
	}

	cmd.Flags().String("endpoint", "", "Endpoint to listen on (defaults to the platform endpoint)")
	cmd.Flags().Duration("idle", internal.DefaultIdleTimeout, "Shut down after this long without a connection")
	return cmd
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	endpoint, _ := cmd.Flags().GetString("endpoint")
	idle, _ := cmd.Flags().GetDuration("idle")

	root, err := internal.ResolveRoot()
	if err != nil {
		return err
	}
	cfg, err := internal.LoadConfig(root)
	if err != nil {
		return err
	}

	backend, err := cfg.NewBackend()
	if err != nil {
		return fmt.Errorf("load backend: %w", err)
	}
	if endpoint == "" {
		endpoint = cfg.Endpoint()
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "embeddings",
	})

	return internal.NewDaemon(endpoint, backend, idle, logger).Run(cmd.Context())
}
