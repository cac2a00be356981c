package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewIndexCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Compute missing embeddings",
		Long:  `Walk every insight and compute embeddings for those without one.`,
		Args:  cobra.NoArgs,
		RunE:  makeIndexRunner(a),
	}

	cmd.Flags().BoolP("force", "f", false, "Recompute existing embeddings too")
	return cmd
}

func makeIndexRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		force, _ := cmd.Flags().GetBool("force")

		stats, err := a.indexer.Index(cmd.Context(), force)
		if err != nil {
			return fmt.Errorf("index: %w", err)
		}

		a.record("index embeddings")

		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d insights: %d embedded, %d skipped, %d failed\n",
			stats.Total, stats.Embedded, stats.Skipped, stats.Failed)
		return nil
	}
}
