package main

import (
	"fmt"

	"github.com/4thel00z/insights/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Enable version history",
		Long:  `Turn the insights root into a version-tracked store. Every add, update, and delete is committed automatically afterwards.`,
		Args:  cobra.NoArgs,
		RunE:  makeInitRunner(a),
	}

	return cmd
}

func makeInitRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		h, err := internal.InitHistory(a.root)
		if err != nil {
			return fmt.Errorf("init history: %w", err)
		}

		if _, err := h.CommitAll("init: start tracking insights"); err != nil {
			a.logger.Warn("initial commit failed", "err", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized history in %s\n", a.root)
		return nil
	}
}
