package main

import (
	"fmt"

	"github.com/4thel00z/insights/internal"
	"github.com/spf13/cobra"
)

func NewDiffCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <topic> <name>",
		Short: "Diff an insight against its last committed version",
		Args:  cobra.ExactArgs(2),
		RunE:  makeDiffRunner(a),
	}

	return cmd
}

func makeDiffRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		h, err := internal.OpenHistory(a.root)
		if err != nil {
			return fmt.Errorf("diff: %w", err)
		}

		diff, err := internal.DiffInsight(h, a.store, args[0], args[1])
		if err != nil {
			return fmt.Errorf("diff: %w", err)
		}

		if diff == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes")
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), diff)
		return nil
	}
}
