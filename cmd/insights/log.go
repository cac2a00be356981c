package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/insights/internal"
	"github.com/spf13/cobra"
)

func NewLogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show history",
		Long:  `List recorded changes to the insights root, newest first.`,
		Args:  cobra.NoArgs,
		RunE:  makeLogRunner(a),
	}

	cmd.Flags().IntP("number", "n", 20, "Maximum commits (0 = unlimited)")
	return cmd
}

func makeLogRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetInt("number")
		asJSON, _ := cmd.Flags().GetBool("json")

		h, err := internal.OpenHistory(a.root)
		if err != nil {
			return fmt.Errorf("log: %w", err)
		}

		commits, err := h.Log(limit)
		if err != nil {
			return fmt.Errorf("log: %w", err)
		}

		if asJSON {
			return outputCommitsJSON(cmd, commits)
		}

		for _, c := range commits {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n",
				c.Hash[:7], c.When.Format("2006-01-02 15:04"), c.Message)
		}
		return nil
	}
}

func outputCommitsJSON(cmd *cobra.Command, commits []*internal.Commit) error {
	out := make([]map[string]any, 0, len(commits))
	for _, c := range commits {
		out = append(out, map[string]any{
			"hash":    c.Hash,
			"message": c.Message,
			"when":    c.When,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
