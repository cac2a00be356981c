package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/insights/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <term>...",
		Short: "Search insights",
		Long:  `Search insights by word overlap and embedding similarity, or by exact substring matching.`,
		Args:  cobra.MinimumNArgs(1),
		RunE:  makeSearchRunner(a),
	}

	cmd.Flags().StringP("topic", "t", "", "Restrict search to one topic")
	cmd.Flags().BoolP("case-sensitive", "c", false, "Case-sensitive matching")
	cmd.Flags().BoolP("overview-only", "o", false, "Search only topic, name and overview")
	cmd.Flags().BoolP("exact", "e", false, "Exact term matching only")
	cmd.Flags().IntP("number", "n", 0, "Maximum results (0 = unlimited)")
	return cmd
}

func makeSearchRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		topic, _ := cmd.Flags().GetString("topic")
		caseSensitive, _ := cmd.Flags().GetBool("case-sensitive")
		overviewOnly, _ := cmd.Flags().GetBool("overview-only")
		exact, _ := cmd.Flags().GetBool("exact")
		limit, _ := cmd.Flags().GetInt("number")
		asJSON, _ := cmd.Flags().GetBool("json")

		results, err := a.engine.Search(cmd.Context(), args, internal.SearchOptions{
			Topic:         topic,
			CaseSensitive: caseSensitive,
			OverviewOnly:  overviewOnly,
			Exact:         exact,
			Limit:         limit,
		})
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		if asJSON {
			return outputSearchResultsJSON(cmd, results)
		}

		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matches found")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(cmd.OutOrStdout(), "=== %s/%s ===\n", r.Topic, r.Name)
			fmt.Fprintln(cmd.OutOrStdout(), r.Overview)
			if !overviewOnly && r.Details != "" {
				fmt.Fprintln(cmd.OutOrStdout(), r.Details)
			}
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	}
}

func outputSearchResultsJSON(cmd *cobra.Command, results []internal.SearchResult) error {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]any{
			"topic": r.Topic,
			"name":  r.Name,
			"score": r.Score,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
