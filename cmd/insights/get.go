package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/insights/internal"
	"github.com/spf13/cobra"
)

func NewGetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <topic> <name>",
		Short: "Retrieve an insight",
		Long:  `Retrieve and display a single insight.`,
		Args:  cobra.ExactArgs(2),
		RunE:  makeGetRunner(a),
	}

	cmd.Flags().BoolP("overview-only", "o", false, "Show only the overview")
	return cmd
}

func makeGetRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		overviewOnly, _ := cmd.Flags().GetBool("overview-only")
		asJSON, _ := cmd.Flags().GetBool("json")

		ins, err := a.store.Load(args[0], args[1])
		if err != nil {
			return fmt.Errorf("get insight: %w", err)
		}

		if asJSON {
			return outputInsightJSON(cmd, ins)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "=== %s/%s ===\n", ins.Topic, ins.Name)
		fmt.Fprintln(cmd.OutOrStdout(), ins.Overview)
		if !overviewOnly && ins.Details != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", ins.Details)
		}
		return nil
	}
}

func outputInsightJSON(cmd *cobra.Command, ins *internal.Insight) error {
	data := map[string]any{
		"topic":    ins.Topic,
		"name":     ins.Name,
		"overview": ins.Overview,
		"details":  ins.Details,
	}
	if ins.HasEmbedding() {
		data["embedding_version"] = ins.EmbeddingVersion
		data["embedding_computed"] = ins.EmbeddingComputed
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
