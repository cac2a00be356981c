package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/insights/internal"
	"github.com/spf13/cobra"
)

func NewListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [topic]",
		Short: "List insights",
		Long:  `List all insights, or only those under one topic.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeListRunner(a),
	}

	return cmd
}

func makeListRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		topic := ""
		if len(args) > 0 {
			topic = args[0]
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		insights, err := a.store.List(topic)
		if err != nil {
			return fmt.Errorf("list insights: %w", err)
		}

		if asJSON {
			return outputInsightListJSON(cmd, insights)
		}

		for _, ins := range insights {
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s  %s\n", ins.Topic, ins.Name, ins.Overview)
		}
		return nil
	}
}

func outputInsightListJSON(cmd *cobra.Command, insights []*internal.Insight) error {
	out := make([]map[string]any, 0, len(insights))
	for _, ins := range insights {
		out = append(out, map[string]any{
			"topic":    ins.Topic,
			"name":     ins.Name,
			"overview": ins.Overview,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
