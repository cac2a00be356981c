package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewTopicsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topics",
		Short: "List topics",
		Args:  cobra.NoArgs,
		RunE:  makeTopicsRunner(a),
	}

	return cmd
}

func makeTopicsRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		topics, err := a.store.Topics()
		if err != nil {
			return fmt.Errorf("list topics: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(topics)
		}

		for _, topic := range topics {
			fmt.Fprintln(cmd.OutOrStdout(), topic)
		}
		return nil
	}
}
