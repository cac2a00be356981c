package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewUpdateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <topic> <name>",
		Short: "Update an insight",
		Long:  `Update an insight's overview and/or details. Any content change drops the stored embedding; it is recomputed lazily.`,
		Args:  cobra.ExactArgs(2),
		RunE:  makeUpdateRunner(a),
	}

	cmd.Flags().String("overview", "", "New overview text")
	cmd.Flags().String("details", "", "New details text")
	return cmd
}

func makeUpdateRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		topic, name := args[0], args[1]

		var overview, details *string
		if cmd.Flags().Changed("overview") {
			v, _ := cmd.Flags().GetString("overview")
			overview = &v
		}
		if cmd.Flags().Changed("details") {
			v, _ := cmd.Flags().GetString("details")
			details = &v
		}

		ins, err := a.store.Load(topic, name)
		if err != nil {
			return fmt.Errorf("update insight: %w", err)
		}

		if err := a.store.Update(ins, overview, details); err != nil {
			return fmt.Errorf("update insight: %w", err)
		}

		// Drop the stale vector too.
		if err := a.indexer.RemoveEmbedding(ins.Topic, ins.Name); err != nil {
			a.logger.Warn("drop stale vector failed", "insight", ins.ID(), "err", err)
		}

		a.record(fmt.Sprintf("update %s/%s", topic, name))

		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s/%s\n", ins.Topic, ins.Name)
		return nil
	}
}
