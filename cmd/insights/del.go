package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewDelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "del <topic> <name>",
		Aliases: []string{"delete", "rm"},
		Short:   "Delete an insight",
		Long:    `Delete an insight. The topic directory is removed once its last insight is gone.`,
		Args:    cobra.ExactArgs(2),
		RunE:    makeDelRunner(a),
	}

	return cmd
}

func makeDelRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		topic, name := args[0], args[1]

		if err := a.store.Delete(topic, name); err != nil {
			return fmt.Errorf("delete insight: %w", err)
		}

		if err := a.indexer.RemoveEmbedding(topic, name); err != nil {
			a.logger.Warn("drop vector failed", "err", err)
		}

		a.record(fmt.Sprintf("delete %s/%s", topic, name))

		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s/%s\n", topic, name)
		return nil
	}
}
