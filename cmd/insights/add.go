package main

import (
	"fmt"
	"io"
	"os"

	"github.com/4thel00z/insights/internal"
	"github.com/spf13/cobra"
)

func NewAddCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <topic> <name> <overview> [details]",
		Short: "Add a new insight",
		Long:  `Add a new insight under a topic. Reads details from stdin when not given as an argument.`,
		Args:  cobra.RangeArgs(3, 4),
		RunE:  makeAddRunner(a),
	}

	return cmd
}

func makeAddRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		topic, name, overview := args[0], args[1], args[2]

		details, err := resolveDetails(args)
		if err != nil {
			return err
		}

		ins := internal.NewInsight(topic, name, overview, details)
		if err := a.store.Save(ins); err != nil {
			return fmt.Errorf("add insight: %w", err)
		}

		a.record(fmt.Sprintf("add %s/%s", topic, name))

		fmt.Fprintf(cmd.OutOrStdout(), "Added %s/%s\n", topic, name)
		return nil
	}
}

func resolveDetails(args []string) (string, error) {
	if len(args) >= 4 {
		return args[3], nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
