package main

import (
	"github.com/spf13/cobra"
)

func NewRootCmd(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "insights",
		Short:         "Local-first knowledge base with semantic search",
		Long:          `Store topic/name-addressed insights as files and search them by keyword, word overlap, or embedding similarity.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output in JSON format")

	if a != nil {
		rootCmd.AddCommand(
			NewAddCmd(a),
			NewGetCmd(a),
			NewUpdateCmd(a),
			NewDelCmd(a),
			NewListCmd(a),
			NewTopicsCmd(a),
			NewSearchCmd(a),
			NewIndexCmd(a),
			NewInitCmd(a),
			NewLogCmd(a),
			NewDiffCmd(a),
			NewWatchCmd(a),
			NewSummarizeCmd(a),
		)
	}

	return rootCmd
}
