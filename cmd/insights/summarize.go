package main

import (
	"encoding/json"
	"fmt"

	"github.com/4thel00z/insights/internal"
	"github.com/spf13/cobra"
)

func NewSummarizeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize [topic]",
		Short: "Summarize insights using AI",
		Long:  `Generate an AI-powered summary of insights, optionally restricted to one topic. Requires a configured provider.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  makeSummarizeRunner(a),
	}

	cmd.Flags().String("provider", "", "Provider to use (defaults to the configured default)")
	return cmd
}

func makeSummarizeRunner(a *app) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		topic := ""
		if len(args) > 0 {
			topic = args[0]
		}

		name, _ := cmd.Flags().GetString("provider")
		if name == "" {
			name = a.cfg.DefaultProvider
		}
		if name == "" {
			return fmt.Errorf("no provider configured; set default_provider in %s", internal.ConfigPath(a.root))
		}
		providerCfg, ok := a.cfg.Providers[name]
		if !ok {
			return fmt.Errorf("provider %q not configured", name)
		}

		provider, err := internal.NewFantasyProvider(cmd.Context(), name, providerCfg)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}

		svc := internal.NewSummarizeService(a.store, provider)
		summary, err := svc.Summarize(cmd.Context(), topic)
		if err != nil {
			return fmt.Errorf("summarize: %w", err)
		}

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "# %s\n\n%s\n", summary.Title, summary.Overview)
		if len(summary.KeyPoints) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "\nKey Points:")
			for _, p := range summary.KeyPoints {
				fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", p)
			}
		}
		if len(summary.Tags) > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "\nTags: %v\n", summary.Tags)
		}
		return nil
	}
}
