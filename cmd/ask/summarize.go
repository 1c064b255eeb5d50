package main

import (
	"encoding/json"
	"fmt"

	"github.com/askdocs/ask/internal"
	"github.com/spf13/cobra"
)

func NewSummarizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summarize [source]",
		Short: "Summarize the ingested corpus",
		Long:  `Generate a structured summary of stored chunks, optionally filtered by source path.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSummarize,
	}

	return cmd
}

func runSummarize(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	source := ""
	if len(args) > 0 {
		source = args[0]
	}

	asJSON, _ := cmd.Flags().GetBool("json")

	summary, err := internal.NewSummarizeUseCase(s.store, s.provider).Execute(cmd.Context(), internal.SummarizeInput{
		Source: source,
	})
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

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
	if len(summary.Sources) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nSources: %v\n", summary.Sources)
	}
	return nil
}
