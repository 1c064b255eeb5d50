package main

import (
	"encoding/json"
	"fmt"

	"github.com/askdocs/ask/internal"
	"github.com/spf13/cobra"
)

func NewLogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show snapshot history",
		Long:  `Show the commit history of the embedding snapshot.`,
		RunE:  runLog,
	}

	cmd.Flags().IntP("number", "n", 10, "Limit number of commits")
	cmd.Flags().Bool("oneline", false, "Show each commit on one line")
	return cmd
}

func runLog(cmd *cobra.Command, _ []string) error {
	ws := resolveWorkspace(cmd)
	if !ws.Initialized() {
		return fmt.Errorf("%w at %s: run \"ask init\" first", internal.ErrNotInitialized, ws.Root)
	}

	limit, _ := cmd.Flags().GetInt("number")
	oneline, _ := cmd.Flags().GetBool("oneline")
	asJSON, _ := cmd.Flags().GetBool("json")

	histFor := func() (*internal.History, error) { return internal.OpenHistory(ws) }

	out, err := internal.NewLogUseCase(histFor).Execute(cmd.Context(), internal.LogInput{Limit: limit})
	if err != nil {
		return fmt.Errorf("get log: %w", err)
	}

	if asJSON {
		return outputCommitsJSON(cmd, out.Commits)
	}

	for _, c := range out.Commits {
		if oneline {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", c.Hash[:7], c.Message)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "commit %s\n", c.Hash)
			fmt.Fprintf(cmd.OutOrStdout(), "Date:   %s\n\n", c.Timestamp.Format("Mon Jan 2 15:04:05 2006 -0700"))
			fmt.Fprintf(cmd.OutOrStdout(), "    %s\n\n", c.Message)
		}
	}
	return nil
}

func outputCommitsJSON(cmd *cobra.Command, commits []internal.SnapshotCommit) error {
	out := make([]map[string]any, 0, len(commits))
	for _, c := range commits {
		out = append(out, map[string]any{
			"hash":      c.Hash,
			"message":   c.Message,
			"timestamp": c.Timestamp,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
