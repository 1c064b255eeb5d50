package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/askdocs/ask/internal"
	"github.com/spf13/cobra"
)

func NewIngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest [dir]",
		Short: "Ingest documents into the embedding store",
		Long:  `Chunk and embed every .md and .txt file under the corpus directory, then save the snapshot.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().StringP("message", "m", "", "Snapshot commit message")
	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	dir := s.corpusDir()
	if len(args) > 0 {
		dir = args[0]
	}

	message, _ := cmd.Flags().GetString("message")
	asJSON, _ := cmd.Flags().GetBool("json")

	progress := func(file string, chunks int) {
		if asJSON {
			return
		}
		rel, err := filepath.Rel(s.ws.Root, file)
		if err != nil {
			rel = file
		}
		fmt.Fprintf(cmd.OutOrStdout(), "  %s (%d chunks)\n", rel, chunks)
	}

	out, err := s.ingestUseCase().Execute(cmd.Context(), internal.IngestInput{
		Dir:      dir,
		Message:  message,
		Progress: progress,
	})
	if err != nil {
		return fmt.Errorf("ingest: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"files":   out.Files,
			"chunks":  out.Chunks,
			"records": out.Records,
			"commit":  out.CommitHash,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d files (%d chunks, %d records total)\n", out.Files, out.Chunks, out.Records)
	if out.CommitHash != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot committed as %s\n", out.CommitHash[:7])
	}
	return nil
}
