package main

import (
	"encoding/json"
	"fmt"

	"github.com/askdocs/ask/internal"
	"github.com/spf13/cobra"
)

func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the embedding store",
		Long:  `Rank stored chunks against the query and print the ones above the mean similarity.`,
		Args:  cobra.ExactArgs(1),
		RunE:  runSearch,
	}

	cmd.Flags().IntP("number", "n", 0, "Maximum results (0 = all above the mean)")
	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("number")
	asJSON, _ := cmd.Flags().GetBool("json")

	out, err := internal.NewSearchUseCase(s.store).Execute(cmd.Context(), internal.SearchInput{
		Query: args[0],
		Limit: limit,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	if asJSON {
		return outputResultsJSON(cmd, out.Results)
	}

	if len(out.Results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No results.")
		return nil
	}

	for _, r := range out.Results {
		fmt.Fprintf(cmd.OutOrStdout(), "%.4f  %s\n        %s\n", r.Score, r.Source, r.Content)
	}
	return nil
}

func outputResultsJSON(cmd *cobra.Command, results []internal.CandidateOutput) error {
	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		out = append(out, map[string]any{
			"content": r.Content,
			"source":  r.Source,
			"score":   r.Score,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
