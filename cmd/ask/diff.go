package main

import (
	"fmt"

	"github.com/askdocs/ask/internal"
	"github.com/spf13/cobra"
)

func NewDiffCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff [ref]",
		Short: "Show snapshot changes",
		Long:  `Show the patch between the current snapshot and a previous ref.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDiff,
	}

	return cmd
}

func runDiff(cmd *cobra.Command, args []string) error {
	ws := resolveWorkspace(cmd)
	if !ws.Initialized() {
		return fmt.Errorf("%w at %s: run \"ask init\" first", internal.ErrNotInitialized, ws.Root)
	}

	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}

	histFor := func() (*internal.History, error) { return internal.OpenHistory(ws) }

	out, err := internal.NewDiffUseCase(histFor).Execute(cmd.Context(), internal.DiffInput{Ref: ref})
	if err != nil {
		return fmt.Errorf("get diff: %w", err)
	}

	if out.Diff == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), out.Diff)
	return nil
}
