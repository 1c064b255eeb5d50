package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/askdocs/ask/internal"
	"github.com/spf13/cobra"
)

func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Ask questions about the ingested corpus",
		Long:  `Start an interactive session. Each question is answered with retrieved context; type "exit" to leave.`,
		RunE:  runChat,
	}

	return cmd
}

func runChat(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	conversation := internal.NewBoundedConversation(s.cfg.HistoryLimit)
	askUC := internal.NewAskUseCase(s.store, conversation, s.provider)

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	if s.store.Len() == 0 {
		fmt.Fprintln(out, "Store is empty; answers will not be grounded. Run \"ask ingest\" first.")
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	fmt.Fprint(out, "> ")

	for scanner.Scan() {
		question := strings.TrimSpace(scanner.Text())

		switch question {
		case "":
			fmt.Fprint(out, "> ")
			continue
		case "exit":
			return nil
		}

		result, err := askUC.Execute(cmd.Context(), internal.AskInput{
			Question: question,
			OnDelta: func(delta string) {
				fmt.Fprint(out, delta)
			},
		})
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			fmt.Fprint(out, "> ")
			continue
		}

		fmt.Fprintln(out)
		if result.DroppedFragments > 0 {
			fmt.Fprintf(errOut, "warning: %d malformed stream fragments dropped\n", result.DroppedFragments)
		}

		fmt.Fprint(out, "> ")
	}

	return scanner.Err()
}
