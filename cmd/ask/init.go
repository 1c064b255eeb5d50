package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/askdocs/ask/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a workspace",
		Long:  `Create the .ask state directory, a default config and an empty corpus directory.`,
		RunE:  runInit,
	}

	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("get working directory: %w", err)
		}
		dir = cwd
	}

	ws := internal.WorkspaceAt(dir)
	if ws.Initialized() {
		return fmt.Errorf("already initialized at %s", ws.StateDir)
	}

	if err := os.MkdirAll(ws.StateDir, 0755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	cfg := internal.DefaultConfig()
	if err := internal.SaveConfig(ws, cfg); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	corpus := cfg.CorpusDir
	if !filepath.IsAbs(corpus) {
		corpus = filepath.Join(ws.Root, corpus)
	}
	if err := os.MkdirAll(corpus, 0755); err != nil {
		return fmt.Errorf("create corpus directory: %w", err)
	}

	if err := internal.InitHistory(ws); err != nil {
		return fmt.Errorf("init history: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized workspace at %s\n", ws.StateDir)
	return nil
}
