package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/askdocs/ask/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the corpus and re-ingest on change",
		Long:  `Watch the corpus directory for file changes and re-ingest after a quiet period.`,
		RunE:  runWatch,
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	return cmd
}

func runWatch(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}

	debounce, _ := cmd.Flags().GetDuration("debounce")
	corpus := s.corpusDir()

	if _, err := os.Stat(corpus); os.IsNotExist(err) {
		return fmt.Errorf("corpus directory does not exist: %s", corpus)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, corpus); err != nil {
		return fmt.Errorf("add watch dirs: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", corpus)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	ingestUC := s.ingestUseCase()

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if shouldIgnoreEvent(event) {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		case <-timer.C:
			pending = false
			out, ingestErr := ingestUC.Execute(cmd.Context(), internal.IngestInput{
				Dir:     corpus,
				Message: "watch: auto ingest",
			})
			if ingestErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "ingest error: %v\n", ingestErr)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Re-ingested %d files (%d records total)\n", out.Files, out.Records)
		}
	}
}

func addWatchDirs(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}

		if info.IsDir() {
			base := filepath.Base(path)
			if strings.HasPrefix(base, ".") && path != root {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	})
}

func shouldIgnoreEvent(event fsnotify.Event) bool {
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") {
		return true
	}

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return true
	}

	return false
}
