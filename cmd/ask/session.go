package main

import (
	"fmt"
	"path/filepath"

	"github.com/askdocs/ask/internal"
	"github.com/spf13/cobra"
)

// session bundles the state a command needs: the resolved workspace,
// its config, the embedding store loaded from the snapshot, and the
// configured inference backend.
type session struct {
	ws       internal.Workspace
	cfg      *internal.Config
	store    *internal.EmbeddingStore
	embedder internal.Embedder
	provider internal.Provider
}

func resolveWorkspace(cmd *cobra.Command) internal.Workspace {
	dir, _ := cmd.Flags().GetString("dir")
	if dir != "" {
		return internal.WorkspaceAt(dir)
	}
	return internal.ResolveWorkspace()
}

// openSession resolves the workspace and loads everything a command
// needs. A snapshot that exists but cannot be parsed is fatal; a
// missing snapshot yields an empty store.
func openSession(cmd *cobra.Command) (*session, error) {
	ws := resolveWorkspace(cmd)
	if !ws.Initialized() {
		return nil, fmt.Errorf("%w at %s: run \"ask init\" first", internal.ErrNotInitialized, ws.Root)
	}

	cfg, err := internal.LoadConfig(ws)
	if err != nil {
		return nil, err
	}

	embedder, provider, err := internal.BuildInference(cmd.Context(), ws, cfg)
	if err != nil {
		return nil, err
	}

	store := internal.NewEmbeddingStore(embedder)
	if internal.SnapshotExists(ws.DatabasePath()) {
		if err := store.Load(ws.DatabasePath()); err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
	}

	return &session{
		ws:       ws,
		cfg:      cfg,
		store:    store,
		embedder: embedder,
		provider: provider,
	}, nil
}

func (s *session) corpusDir() string {
	if filepath.IsAbs(s.cfg.CorpusDir) {
		return s.cfg.CorpusDir
	}
	return filepath.Join(s.ws.Root, s.cfg.CorpusDir)
}

func (s *session) histFor() (*internal.History, error) {
	return internal.OpenHistory(s.ws)
}

func (s *session) ingestUseCase() *internal.IngestUseCase {
	ingester := internal.NewIngester(s.store, internal.NewSentenceChunker(0))
	return internal.NewIngestUseCase(s.store, ingester, s.histFor, s.ws.DatabasePath())
}
