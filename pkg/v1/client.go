package v1

import (
	"context"
	"fmt"

	"github.com/askdocs/ask/internal"
)

// Client provides programmatic access to a workspace: ingesting
// documents, searching the embedding store and asking grounded
// questions. One Client holds one conversation.
type Client struct {
	ws           internal.Workspace
	store        *internal.EmbeddingStore
	provider     internal.Provider
	conversation *internal.Conversation
}

// New creates a Client for an initialized workspace.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var ws internal.Workspace
	if cfg.dir != "" {
		ws = internal.WorkspaceAt(cfg.dir)
	} else {
		ws = internal.ResolveWorkspace()
	}
	if !ws.Initialized() {
		return nil, fmt.Errorf("%w at %s", internal.ErrNotInitialized, ws.Root)
	}

	fileCfg, err := internal.LoadConfig(ws)
	if err != nil {
		return nil, err
	}

	embedder, provider := cfg.embedder, cfg.provider
	if embedder == nil || provider == nil {
		builtEmbedder, builtProvider, err := internal.BuildInference(ctx, ws, fileCfg)
		if err != nil {
			return nil, err
		}
		if embedder == nil {
			embedder = builtEmbedder
		}
		if provider == nil {
			provider = builtProvider
		}
	}

	store := internal.NewEmbeddingStore(embedder)
	if internal.SnapshotExists(ws.DatabasePath()) {
		if err := store.Load(ws.DatabasePath()); err != nil {
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
	}

	limit := cfg.historyLimit
	if limit == 0 {
		limit = fileCfg.HistoryLimit
	}

	return &Client{
		ws:           ws,
		store:        store,
		provider:     provider,
		conversation: internal.NewBoundedConversation(limit),
	}, nil
}

// Add embeds one document chunk into the store and saves the snapshot.
func (c *Client) Add(ctx context.Context, content, source string) error {
	if err := c.store.AddDocument(ctx, content, source); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if err := c.store.Save(c.ws.DatabasePath()); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Ingest walks dir, embedding every corpus file into the store.
func (c *Client) Ingest(ctx context.Context, dir string) (*IngestResult, error) {
	ingester := internal.NewIngester(c.store, internal.NewSentenceChunker(0))
	histFor := func() (*internal.History, error) { return internal.OpenHistory(c.ws) }

	uc := internal.NewIngestUseCase(c.store, ingester, histFor, c.ws.DatabasePath())
	out, err := uc.Execute(ctx, internal.IngestInput{Dir: dir})
	if err != nil {
		return nil, fmt.Errorf("ingest: %w", err)
	}

	return &IngestResult{
		Files:   out.Files,
		Chunks:  out.Chunks,
		Records: out.Records,
		Commit:  out.CommitHash,
	}, nil
}

// Search ranks stored chunks against the query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Candidate, error) {
	out, err := internal.NewSearchUseCase(c.store).Execute(ctx, internal.SearchInput{
		Query: query, Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	candidates := make([]Candidate, 0, len(out.Results))
	for _, r := range out.Results {
		candidates = append(candidates, Candidate{
			Content: r.Content,
			Source:  r.Source,
			Score:   r.Score,
		})
	}
	return candidates, nil
}

// Ask answers a question grounded in the store, carrying the client's
// conversation forward. onDelta is optional and receives the reply as
// it streams.
func (c *Client) Ask(ctx context.Context, question string, onDelta func(string)) (*Answer, error) {
	uc := internal.NewAskUseCase(c.store, c.conversation, c.provider)
	out, err := uc.Execute(ctx, internal.AskInput{Question: question, OnDelta: onDelta})
	if err != nil {
		return nil, err
	}

	return &Answer{
		Text:             out.Answer,
		Matches:          out.Matches,
		DroppedFragments: out.DroppedFragments,
	}, nil
}

// Summarize generates a structured summary of stored chunks,
// optionally filtered by source path.
func (c *Client) Summarize(ctx context.Context, source string) (*Summary, error) {
	out, err := internal.NewSummarizeUseCase(c.store, c.provider).Execute(ctx, internal.SummarizeInput{
		Source: source,
	})
	if err != nil {
		return nil, err
	}

	return &Summary{
		Title:     out.Title,
		Overview:  out.Overview,
		KeyPoints: out.KeyPoints,
		Sources:   out.Sources,
	}, nil
}

// Log lists recorded snapshot versions, newest first.
func (c *Client) Log(ctx context.Context, limit int) ([]Commit, error) {
	histFor := func() (*internal.History, error) { return internal.OpenHistory(c.ws) }

	out, err := internal.NewLogUseCase(histFor).Execute(ctx, internal.LogInput{Limit: limit})
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(out.Commits))
	for _, commit := range out.Commits {
		commits = append(commits, Commit{
			Hash:      commit.Hash,
			Message:   commit.Message,
			Timestamp: commit.Timestamp,
		})
	}
	return commits, nil
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}
