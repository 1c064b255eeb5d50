package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Use case input/output DTOs

type IngestInput struct {
	Dir      string
	Message  string
	Progress IngestProgress
}

type IngestOutput struct {
	Files      int
	Chunks     int
	Records    int
	CommitHash string
}

type SearchInput struct {
	Query string
	Limit int
}

type CandidateOutput struct {
	Content string
	Source  string
	Score   float64
}

type SearchOutput struct {
	Results []CandidateOutput
}

type AskInput struct {
	Question string

	// OnDelta receives each streamed text fragment as it arrives.
	// Display is the caller's choice; the use case only accumulates.
	OnDelta func(delta string)
}

type AskOutput struct {
	Answer           string
	Matches          int
	DroppedFragments int
}

type LogInput struct {
	Limit int
}

type LogOutput struct {
	Commits []SnapshotCommit
}

type DiffInput struct {
	Ref string
}

type DiffOutput struct {
	Diff string
}

type SummarizeInput struct {
	Source string
}

// Use cases

type IngestUseCase struct {
	store    *EmbeddingStore
	ingester *Ingester
	histFor  func() (*History, error)
	dbPath   string
}

func NewIngestUseCase(store *EmbeddingStore, ingester *Ingester, histFor func() (*History, error), dbPath string) *IngestUseCase {
	return &IngestUseCase{
		store:    store,
		ingester: ingester,
		histFor:  histFor,
		dbPath:   dbPath,
	}
}

// Execute ingests the corpus directory and, on success, saves the
// snapshot and commits it to history. An inference failure aborts the
// run before anything is written.
func (uc *IngestUseCase) Execute(ctx context.Context, input IngestInput) (*IngestOutput, error) {
	files, chunks, err := uc.ingester.IngestDir(ctx, input.Dir, input.Progress)
	if err != nil {
		return nil, err
	}

	if err := uc.store.Save(uc.dbPath); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	out := &IngestOutput{
		Files:   files,
		Chunks:  chunks,
		Records: uc.store.Len(),
	}

	if uc.histFor == nil {
		return out, nil
	}

	hist, err := uc.histFor()
	if err != nil {
		return out, nil // history is best-effort
	}

	message := input.Message
	if message == "" {
		message = fmt.Sprintf("ingest: %d files, %d chunks", files, chunks)
	}

	commit, err := hist.CommitSnapshot(ctx, message)
	if err == nil && commit != nil {
		out.CommitHash = commit.Hash
	}

	return out, nil
}

type SearchUseCase struct {
	store *EmbeddingStore
}

func NewSearchUseCase(store *EmbeddingStore) *SearchUseCase {
	return &SearchUseCase{store: store}
}

func (uc *SearchUseCase) Execute(ctx context.Context, input SearchInput) (*SearchOutput, error) {
	candidates, err := uc.store.Query(ctx, input.Query)
	if err != nil {
		return nil, err
	}

	if input.Limit > 0 && len(candidates) > input.Limit {
		candidates = candidates[:input.Limit]
	}

	out := &SearchOutput{Results: make([]CandidateOutput, 0, len(candidates))}
	for _, c := range candidates {
		out.Results = append(out.Results, CandidateOutput{
			Content: c.Content,
			Source:  c.Source,
			Score:   c.Score,
		})
	}

	return out, nil
}

type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingAnswer
)

// AskUseCase runs one retrieval-grounded question/answer cycle against
// the session's conversation. The exchange is committed to history
// only after the full streamed answer has arrived.
type AskUseCase struct {
	store        *EmbeddingStore
	conversation *Conversation
	provider     Provider
	state        sessionState
}

func NewAskUseCase(store *EmbeddingStore, conversation *Conversation, provider Provider) *AskUseCase {
	return &AskUseCase{
		store:        store,
		conversation: conversation,
		provider:     provider,
	}
}

func (uc *AskUseCase) Execute(ctx context.Context, input AskInput) (*AskOutput, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, errors.New("question is required")
	}
	if uc.provider == nil {
		return nil, ErrNoProvider
	}
	if uc.state != stateIdle {
		return nil, errors.New("a question is already in flight")
	}

	candidates, err := uc.store.Query(ctx, question)
	if err != nil {
		return nil, err
	}

	turns := uc.conversation.AssemblePrompt(question, candidates)

	uc.state = stateAwaitingAnswer
	defer func() { uc.state = stateIdle }()

	result, err := uc.provider.Stream(ctx, turns)
	if err != nil {
		return nil, fmt.Errorf("%w: chat: %v", ErrInference, err)
	}

	var sb strings.Builder
	for delta := range result.Deltas {
		sb.WriteString(delta)
		if input.OnDelta != nil {
			input.OnDelta(delta)
		}
	}

	answer := sb.String()
	uc.conversation.RecordExchange(question, answer)

	dropped := 0
	if result.Dropped != nil {
		dropped = result.Dropped()
	}

	return &AskOutput{
		Answer:           answer,
		Matches:          len(candidates),
		DroppedFragments: dropped,
	}, nil
}

type LogUseCase struct {
	histFor func() (*History, error)
}

func NewLogUseCase(histFor func() (*History, error)) *LogUseCase {
	return &LogUseCase{histFor: histFor}
}

func (uc *LogUseCase) Execute(ctx context.Context, input LogInput) (*LogOutput, error) {
	hist, err := uc.histFor()
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	commits, err := hist.Log(ctx, input.Limit)
	if err != nil {
		return nil, err
	}

	out := &LogOutput{Commits: make([]SnapshotCommit, 0, len(commits))}
	for _, c := range commits {
		out.Commits = append(out.Commits, *c)
	}

	return out, nil
}

type DiffUseCase struct {
	histFor func() (*History, error)
}

func NewDiffUseCase(histFor func() (*History, error)) *DiffUseCase {
	return &DiffUseCase{histFor: histFor}
}

func (uc *DiffUseCase) Execute(ctx context.Context, input DiffInput) (*DiffOutput, error) {
	hist, err := uc.histFor()
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	diff, err := hist.Diff(ctx, input.Ref)
	if err != nil {
		return nil, err
	}

	return &DiffOutput{Diff: diff}, nil
}

type SummarizeUseCase struct {
	store    *EmbeddingStore
	provider Provider
}

func NewSummarizeUseCase(store *EmbeddingStore, provider Provider) *SummarizeUseCase {
	return &SummarizeUseCase{store: store, provider: provider}
}

func (uc *SummarizeUseCase) Execute(ctx context.Context, input SummarizeInput) (*CorpusSummary, error) {
	if uc.provider == nil {
		return nil, ErrNoProvider
	}

	records := uc.store.Records()
	if input.Source != "" {
		filtered := records[:0]
		for _, rec := range records {
			if strings.Contains(rec.Source, input.Source) {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}

	if len(records) == 0 {
		return &CorpusSummary{Title: "Empty", Overview: "No records found"}, nil
	}

	var sb strings.Builder
	sb.WriteString("Summarize the following document excerpts:\n\n")
	for _, rec := range records {
		fmt.Fprintf(&sb, "## %s\n%s\n\n", rec.Source, rec.Content)
	}

	var summary CorpusSummary
	if err := uc.provider.GenerateObject(ctx, sb.String(), &summary); err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	return &summary, nil
}

// ProviderUseCases manage provider configuration entries.

type ProviderInput struct {
	Name   string
	Config ProviderConfig
}

type ProviderService struct {
	ws Workspace
}

func NewProviderService(ws Workspace) *ProviderService {
	return &ProviderService{ws: ws}
}

func (s *ProviderService) List() ([]string, error) {
	cfg, err := LoadConfig(s.ws)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(cfg.Providers))
	for name := range cfg.Providers {
		names = append(names, name)
	}
	return names, nil
}

func (s *ProviderService) Add(name string, providerCfg ProviderConfig) error {
	cfg, err := LoadConfig(s.ws)
	if err != nil {
		return err
	}

	cfg.Providers[name] = providerCfg
	return SaveConfig(s.ws, cfg)
}

func (s *ProviderService) Remove(name string) error {
	cfg, err := LoadConfig(s.ws)
	if err != nil {
		return err
	}

	delete(cfg.Providers, name)
	return SaveConfig(s.ws, cfg)
}

func (s *ProviderService) SetDefault(name string) error {
	cfg, err := LoadConfig(s.ws)
	if err != nil {
		return err
	}

	if name != "ollama" {
		if _, exists := cfg.Providers[name]; !exists {
			return fmt.Errorf("provider %q not found", name)
		}
	}

	cfg.Inference.Backend = name
	return SaveConfig(s.ws, cfg)
}

func (s *ProviderService) Test(ctx context.Context, name string) error {
	cfg, err := LoadConfig(s.ws)
	if err != nil {
		return err
	}

	if name == "ollama" {
		client := NewOllamaClient(OllamaConfig{
			BaseURL:   cfg.Inference.BaseURL,
			ChatModel: cfg.Inference.ChatModel,
			Timeout:   30 * time.Second,
		})
		_, err := client.Complete(ctx, []Turn{NewTurn(RoleUser, "Say hello")})
		return err
	}

	providerCfg, exists := cfg.Providers[name]
	if !exists {
		return fmt.Errorf("provider %q not found", name)
	}

	provider, err := NewFantasyProvider(ctx, FantasyConfig{
		Provider: name,
		APIKey:   providerCfg.APIKey,
		BaseURL:  providerCfg.BaseURL,
		Model:    providerCfg.Model,
	})
	if err != nil {
		return fmt.Errorf("create provider: %w", err)
	}

	_, err = provider.Complete(ctx, []Turn{NewTurn(RoleUser, "Say hello")})
	return err
}
