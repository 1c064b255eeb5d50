package internal

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

// fakeProvider streams canned deltas and records the turns it was
// given.
type fakeProvider struct {
	deltas    []string
	dropped   int
	gotTurns  []Turn
	streamErr error
}

func (f *fakeProvider) Stream(ctx context.Context, turns []Turn) (*StreamResult, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	f.gotTurns = turns

	ch := make(chan string, len(f.deltas))
	for _, d := range f.deltas {
		ch <- d
	}
	close(ch)

	return &StreamResult{
		Deltas:  ch,
		Dropped: func() int { return f.dropped },
	}, nil
}

func (f *fakeProvider) Complete(ctx context.Context, turns []Turn) (string, error) {
	return strings.Join(f.deltas, ""), nil
}

func (f *fakeProvider) GenerateObject(ctx context.Context, prompt string, target any) error {
	if s, ok := target.(*CorpusSummary); ok {
		*s = CorpusSummary{Title: "Fake", Overview: "fake overview"}
	}
	return nil
}

func TestAskUseCase(t *testing.T) {
	emb := &fakeEmbedder{deflt: []float64{1, 0}}
	store := NewEmbeddingStore(emb)
	ctx := context.Background()

	if err := store.AddDocument(ctx, "the answer is 42", "hitchhiker.md"); err != nil {
		t.Fatalf("add: %v", err)
	}

	conv := NewConversation()
	provider := &fakeProvider{deltas: []string{"It ", "is ", "42."}, dropped: 1}
	uc := NewAskUseCase(store, conv, provider)

	var streamed strings.Builder
	out, err := uc.Execute(ctx, AskInput{
		Question: "what is the answer?",
		OnDelta:  func(d string) { streamed.WriteString(d) },
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	if out.Answer != "It is 42." {
		t.Errorf("answer = %q", out.Answer)
	}
	if streamed.String() != out.Answer {
		t.Errorf("OnDelta saw %q, accumulated %q", streamed.String(), out.Answer)
	}
	if out.Matches != 1 {
		t.Errorf("matches = %d, want 1", out.Matches)
	}
	if out.DroppedFragments != 1 {
		t.Errorf("dropped = %d, want 1", out.DroppedFragments)
	}

	// the prompt sent to the provider carries the retrieved context
	prompt := provider.gotTurns[len(provider.gotTurns)-1].Content
	if !strings.Contains(prompt, "hitchhiker.md") || !strings.Contains(prompt, "the answer is 42") {
		t.Errorf("prompt missing retrieved context:\n%s", prompt)
	}

	// the exchange was committed with the bare question
	turns := conv.Turns()
	if len(turns) != 2 {
		t.Fatalf("history has %d turns, want 2", len(turns))
	}
	if turns[0].Content != "what is the answer?" || turns[1].Content != "It is 42." {
		t.Errorf("history = [%q, %q]", turns[0].Content, turns[1].Content)
	}
}

func TestAskUseCaseEmptyStore(t *testing.T) {
	emb := &fakeEmbedder{}
	store := NewEmbeddingStore(emb)
	conv := NewConversation()
	provider := &fakeProvider{deltas: []string{"no context answer"}}
	uc := NewAskUseCase(store, conv, provider)

	out, err := uc.Execute(context.Background(), AskInput{Question: "anything?"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	if out.Matches != 0 {
		t.Errorf("matches = %d, want 0", out.Matches)
	}
	// with no candidates the prompt is the bare question
	if provider.gotTurns[0].Content != "anything?" {
		t.Errorf("prompt = %q, want the bare question", provider.gotTurns[0].Content)
	}
}

func TestAskUseCaseBlankQuestion(t *testing.T) {
	uc := NewAskUseCase(NewEmbeddingStore(&fakeEmbedder{}), NewConversation(), &fakeProvider{})

	if _, err := uc.Execute(context.Background(), AskInput{Question: "  "}); err == nil {
		t.Error("expected error for blank question")
	}
}

func TestAskUseCaseProviderFailureLeavesHistoryClean(t *testing.T) {
	emb := &fakeEmbedder{deflt: []float64{1}}
	store := NewEmbeddingStore(emb)
	conv := NewConversation()
	provider := &fakeProvider{streamErr: errors.New("provider down")}
	uc := NewAskUseCase(store, conv, provider)

	_, err := uc.Execute(context.Background(), AskInput{Question: "q"})
	if !errors.Is(err, ErrInference) {
		t.Errorf("err = %v, want ErrInference", err)
	}
	if conv.Len() != 0 {
		t.Errorf("failed ask committed %d turns", conv.Len())
	}
}

func TestAskUseCaseSecondQuestionSeesHistory(t *testing.T) {
	emb := &fakeEmbedder{deflt: []float64{1}}
	store := NewEmbeddingStore(emb)
	conv := NewConversation()
	provider := &fakeProvider{deltas: []string{"a1"}}
	uc := NewAskUseCase(store, conv, provider)
	ctx := context.Background()

	if _, err := uc.Execute(ctx, AskInput{Question: "q1"}); err != nil {
		t.Fatalf("first ask: %v", err)
	}

	provider.deltas = []string{"a2"}
	if _, err := uc.Execute(ctx, AskInput{Question: "q2"}); err != nil {
		t.Fatalf("second ask: %v", err)
	}

	// first exchange replayed before the new prompt
	if len(provider.gotTurns) != 3 {
		t.Fatalf("second prompt has %d turns, want 3", len(provider.gotTurns))
	}
	if provider.gotTurns[0].Content != "q1" || provider.gotTurns[1].Content != "a1" {
		t.Errorf("replayed history = [%q, %q]", provider.gotTurns[0].Content, provider.gotTurns[1].Content)
	}
}

func TestSearchUseCaseLimit(t *testing.T) {
	emb := &fakeEmbedder{deflt: []float64{1, 0}}
	store := NewEmbeddingStore(emb)
	ctx := context.Background()

	for _, content := range []string{"aaa", "bbb", "ccc"} {
		if err := store.AddDocument(ctx, content, "f"); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	uc := NewSearchUseCase(store)
	out, err := uc.Execute(ctx, SearchInput{Query: "q", Limit: 2})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(out.Results) != 2 {
		t.Errorf("results = %d, want 2", len(out.Results))
	}
}

func TestIngestUseCaseSavesAndCommits(t *testing.T) {
	ws := WorkspaceAt(t.TempDir())
	if err := os.MkdirAll(ws.StateDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := InitHistory(ws); err != nil {
		t.Fatalf("init history: %v", err)
	}

	corpus := t.TempDir()
	writeCorpusFile(t, corpus, "a.md", "Some content.")

	emb := &fakeEmbedder{deflt: []float64{1}}
	store := NewEmbeddingStore(emb)
	ing := NewIngester(store, NewSentenceChunker(100))
	histFor := func() (*History, error) { return OpenHistory(ws) }

	uc := NewIngestUseCase(store, ing, histFor, ws.DatabasePath())
	out, err := uc.Execute(context.Background(), IngestInput{Dir: corpus})
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	if out.Records != 1 {
		t.Errorf("records = %d, want 1", out.Records)
	}
	if !SnapshotExists(ws.DatabasePath()) {
		t.Error("snapshot not written")
	}
	if out.CommitHash == "" {
		t.Error("snapshot not committed to history")
	}
}

func TestSummarizeUseCase(t *testing.T) {
	emb := &fakeEmbedder{deflt: []float64{1}}
	store := NewEmbeddingStore(emb)
	ctx := context.Background()

	if err := store.AddDocument(ctx, "chunk one", "a.md"); err != nil {
		t.Fatalf("add: %v", err)
	}

	uc := NewSummarizeUseCase(store, &fakeProvider{})
	summary, err := uc.Execute(ctx, SummarizeInput{})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Title != "Fake" {
		t.Errorf("title = %q", summary.Title)
	}
}

func TestSummarizeUseCaseEmptyStore(t *testing.T) {
	uc := NewSummarizeUseCase(NewEmbeddingStore(&fakeEmbedder{}), &fakeProvider{})

	summary, err := uc.Execute(context.Background(), SummarizeInput{})
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Title != "Empty" {
		t.Errorf("title = %q, want Empty", summary.Title)
	}
}

func TestProviderService(t *testing.T) {
	ws := WorkspaceAt(t.TempDir())
	if err := os.MkdirAll(ws.StateDir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	svc := NewProviderService(ws)

	if err := svc.Add("openai", ProviderConfig{APIKey: "k", Model: "m"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	names, err := svc.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 1 || names[0] != "openai" {
		t.Errorf("names = %v", names)
	}

	if err := svc.SetDefault("openai"); err != nil {
		t.Fatalf("set default: %v", err)
	}
	cfg, _ := LoadConfig(ws)
	if cfg.Inference.Backend != "openai" {
		t.Errorf("backend = %q, want openai", cfg.Inference.Backend)
	}

	if err := svc.SetDefault("missing"); err == nil {
		t.Error("expected error for unknown provider")
	}

	if err := svc.Remove("openai"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	names, _ = svc.List()
	if len(names) != 0 {
		t.Errorf("names after remove = %v", names)
	}
}
