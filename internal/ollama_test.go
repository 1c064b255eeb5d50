package internal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaEmbed(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s, want /embeddings", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float64{0.1, 0.2}})
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, EmbedModel: "embedder"})

	vec, err := client.Embed(context.Background(), "some text")
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.1 {
		t.Errorf("vec = %v, want [0.1 0.2]", vec)
	}
	if gotBody["model"] != "embedder" || gotBody["prompt"] != "some text" {
		t.Errorf("request body = %v", gotBody)
	}
}

func TestOllamaEmbedEmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	if _, err := client.Embed(context.Background(), "x"); err == nil {
		t.Error("expected error for empty embedding")
	}
}

func TestOllamaEmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	if _, err := client.Embed(context.Background(), "x"); err == nil {
		t.Error("expected error on 500")
	}
}

func TestOllamaStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Errorf("path = %s, want /chat", r.URL.Path)
		}
		var body struct {
			Messages []ollamaChatMessage `json:"messages"`
			Stream   bool                `json:"stream"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !body.Stream {
			t.Error("stream flag not set")
		}
		if len(body.Messages) != 1 || body.Messages[0].Role != "user" {
			t.Errorf("messages = %v", body.Messages)
		}

		lines := []string{
			`{"message":{"role":"assistant","content":"Hel"},"done":false}`,
			`{"message":{"role":"assistant","content":"lo"},"done":false}`,
			`{"message":{"role":"assistant","content":""},"done":true}`,
		}
		for _, l := range lines {
			_, _ = w.Write([]byte(l + "\n"))
		}
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})

	result, err := client.Stream(context.Background(), []Turn{NewTurn(RoleUser, "hi")})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	var sb strings.Builder
	for delta := range result.Deltas {
		sb.WriteString(delta)
	}

	if sb.String() != "Hello" {
		t.Errorf("answer = %q, want Hello", sb.String())
	}
	if result.Dropped() != 0 {
		t.Errorf("dropped = %d, want 0", result.Dropped())
	}
}

func TestOllamaStreamSkipsMalformedFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lines := []string{
			`{"message":{"content":"good "},"done":false}`,
			`{not json at all`,
			`garbage`,
			`{"message":{"content":"parts"},"done":true}`,
		}
		for _, l := range lines {
			_, _ = w.Write([]byte(l + "\n"))
		}
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})

	result, err := client.Stream(context.Background(), []Turn{NewTurn(RoleUser, "hi")})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	var sb strings.Builder
	for delta := range result.Deltas {
		sb.WriteString(delta)
	}

	if sb.String() != "good parts" {
		t.Errorf("answer = %q, want the parseable fragments only", sb.String())
	}
	if result.Dropped() != 2 {
		t.Errorf("dropped = %d, want 2", result.Dropped())
	}
}

func TestOllamaStreamStopsAtDoneMarker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lines := []string{
			`{"message":{"content":"before"},"done":true}`,
			`{"message":{"content":"after"},"done":false}`,
		}
		for _, l := range lines {
			_, _ = w.Write([]byte(l + "\n"))
		}
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})

	result, err := client.Stream(context.Background(), []Turn{NewTurn(RoleUser, "hi")})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	var sb strings.Builder
	for delta := range result.Deltas {
		sb.WriteString(delta)
	}

	if sb.String() != "before" {
		t.Errorf("answer = %q, want streaming to stop at done", sb.String())
	}
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"content":"full answer"},"done":true}` + "\n"))
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})

	got, err := client.Complete(context.Background(), []Turn{NewTurn(RoleUser, "hi")})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got != "full answer" {
		t.Errorf("answer = %q", got)
	}
}

func TestOllamaGenerateObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := `Here you go: {"title":"T","overview":"O","key_points":["k"],"sources":["s"]}`
		chunk := map[string]any{"message": map[string]any{"content": reply}, "done": true}
		_ = json.NewEncoder(w).Encode(chunk)
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})

	var summary CorpusSummary
	if err := client.GenerateObject(context.Background(), "summarize", &summary); err != nil {
		t.Fatalf("generate object: %v", err)
	}
	if summary.Title != "T" || len(summary.KeyPoints) != 1 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestOllamaChatRequestFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOllamaClient(OllamaConfig{BaseURL: srv.URL})
	if _, err := client.Stream(context.Background(), []Turn{NewTurn(RoleUser, "hi")}); err == nil {
		t.Error("expected error on 404")
	}
}
