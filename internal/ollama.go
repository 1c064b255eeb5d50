package internal

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

const (
	DefaultOllamaBaseURL = "http://localhost:11434/api"
	DefaultOllamaModel   = "mistral"
)

var (
	_ Embedder = (*OllamaClient)(nil)
	_ Provider = (*OllamaClient)(nil)
)

// OllamaClient speaks Ollama's native API: JSON embeddings and
// newline-delimited JSON chat streaming. It is the default inference
// backend; cloud providers go through FantasyProvider instead.
type OllamaClient struct {
	baseURL    string
	chatModel  string
	embedModel string
	client     *http.Client
}

type OllamaConfig struct {
	BaseURL    string
	ChatModel  string
	EmbedModel string
	Timeout    time.Duration
}

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultOllamaModel
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = cfg.ChatModel
	}

	return &OllamaClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		chatModel:  cfg.ChatModel,
		embedModel: cfg.EmbedModel,
		client:     &http.Client{Timeout: cfg.Timeout},
	}
}

// Embed requests an embedding for text. Callers are expected to have
// normalized text already; the client sends it verbatim.
func (c *OllamaClient) Embed(ctx context.Context, text string) ([]float64, error) {
	body, _ := json.Marshal(map[string]any{
		"model":  c.embedModel,
		"prompt": text,
	})

	resp, err := c.post(ctx, "/embeddings", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embeddings request: %s", resp.Status)
	}

	var out struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode embeddings response: %w", err)
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return out.Embedding, nil
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatChunk struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

// Stream sends the turns to /chat and returns the reply as a channel
// of text deltas. Each line of the response body is one JSON fragment;
// fragments that fail to parse are counted and skipped, never fatal.
// The channel closes on the provider's done marker, end of body, or
// context cancellation.
func (c *OllamaClient) Stream(ctx context.Context, turns []Turn) (*StreamResult, error) {
	messages := make([]ollamaChatMessage, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, ollamaChatMessage{Role: string(t.Role), Content: t.Content})
	}

	body, _ := json.Marshal(map[string]any{
		"model":    c.chatModel,
		"stream":   true,
		"messages": messages,
	})

	resp, err := c.post(ctx, "/chat", body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("chat request: %s", resp.Status)
	}

	ch := make(chan string, 64)
	var dropped atomic.Int64

	go func() {
		defer close(ch)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}

			var chunk ollamaChatChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				dropped.Add(1)
				continue
			}

			if chunk.Message.Content != "" {
				select {
				case ch <- chunk.Message.Content:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done {
				return
			}
		}
	}()

	return &StreamResult{
		Deltas:  ch,
		Dropped: func() int { return int(dropped.Load()) },
	}, nil
}

// Complete drains a streamed reply into one string.
func (c *OllamaClient) Complete(ctx context.Context, turns []Turn) (string, error) {
	result, err := c.Stream(ctx, turns)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for delta := range result.Deltas {
		sb.WriteString(delta)
	}

	return sb.String(), nil
}

// GenerateObject asks for a JSON reply matching target's shape and
// decodes it. Ollama has no schema-constrained mode, so this leans on
// prompt instructions plus a lenient decode of the reply.
func (c *OllamaClient) GenerateObject(ctx context.Context, prompt string, target any) error {
	full := prompt + "\n\nReply with a single JSON object and nothing else."

	reply, err := c.Complete(ctx, []Turn{NewTurn(RoleUser, full)})
	if err != nil {
		return err
	}

	reply = strings.TrimSpace(reply)
	if start := strings.Index(reply, "{"); start > 0 {
		reply = reply[start:]
	}
	if end := strings.LastIndex(reply, "}"); end >= 0 {
		reply = reply[:end+1]
	}

	if err := json.Unmarshal([]byte(reply), target); err != nil {
		return fmt.Errorf("decode object reply: %w", err)
	}

	return nil
}

func (c *OllamaClient) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	return resp, nil
}
