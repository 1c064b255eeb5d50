package internal

import "context"

// Embedder turns text into a fixed-dimensionality vector. All vectors
// produced by one Embedder instance share the same dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Provider generates chat completions. Stream returns a lazy, finite
// sequence of text deltas; the channel is closed once the provider
// signals completion. Individual malformed fragments are dropped by
// implementations rather than aborting the stream.
type Provider interface {
	Complete(ctx context.Context, turns []Turn) (string, error)
	Stream(ctx context.Context, turns []Turn) (*StreamResult, error)
	GenerateObject(ctx context.Context, prompt string, target any) error
}

// StreamResult carries the delta channel of one streamed completion.
// Dropped reports how many fragments failed to parse and were skipped;
// it is only meaningful after the channel has been drained.
type StreamResult struct {
	Deltas  <-chan string
	Dropped func() int
}

// Structured output types for AI features

type CorpusSummary struct {
	Title     string   `json:"title"`
	Overview  string   `json:"overview"`
	KeyPoints []string `json:"key_points"`
	Sources   []string `json:"sources"`
}
