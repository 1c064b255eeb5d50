package v1

import "github.com/askdocs/ask/internal"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	dir          string
	historyLimit int
	embedder     internal.Embedder
	provider     internal.Provider
}

// WithDir anchors the client at an explicit workspace root instead of
// walking up from the working directory.
func WithDir(dir string) Option {
	return func(c *clientConfig) {
		c.dir = dir
	}
}

// WithHistoryLimit bounds how many prior turns are replayed into each
// prompt. Zero keeps prompts unbounded.
func WithHistoryLimit(limit int) Option {
	return func(c *clientConfig) {
		c.historyLimit = limit
	}
}

// WithEmbedder overrides the configured embedding backend.
func WithEmbedder(e internal.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithProvider overrides the configured chat backend.
func WithProvider(p internal.Provider) Option {
	return func(c *clientConfig) {
		c.provider = p
	}
}
