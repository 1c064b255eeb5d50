package internal

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type InferenceConfig struct {
	Backend    string        `yaml:"backend"`
	ChatModel  string        `yaml:"chat_model"`
	EmbedModel string        `yaml:"embed_model,omitempty"`
	BaseURL    string        `yaml:"base_url,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type Config struct {
	Inference InferenceConfig           `yaml:"inference"`
	Providers map[string]ProviderConfig `yaml:"providers,omitempty"`
	CorpusDir string                    `yaml:"corpus_dir"`

	// HistoryLimit bounds how many prior turns are replayed into each
	// prompt. Zero keeps the original unbounded behavior.
	HistoryLimit int `yaml:"history_limit,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Inference: InferenceConfig{
			Backend:   "ollama",
			ChatModel: DefaultOllamaModel,
			BaseURL:   DefaultOllamaBaseURL,
		},
		Providers: make(map[string]ProviderConfig),
		CorpusDir: "data",
	}
}

func LoadConfig(ws Workspace) (*Config, error) {
	path := ws.ConfigPath()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]ProviderConfig)
	}
	if cfg.CorpusDir == "" {
		cfg.CorpusDir = "data"
	}

	return &cfg, nil
}

func SaveConfig(ws Workspace, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(ws.ConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// BuildInference wires the configured backend into an embedder and a
// chat provider. The ollama backend serves both roles; cloud backends
// keep ollama for embeddings since fantasy models only generate.
func BuildInference(ctx context.Context, ws Workspace, cfg *Config) (Embedder, Provider, error) {
	ollama := NewOllamaClient(OllamaConfig{
		BaseURL:    cfg.Inference.BaseURL,
		ChatModel:  cfg.Inference.ChatModel,
		EmbedModel: cfg.Inference.EmbedModel,
		Timeout:    cfg.Inference.Timeout,
	})

	if cfg.Inference.Backend == "" || cfg.Inference.Backend == "ollama" {
		return ollama, ollama, nil
	}

	providerCfg, ok := cfg.Providers[cfg.Inference.Backend]
	if !ok {
		return nil, nil, fmt.Errorf("provider %q not configured", cfg.Inference.Backend)
	}

	provider, err := NewFantasyProvider(ctx, FantasyConfig{
		Provider: cfg.Inference.Backend,
		APIKey:   providerCfg.APIKey,
		BaseURL:  providerCfg.BaseURL,
		Model:    providerCfg.Model,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create provider: %w", err)
	}

	return ollama, provider, nil
}
