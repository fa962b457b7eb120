// Package config loads and persists the application configuration
// from a TOML file under the user's policybot directory.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/policybot-io/policybot/internal/chunker"
	"github.com/policybot-io/policybot/internal/core/services"
)

// Config is the full application configuration. Zero or missing values
// fall back to defaults when loaded through Load.
type Config struct {
	// Manifest is the path to the source manifest file.
	Manifest string `toml:"manifest"`

	// IndexDir is the directory holding the persisted index artifacts.
	IndexDir string `toml:"index_dir"`

	Chunking  ChunkingConfig  `toml:"chunking"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Retrieval RetrievalConfig `toml:"retrieval"`
}

// ChunkingConfig controls how documents are split.
type ChunkingConfig struct {
	MaxChunkSize int `toml:"max_chunk_size"`
	Overlap      int `toml:"overlap"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	// Model is the embedding model name. Empty means the provider default.
	Model string `toml:"model"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `toml:"base_url"`

	// APIKey authenticates against hosted providers. The
	// OPENAI_API_KEY environment variable takes precedence.
	APIKey string `toml:"api_key"`
}

// RetrievalConfig controls the retrieval defaults.
type RetrievalConfig struct {
	K             int  `toml:"k"`
	ContextBudget int  `toml:"context_budget"`
	Diversify     bool `toml:"diversify"`
}

// Dir returns the policybot configuration directory, ~/.policybot.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".policybot"), nil
}

// DefaultPath returns the default configuration file path.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns the configuration used when no file exists. Paths
// are rooted in dir.
func Default(dir string) *Config {
	return &Config{
		Manifest: filepath.Join(dir, "sources.txt"),
		IndexDir: filepath.Join(dir, "index"),
		Chunking: ChunkingConfig{
			MaxChunkSize: chunker.DefaultChunkSize,
			Overlap:      chunker.DefaultOverlap,
		},
		Embedding: EmbeddingConfig{
			Provider: "ollama",
		},
		Retrieval: RetrievalConfig{
			K:             services.DefaultK,
			ContextBudget: services.DefaultContextBudget,
		},
	}
}

// Load reads the configuration from path. A missing file yields the
// defaults; a present file is merged over them, so partial files work.
func Load(path string) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	cfg := Default(dir)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}
	applyDefaults(cfg, dir)

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Embedding.APIKey = key
	}
	return cfg, nil
}

// Save writes the configuration to path with restricted permissions,
// creating the parent directory when needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config %q: %w", path, err)
	}
	return nil
}

// applyDefaults fills zero values left by a partial config file.
func applyDefaults(cfg *Config, dir string) {
	def := Default(dir)

	if cfg.Manifest == "" {
		cfg.Manifest = def.Manifest
	}
	if cfg.IndexDir == "" {
		cfg.IndexDir = def.IndexDir
	}
	if cfg.Chunking.MaxChunkSize <= 0 {
		cfg.Chunking.MaxChunkSize = def.Chunking.MaxChunkSize
	}
	if cfg.Chunking.Overlap < 0 {
		cfg.Chunking.Overlap = def.Chunking.Overlap
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = def.Embedding.Provider
	}
	if cfg.Retrieval.K <= 0 {
		cfg.Retrieval.K = def.Retrieval.K
	}
	if cfg.Retrieval.ContextBudget <= 0 {
		cfg.Retrieval.ContextBudget = def.Retrieval.ContextBudget
	}
}
