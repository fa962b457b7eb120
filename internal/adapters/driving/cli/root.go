// Package cli provides the command-line driving adapter.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/policybot-io/policybot/internal/adapters/driven/llm/ollama"
	"github.com/policybot-io/policybot/internal/chunker"
	"github.com/policybot-io/policybot/internal/config"
	"github.com/policybot-io/policybot/internal/core/ports/driven"
	"github.com/policybot-io/policybot/internal/core/ports/driving"
	"github.com/policybot-io/policybot/internal/core/services"
	"github.com/policybot-io/policybot/internal/embedding"
	ollamaembed "github.com/policybot-io/policybot/internal/embedding/ollama"
	"github.com/policybot-io/policybot/internal/embedding/openai"
	"github.com/policybot-io/policybot/internal/index"
	"github.com/policybot-io/policybot/internal/logger"
	"github.com/policybot-io/policybot/internal/parsers"
	"github.com/policybot-io/policybot/internal/parsers/csvfile"
	"github.com/policybot-io/policybot/internal/parsers/fetch"
	"github.com/policybot-io/policybot/internal/parsers/html"
	"github.com/policybot-io/policybot/internal/parsers/pdf"
	"github.com/policybot-io/policybot/internal/parsers/plaintext"
)

// version is overridden at build time via -ldflags.
var version = "dev"

var (
	flagVerbose bool
	flagConfig  string
)

// Shared application state, wired in wireServices before any command
// that needs it runs.
var (
	cfg                *config.Config
	indexStore         driven.IndexStore
	embedder           driven.EmbeddingService
	retrievalService   driving.RetrievalService
	ingestOrchestrator driving.IngestOrchestrator
)

var rootCmd = &cobra.Command{
	Use:   "policybot",
	Short: "Ingest HR policy documents and answer questions against them",
	Long: `policybot ingests HR policy documents from a source manifest,
chunks and embeds them into a local vector index, and retrieves the
most relevant passages for a question.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)

		// Version and help need no services.
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return wireServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.policybot/config.toml)")
}

// Execute runs the CLI and releases the embedding service afterwards.
func Execute() error {
	defer func() {
		if embedder != nil {
			_ = embedder.Close()
		}
	}()
	return rootCmd.Execute()
}

// wireServices builds the full service graph from the configuration.
func wireServices() error {
	path := flagConfig
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return err
	}
	logger.Debug("config loaded from %q", path)

	handle, err := acquireEmbedder(cfg.Embedding)
	if err != nil {
		return err
	}
	embedder = embedding.WithRetry(handle)

	manager := index.NewManager()
	indexStore = index.NewStore(cfg.IndexDir, manager)

	registry := parsers.NewRegistry(
		pdf.New(),
		csvfile.New(),
		html.New(fetch.New()),
		plaintext.New(),
	)

	splitter := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.MaxChunkSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	ingestOrchestrator = services.NewIngestService(
		cfg.Manifest, registry, splitter, embedder, indexStore,
	)
	retrievalService = services.NewRetrievalService(
		manager, embedder, cfg.Retrieval.K, cfg.Retrieval.ContextBudget,
	)
	return nil
}

// acquireEmbedder resolves the configured provider through the shared
// model cache, so repeated wiring in one process reuses the service.
func acquireEmbedder(cfg config.EmbeddingConfig) (*embedding.Handle, error) {
	key := cfg.Provider + "/" + cfg.Model

	switch cfg.Provider {
	case "ollama":
		return embedding.Default.Acquire(key, func() (driven.EmbeddingService, error) {
			return ollamaembed.NewEmbeddingService(ollamaembed.Config{
				Model:   cfg.Model,
				BaseURL: cfg.BaseURL,
			}), nil
		})

	case "openai":
		return embedding.Default.Acquire(key, func() (driven.EmbeddingService, error) {
			return openai.NewEmbeddingService(openai.Config{
				Model:   cfg.Model,
				BaseURL: cfg.BaseURL,
				APIKey:  cfg.APIKey,
			})
		})

	default:
		return nil, fmt.Errorf("unknown embedding provider %q (want ollama or openai)", cfg.Provider)
	}
}

// newCompletionService builds the optional answer generator.
func newCompletionService(model string) driven.CompletionService {
	return ollama.NewCompletionService(ollama.Config{
		Model:   model,
		BaseURL: cfg.Embedding.BaseURL,
	})
}
