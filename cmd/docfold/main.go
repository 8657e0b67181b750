// Command docfold is the entry point for the document organiser CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	configfile "github.com/docfold/docfold/internal/adapters/driven/config/file"
	embeddingollama "github.com/docfold/docfold/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/docfold/docfold/internal/adapters/driven/embedding/openai"
	"github.com/docfold/docfold/internal/adapters/driven/extract"
	"github.com/docfold/docfold/internal/adapters/driven/fsops"
	llmollama "github.com/docfold/docfold/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/docfold/docfold/internal/adapters/driven/llm/openai"
	"github.com/docfold/docfold/internal/adapters/driven/ratelimit"
	"github.com/docfold/docfold/internal/adapters/driven/storage/jsonfile"
	"github.com/docfold/docfold/internal/adapters/driven/storage/memory"
	"github.com/docfold/docfold/internal/adapters/driven/storage/sqlite"
	"github.com/docfold/docfold/internal/adapters/driving/cli"
	"github.com/docfold/docfold/internal/core/domain"
	"github.com/docfold/docfold/internal/core/ports/driven"
	"github.com/docfold/docfold/internal/core/ports/driving"
	"github.com/docfold/docfold/internal/core/services"
)

func main() {
	// A missing .env is fine; real environment variables win.
	_ = godotenv.Load()

	configStore, err := configfile.NewConfigStore(os.Getenv("DOCFOLD_CONFIG_DIR"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli.SetConfigStore(configStore)
	cli.SetOrganiserBuilder(func(opts cli.PipelineOptions) (driving.Organiser, error) {
		return buildPipeline(configStore, opts)
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildPipeline wires one organiser from the config store and the
// command's options.
func buildPipeline(cfg driven.ConfigStore, opts cli.PipelineOptions) (driving.Organiser, error) {
	metrics := domain.NewMetricsLedger()

	embedder, err := buildEmbedding(cfg)
	if err != nil {
		return nil, err
	}
	llm, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	var summariserOpts []services.SummariserOption
	if n := cfg.GetInt("summary.max_sentences"); n > 0 {
		summariserOpts = append(summariserOpts, services.WithMaxSentences(n))
	}
	if f := cfg.GetFloat64("summary.min_similarity"); f > 0 {
		summariserOpts = append(summariserOpts, services.WithMinSimilarity(f))
	}
	summariser := services.NewSummariser(embedder, summariserOpts...)

	records, err := buildRecordStore(opts.Store)
	if err != nil {
		return nil, err
	}
	artifacts, err := jsonfile.NewArtifactStore(dataDir())
	if err != nil {
		return nil, err
	}

	var scannerOpts []services.ScannerOption
	if opts.Workers > 0 {
		scannerOpts = append(scannerOpts, services.WithWorkers(opts.Workers))
	}
	scanner := services.NewScanner(extract.DefaultRegistry(), summariser, records, metrics, scannerOpts...)
	planner := services.NewPlanner(llm, metrics)
	mover := fsops.NewMover()
	validator := services.NewValidator(opts.DestRoot, mover, metrics)
	executor := services.NewExecutor(mover, metrics)

	return services.NewOrganiser(scanner, planner, validator, executor, records, artifacts, llm, metrics), nil
}

// buildEmbedding selects the embedding provider. Returns nil when
// nothing is configured; summarisation then degrades to empty
// summaries rather than failing the scan.
func buildEmbedding(cfg driven.ConfigStore) (driven.EmbeddingService, error) {
	provider := cfg.GetString("embedding.provider")
	apiKey := os.Getenv("OPENAI_API_KEY")
	if provider == "" {
		if apiKey != "" {
			provider = "openai"
		} else {
			provider = "ollama"
		}
	}

	var (
		inner driven.EmbeddingService
		err   error
	)
	switch provider {
	case "openai":
		inner, err = embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.GetString("embedding.base_url"),
			Model:   cfg.GetString("embedding.model"),
		})
		if err != nil {
			return nil, err
		}
	case "ollama":
		inner = embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL:    cfg.GetString("embedding.base_url"),
			Model:      cfg.GetString("embedding.model"),
			Dimensions: cfg.GetInt("embedding.dimensions"),
		})
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}
	return ratelimit.NewEmbedding(inner, ratelimit.DefaultEmbeddingLimit), nil
}

// buildLLM selects the plan service provider.
func buildLLM(cfg driven.ConfigStore) (driven.LLMService, error) {
	provider := cfg.GetString("llm.provider")
	apiKey := os.Getenv("OPENAI_API_KEY")
	if provider == "" {
		if apiKey != "" {
			provider = "openai"
		} else {
			provider = "ollama"
		}
	}

	var (
		inner driven.LLMService
		err   error
	)
	switch provider {
	case "openai":
		inner, err = llmopenai.NewLLMService(llmopenai.Config{
			APIKey:  apiKey,
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
		if err != nil {
			return nil, err
		}
	case "ollama":
		inner = llmollama.NewLLMService(llmollama.Config{
			BaseURL: cfg.GetString("llm.base_url"),
			Model:   cfg.GetString("llm.model"),
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
	return ratelimit.NewLLM(inner, ratelimit.DefaultLLMLimit), nil
}

// buildRecordStore selects the record store backend.
func buildRecordStore(backend string) (driven.RecordStore, error) {
	switch backend {
	case "", "memory":
		return memory.NewRecordStore(), nil
	case "sqlite":
		return sqlite.NewStore(dataDir())
	default:
		return nil, fmt.Errorf("unknown record store backend %q", backend)
	}
}

// dataDir resolves where artifacts and the sqlite database live.
// Defaults to the adapters' own ~/.docfold fallback when unset.
func dataDir() string {
	if dir := os.Getenv("DOCFOLD_DATA_DIR"); dir != "" {
		return filepath.Clean(dir)
	}
	return ""
}
