// Command archaeologist ingests a document archive into a searchable
// SQLite database enriched with AI metadata.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/archaeologist/internal/adapters/driven/ai"
	"github.com/custodia-labs/archaeologist/internal/adapters/driven/config/file"
	"github.com/custodia-labs/archaeologist/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/archaeologist/internal/adapters/driving/cli"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
	"github.com/custodia-labs/archaeologist/internal/core/services"
	"github.com/custodia-labs/archaeologist/internal/extractors"
	"github.com/custodia-labs/archaeologist/internal/logger"
	"github.com/custodia-labs/archaeologist/internal/scanner"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

func main() {
	os.Exit(run())
}

func run() int {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening config: %v\n", err)
		return cli.ExitFatal
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading settings: %v\n", err)
		return cli.ExitFatal
	}

	baseDir := settings.Storage.DataDir
	if baseDir == "" {
		if baseDir, err = file.DefaultDir(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return cli.ExitFatal
		}
	}

	store, err := sqlite.NewStore(filepath.Join(baseDir, "data"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening store: %v\n", err)
		return cli.ExitFatal
	}
	defer store.Close() //nolint:errcheck
	logger.Debug("store: %s", store.Path())
	docs := store.DocumentStore()

	failures, err := file.NewFailureLog(filepath.Join(baseDir, "logs"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening failure log: %v\n", err)
		return cli.ExitFatal
	}

	prompts, err := file.NewPromptStore(filepath.Join(baseDir, "prompts"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: opening prompt store: %v\n", err)
		return cli.ExitFatal
	}

	runtime := func(ctx context.Context, withEmbedding bool) (*cli.Runtime, error) {
		current, err := settingsService.Get()
		if err != nil {
			return nil, fmt.Errorf("loading settings: %w", err)
		}
		effective := *current
		if !withEmbedding {
			effective.Embedding.Enabled = false
		}

		providers, err := ai.Initialise(ctx, &effective, prompts)
		if err != nil {
			return nil, err
		}

		orch := services.NewProviderOrchestrator(providers.Analysis, providers.Embedding)
		threshold := effective.Ingest.SimilarityThreshold
		if threshold <= 0 {
			threshold = domain.DefaultSimilarityThreshold
		}

		rt := &cli.Runtime{
			Ingest: services.NewPipeline(
				scanner.New(), extractors.Default(), docs, orch, failures,
				services.PipelineConfig{SimilarityThreshold: threshold},
			),
			Warnings: providers.Warnings,
			Quota:    orch.EmbeddingQuota,
			Close:    providers.Close,
		}
		if orch.HasEmbedding() {
			rt.Backfill = services.NewBackfillService(docs, orch, threshold)
		}
		return rt, nil
	}

	cli.SetVersion(version)
	cli.SetServices(cli.Services{
		Search:         services.NewSearchService(docs),
		Document:       services.NewDocumentService(docs, failures),
		Settings:       settingsService,
		Runtime:        runtime,
		FailureLogPath: failures.Path(),
	})
	return cli.Execute()
}
