// Command docuquery answers questions about local documents.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/docuquery/internal/adapters/driven/ai"
	"github.com/custodia-labs/docuquery/internal/adapters/driven/config/file"
	storagefile "github.com/custodia-labs/docuquery/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/docuquery/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docuquery/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/docuquery/internal/adapters/driving/cli"
	"github.com/custodia-labs/docuquery/internal/connectors/filesystem"
	"github.com/custodia-labs/docuquery/internal/core/domain"
	"github.com/custodia-labs/docuquery/internal/core/services"
	"github.com/custodia-labs/docuquery/internal/logger"
	"github.com/custodia-labs/docuquery/internal/normalisers"
	"github.com/custodia-labs/docuquery/internal/postprocessors"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

// promptDirName is the prompt template directory inside the config directory.
const promptDirName = "prompts"

func main() {
	os.Exit(run())
}

func run() int {
	// A .env file is optional; it only supplies API keys and DOCUQUERY_DATA_DIR.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := wire(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "docuquery: %v\n", err)
		return 1
	}
	defer app.close()

	cli.SetVersion(version)
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}

// application owns the resources that need releasing on exit.
type application struct {
	store *sqlite.Store
	index *flat.Index
	ai    *ai.Services
}

func (a *application) close() {
	// Persist even when interrupted so the snapshot matches the registry.
	if err := a.index.Persist(context.Background()); err != nil {
		logger.Warn("Failed to persist vector index: %v", err)
	}
	if err := a.index.Close(); err != nil {
		logger.Warn("Failed to close vector index: %v", err)
	}
	if a.ai != nil {
		if err := a.ai.Close(); err != nil {
			logger.Warn("Failed to close AI services: %v", err)
		}
	}
	if err := a.store.Close(); err != nil {
		logger.Warn("Failed to close store: %v", err)
	}
	_ = logger.Sync()
}

// wire builds the stores and services and hands them to the CLI. Failure
// to build the AI providers is not fatal: document and config commands
// still work and the rest report the reason.
func wire(ctx context.Context) (*application, error) {
	configDir, err := file.DefaultConfigDir()
	if err != nil {
		return nil, fmt.Errorf("locate config directory: %w", err)
	}
	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	logger.SetFormat(settings.Logging.Format)

	dataDir := settings.Storage.DataDir
	if dataDir == "" {
		if dataDir, err = sqlite.DefaultDataDir(); err != nil {
			return nil, err
		}
	}

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	index := flat.New(storagefile.NewSnapshotStore(filepath.Join(dataDir, storagefile.DefaultSnapshotName)))
	if err := index.Load(ctx); err != nil {
		if !errors.Is(err, domain.ErrCorruptSnapshot) {
			store.Close()
			return nil, fmt.Errorf("load vector index: %w", err)
		}
		logger.Warn("Vector index snapshot is unreadable, rebuilding from the registry: %v", err)
	}

	app := &application{store: store, index: index}
	docStore := store.DocumentStore()
	registry := store.ChunkRegistry()

	locks := services.NewDocumentLocks()
	documentService := services.NewDocumentService(docStore, registry, index, locks)
	cli.SetServices(nil, nil, documentService, settingsService)

	// Settings problems are reported by the commands that need them.
	if err := settings.Validate(); err != nil {
		cli.SetStartupError(err)
		return app, nil
	}

	chunkers := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(chunkers)
	chunker, err := chunkers.Build(postprocessors.DefaultChunker, postprocessors.ChunkingConfig(settings.Chunking))
	if err != nil {
		cli.SetStartupError(err)
		return app, nil
	}

	aiServices, err := ai.NewServices(*settings, false)
	if err != nil {
		cli.SetStartupError(err)
		return app, nil
	}
	app.ai = aiServices

	prompts, err := file.NewPromptStore(filepath.Join(configDir, promptDirName))
	if err != nil {
		logger.Warn("Using built-in prompts: %v", err)
		prompts = nil
	}

	gateway := services.NewEmbeddingGateway(aiServices.Embedding, settings.Embedding)
	retriever := services.NewRetriever(gateway, index, registry, settings.Retrieval.Margin)
	composer := services.NewAnswerComposer(aiServices.LLM, docStore, settings.LLM, settings.Answer)
	if prompts != nil {
		composer.SetPromptStore(prompts)
	}

	// Load accepts any path; the root only scopes FullSync and Watch.
	loader := filesystem.New(dataDir)
	ingestService := services.NewIngestService(
		chunker,
		gateway,
		index,
		registry,
		docStore,
		loader,
		normalisers.Default(),
		locks,
	)

	// Processed documents whose vectors are missing from the loaded
	// snapshot are re-embedded or marked failed before anything queries.
	if _, err := ingestService.Reconcile(ctx); err != nil {
		logger.Warn("Index reconciliation incomplete: %v", err)
	}

	queryService := services.NewQueryService(retriever, composer)

	cli.SetServices(ingestService, queryService, documentService, settingsService)
	cli.SetProviderCheck(func(ctx context.Context) []ai.ProviderStatus {
		return ai.Check(ctx, *settings, aiServices)
	})

	return app, nil
}
