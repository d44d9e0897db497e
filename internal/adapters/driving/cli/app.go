package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/ai"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/config/file"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/loader/filesystem"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/pdf"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/vectorstore/memory"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/vectorstore/qdrant"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/vectorstore/sqlite"
	"github.com/custodia-labs/ragchat/internal/adapters/driving/watch"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/core/services"
	"github.com/custodia-labs/ragchat/internal/logger"
	"github.com/custodia-labs/ragchat/internal/postprocessors/chunker"
)

// application holds the wired services for one command invocation.
type application struct {
	cfg    *domain.Config
	loader *file.Loader

	chat    driving.ChatService
	ingest  driving.IngestService
	index   driving.IndexService
	matcher watch.Matcher
	prompts driven.PromptStore

	closers []func() error
}

// Close releases every resource opened while wiring.
func (a *application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// newApplication wires the services. Tests replace it.
var newApplication = wire

// wire builds every component from cfg. The language model is only
// created when withChat is set, so ingestion works without LLM credentials.
func wire(ctx context.Context, cfg *domain.Config, loader *file.Loader, withChat bool) (*application, error) {
	app := &application{cfg: cfg, loader: loader}

	store, err := openVectorStore(cfg)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, store.Close)

	handle := services.NewIndexHandle(store, driven.IndexSpec{
		Name:       cfg.Index.Name,
		Dimensions: cfg.Embedding.Dimensions,
		Metric:     cfg.Index.Metric,
		AutoCreate: cfg.Index.AutoCreate,
	})
	app.index = services.NewIndexService(handle)

	embedder := ai.NewLazyEmbedding(cfg.Embedding)
	app.closers = append(app.closers, embedder.Close)

	docLoader, err := filesystem.New(pdf.NewExtractor(), cfg.Documents.Pattern)
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}
	app.matcher = docLoader

	splitter, err := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		return nil, errors.Join(err, app.Close())
	}

	app.ingest = services.NewIngestService(
		services.NewPreparer(docLoader, splitter),
		embedder,
		handle,
		services.IngestOptions{
			BatchSize:         cfg.Embedding.BatchSize,
			RequestsPerSecond: cfg.Embedding.RequestsPerSecond,
		},
	)

	if withChat {
		llm, err := ai.CreateLLMService(ctx, &cfg.LLM)
		if err != nil {
			return nil, errors.Join(err, app.Close())
		}
		app.closers = append(app.closers, llm.Close)
		logger.Debug("Using LLM %s/%s", cfg.LLM.Provider, llm.ModelName())

		prompts, err := file.NewPromptStore(filepath.Join(loader.AppDir(), "prompts"))
		if err != nil {
			return nil, errors.Join(err, app.Close())
		}
		app.prompts = prompts
		generator := services.NewAnswerGenerator(llm, prompts, driven.ChatOptions{
			MaxTokens:   cfg.LLM.MaxTokens,
			Temperature: cfg.LLM.Temperature,
		})
		app.chat = services.NewChatService(embedder, handle, generator, cfg.Retrieval.K)
	}

	return app, nil
}

// openVectorStore connects to the configured backend.
func openVectorStore(cfg *domain.Config) (driven.VectorStore, error) {
	logger.Debug("Vector backend: %s", cfg.Index.Backend)
	switch cfg.Index.Backend {
	case domain.VectorBackendMemory:
		logger.Warn("The memory backend does not persist; ingest and ask in the same process (serve --ingest)")
		return memory.NewStore(), nil
	case domain.VectorBackendSQLite:
		return sqlite.NewStore(cfg.Index.DataDir)
	case domain.VectorBackendQdrant:
		return qdrant.NewStore(qdrant.Config{
			URL:    cfg.Index.Qdrant.URL,
			APIKey: cfg.Index.Qdrant.APIKey,
		})
	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrConfiguration, cfg.Index.Backend)
	}
}
