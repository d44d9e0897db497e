package ai

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure LazyEmbedding implements the interface.
var _ driven.EmbeddingService = (*LazyEmbedding)(nil)

// EmbeddingFactory creates a ready-to-use embedding service.
type EmbeddingFactory func(ctx context.Context) (driven.EmbeddingService, error)

// LazyEmbedding defers creating the embedding service until the first call
// that needs it. A successful creation is kept for the life of the
// instance. A failed one is not, so a later call with a live context or a
// recovered provider tries again. Safe for concurrent use.
type LazyEmbedding struct {
	settings domain.EmbeddingSettings
	factory  EmbeddingFactory

	mu  sync.Mutex
	svc driven.EmbeddingService
}

// NewLazyEmbedding creates a lazy embedding service for the given settings.
// The underlying service is created and pinged on first use.
func NewLazyEmbedding(settings domain.EmbeddingSettings) *LazyEmbedding {
	s := settings
	return NewLazyEmbeddingWithFactory(settings, func(ctx context.Context) (driven.EmbeddingService, error) {
		return CreateAndValidateEmbeddingService(ctx, &s)
	})
}

// NewLazyEmbeddingWithFactory creates a lazy embedding service using factory.
func NewLazyEmbeddingWithFactory(settings domain.EmbeddingSettings, factory EmbeddingFactory) *LazyEmbedding {
	return &LazyEmbedding{settings: settings, factory: factory}
}

func (l *LazyEmbedding) load(ctx context.Context) (driven.EmbeddingService, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.svc != nil {
		return l.svc, nil
	}

	logger.Debug("embedding: loading %s model %s", l.settings.Provider, l.settings.Model)
	svc, err := l.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load embedding model %s: %w", domain.ErrModelUnavailable, l.settings.Model, err)
	}
	if svc.Dimensions() != l.settings.Dimensions && l.settings.Dimensions > 0 {
		svc.Close()
		return nil, fmt.Errorf("%w: model %s produces %d dimensions, configured %d",
			domain.ErrDimensionMismatch, l.settings.Model, svc.Dimensions(), l.settings.Dimensions)
	}
	l.svc = svc
	return svc, nil
}

// Embed loads the model on first use and delegates.
func (l *LazyEmbedding) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	svc, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	return svc.Embed(ctx, texts)
}

// Dimensions returns the configured vector size without loading the model.
func (l *LazyEmbedding) Dimensions() int {
	return l.settings.Dimensions
}

// ModelName returns the configured model without loading it.
func (l *LazyEmbedding) ModelName() string {
	return l.settings.Model
}

// Ping loads the model if needed and checks connectivity.
func (l *LazyEmbedding) Ping(ctx context.Context) error {
	svc, err := l.load(ctx)
	if err != nil {
		return err
	}
	return svc.Ping(ctx)
}

// Close releases the underlying service if it was loaded. A later call
// loads it again.
func (l *LazyEmbedding) Close() error {
	l.mu.Lock()
	svc := l.svc
	l.svc = nil
	l.mu.Unlock()

	if svc != nil {
		return svc.Close()
	}
	return nil
}
