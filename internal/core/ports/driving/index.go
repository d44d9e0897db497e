package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// IndexService manages the configured vector index.
type IndexService interface {
	// Create creates the configured index if it does not exist.
	Create(ctx context.Context) (domain.IndexInfo, error)

	// Drop deletes the configured index.
	Drop(ctx context.Context) error

	// List returns all indexes in the configured backend.
	List(ctx context.Context) ([]domain.IndexInfo, error)

	// Stats describes the configured index.
	Stats(ctx context.Context) (domain.IndexInfo, error)
}
