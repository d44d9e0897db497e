package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// IndexSpec describes the index to open or create.
type IndexSpec struct {
	// Name is the index name.
	Name string

	// Dimensions is the vector length. An existing index with a different
	// length fails to open with domain.ErrDimensionMismatch.
	Dimensions int

	// Metric is the similarity metric; only domain.MetricCosine is supported.
	Metric string

	// AutoCreate creates the index on Open when it does not exist.
	// When false, Open fails with domain.ErrIndexNotFound.
	AutoCreate bool
}

// VectorStore manages named vector indexes on one backend.
type VectorStore interface {
	// Open returns a handle to the named index.
	Open(ctx context.Context, spec IndexSpec) (VectorIndex, error)

	// Create creates the named index. Creating an existing index with the
	// same dimensions is a no-op.
	Create(ctx context.Context, spec IndexSpec) error

	// Drop deletes the named index and all its entries.
	// Returns domain.ErrIndexNotFound if it does not exist.
	Drop(ctx context.Context, name string) error

	// List returns all indexes in the store.
	List(ctx context.Context) ([]domain.IndexInfo, error)

	// Close releases resources.
	Close() error
}

// VectorIndex stores embedded chunks and searches them by similarity.
// Writes are visible to subsequent searches immediately.
type VectorIndex interface {
	// Upsert adds or replaces entries by ID.
	Upsert(ctx context.Context, entries []domain.IndexedEntry) error

	// Search returns at most k entries ordered by descending similarity.
	// Ties are broken in an implementation-defined order. A k of zero or
	// less yields an empty result.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// DeleteBySource removes every entry whose Source equals source.
	DeleteBySource(ctx context.Context, source string) error

	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Sources returns the distinct Source values of the stored entries,
	// sorted.
	Sources(ctx context.Context) ([]string, error)

	// Name returns the index name.
	Name() string

	// Dimensions returns the vector length the index accepts.
	Dimensions() int
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Entry is the matched entry.
	Entry domain.IndexedEntry

	// Similarity is the cosine similarity score.
	Similarity float64
}
