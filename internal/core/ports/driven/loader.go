package driven

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// DocumentLoader reads source documents from the filesystem.
type DocumentLoader interface {
	// Load returns the documents matched in dir (non-recursive).
	// A missing directory fails with domain.ErrIO; a directory without
	// matching files yields an empty result.
	Load(ctx context.Context, dir string) ([]domain.RawDocument, error)

	// LoadFile returns the documents of a single file.
	LoadFile(ctx context.Context, path string) ([]domain.RawDocument, error)

	// Matches reports whether the file name would be picked up by Load.
	Matches(path string) bool
}

// TextExtractor extracts plain text from a document file, one entry per page.
type TextExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]string, error)
}
