package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Preparer turns a directory of documents into chunks ready for embedding.
type Preparer struct {
	loader   driven.DocumentLoader
	splitter driven.Splitter
}

// NewPreparer creates a document preparer.
func NewPreparer(loader driven.DocumentLoader, splitter driven.Splitter) *Preparer {
	return &Preparer{loader: loader, splitter: splitter}
}

// Load returns the documents in dir. A directory without matching files
// yields no documents and no error.
func (p *Preparer) Load(ctx context.Context, dir string) ([]domain.RawDocument, error) {
	docs, err := p.loader.Load(ctx, dir)
	if err != nil {
		return nil, err
	}
	logger.Debug("Loaded %d document pages from %s", len(docs), dir)
	return docs, nil
}

// Minimize strips every document down to its content and source.
// It returns a new slice and is idempotent.
func Minimize(docs []domain.RawDocument) []domain.RawDocument {
	out := make([]domain.RawDocument, len(docs))
	for i, d := range docs {
		out[i] = d.Minimal()
	}
	return out
}

// Split chunks the documents.
func (p *Preparer) Split(docs []domain.RawDocument) ([]domain.Chunk, error) {
	return p.splitter.Split(docs)
}

// Prepare loads, minimizes and splits the documents in dir.
// It returns the chunks and the number of loaded documents.
func (p *Preparer) Prepare(ctx context.Context, dir string) ([]domain.Chunk, int, error) {
	docs, err := p.Load(ctx, dir)
	if err != nil {
		return nil, 0, fmt.Errorf("load: %w", err)
	}
	return p.prepare(docs)
}

// PrepareFile does the same as Prepare for a single file.
func (p *Preparer) PrepareFile(ctx context.Context, path string) ([]domain.Chunk, int, error) {
	docs, err := p.loader.LoadFile(ctx, path)
	if err != nil {
		return nil, 0, fmt.Errorf("load: %w", err)
	}
	return p.prepare(docs)
}

// Matches reports whether path would be picked up when loading its
// directory.
func (p *Preparer) Matches(path string) bool {
	return p.loader.Matches(path)
}

func (p *Preparer) prepare(docs []domain.RawDocument) ([]domain.Chunk, int, error) {
	chunks, err := p.Split(Minimize(docs))
	if err != nil {
		return nil, 0, fmt.Errorf("split: %w", err)
	}
	logger.Debug("Split %d documents into %d chunks", len(docs), len(chunks))
	return chunks, len(docs), nil
}
