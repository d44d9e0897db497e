// Package filesystem loads documents from a local directory.
package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.DocumentLoader = (*Loader)(nil)

// DefaultPattern matches PDF files.
const DefaultPattern = "*.pdf"

// Loader scans a single directory level for files matching a glob pattern and
// extracts one RawDocument per non-blank page. Matching is case-insensitive.
type Loader struct {
	extractor driven.TextExtractor
	pattern   string
}

// New creates a loader. An empty pattern defaults to DefaultPattern.
// Invalid patterns fail with domain.ErrConfiguration.
func New(extractor driven.TextExtractor, pattern string) (*Loader, error) {
	if extractor == nil {
		return nil, fmt.Errorf("%w: text extractor is required", domain.ErrConfiguration)
	}
	if pattern == "" {
		pattern = DefaultPattern
	}
	pattern = strings.ToLower(pattern)
	if strings.Contains(pattern, "/") || !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("%w: invalid document pattern %q", domain.ErrConfiguration, pattern)
	}
	return &Loader{extractor: extractor, pattern: pattern}, nil
}

// Pattern returns the glob used to select files.
func (l *Loader) Pattern() string {
	return l.pattern
}

// Matches reports whether the file name matches the loader pattern.
func (l *Loader) Matches(path string) bool {
	ok, err := doublestar.Match(l.pattern, strings.ToLower(filepath.Base(path)))
	return err == nil && ok
}

// Load extracts every matching file in dir, in file name order.
func (l *Loader) Load(ctx context.Context, dir string) ([]domain.RawDocument, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: stat document directory: %w", domain.ErrIO, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrIO, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: read document directory: %w", domain.ErrIO, err)
	}

	var docs []domain.RawDocument
	files := 0
	for _, entry := range entries {
		if entry.IsDir() || !l.Matches(entry.Name()) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fileDocs, err := l.LoadFile(ctx, filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
		files++
	}

	logger.Debug("loader: %d files, %d pages from %s", files, len(docs), dir)
	return docs, nil
}

// LoadFile extracts the pages of one file. Blank pages are skipped.
func (l *Loader) LoadFile(ctx context.Context, path string) ([]domain.RawDocument, error) {
	pages, err := l.extractor.ExtractPages(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	docs := make([]domain.RawDocument, 0, len(pages))
	for i, text := range pages {
		if strings.TrimSpace(text) == "" {
			continue
		}
		docs = append(docs, domain.RawDocument{
			Content: text,
			Source:  path,
			Page:    i + 1,
			Metadata: map[string]string{
				"file_name":   filepath.Base(path),
				"total_pages": strconv.Itoa(len(pages)),
			},
		})
	}
	return docs, nil
}
