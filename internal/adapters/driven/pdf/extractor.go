// Package pdf extracts plain text from PDF files, one string per page.
package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// Extractor reads PDF text with github.com/ledongthuc/pdf.
type Extractor struct{}

// NewExtractor creates a PDF text extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// ExtractPages returns the plain text of each page, in page order.
// Pages without a content stream yield an empty string.
// Unreadable or malformed files fail with domain.ErrIO.
func (e *Extractor) ExtractPages(ctx context.Context, path string) (pages []string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: parse pdf %s: %v", domain.ErrIO, path, r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open pdf %s: %w", domain.ErrIO, path, err)
	}
	defer f.Close()

	total := reader.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("%w: read page %d of %s: %w", domain.ErrIO, i, path, err)
		}
		pages = append(pages, strings.TrimSpace(text))
	}

	logger.Debug("pdf: extracted %d pages from %s", total, path)
	return pages, nil
}
