// Package chunker provides a fixed-size sliding-window text splitter.
package chunker

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Splitter implements the interface.
var _ driven.Splitter = (*Splitter)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 20

// Splitter cuts document content into windows of at most chunkSize characters,
// each starting chunkSize-overlap characters after the previous one.
// Lengths are counted in runes, so multi-byte text is never cut mid-character.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures the splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		s.chunkSize = size
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		s.overlap = overlap
	}
}

// New creates a splitter with the given options.
// Returns domain.ErrConfiguration unless 0 <= overlap < chunkSize.
func New(opts ...Option) (*Splitter, error) {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrConfiguration, s.chunkSize)
	}
	if s.overlap < 0 {
		return nil, fmt.Errorf("%w: chunk overlap must not be negative, got %d", domain.ErrConfiguration, s.overlap)
	}
	if s.overlap >= s.chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be less than chunk size %d",
			domain.ErrConfiguration, s.overlap, s.chunkSize)
	}

	return s, nil
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Overlap returns the configured overlap.
func (s *Splitter) Overlap() int {
	return s.overlap
}

// Split splits every document, keeping document order and then position order.
// Positions count across all documents sharing a source (e.g. the pages of one
// PDF), so a (source, position) pair is unique within the result.
func (s *Splitter) Split(docs []domain.RawDocument) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	next := make(map[string]int)
	for _, doc := range docs {
		base := next[doc.Source]
		parts := s.SplitDocument(doc)
		for i := range parts {
			parts[i].Position += base
		}
		next[doc.Source] = base + len(parts)
		chunks = append(chunks, parts...)
	}
	return chunks, nil
}

// SplitDocument splits a single document. Blank content produces no chunks.
func (s *Splitter) SplitDocument(doc domain.RawDocument) []domain.Chunk {
	if strings.TrimSpace(doc.Content) == "" {
		return nil
	}

	content := []rune(doc.Content)
	contentLen := len(content)
	step := s.chunkSize - s.overlap

	estimatedChunks := (contentLen / step) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	for start, position := 0, 0; start < contentLen; start, position = start+step, position+1 {
		end := start + s.chunkSize
		if end > contentLen {
			end = contentLen
		}

		chunks = append(chunks, domain.Chunk{
			Content:  string(content[start:end]),
			Source:   doc.Source,
			Position: position,
		})

		// The window reached the end; a further window would lie inside this one.
		if end == contentLen {
			break
		}
	}

	return chunks
}
