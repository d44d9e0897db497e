package driven

import "github.com/custodia-labs/ragchat/internal/core/domain"

// Splitter divides documents into bounded, overlapping chunks.
type Splitter interface {
	// Split returns the chunks of every document, in document order and then
	// position order. Every chunk carries its parent's Source.
	Split(docs []domain.RawDocument) ([]domain.Chunk, error)
}
