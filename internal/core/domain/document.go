package domain

// RawDocument is the extracted text of one loaded document page.
// It is produced by a DocumentLoader and never modified afterwards.
type RawDocument struct {
	// Content is the extracted text.
	Content string

	// Source identifies where the text came from (usually a file path).
	Source string

	// Page is the 1-based page number within Source, or 0 if unpaged.
	Page int

	// Metadata contains loader-specific attributes (e.g. total pages).
	Metadata map[string]string
}

// Minimal returns a copy holding only Content and Source.
func (d RawDocument) Minimal() RawDocument {
	return RawDocument{Content: d.Content, Source: d.Source}
}

// Chunk is a bounded slice of a RawDocument.
// Every chunk carries exactly the Source of its parent document.
type Chunk struct {
	// Content is the text content of this chunk.
	Content string

	// Source is the parent document's source.
	Source string

	// Position is the ordinal position within the parent document's chunks.
	Position int
}

// IndexedEntry is an embedded chunk stored in a vector index.
// Entries are created once per chunk and replaced, never mutated in place.
type IndexedEntry struct {
	// ID is stable for a given source and position, so re-ingesting
	// a document replaces its entries.
	ID string

	// Vector is the chunk embedding.
	Vector []float32

	// Content is the chunk text.
	Content string

	// Source is the chunk source.
	Source string
}

// Answer is the grounded response to a single question.
type Answer struct {
	// Text is the generated answer.
	Text string

	// Sources lists the distinct sources of the retrieved context, best match first.
	Sources []string
}
