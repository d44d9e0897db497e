// Package domain defines the core business entities for ragchat.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - RawDocument: Extracted text of one loaded page, with its source
//   - Chunk: A bounded slice of a RawDocument
//   - IndexedEntry: An embedded chunk stored in a vector index
//   - Answer: The grounded response to a question
//   - Config: The explicit configuration passed to every component
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
