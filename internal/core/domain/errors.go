package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// Every error surfaced by the pipeline and ingestion wraps one of these,
// so callers can classify failures with errors.Is.
var (
	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIO indicates source documents could not be read.
	ErrIO = errors.New("io error")

	// ErrConfiguration indicates invalid chunking, index or provider parameters.
	ErrConfiguration = errors.New("configuration error")

	// ErrModelUnavailable indicates the embedding or generation model
	// cannot be reached or loaded.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrIndexNotFound indicates the target vector index does not exist.
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexUnavailable indicates the vector index service cannot be reached.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrGeneration indicates the language model call failed or returned
	// an unusable response.
	ErrGeneration = errors.New("generation failed")

	// ErrDimensionMismatch indicates vectors whose length differs from the
	// index dimensionality. It is a configuration error.
	ErrDimensionMismatch = fmt.Errorf("%w: dimension mismatch", ErrConfiguration)
)
