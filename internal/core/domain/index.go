package domain

import "time"

// IndexInfo describes a vector index.
type IndexInfo struct {
	// Name is the index name.
	Name string

	// Dimensions is the vector length the index accepts.
	Dimensions int

	// Metric is the similarity metric fixed at creation.
	Metric string

	// Count is the number of stored entries.
	Count int
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// Documents is the number of loaded documents (pages).
	Documents int

	// Chunks is the number of chunks produced by splitting.
	Chunks int

	// Entries is the number of entries upserted into the index.
	Entries int

	// Removed is the number of sources whose entries were deleted because
	// their file is gone.
	Removed int

	// Duration is the wall-clock time of the run.
	Duration time.Duration
}
