package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// DefaultBatchSize is the number of chunks embedded per call.
const DefaultBatchSize = 32

// entryNamespace scopes the name-based entry IDs.
var entryNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("ragchat:index-entry"))

// EntryID returns the stable ID of the chunk at position in source.
// Re-ingesting a document therefore replaces its entries in place.
func EntryID(source string, position int) string {
	return uuid.NewSHA1(entryNamespace, []byte(source+"#"+strconv.Itoa(position))).String()
}

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestOptions tunes embedding during ingestion.
type IngestOptions struct {
	// BatchSize is the number of chunks per embedding call.
	BatchSize int

	// RequestsPerSecond paces embedding calls. Zero means unlimited.
	RequestsPerSecond float64
}

// IngestService indexes documents: load, minimize, split, embed, upsert.
type IngestService struct {
	preparer  *Preparer
	embedder  driven.EmbeddingService
	index     *IndexHandle
	batchSize int
	limiter   *rate.Limiter
}

// NewIngestService creates an ingest service.
func NewIngestService(
	preparer *Preparer,
	embedder driven.EmbeddingService,
	index *IndexHandle,
	opts IngestOptions,
) *IngestService {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	return &IngestService{
		preparer:  preparer,
		embedder:  embedder,
		index:     index,
		batchSize: opts.BatchSize,
		limiter:   rate.NewLimiter(limit, 1),
	}
}

// Ingest indexes every matching document in dir. Each document replaces
// the entries it had before, and entries of files that are gone from dir
// are removed.
func (s *IngestService) Ingest(ctx context.Context, dir string) (domain.IngestReport, error) {
	logger.Section("Ingest " + dir)
	start := time.Now()

	chunks, docs, err := s.preparer.Prepare(ctx, dir)
	if err != nil {
		return domain.IngestReport{}, err
	}

	report := domain.IngestReport{Documents: docs, Chunks: len(chunks)}
	idx, err := s.index.Get(ctx)
	if err != nil {
		return report, fmt.Errorf("open index: %w", err)
	}

	report.Entries, err = s.embedAndUpsert(ctx, idx, chunks, map[string]bool{})
	if err != nil {
		report.Duration = time.Since(start)
		return report, err
	}

	report.Removed, err = s.prune(ctx, idx, dir, chunks)
	report.Duration = time.Since(start)
	if err != nil {
		return report, err
	}

	if len(chunks) == 0 {
		logger.Info("No documents to ingest in %s", dir)
	} else {
		logger.Info("Ingested %d documents, %d chunks into %s in %s",
			report.Documents, report.Entries, idx.Name(), report.Duration.Round(time.Millisecond))
	}
	return report, nil
}

// IngestFile indexes a single file, removing the entries it had before.
func (s *IngestService) IngestFile(ctx context.Context, path string) (domain.IngestReport, error) {
	logger.Section("Ingest " + path)
	start := time.Now()

	chunks, docs, err := s.preparer.PrepareFile(ctx, path)
	if err != nil {
		return domain.IngestReport{}, err
	}
	report := domain.IngestReport{Documents: docs, Chunks: len(chunks)}

	idx, err := s.index.Get(ctx)
	if err != nil {
		return report, fmt.Errorf("open index: %w", err)
	}
	if err := idx.DeleteBySource(ctx, path); err != nil {
		return report, fmt.Errorf("remove previous entries: %w", err)
	}

	report.Entries, err = s.embedAndUpsert(ctx, idx, chunks, map[string]bool{path: true})
	report.Duration = time.Since(start)
	return report, err
}

// RemoveFile deletes the entries of a file that no longer exists.
func (s *IngestService) RemoveFile(ctx context.Context, path string) error {
	idx, err := s.index.Get(ctx)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	if err := idx.DeleteBySource(ctx, path); err != nil {
		return fmt.Errorf("remove entries: %w", err)
	}
	logger.Info("Removed entries for %s", path)
	return nil
}

// prune deletes the entries of sources that sit directly in dir, match the
// loader pattern and were not loaded this run.
func (s *IngestService) prune(ctx context.Context, idx driven.VectorIndex, dir string, chunks []domain.Chunk) (int, error) {
	loaded := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		loaded[c.Source] = true
	}

	sources, err := idx.Sources(ctx)
	if err != nil {
		return 0, fmt.Errorf("list indexed sources: %w", err)
	}

	dir = filepath.Clean(dir)
	removed := 0
	for _, src := range sources {
		if loaded[src] || filepath.Dir(src) != dir || !s.preparer.Matches(src) {
			continue
		}
		if err := idx.DeleteBySource(ctx, src); err != nil {
			return removed, fmt.Errorf("remove entries of %s: %w", src, err)
		}
		logger.Info("Removed entries for %s", src)
		removed++
	}
	return removed, nil
}

// embedAndUpsert writes the chunks batch by batch. The previous entries of
// a source are deleted before its first batch unless cleared says they
// already are.
func (s *IngestService) embedAndUpsert(
	ctx context.Context,
	idx driven.VectorIndex,
	chunks []domain.Chunk,
	cleared map[string]bool,
) (int, error) {
	upserted := 0
	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		batch := chunks[start:end]

		if err := s.limiter.Wait(ctx); err != nil {
			return upserted, fmt.Errorf("embed: %w", err)
		}

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Content
		}
		vectors, err := s.embedder.Embed(ctx, texts)
		if err != nil {
			return upserted, fmt.Errorf("embed: %w", err)
		}
		if len(vectors) != len(batch) {
			return upserted, fmt.Errorf("embed: %w: got %d vectors for %d chunks",
				domain.ErrModelUnavailable, len(vectors), len(batch))
		}

		for _, c := range batch {
			if cleared[c.Source] {
				continue
			}
			if err := idx.DeleteBySource(ctx, c.Source); err != nil {
				return upserted, fmt.Errorf("remove previous entries of %s: %w", c.Source, err)
			}
			cleared[c.Source] = true
		}

		entries := make([]domain.IndexedEntry, len(batch))
		for i, c := range batch {
			entries[i] = domain.IndexedEntry{
				ID:      EntryID(c.Source, c.Position),
				Vector:  vectors[i],
				Content: c.Content,
				Source:  c.Source,
			}
		}
		if err := idx.Upsert(ctx, entries); err != nil {
			return upserted, fmt.Errorf("upsert: %w", err)
		}
		upserted += len(entries)
		logger.Debug("Upserted %d/%d chunks", upserted, len(chunks))
	}
	return upserted, nil
}
