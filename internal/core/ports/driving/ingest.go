package driving

import (
	"context"

	"github.com/custodia-labs/ragchat/internal/core/domain"
)

// IngestService loads, splits, embeds and indexes documents.
type IngestService interface {
	// Ingest indexes every matching document in dir.
	Ingest(ctx context.Context, dir string) (domain.IngestReport, error)

	// IngestFile indexes a single file, replacing its previous entries.
	IngestFile(ctx context.Context, path string) (domain.IngestReport, error)

	// RemoveFile deletes every entry that came from path.
	RemoveFile(ctx context.Context, path string) error
}
