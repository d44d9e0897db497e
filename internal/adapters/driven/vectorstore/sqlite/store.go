package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/ragchat/internal/adapters/driven/vectorstore"
	"github.com/custodia-labs/ragchat/internal/adapters/driven/vectorstore/sqlite/migrations"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
	"github.com/custodia-labs/ragchat/internal/logger"
)

// DatabaseFile is the database file name inside the data directory.
const DatabaseFile = "vectors.db"

// Ensure Store and Index implement the interfaces.
var (
	_ driven.VectorStore = (*Store)(nil)
	_ driven.VectorIndex = (*Index)(nil)
)

// Store is a SQLite-backed implementation of driven.VectorStore.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the vector database in dataDir.
// If dataDir is empty, defaults to ~/.ragchat/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: getting home directory: %w", domain.ErrIO, err)
		}
		dataDir = filepath.Join(home, ".ragchat", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %w", domain.ErrIO, err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Pragmas in the DSN apply to every pooled connection
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %w", domain.ErrIO, err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %w", domain.ErrIO, err)
	}

	logger.Debug("sqlite vector store at %s", dbPath)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_vector_index.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if err := s.apply(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

func (s *Store) apply(version int, script string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(script); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// Open returns a handle to the named index, creating it if spec.AutoCreate is set.
func (s *Store) Open(ctx context.Context, spec driven.IndexSpec) (driven.VectorIndex, error) {
	spec, err := vectorstore.NormaliseSpec(spec)
	if err != nil {
		return nil, err
	}

	dims, err := s.dimensions(ctx, spec.Name)
	if errors.Is(err, domain.ErrIndexNotFound) && spec.AutoCreate {
		if err := s.Create(ctx, spec); err != nil {
			return nil, err
		}
		dims, err = s.dimensions(ctx, spec.Name)
	}
	if err != nil {
		return nil, err
	}
	if err := vectorstore.CheckDimensions(spec.Name, dims, spec.Dimensions); err != nil {
		return nil, err
	}

	return &Index{db: s.db, name: spec.Name, dims: dims}, nil
}

// Create creates the named index. An existing index with the same
// dimensions is left as is.
func (s *Store) Create(ctx context.Context, spec driven.IndexSpec) error {
	spec, err := vectorstore.NormaliseSpec(spec)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO vector_indexes (name, dimensions, metric) VALUES (?, ?, ?)
		ON CONFLICT(name) DO NOTHING
	`, spec.Name, spec.Dimensions, spec.Metric)
	if err != nil {
		return fmt.Errorf("%w: creating index %s: %w", domain.ErrIndexUnavailable, spec.Name, err)
	}

	dims, err := s.dimensions(ctx, spec.Name)
	if err != nil {
		return err
	}
	return vectorstore.CheckDimensions(spec.Name, dims, spec.Dimensions)
}

// Drop deletes the named index and its entries.
func (s *Store) Drop(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM vector_indexes WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("%w: dropping index %s: %w", domain.ErrIndexUnavailable, name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: dropping index %s: %w", domain.ErrIndexUnavailable, name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, name)
	}
	return nil
}

// List returns all indexes sorted by name.
func (s *Store) List(ctx context.Context) ([]domain.IndexInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.name, i.dimensions, i.metric, COUNT(e.id)
		FROM vector_indexes i
		LEFT JOIN vector_entries e ON e.index_name = i.name
		GROUP BY i.name, i.dimensions, i.metric
		ORDER BY i.name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing indexes: %w", domain.ErrIndexUnavailable, err)
	}
	defer rows.Close()

	var infos []domain.IndexInfo
	for rows.Next() {
		var info domain.IndexInfo
		if err := rows.Scan(&info.Name, &info.Dimensions, &info.Metric, &info.Count); err != nil {
			return nil, fmt.Errorf("%w: scanning index: %w", domain.ErrIndexUnavailable, err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing indexes: %w", domain.ErrIndexUnavailable, err)
	}
	return infos, nil
}

func (s *Store) dimensions(ctx context.Context, name string) (int, error) {
	return indexDimensions(ctx, s.db, name)
}

// indexDimensions reads the size of the named index, failing with
// domain.ErrIndexNotFound when it does not exist.
func indexDimensions(ctx context.Context, db *sql.DB, name string) (int, error) {
	var dims int
	err := db.QueryRowContext(ctx, "SELECT dimensions FROM vector_indexes WHERE name = ?", name).Scan(&dims)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, name)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: reading index %s: %w", domain.ErrIndexUnavailable, name, err)
	}
	return dims, nil
}

// Index is a handle to one index in the SQLite store.
type Index struct {
	db   *sql.DB
	name string
	dims int
}

// Upsert adds or replaces entries by ID in a single transaction.
func (i *Index) Upsert(ctx context.Context, entries []domain.IndexedEntry) error {
	if err := vectorstore.CheckEntries(i.name, i.dims, entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin upsert: %w", domain.ErrIndexUnavailable, err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vector_entries (index_name, id, vector, content, source, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(index_name, id) DO UPDATE SET
			vector = excluded.vector,
			content = excluded.content,
			source = excluded.source,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("%w: prepare upsert: %w", domain.ErrIndexUnavailable, err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, i.name, e.ID, float32SliceToBytes(e.Vector), e.Content, e.Source); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, i.name)
			}
			return fmt.Errorf("%w: upsert %s: %w", domain.ErrIndexUnavailable, e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit upsert: %w", domain.ErrIndexUnavailable, err)
	}
	return nil
}

// Search scans the index and returns the k entries most similar to query.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := vectorstore.CheckQuery(i.name, i.dims, query); err != nil {
		return nil, err
	}
	if err := i.checkExists(ctx); err != nil {
		return nil, err
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	rows, err := i.db.QueryContext(ctx,
		"SELECT id, vector, content, source FROM vector_entries WHERE index_name = ?", i.name)
	if err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrIndexUnavailable, i.name, err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var (
			e    domain.IndexedEntry
			blob []byte
		)
		if err := rows.Scan(&e.ID, &blob, &e.Content, &e.Source); err != nil {
			return nil, fmt.Errorf("%w: scanning entry: %w", domain.ErrIndexUnavailable, err)
		}
		e.Vector = bytesToFloat32Slice(blob)
		if len(e.Vector) != i.dims {
			logger.Warn("skipping entry %s in %s: stored vector has %d dimensions", e.ID, i.name, len(e.Vector))
			continue
		}
		hits = append(hits, driven.VectorHit{Entry: e, Similarity: vectorstore.Cosine(query, e.Vector)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: search %s: %w", domain.ErrIndexUnavailable, i.name, err)
	}

	return vectorstore.TopK(hits, k), nil
}

// DeleteBySource removes the entries of one source.
func (i *Index) DeleteBySource(ctx context.Context, source string) error {
	if err := i.checkExists(ctx); err != nil {
		return err
	}
	_, err := i.db.ExecContext(ctx,
		"DELETE FROM vector_entries WHERE index_name = ? AND source = ?", i.name, source)
	if err != nil {
		return fmt.Errorf("%w: delete %s from %s: %w", domain.ErrIndexUnavailable, source, i.name, err)
	}
	return nil
}

// Count returns the number of entries in the index.
func (i *Index) Count(ctx context.Context) (int, error) {
	if err := i.checkExists(ctx); err != nil {
		return 0, err
	}
	var n int
	err := i.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM vector_entries WHERE index_name = ?", i.name).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count %s: %w", domain.ErrIndexUnavailable, i.name, err)
	}
	return n, nil
}

// Sources returns the distinct sources of the stored entries, sorted.
func (i *Index) Sources(ctx context.Context) ([]string, error) {
	if err := i.checkExists(ctx); err != nil {
		return nil, err
	}

	rows, err := i.db.QueryContext(ctx,
		"SELECT DISTINCT source FROM vector_entries WHERE index_name = ? ORDER BY source", i.name)
	if err != nil {
		return nil, fmt.Errorf("%w: list sources of %s: %w", domain.ErrIndexUnavailable, i.name, err)
	}
	defer rows.Close()

	sources := []string{}
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, fmt.Errorf("%w: scanning source: %w", domain.ErrIndexUnavailable, err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list sources of %s: %w", domain.ErrIndexUnavailable, i.name, err)
	}
	return sources, nil
}

// checkExists fails with domain.ErrIndexNotFound once the index is dropped.
func (i *Index) checkExists(ctx context.Context) error {
	_, err := indexDimensions(ctx, i.db, i.name)
	return err
}

// Name returns the index name.
func (i *Index) Name() string {
	return i.name
}

// Dimensions returns the vector length.
func (i *Index) Dimensions() int {
	return i.dims
}

// float32SliceToBytes converts a float32 slice to little-endian bytes.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts little-endian bytes to a float32 slice.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

func isForeignKeyViolation(err error) bool {
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
