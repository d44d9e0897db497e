// Package memory provides an in-process vector index backend.
// Indexes live only as long as the Store; it is used in tests and for
// throwaway sessions.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/ragchat/internal/adapters/driven/vectorstore"
	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Ensure Store and Index implement the interfaces.
var (
	_ driven.VectorStore = (*Store)(nil)
	_ driven.VectorIndex = (*Index)(nil)
)

// Store is an in-memory implementation of driven.VectorStore.
type Store struct {
	mu      sync.RWMutex
	indexes map[string]*Index
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{indexes: make(map[string]*Index)}
}

// Open returns the named index, creating it if spec.AutoCreate is set.
func (s *Store) Open(_ context.Context, spec driven.IndexSpec) (driven.VectorIndex, error) {
	spec, err := vectorstore.NormaliseSpec(spec)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexes[spec.Name]
	if !ok {
		if !spec.AutoCreate {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, spec.Name)
		}
		idx = newIndex(spec)
		s.indexes[spec.Name] = idx
	}
	if err := vectorstore.CheckDimensions(spec.Name, idx.dims, spec.Dimensions); err != nil {
		return nil, err
	}
	return idx, nil
}

// Create creates the named index. An existing index with the same
// dimensions is left as is.
func (s *Store) Create(_ context.Context, spec driven.IndexSpec) error {
	spec, err := vectorstore.NormaliseSpec(spec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.indexes[spec.Name]; ok {
		return vectorstore.CheckDimensions(spec.Name, idx.dims, spec.Dimensions)
	}
	s.indexes[spec.Name] = newIndex(spec)
	return nil
}

// Drop removes the named index and its entries.
func (s *Store) Drop(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.indexes[name]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrIndexNotFound, name)
	}
	delete(s.indexes, name)

	// Handles opened before the drop must stop working.
	idx.mu.Lock()
	idx.dropped = true
	idx.entries = nil
	idx.mu.Unlock()
	return nil
}

// List returns all indexes sorted by name.
func (s *Store) List(_ context.Context) ([]domain.IndexInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]domain.IndexInfo, 0, len(s.indexes))
	for _, idx := range s.indexes {
		infos = append(infos, idx.info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// Index is an in-memory vector index searched by brute force.
type Index struct {
	name    string
	dims    int
	metric  string
	mu      sync.RWMutex
	entries map[string]domain.IndexedEntry
	dropped bool
}

func newIndex(spec driven.IndexSpec) *Index {
	return &Index{
		name:    spec.Name,
		dims:    spec.Dimensions,
		metric:  spec.Metric,
		entries: make(map[string]domain.IndexedEntry),
	}
}

// Upsert adds or replaces entries by ID.
func (i *Index) Upsert(ctx context.Context, entries []domain.IndexedEntry) error {
	if err := vectorstore.CheckEntries(i.name, i.dims, entries); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.checkLive(); err != nil {
		return err
	}

	for _, e := range entries {
		// Callers may reuse their vector buffers.
		e.Vector = append([]float32(nil), e.Vector...)
		i.entries[e.ID] = e
	}
	return nil
}

// Search returns the k entries most similar to query.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := vectorstore.CheckQuery(i.name, i.dims, query); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i.mu.RLock()
	if err := i.checkLive(); err != nil {
		i.mu.RUnlock()
		return nil, err
	}
	if k <= 0 {
		i.mu.RUnlock()
		return []driven.VectorHit{}, nil
	}
	hits := make([]driven.VectorHit, 0, len(i.entries))
	for _, e := range i.entries {
		hits = append(hits, driven.VectorHit{Entry: e, Similarity: vectorstore.Cosine(query, e.Vector)})
	}
	i.mu.RUnlock()

	return vectorstore.TopK(hits, k), nil
}

// DeleteBySource removes the entries of one source.
func (i *Index) DeleteBySource(_ context.Context, source string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if err := i.checkLive(); err != nil {
		return err
	}

	for id, e := range i.entries {
		if e.Source == source {
			delete(i.entries, id)
		}
	}
	return nil
}

// Count returns the number of stored entries.
func (i *Index) Count(_ context.Context) (int, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if err := i.checkLive(); err != nil {
		return 0, err
	}
	return len(i.entries), nil
}

// Sources returns the distinct sources of the stored entries, sorted.
func (i *Index) Sources(_ context.Context) ([]string, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if err := i.checkLive(); err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	for _, e := range i.entries {
		seen[e.Source] = struct{}{}
	}
	return vectorstore.SortedSources(seen), nil
}

// checkLive must be called with i.mu held.
func (i *Index) checkLive() error {
	if i.dropped {
		return fmt.Errorf("%w: %s was dropped", domain.ErrIndexNotFound, i.name)
	}
	return nil
}

// Name returns the index name.
func (i *Index) Name() string {
	return i.name
}

// Dimensions returns the vector length.
func (i *Index) Dimensions() int {
	return i.dims
}

func (i *Index) info() domain.IndexInfo {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return domain.IndexInfo{Name: i.name, Dimensions: i.dims, Metric: i.metric, Count: len(i.entries)}
}
