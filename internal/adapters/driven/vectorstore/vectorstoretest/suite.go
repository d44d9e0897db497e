// Package vectorstoretest runs the behaviour every driven.VectorStore
// backend must share.
package vectorstoretest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// Factory returns a fresh, empty store. Cleanup is registered on t.
type Factory func(t *testing.T) driven.VectorStore

// Run exercises store lifecycle, upsert and search against a backend.
func Run(t *testing.T, newStore Factory) {
	t.Run("open missing without auto create", func(t *testing.T) {
		store := newStore(t)

		_, err := store.Open(context.Background(), driven.IndexSpec{Name: "missing", Dimensions: 3})

		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
	})

	t.Run("open with auto create", func(t *testing.T) {
		store := newStore(t)

		idx, err := store.Open(context.Background(), spec("auto", 3, true))

		require.NoError(t, err)
		assert.Equal(t, "auto", idx.Name())
		assert.Equal(t, 3, idx.Dimensions())
		count, err := idx.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("dimension mismatch on open", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Create(ctx, spec("dims", 3, false)))

		_, err := store.Open(ctx, spec("dims", 4, true))

		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})

	t.Run("create is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Create(ctx, spec("twice", 3, false)))
		require.NoError(t, store.Create(ctx, spec("twice", 3, false)))

		infos, err := store.List(ctx)
		require.NoError(t, err)
		assert.Len(t, infos, 1)
	})

	t.Run("drop", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		require.NoError(t, store.Create(ctx, spec("gone", 3, false)))

		require.NoError(t, store.Drop(ctx, "gone"))

		_, err := store.Open(ctx, spec("gone", 3, false))
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
		assert.ErrorIs(t, store.Drop(ctx, "gone"), domain.ErrIndexNotFound)
	})

	t.Run("list reports counts", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		idx, err := store.Open(ctx, spec("b-index", 2, true))
		require.NoError(t, err)
		require.NoError(t, store.Create(ctx, spec("a-index", 2, false)))
		require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("1", 1, 0)}))

		infos, err := store.List(ctx)

		require.NoError(t, err)
		require.Len(t, infos, 2)
		byName := map[string]domain.IndexInfo{}
		for _, info := range infos {
			byName[info.Name] = info
		}
		assert.Equal(t, 1, byName["b-index"].Count)
		assert.Equal(t, 2, byName["b-index"].Dimensions)
		assert.Equal(t, domain.MetricCosine, byName["b-index"].Metric)
		assert.Zero(t, byName["a-index"].Count)
	})

	t.Run("self search ranks entry first", func(t *testing.T) {
		idx := openIndex(t, newStore(t), 3)
		ctx := context.Background()
		entries := []domain.IndexedEntry{
			entry("paris", 0.9, 0.1, 0.0),
			entry("berlin", 0.1, 0.9, 0.0),
			entry("rome", 0.0, 0.2, 0.9),
			entry("madrid", 0.5, 0.5, 0.5),
		}
		require.NoError(t, idx.Upsert(ctx, entries))

		for _, e := range entries {
			hits, err := idx.Search(ctx, e.Vector, 1)
			require.NoError(t, err)
			require.Len(t, hits, 1)
			assert.Equal(t, e.ID, hits[0].Entry.ID)
			assert.InDelta(t, 1.0, hits[0].Similarity, 1e-5)
		}
	})

	t.Run("search orders by similarity and bounds k", func(t *testing.T) {
		idx := openIndex(t, newStore(t), 2)
		ctx := context.Background()
		require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{
			entry("exact", 1, 0),
			entry("close", 0.9, 0.1),
			entry("far", 0, 1),
			entry("opposite", -1, 0),
		}))

		hits, err := idx.Search(ctx, []float32{1, 0}, 3)

		require.NoError(t, err)
		require.Len(t, hits, 3)
		assert.Equal(t, "exact", hits[0].Entry.ID)
		assert.Equal(t, "close", hits[1].Entry.ID)
		assert.Equal(t, "far", hits[2].Entry.ID)
		assert.GreaterOrEqual(t, hits[0].Similarity, hits[1].Similarity)
		assert.GreaterOrEqual(t, hits[1].Similarity, hits[2].Similarity)
		assert.Equal(t, "exact content", hits[0].Entry.Content)
		assert.Equal(t, "exact.pdf", hits[0].Entry.Source)
	})

	t.Run("search on empty index", func(t *testing.T) {
		idx := openIndex(t, newStore(t), 2)

		hits, err := idx.Search(context.Background(), []float32{1, 0}, 3)

		require.NoError(t, err)
		assert.Empty(t, hits)
	})

	t.Run("fewer entries than k", func(t *testing.T) {
		idx := openIndex(t, newStore(t), 2)
		ctx := context.Background()
		require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("only", 1, 1)}))

		hits, err := idx.Search(ctx, []float32{1, 0}, 3)

		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("upsert replaces by id", func(t *testing.T) {
		idx := openIndex(t, newStore(t), 2)
		ctx := context.Background()
		require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("same", 1, 0)}))

		replacement := entry("same", 0, 1)
		replacement.Content = "replaced"
		require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{replacement}))

		count, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		hits, err := idx.Search(ctx, []float32{0, 1}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "replaced", hits[0].Entry.Content)
	})

	t.Run("delete by source", func(t *testing.T) {
		idx := openIndex(t, newStore(t), 2)
		ctx := context.Background()
		keep := entry("keep", 1, 0)
		drop1, drop2 := entry("drop-1", 0, 1), entry("drop-2", 1, 1)
		drop1.Source, drop2.Source = "old.pdf", "old.pdf"
		require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{keep, drop1, drop2}))

		require.NoError(t, idx.DeleteBySource(ctx, "old.pdf"))
		require.NoError(t, idx.DeleteBySource(ctx, "never-indexed.pdf"))

		count, err := idx.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		hits, err := idx.Search(ctx, []float32{0, 1}, 3)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "keep", hits[0].Entry.ID)
	})

	t.Run("upsert wrong dimensions", func(t *testing.T) {
		idx := openIndex(t, newStore(t), 2)

		err := idx.Upsert(context.Background(), []domain.IndexedEntry{entry("bad", 1, 0, 0)})

		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("non-positive k returns empty", func(t *testing.T) {
		idx := openIndex(t, newStore(t), 2)
		ctx := context.Background()
		require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("one", 1, 0)}))

		for _, k := range []int{0, -1} {
			hits, err := idx.Search(ctx, []float32{1, 0}, k)

			require.NoError(t, err)
			assert.NotNil(t, hits)
			assert.Empty(t, hits)
		}
	})

	t.Run("search wrong dimensions", func(t *testing.T) {
		idx := openIndex(t, newStore(t), 2)

		_, err := idx.Search(context.Background(), []float32{1, 0, 0}, 3)

		assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	})

	t.Run("sources are distinct and sorted", func(t *testing.T) {
		idx := openIndex(t, newStore(t), 2)
		ctx := context.Background()
		first, second, other := entry("b-1", 1, 0), entry("b-2", 0, 1), entry("a-1", 1, 1)
		first.Source, second.Source, other.Source = "b.pdf", "b.pdf", "a.pdf"
		require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{first, second, other}))

		sources, err := idx.Sources(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"a.pdf", "b.pdf"}, sources)
	})

	t.Run("handle fails after drop", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		idx := openIndexIn(t, store, 2)
		require.NoError(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("before", 1, 0)}))

		require.NoError(t, store.Drop(ctx, idx.Name()))

		_, err := idx.Search(ctx, []float32{1, 0}, 3)
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
		_, err = idx.Search(ctx, []float32{1, 0}, 0)
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
		_, err = idx.Count(ctx)
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
		_, err = idx.Sources(ctx)
		assert.ErrorIs(t, err, domain.ErrIndexNotFound)
		assert.ErrorIs(t, idx.DeleteBySource(ctx, "before.pdf"), domain.ErrIndexNotFound)
		assert.ErrorIs(t, idx.Upsert(ctx, []domain.IndexedEntry{entry("after", 0, 1)}), domain.ErrIndexNotFound)
	})

	t.Run("writes visible to other handles", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		writer := openIndexIn(t, store, 2)
		reader := openIndexIn(t, store, 2)

		require.NoError(t, writer.Upsert(ctx, []domain.IndexedEntry{entry("shared", 1, 0)}))

		hits, err := reader.Search(ctx, []float32{1, 0}, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "shared", hits[0].Entry.ID)
	})
}

func spec(name string, dims int, autoCreate bool) driven.IndexSpec {
	return driven.IndexSpec{Name: name, Dimensions: dims, Metric: domain.MetricCosine, AutoCreate: autoCreate}
}

func entry(id string, vector ...float32) domain.IndexedEntry {
	return domain.IndexedEntry{
		ID:      id,
		Vector:  vector,
		Content: id + " content",
		Source:  id + ".pdf",
	}
}

func openIndex(t *testing.T, store driven.VectorStore, dims int) driven.VectorIndex {
	t.Helper()
	return openIndexIn(t, store, dims)
}

func openIndexIn(t *testing.T, store driven.VectorStore, dims int) driven.VectorIndex {
	t.Helper()
	idx, err := store.Open(context.Background(), spec(fmt.Sprintf("test-%d", dims), dims, true))
	require.NoError(t, err)
	return idx
}
