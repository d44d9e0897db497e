package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scaled", []float32{1, 1}, []float32{3, 3}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTopK(t *testing.T) {
	hits := []driven.VectorHit{
		{Entry: domain.IndexedEntry{ID: "c"}, Similarity: 0.5},
		{Entry: domain.IndexedEntry{ID: "a"}, Similarity: 0.9},
		{Entry: domain.IndexedEntry{ID: "b"}, Similarity: 0.5},
		{Entry: domain.IndexedEntry{ID: "d"}, Similarity: 0.1},
	}

	top := TopK(hits, 3)

	require.Len(t, top, 3)
	assert.Equal(t, "a", top[0].Entry.ID)
	assert.Equal(t, "b", top[1].Entry.ID, "ties ordered by id")
	assert.Equal(t, "c", top[2].Entry.ID)
	assert.Len(t, TopK(top, 10), 3)
}

func TestNormaliseSpec(t *testing.T) {
	spec, err := NormaliseSpec(driven.IndexSpec{Name: "x", Dimensions: 3})
	require.NoError(t, err)
	assert.Equal(t, domain.MetricCosine, spec.Metric)

	invalid := []driven.IndexSpec{
		{Name: "", Dimensions: 3},
		{Name: "x", Dimensions: 0},
		{Name: "x", Dimensions: 3, Metric: "dotproduct"},
	}
	for _, s := range invalid {
		_, err := NormaliseSpec(s)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	}
}

func TestCheckQuery(t *testing.T) {
	assert.NoError(t, CheckQuery("x", 2, []float32{1, 2}))
	assert.ErrorIs(t, CheckQuery("x", 2, []float32{1}), domain.ErrDimensionMismatch)
}

func TestCheckEntries(t *testing.T) {
	ok := []domain.IndexedEntry{{ID: "a", Vector: []float32{1, 2}}}
	assert.NoError(t, CheckEntries("x", 2, ok))

	noID := []domain.IndexedEntry{{Vector: []float32{1, 2}}}
	assert.ErrorIs(t, CheckEntries("x", 2, noID), domain.ErrInvalidInput)

	wrongDims := []domain.IndexedEntry{{ID: "a", Vector: []float32{1}}}
	err := CheckEntries("x", 2, wrongDims)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSortedSources(t *testing.T) {
	seen := map[string]struct{}{"data/b.pdf": {}, "data/a.pdf": {}, "other/c.pdf": {}}

	assert.Equal(t, []string{"data/a.pdf", "data/b.pdf", "other/c.pdf"}, SortedSources(seen))
	assert.Empty(t, SortedSources(nil))
}
