package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/postprocessors/chunker"
)

func newTestPreparer(t *testing.T, loader *mockLoader, size, overlap int) *Preparer {
	t.Helper()
	splitter, err := chunker.New(chunker.WithChunkSize(size), chunker.WithOverlap(overlap))
	require.NoError(t, err)
	return NewPreparer(loader, splitter)
}

func TestMinimize(t *testing.T) {
	docs := []domain.RawDocument{
		{Content: "text", Source: "a.pdf", Page: 3, Metadata: map[string]string{"total_pages": "9"}},
		{Content: "more", Source: "b.pdf"},
	}

	once := Minimize(docs)
	twice := Minimize(once)

	assert.Equal(t, []domain.RawDocument{
		{Content: "text", Source: "a.pdf"},
		{Content: "more", Source: "b.pdf"},
	}, once)
	assert.Equal(t, once, twice)
	assert.Equal(t, 3, docs[0].Page, "input is not modified")
}

func TestPreparer_Prepare(t *testing.T) {
	loader := &mockLoader{docs: map[string][]domain.RawDocument{
		"data/facts.pdf": {
			{Content: "The capital of France is Paris.", Source: "data/facts.pdf", Page: 1},
			{Content: "Berlin is in Germany.", Source: "data/facts.pdf", Page: 2},
		},
	}}
	p := newTestPreparer(t, loader, 500, 20)

	chunks, docs, err := p.Prepare(context.Background(), "data")

	require.NoError(t, err)
	assert.Equal(t, 2, docs)
	require.Len(t, chunks, 2)
	assert.Equal(t, domain.Chunk{Content: "The capital of France is Paris.", Source: "data/facts.pdf", Position: 0}, chunks[0])
	assert.Equal(t, 1, chunks[1].Position, "positions run across pages of one source")
}

func TestPreparer_Prepare_EmptyDirectory(t *testing.T) {
	p := newTestPreparer(t, &mockLoader{}, 500, 20)

	chunks, docs, err := p.Prepare(context.Background(), "empty")

	require.NoError(t, err)
	assert.Zero(t, docs)
	assert.Empty(t, chunks)
}

func TestPreparer_Prepare_LoadError(t *testing.T) {
	p := newTestPreparer(t, &mockLoader{loadErr: domain.ErrIO}, 500, 20)

	_, _, err := p.Prepare(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrIO)
	assert.Contains(t, err.Error(), "load")
}

func TestPreparer_PrepareFile(t *testing.T) {
	loader := &mockLoader{docs: map[string][]domain.RawDocument{
		"data/long.pdf": {{Content: "abcdefghij", Source: "data/long.pdf"}},
	}}
	p := newTestPreparer(t, loader, 4, 1)

	chunks, docs, err := p.PrepareFile(context.Background(), "data/long.pdf")

	require.NoError(t, err)
	assert.Equal(t, 1, docs)
	require.Len(t, chunks, 3)
	assert.Equal(t, "abcd", chunks[0].Content)
	assert.Equal(t, "defg", chunks[1].Content)
	assert.Equal(t, "ghij", chunks[2].Content)
}
