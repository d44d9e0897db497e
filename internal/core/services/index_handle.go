package services

import (
	"context"
	"sync"

	"github.com/custodia-labs/ragchat/internal/core/ports/driven"
)

// IndexHandle opens the configured vector index on first use and keeps it.
// Failed opens are not cached, so a server that comes up later is picked up
// by the next call.
type IndexHandle struct {
	store driven.VectorStore
	spec  driven.IndexSpec

	mu  sync.Mutex
	idx driven.VectorIndex
}

// NewIndexHandle creates a handle for spec on store.
func NewIndexHandle(store driven.VectorStore, spec driven.IndexSpec) *IndexHandle {
	return &IndexHandle{store: store, spec: spec}
}

// Get returns the open index.
func (h *IndexHandle) Get(ctx context.Context) (driven.VectorIndex, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.idx != nil {
		return h.idx, nil
	}
	idx, err := h.store.Open(ctx, h.spec)
	if err != nil {
		return nil, err
	}
	h.idx = idx
	return idx, nil
}

// Reset forgets the open index, e.g. after it was dropped.
func (h *IndexHandle) Reset() {
	h.mu.Lock()
	h.idx = nil
	h.mu.Unlock()
}

// Spec returns the index spec the handle opens.
func (h *IndexHandle) Spec() driven.IndexSpec {
	return h.spec
}

// Store returns the backing store.
func (h *IndexHandle) Store() driven.VectorStore {
	return h.store
}
