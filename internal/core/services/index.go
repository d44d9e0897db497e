package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/ragchat/internal/core/domain"
	"github.com/custodia-labs/ragchat/internal/core/ports/driving"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexService manages the configured index on its backend.
type IndexService struct {
	index *IndexHandle
}

// NewIndexService creates an index management service.
func NewIndexService(index *IndexHandle) *IndexService {
	return &IndexService{index: index}
}

// Create creates the configured index if missing and describes it.
func (s *IndexService) Create(ctx context.Context) (domain.IndexInfo, error) {
	if err := s.index.Store().Create(ctx, s.index.Spec()); err != nil {
		return domain.IndexInfo{}, err
	}
	return s.Stats(ctx)
}

// Drop deletes the configured index and all its entries.
func (s *IndexService) Drop(ctx context.Context) error {
	if err := s.index.Store().Drop(ctx, s.index.Spec().Name); err != nil {
		return err
	}
	s.index.Reset()
	return nil
}

// List returns every index on the backend.
func (s *IndexService) List(ctx context.Context) ([]domain.IndexInfo, error) {
	return s.index.Store().List(ctx)
}

// Stats describes the configured index without creating it.
func (s *IndexService) Stats(ctx context.Context) (domain.IndexInfo, error) {
	infos, err := s.List(ctx)
	if err != nil {
		return domain.IndexInfo{}, err
	}
	name := s.index.Spec().Name
	for _, info := range infos {
		if info.Name == name {
			return info, nil
		}
	}
	return domain.IndexInfo{}, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, name)
}
