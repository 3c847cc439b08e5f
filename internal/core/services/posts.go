package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
	"github.com/custodia-labs/homeradar/internal/core/ports/driving"
)

// Ensure PostService implements the interface.
var _ driving.PostService = (*PostService)(nil)

// PostService lists stored records.
type PostService struct {
	store driven.RecordStore
}

// NewPostService creates a new post service.
func NewPostService(store driven.RecordStore) *PostService {
	return &PostService{store: store}
}

// List returns records newest first.
func (s *PostService) List(ctx context.Context, relevantOnly bool, limit int) ([]domain.PostRecord, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must not be negative", domain.ErrInvalidInput)
	}
	records, err := s.store.List(ctx, driven.ListOptions{RelevantOnly: relevantOnly, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return records, nil
}
