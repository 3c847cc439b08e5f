package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/homeradar/internal/core/domain"
	"github.com/custodia-labs/homeradar/internal/core/ports/driven"
)

// Ensure RecordStore implements the interface.
var _ driven.RecordStore = (*RecordStore)(nil)

// defaultListLimit applies when ListOptions.Limit is zero.
const defaultListLimit = 50

// RecordStore is an in-memory implementation of driven.RecordStore.
type RecordStore struct {
	mu      sync.RWMutex
	records []domain.PostRecord
	byURL   map[string]int
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		byURL: make(map[string]int),
	}
}

// Exists reports whether a record for url was already written.
func (s *RecordStore) Exists(_ context.Context, url string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byURL[url]
	return ok, nil
}

// Insert writes a new record. A duplicate url returns domain.ErrAlreadyExists.
func (s *RecordStore) Insert(_ context.Context, record domain.PostRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byURL[record.URL]; ok {
		return domain.ErrAlreadyExists
	}
	s.byURL[record.URL] = len(s.records)
	s.records = append(s.records, record)
	return nil
}

// List returns records newest first.
func (s *RecordStore) List(_ context.Context, opts driven.ListOptions) ([]domain.PostRecord, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.PostRecord, 0, min(limit, len(s.records)))
	for i := len(s.records) - 1; i >= 0 && len(result) < limit; i-- {
		if opts.RelevantOnly && !s.records[i].Relevant {
			continue
		}
		result = append(result, s.records[i])
	}
	return result, nil
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
