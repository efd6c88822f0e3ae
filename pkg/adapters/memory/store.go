// Package memory provides the in-memory ports.RunStore used when no Redis
// URL is configured. History lives for the lifetime of the process.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/capsid/pkg/domain"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	data map[string]domain.HistoryRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.HistoryRecord),
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, rec domain.HistoryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[rec.ID] = copyRecord(rec)
	return nil
}

// Load retrieves a record by ID.
func (s *Store) Load(ctx context.Context, id string) (domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[id]
	if !ok {
		return domain.HistoryRecord{}, domain.ErrRecordNotFound
	}
	return copyRecord(rec), nil
}

// List returns all records, most recently finished first.
func (s *Store) List(ctx context.Context) ([]domain.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]domain.HistoryRecord, 0, len(s.data))
	for _, rec := range s.data {
		records = append(records, copyRecord(rec))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].FinishedAt.Equal(records[j].FinishedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].FinishedAt.After(records[j].FinishedAt)
	})
	return records, nil
}

// Delete removes a record by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// copyRecord clones the record's Params map so callers cannot mutate stored
// state through the shared reference.
func copyRecord(rec domain.HistoryRecord) domain.HistoryRecord {
	out := rec
	if rec.Params != nil {
		out.Params = make(map[string]any, len(rec.Params))
		for k, v := range rec.Params {
			out.Params[k] = v
		}
	}
	return out
}
