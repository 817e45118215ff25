package store

import (
	"context"
	"sync"
	"time"
)

const defaultMemoryLimit = 200

// MemoryStore keeps the most recent task records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records []TaskRecord
	limit   int
}

func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = defaultMemoryLimit
	}
	return &MemoryStore{limit: limit}
}

func (s *MemoryStore) SaveTask(_ context.Context, rec TaskRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.CompletedAt.IsZero() {
		rec.CompletedAt = time.Now().UTC()
	}
	for i := range s.records {
		if s.records[i].ID == rec.ID {
			s.records[i] = rec
			return nil
		}
	}
	s.records = append(s.records, rec)
	if len(s.records) > s.limit {
		s.records = s.records[len(s.records)-s.limit:]
	}
	return nil
}

func (s *MemoryStore) ListRecent(_ context.Context, limit int) ([]TaskRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]TaskRecord, 0, limit)
	for i := len(s.records) - 1; i >= len(s.records)-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
