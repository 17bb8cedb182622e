package store

import (
	"context"
	"sort"
	"sync"

	"github.com/i474232898/weather-analyzer/internal/weather"
)

// MemoryStore is a concurrency-safe in-memory record store with the same
// (city, observed_at) deduplication as SQLStore. Used for dry runs and tests.
type MemoryStore struct {
	mu sync.RWMutex

	// key: Record.Key()
	seen    map[string]struct{}
	records []weather.Record

	calls int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		seen: make(map[string]struct{}),
	}
}

// InsertBatch appends records not already present and returns how many were new.
func (s *MemoryStore) InsertBatch(_ context.Context, records []weather.Record) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	inserted := 0
	for _, r := range records {
		key := r.Key()
		if _, dup := s.seen[key]; dup {
			continue
		}
		s.seen[key] = struct{}{}
		s.records = append(s.records, r)
		inserted++
	}
	return inserted, nil
}

// History returns matching records ordered by observed_at, then city.
func (s *MemoryStore) History(_ context.Context, q weather.HistoryQuery) ([]weather.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.Record
	for _, r := range s.records {
		if q.Match(r) {
			result = append(result, r)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].ObservedAt.Equal(result[j].ObservedAt) {
			return result[i].ObservedAt.Before(result[j].ObservedAt)
		}
		return result[i].City < result[j].City
	})
	return result, nil
}

// Calls returns how many times InsertBatch was invoked.
func (s *MemoryStore) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// Len returns the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
