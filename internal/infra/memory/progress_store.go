package memory

import (
	"context"
	"sync"

	"ai-ops-scorecard/internal/domain"
)

// ProgressStore keeps progress records in process memory. Records die with the process.
type ProgressStore struct {
	mu      sync.RWMutex
	records map[string]string
}

func NewProgressStore() *ProgressStore {
	return &ProgressStore{records: make(map[string]string)}
}

func (s *ProgressStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.records[key]
	if !ok {
		return "", domain.ErrProgressNotFound
	}
	return value, nil
}

func (s *ProgressStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[key] = value
	return nil
}

func (s *ProgressStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}
