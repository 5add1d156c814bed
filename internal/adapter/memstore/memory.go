package memstore

import (
	"errors"
	"sync"

	"faceid/internal/domain"
)

// ErrInjected is the default failure returned when a fault is armed.
var ErrInjected = errors.New("memstore: injected failure")

// MemoryStore is an in-process FaceStorage. Faults can be armed to exercise
// persistence error paths.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.Record
	saves   int

	LoadErr      error
	SaveErr      error
	RemoveAllErr error
}

func NewMemoryStore(records ...domain.Record) *MemoryStore {
	return &MemoryStore{records: cloneRecords(records)}
}

func (s *MemoryStore) Load() ([]domain.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	return cloneRecords(s.records), nil
}

func (s *MemoryStore) Save(records []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.records = cloneRecords(records)
	s.saves++
	return nil
}

func (s *MemoryStore) RemoveAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RemoveAllErr != nil {
		return s.RemoveAllErr
	}
	s.records = nil
	return nil
}

// Saves returns how many successful Save calls were made.
func (s *MemoryStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func (s *MemoryStore) Close() error {
	return nil
}

func cloneRecords(records []domain.Record) []domain.Record {
	if len(records) == 0 {
		return nil
	}
	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = r.Identity().Record()
	}
	return out
}
