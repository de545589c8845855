// Package storage provides candidate record persistence backends.
package storage

import (
	"context"
	"sync"

	"github.com/ahrav/go-copyforge/internal/domain"
	"github.com/ahrav/go-copyforge/internal/ports"
)

var _ ports.CandidateStore = (*MemoryStore)(nil)

// MemoryStore is an in-memory CandidateStore. It backs tests, local runs,
// and dry runs where nothing should outlive the process. Records are kept
// in insertion order; List returns them newest first.
//
// Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.CandidateRecord
	byID    map[string]int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]int)}
}

// Save appends a record. Saving an existing ID overwrites the stored
// record in place.
func (s *MemoryStore) Save(ctx context.Context, record domain.CandidateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if idx, ok := s.byID[record.ID]; ok {
		s.records[idx] = record
		return nil
	}
	s.byID[record.ID] = len(s.records)
	s.records = append(s.records, record)
	return nil
}

// List returns up to limit records, newest first. A non-positive limit
// returns everything.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]domain.CandidateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.CandidateRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.records[i])
	}
	return out, nil
}

// MarkPublished flags a record as pushed to a live campaign. The campaign
// and ad group identifiers are accepted for interface compatibility; this
// backend only records the flag.
func (s *MemoryStore) MarkPublished(ctx context.Context, id, campaignID, adGroupID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	s.records[idx].Published = true
	return nil
}

// Stats summarizes the store's contents.
func (s *MemoryStore) Stats(ctx context.Context) (domain.StoreStats, error) {
	if err := ctx.Err(); err != nil {
		return domain.StoreStats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := domain.StoreStats{Total: len(s.records)}
	for _, r := range s.records {
		if r.Valid {
			stats.Valid++
		}
		if r.Published {
			stats.Published++
		} else if r.Valid {
			stats.Available++
		}
	}
	return stats, nil
}
