// Package outcome persists terminal payment outcomes for audit. The store is
// append-only and is never consulted to resume a batch.
package outcome

import (
	"context"
	"sync"

	"satpay/internal/batch/models"
)

// MemoryStore is the default in-process store.
type MemoryStore struct {
	mu      sync.RWMutex
	byBatch map[string][]models.PaymentOutcome
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byBatch: make(map[string][]models.PaymentOutcome)}
}

func (s *MemoryStore) Append(_ context.Context, batchID string, outcome models.PaymentOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byBatch[batchID] = append(s.byBatch[batchID], outcome)
	return nil
}

func (s *MemoryStore) ListByBatch(_ context.Context, batchID string) ([]models.PaymentOutcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	outcomes := s.byBatch[batchID]
	out := make([]models.PaymentOutcome, len(outcomes))
	copy(out, outcomes)
	return out, nil
}
