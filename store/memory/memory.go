// Package memory provides an in-memory renewal.ReceiptStore.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/renewal-engine/generic"
	"github.com/warp/renewal-engine/renewal"
)

// =============================================================================
// MEMORY STORE - In-memory receipts (for testing/dev and the CLI)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	receipts    []renewal.Receipt // append order
	byID        map[string]int
	idempotency map[string]int
}

var _ renewal.ReceiptStore = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		byID:        make(map[string]int),
		idempotency: make(map[string]int),
	}
}

// Append records a receipt. Append-only.
func (m *Memory) Append(_ context.Context, r renewal.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[r.ID]; ok {
		return generic.ErrDuplicateIdempotencyKey
	}
	if r.IdempotencyKey != "" {
		if _, ok := m.idempotency[r.IdempotencyKey]; ok {
			return generic.ErrDuplicateIdempotencyKey
		}
	}

	m.receipts = append(m.receipts, r)
	idx := len(m.receipts) - 1
	m.byID[r.ID] = idx
	if r.IdempotencyKey != "" {
		m.idempotency[r.IdempotencyKey] = idx
	}
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (*renewal.Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.byID[id]
	if !ok {
		return nil, generic.ErrReceiptNotFound
	}
	r := m.receipts[idx]
	return &r, nil
}

func (m *Memory) FindByIdempotencyKey(_ context.Context, key string) (*renewal.Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx, ok := m.idempotency[key]
	if !ok {
		return nil, nil
	}
	r := m.receipts[idx]
	return &r, nil
}

// List returns up to limit receipts, newest first. limit <= 0 means all.
func (m *Memory) List(_ context.Context, limit int) ([]renewal.Receipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]renewal.Receipt, 0, len(m.receipts))
	for i := len(m.receipts) - 1; i >= 0; i-- {
		result = append(result, m.receipts[i])
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].IssuedAt.After(result[j].IssuedAt)
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.receipts)
}
