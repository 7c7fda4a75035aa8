package storage

import (
	"context"
	"sync"

	"github.com/GriffinCanCode/cardspace/internal/shared/types"
)

// MemoryStore keeps records in process. Records are copied in and out.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*types.LayoutRecord
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*types.LayoutRecord)}
}

// Name implements RecordStore
func (m *MemoryStore) Name() string { return "memory" }

// Load implements RecordStore
func (m *MemoryStore) Load(ctx context.Context, userID string) (*types.LayoutRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// Save implements RecordStore
func (m *MemoryStore) Save(ctx context.Context, rec *types.LayoutRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(rec); err != nil {
		return err
	}
	m.mu.Lock()
	m.records[rec.UserID] = rec.Clone()
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored records
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
