package vault

import (
	"context"
	"sync"
)

// MemoryStore keeps records in process with the same version semantics as
// the persistent stores.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (m *MemoryStore) Get(_ context.Context, tenantID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[tenantID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (m *MemoryStore) Save(_ context.Context, rec *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if stored, ok := m.records[rec.TenantID]; ok {
		current = stored.Version
	}
	if current != rec.Version {
		return ErrVersionConflict
	}

	rec.Version++
	m.records[rec.TenantID] = rec.Clone()
	return nil
}
