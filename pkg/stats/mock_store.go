package stats

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store for orchestration tests.
type MockStore struct {
	mu    sync.Mutex
	stats map[uuid.UUID]SecretStats
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{stats: make(map[uuid.UUID]SecretStats)}
}

func (m *MockStore) StoreStats(_ context.Context, secretID uuid.UUID, stats SecretStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[secretID] = stats
	return nil
}

func (m *MockStore) RetrieveStats(_ context.Context, secretID uuid.UUID) (*SecretStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[secretID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MockStore) UpdateRetrievedAt(_ context.Context, secretID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[secretID]
	if !ok {
		return nil
	}
	now := time.Now().UTC()
	s.RetrievedAt = &now
	m.stats[secretID] = s
	return nil
}
