package secret

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store used by orchestration-level tests that
// don't need real Redis semantics, only the interface's contract.
type MockStore struct {
	mu            sync.Mutex
	secrets       map[uuid.UUID]string
	accessed      map[uuid.UUID]bool
	restrictions  map[uuid.UUID]Restrictions
	HealthErr     error
	PutErr        error
	SetRestrErr   error
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		secrets:      make(map[uuid.UUID]string),
		accessed:     make(map[uuid.UUID]bool),
		restrictions: make(map[uuid.UUID]Restrictions),
	}
}

func (m *MockStore) Put(_ context.Context, id uuid.UUID, ciphertext string, _ time.Duration) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[id] = ciphertext
	return nil
}

func (m *MockStore) Pop(_ context.Context, id uuid.UUID) (PopOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ct, ok := m.secrets[id]; ok {
		delete(m.secrets, id)
		m.accessed[id] = true
		return PopOutcome{Result: Found, Ciphertext: ct}, nil
	}
	if m.accessed[id] {
		return PopOutcome{Result: AlreadyAccessed}, nil
	}
	return PopOutcome{Result: NotFound}, nil
}

func (m *MockStore) SetRestrictions(_ context.Context, id uuid.UUID, r Restrictions, _ time.Duration) error {
	if m.SetRestrErr != nil {
		return m.SetRestrErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.restrictions[id] = r
	return nil
}

func (m *MockStore) GetRestrictions(_ context.Context, id uuid.UUID) (*Restrictions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.restrictions[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MockStore) DeleteRestrictions(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.restrictions, id)
	return nil
}

func (m *MockStore) IsHealthy(_ context.Context) error {
	return m.HealthErr
}

func (m *MockStore) ActiveSecretCount(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.secrets), nil
}
