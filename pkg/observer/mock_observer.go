package observer

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type event struct {
	SecretID uuid.UUID
	Context  SecretEventContext
}

// MockObserver records every event it receives, for assertions in tests.
type MockObserver struct {
	mu               sync.Mutex
	createdEvents    []event
	retrievedEvents  []event
}

// NewMockObserver creates an empty MockObserver.
func NewMockObserver() *MockObserver {
	return &MockObserver{}
}

func (m *MockObserver) OnSecretCreated(_ context.Context, secretID uuid.UUID, eventCtx SecretEventContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createdEvents = append(m.createdEvents, event{SecretID: secretID, Context: eventCtx})
}

func (m *MockObserver) OnSecretRetrieved(_ context.Context, secretID uuid.UUID, eventCtx SecretEventContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.retrievedEvents = append(m.retrievedEvents, event{SecretID: secretID, Context: eventCtx})
}

// CreatedEvents returns a copy of every OnSecretCreated call observed.
func (m *MockObserver) CreatedEvents() []event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event, len(m.createdEvents))
	copy(out, m.createdEvents)
	return out
}

// RetrievedEvents returns a copy of every OnSecretRetrieved call observed.
func (m *MockObserver) RetrievedEvents() []event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event, len(m.retrievedEvents))
	copy(out, m.retrievedEvents)
	return out
}
