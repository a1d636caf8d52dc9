package observer

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Manager fans out secret lifecycle events to every registered observer.
// Dispatch is sequential and synchronous per call; callers that want
// fire-and-forget semantics should invoke Notify* from a separate goroutine.
type Manager struct {
	mu        sync.RWMutex
	observers []SecretObserver
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds an observer to the fan-out list.
func (m *Manager) Register(o SecretObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// NotifySecretCreated calls OnSecretCreated on every registered observer.
func (m *Manager) NotifySecretCreated(ctx context.Context, secretID uuid.UUID, eventCtx SecretEventContext) {
	m.mu.RLock()
	observers := m.observers
	m.mu.RUnlock()
	for _, o := range observers {
		o.OnSecretCreated(ctx, secretID, eventCtx)
	}
}

// NotifySecretRetrieved calls OnSecretRetrieved on every registered observer.
func (m *Manager) NotifySecretRetrieved(ctx context.Context, secretID uuid.UUID, eventCtx SecretEventContext) {
	m.mu.RLock()
	observers := m.observers
	m.mu.RUnlock()
	for _, o := range observers {
		o.OnSecretRetrieved(ctx, secretID, eventCtx)
	}
}
