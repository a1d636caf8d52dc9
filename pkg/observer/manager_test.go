package observer

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestNotifySecretCreated_MultipleObservers(t *testing.T) {
	manager := NewManager()
	obs1 := NewMockObserver()
	obs2 := NewMockObserver()
	manager.Register(obs1)
	manager.Register(obs2)

	secretID := uuid.New()
	ctx := NewSecretEventContext(http.Header{})

	manager.NotifySecretCreated(context.Background(), secretID, ctx)

	events1 := obs1.CreatedEvents()
	events2 := obs2.CreatedEvents()

	if len(events1) != 1 {
		t.Fatalf("first observer got %d events, want 1", len(events1))
	}
	if events1[0].SecretID != secretID {
		t.Errorf("first observer secret id = %v, want %v", events1[0].SecretID, secretID)
	}
	if len(events2) != 1 {
		t.Fatalf("second observer got %d events, want 1", len(events2))
	}
	if events2[0].SecretID != secretID {
		t.Errorf("second observer secret id = %v, want %v", events2[0].SecretID, secretID)
	}
}

func TestNotifySecretRetrieved_MultipleObservers(t *testing.T) {
	manager := NewManager()
	obs1 := NewMockObserver()
	obs2 := NewMockObserver()
	manager.Register(obs1)
	manager.Register(obs2)

	secretID := uuid.New()
	ctx := NewSecretEventContext(http.Header{})

	manager.NotifySecretRetrieved(context.Background(), secretID, ctx)

	if len(obs1.RetrievedEvents()) != 1 {
		t.Error("first observer should have been notified")
	}
	if len(obs2.RetrievedEvents()) != 1 {
		t.Error("second observer should have been notified")
	}
}
