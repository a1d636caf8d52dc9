package stats

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSecretStats_LifetimeAfterRetrieved(t *testing.T) {
	created := time.Unix(100, 0).UTC()
	retrieved := time.Unix(250, 0).UTC()
	s := SecretStats{CreatedAt: created, TTL: 200 * time.Second, RetrievedAt: &retrieved}

	lifetime, ok := s.Lifetime()
	if !ok {
		t.Fatal("expected ok=true")
	}
	if lifetime != 150*time.Second {
		t.Errorf("lifetime = %v, want 150s", lifetime)
	}
}

func TestSecretStats_LifetimeNotRetrieved(t *testing.T) {
	s := SecretStats{CreatedAt: time.Unix(100, 0).UTC(), TTL: 200 * time.Second}

	_, ok := s.Lifetime()
	if ok {
		t.Error("expected ok=false when not retrieved")
	}
}

func TestNewSecretStats_SetsTimestamp(t *testing.T) {
	before := time.Now().UTC()
	s := NewSecretStats(300 * time.Second)
	if s.CreatedAt.Before(before) {
		t.Errorf("CreatedAt %v is before test start %v", s.CreatedAt, before)
	}
	if s.TTL != 300*time.Second {
		t.Errorf("TTL = %v, want 300s", s.TTL)
	}
}

func TestMockStore_UpdateRetrievedAt(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	id := uuid.New()

	if err := store.UpdateRetrievedAt(ctx, id); err != nil {
		t.Fatalf("update on missing record should no-op: %v", err)
	}

	want := NewSecretStats(time.Hour)
	if err := store.StoreStats(ctx, id, want); err != nil {
		t.Fatalf("StoreStats: %v", err)
	}

	if err := store.UpdateRetrievedAt(ctx, id); err != nil {
		t.Fatalf("UpdateRetrievedAt: %v", err)
	}

	got, err := store.RetrieveStats(ctx, id)
	if err != nil {
		t.Fatalf("RetrieveStats: %v", err)
	}
	if got == nil || got.RetrievedAt == nil {
		t.Fatal("expected RetrievedAt to be set")
	}
}
