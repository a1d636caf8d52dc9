package secret

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func mustNewID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewRandom()
	if err != nil {
		t.Fatalf("uuid.NewRandom: %v", err)
	}
	return id
}

func TestPopResult_String(t *testing.T) {
	tests := []struct {
		r    PopResult
		want string
	}{
		{NotFound, "not_found"},
		{Found, "found"},
		{AlreadyAccessed, "already_accessed"},
	}
	for _, tt := range tests {
		if got := tt.r.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.r, got, tt.want)
		}
	}
}

func TestMockStore_PopLifecycle(t *testing.T) {
	ms := NewMockStore()
	ctx := context.Background()
	id := mustNewID(t)

	if err := ms.Put(ctx, id, "ciphertext", 0); err != nil {
		t.Fatalf("Put: %v", err)
	}

	out, err := ms.Pop(ctx, id)
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if out.Result != Found || out.Ciphertext != "ciphertext" {
		t.Fatalf("first Pop = %+v, want Found/ciphertext", out)
	}

	out2, err := ms.Pop(ctx, id)
	if err != nil {
		t.Fatalf("second Pop: %v", err)
	}
	if out2.Result != AlreadyAccessed {
		t.Fatalf("second Pop = %+v, want AlreadyAccessed", out2)
	}

	unknown := mustNewID(t)
	out3, err := ms.Pop(ctx, unknown)
	if err != nil {
		t.Fatalf("Pop unknown: %v", err)
	}
	if out3.Result != NotFound {
		t.Fatalf("Pop unknown = %+v, want NotFound", out3)
	}
}
