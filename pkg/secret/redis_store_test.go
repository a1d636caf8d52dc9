package secret

import (
	"testing"

	"github.com/google/uuid"
)

func TestKeyBuilders(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000001")

	if got, want := secretKey(id), "secret:00000000-0000-0000-0000-000000000001"; got != want {
		t.Errorf("secretKey = %q, want %q", got, want)
	}
	if got, want := accessedKey(id), "accessed:00000000-0000-0000-0000-000000000001"; got != want {
		t.Errorf("accessedKey = %q, want %q", got, want)
	}
	if got, want := restrictionsKey(id), "restrictions:00000000-0000-0000-0000-000000000001"; got != want {
		t.Errorf("restrictionsKey = %q, want %q", got, want)
	}
}
