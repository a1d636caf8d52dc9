package stats

import (
	"testing"

	"github.com/google/uuid"
)

func TestStatsKey(t *testing.T) {
	id := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	if got, want := statsKey(id), "stats:00000000-0000-0000-0000-000000000002"; got != want {
		t.Errorf("statsKey = %q, want %q", got, want)
	}
}
