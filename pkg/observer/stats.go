package observer

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/hakanai/hakanai/pkg/stats"
)

// StatsObserver records per-secret lifecycle statistics asynchronously.
type StatsObserver struct {
	store  stats.Store
	logger *slog.Logger
}

// NewStatsObserver creates a StatsObserver backed by store.
func NewStatsObserver(store stats.Store, logger *slog.Logger) *StatsObserver {
	return &StatsObserver{store: store, logger: logger}
}

func (o *StatsObserver) OnSecretCreated(_ context.Context, secretID uuid.UUID, eventCtx SecretEventContext) {
	stat := stats.NewSecretStats(eventCtx.TTL)
	go func() {
		if err := o.store.StoreStats(context.Background(), secretID, stat); err != nil {
			o.logger.Error("storing secret stats", "secret_id", secretID, "error", err)
		}
	}()
}

func (o *StatsObserver) OnSecretRetrieved(_ context.Context, secretID uuid.UUID, _ SecretEventContext) {
	go func() {
		if err := o.store.UpdateRetrievedAt(context.Background(), secretID); err != nil {
			o.logger.Error("updating secret retrieved_at", "secret_id", secretID, "error", err)
		}
	}()
}
