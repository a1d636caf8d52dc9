package stats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const statsPrefix = "stats:"

// RedisStore is the Redis-backed implementation of Store.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore creates a RedisStore. ttl bounds how long a stats record
// outlives the secret it describes.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func statsKey(secretID uuid.UUID) string { return statsPrefix + secretID.String() }

// StoreStats persists stats for secretID.
func (s *RedisStore) StoreStats(ctx context.Context, secretID uuid.UUID, stats SecretStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	if err := s.rdb.Set(ctx, statsKey(secretID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing stats: %w", err)
	}
	return nil
}

// RetrieveStats loads the stats record for secretID, nil if absent.
func (s *RedisStore) RetrieveStats(ctx context.Context, secretID uuid.UUID) (*SecretStats, error) {
	data, err := s.rdb.Get(ctx, statsKey(secretID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}
	var stats SecretStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling stats: %w", err)
	}
	return &stats, nil
}

// UpdateRetrievedAt stamps the retrieval time on an existing record; a
// read-modify-write since Redis has no partial-JSON update primitive here.
func (s *RedisStore) UpdateRetrievedAt(ctx context.Context, secretID uuid.UUID) error {
	existing, err := s.RetrieveStats(ctx, secretID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}
	now := time.Now().UTC()
	existing.RetrievedAt = &now
	return s.StoreStats(ctx, secretID, *existing)
}

// CountExpiredUnread scans the stats keyspace and counts records whose TTL
// has elapsed without ever being retrieved. Used by the periodic gauge
// aggregation; not on any request path, so a scan is an acceptable cost.
func (s *RedisStore) CountExpiredUnread(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	var expiredUnread int
	var cursor uint64

	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, statsPrefix+"*", 100).Result()
		if err != nil {
			return 0, fmt.Errorf("scanning stats keys: %w", err)
		}

		for _, key := range keys {
			data, err := s.rdb.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				continue
			}
			if err != nil {
				return 0, fmt.Errorf("loading stats record %q: %w", key, err)
			}
			var record SecretStats
			if err := json.Unmarshal(data, &record); err != nil {
				return 0, fmt.Errorf("unmarshaling stats record %q: %w", key, err)
			}
			if record.RetrievedAt == nil && record.CreatedAt.Add(record.TTL).Before(now) {
				expiredUnread++
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return expiredUnread, nil
}
