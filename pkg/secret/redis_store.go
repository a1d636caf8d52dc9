package secret

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	secretPrefix       = "secret:"
	accessedPrefix     = "accessed:"
	restrictionsPrefix = "restrictions:"
)

// RedisStore is the Redis-backed implementation of Store.
type RedisStore struct {
	rdb    *redis.Client
	maxTTL time.Duration
}

// NewRedisStore creates a RedisStore. maxTTL is the tombstone ceiling: the
// duration an "already accessed" record outlives the secret it describes.
func NewRedisStore(rdb *redis.Client, maxTTL time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, maxTTL: maxTTL}
}

func secretKey(id uuid.UUID) string       { return secretPrefix + id.String() }
func accessedKey(id uuid.UUID) string     { return accessedPrefix + id.String() }
func restrictionsKey(id uuid.UUID) string { return restrictionsPrefix + id.String() }

func (s *RedisStore) wasAccessed(ctx context.Context, id uuid.UUID) (bool, error) {
	n, err := s.rdb.Exists(ctx, accessedKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) markAsAccessed(ctx context.Context, id uuid.UUID) error {
	return s.rdb.Set(ctx, accessedKey(id), time.Now().UTC().Format(time.RFC3339), s.maxTTL).Err()
}

// Pop atomically retrieves and removes the ciphertext for id via GETDEL, the
// only operation allowed to touch the secret itself — never a get-then-delete.
func (s *RedisStore) Pop(ctx context.Context, id uuid.UUID) (PopOutcome, error) {
	value, err := s.rdb.GetDel(ctx, secretKey(id)).Result()
	if err == nil {
		if markErr := s.markAsAccessed(ctx, id); markErr != nil {
			return PopOutcome{}, fmt.Errorf("marking secret accessed: %w", markErr)
		}
		return PopOutcome{Result: Found, Ciphertext: value}, nil
	}
	if !errors.Is(err, redis.Nil) {
		return PopOutcome{}, fmt.Errorf("popping secret: %w", err)
	}

	accessed, err := s.wasAccessed(ctx, id)
	if err != nil {
		return PopOutcome{}, fmt.Errorf("checking tombstone: %w", err)
	}
	if accessed {
		return PopOutcome{Result: AlreadyAccessed}, nil
	}
	return PopOutcome{Result: NotFound}, nil
}

// Put persists ciphertext under id with the given TTL.
func (s *RedisStore) Put(ctx context.Context, id uuid.UUID, ciphertext string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, secretKey(id), ciphertext, ttl).Err(); err != nil {
		return fmt.Errorf("storing secret: %w", err)
	}
	return nil
}

// SetRestrictions persists the restriction record for id.
func (s *RedisStore) SetRestrictions(ctx context.Context, id uuid.UUID, r Restrictions, ttl time.Duration) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshaling restrictions: %w", err)
	}
	if err := s.rdb.Set(ctx, restrictionsKey(id), data, ttl).Err(); err != nil {
		return fmt.Errorf("storing restrictions: %w", err)
	}
	return nil
}

// GetRestrictions loads the restriction record for id, if any.
func (s *RedisStore) GetRestrictions(ctx context.Context, id uuid.UUID) (*Restrictions, error) {
	data, err := s.rdb.Get(ctx, restrictionsKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading restrictions: %w", err)
	}
	var r Restrictions
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshaling restrictions: %w", err)
	}
	return &r, nil
}

// DeleteRestrictions removes the restriction record for id.
func (s *RedisStore) DeleteRestrictions(ctx context.Context, id uuid.UUID) error {
	return s.rdb.Del(ctx, restrictionsKey(id)).Err()
}

// IsHealthy probes Redis reachability.
func (s *RedisStore) IsHealthy(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrNotHealthy, err)
	}
	return nil
}

// ActiveSecretCount scans for secret:* keys. This is O(n) in keyspace size;
// acceptable because it only runs off the periodic operational gauge, never
// on a request path.
func (s *RedisStore) ActiveSecretCount(ctx context.Context) (int, error) {
	keys, err := s.rdb.Keys(ctx, secretPrefix+"*").Result()
	if err != nil {
		return 0, fmt.Errorf("scanning secret keys: %w", err)
	}
	return len(keys), nil
}
