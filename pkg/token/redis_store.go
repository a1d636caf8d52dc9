package token

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	adminTokenKey = "admin_token"
	tokenPrefix   = "token:"
)

// RedisStore is the Redis-backed implementation of Store.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore creates a RedisStore.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func tokenKey(hash string) string { return tokenPrefix + hash }

// deleteIfOneTime deletes a one-time token's record and reports whether this
// caller's DEL removed it. Tokens that are not one-time are always claimed.
func (s *RedisStore) deleteIfOneTime(ctx context.Context, key string, data Data) (bool, error) {
	if !data.OneTime {
		return true, nil
	}
	n, err := s.rdb.Del(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetToken loads token metadata by hash, deleting the record immediately
// afterward if it's marked one-time. Concurrent readers of a one-time token
// may all load it, but only the reader whose DEL removes the key gets the
// data; the others see a miss.
func (s *RedisStore) GetToken(ctx context.Context, tokenHash string) (*Data, error) {
	key := tokenKey(tokenHash)
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading token: %w", err)
	}

	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshaling token data: %w", err)
	}

	claimed, err := s.deleteIfOneTime(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("deleting one-time token: %w", err)
	}
	if !claimed {
		return nil, nil
	}

	return &data, nil
}

// StoreToken persists tokenHash with TTL and metadata.
func (s *RedisStore) StoreToken(ctx context.Context, tokenHash string, ttl time.Duration, data Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling token data: %w", err)
	}
	if err := s.rdb.Set(ctx, tokenKey(tokenHash), raw, ttl).Err(); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	return nil
}

// ClearAllUserTokens deletes every token:* key.
func (s *RedisStore) ClearAllUserTokens(ctx context.Context) error {
	keys, err := s.rdb.Keys(ctx, tokenPrefix+"*").Result()
	if err != nil {
		return fmt.Errorf("scanning tokens: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}
	return nil
}

// AdminTokenExists reports whether an admin token hash is stored.
func (s *RedisStore) AdminTokenExists(ctx context.Context) (bool, error) {
	n, err := s.rdb.Exists(ctx, adminTokenKey).Result()
	if err != nil {
		return false, fmt.Errorf("checking admin token: %w", err)
	}
	return n > 0, nil
}

// GetAdminToken loads the stored admin token hash.
func (s *RedisStore) GetAdminToken(ctx context.Context) (string, bool, error) {
	hash, err := s.rdb.Get(ctx, adminTokenKey).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("loading admin token: %w", err)
	}
	return hash, true, nil
}

// StoreAdminToken overwrites the stored admin token hash. No TTL: admin
// tokens live until explicitly reset.
func (s *RedisStore) StoreAdminToken(ctx context.Context, tokenHash string) error {
	if err := s.rdb.Set(ctx, adminTokenKey, tokenHash, 0).Err(); err != nil {
		return fmt.Errorf("storing admin token: %w", err)
	}
	return nil
}

// UserTokenCount counts stored user tokens.
func (s *RedisStore) UserTokenCount(ctx context.Context) (int, error) {
	keys, err := s.rdb.Keys(ctx, tokenPrefix+"*").Result()
	if err != nil {
		return 0, fmt.Errorf("scanning tokens: %w", err)
	}
	return len(keys), nil
}
