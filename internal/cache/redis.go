package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sihmvp/dropout-monitor/internal/config"
	"github.com/sihmvp/dropout-monitor/internal/model"
)

// RedisRosterCache stores the roster as a JSON string with a TTL.
type RedisRosterCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisRosterCache creates a RedisRosterCache.
func NewRedisRosterCache(rdb *redis.Client, ttl time.Duration) *RedisRosterCache {
	return &RedisRosterCache{rdb: rdb, ttl: ttl}
}

func (c *RedisRosterCache) Get(ctx context.Context) ([]model.StudentSummary, bool, error) {
	raw, err := c.rdb.Get(ctx, config.CacheKey.ClassifiedRosterKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get roster: %w", err)
	}

	var roster []model.StudentSummary
	if err := json.Unmarshal(raw, &roster); err != nil {
		return nil, false, fmt.Errorf("decode roster: %w", err)
	}
	return roster, true, nil
}

func (c *RedisRosterCache) Set(ctx context.Context, roster []model.StudentSummary) error {
	raw, err := json.Marshal(roster)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.ClassifiedRosterKey(), raw, c.ttl).Err()
}

func (c *RedisRosterCache) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, config.CacheKey.ClassifiedRosterKey()).Err()
}

// RedisSessionStore keeps session:{jti} keys and a per-user index set.
type RedisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore creates a RedisSessionStore.
func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func (s *RedisSessionStore) Create(ctx context.Context, jti, username string, ttl time.Duration) error {
	userKey := config.CacheKey.UserSessionsKey(username)

	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.SessionKey(jti), username, ttl)
	pipe.SAdd(ctx, userKey, jti)
	pipe.Expire(ctx, userKey, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Exists(ctx context.Context, jti string) (bool, error) {
	n, err := s.rdb.Exists(ctx, config.CacheKey.SessionKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("check session: %w", err)
	}
	return n == 1, nil
}

func (s *RedisSessionStore) Revoke(ctx context.Context, jti string) error {
	key := config.CacheKey.SessionKey(jti)
	username, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read session: %w", err)
	}

	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, config.CacheKey.UserSessionsKey(username), jti)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisSessionStore) RevokeAll(ctx context.Context, username string) error {
	userKey := config.CacheKey.UserSessionsKey(username)
	jtis, err := s.rdb.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}

	keys := make([]string, 0, len(jtis)+1)
	for _, jti := range jtis {
		keys = append(keys, config.CacheKey.SessionKey(jti))
	}
	keys = append(keys, userKey)
	return s.rdb.Del(ctx, keys...).Err()
}
