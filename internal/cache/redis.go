package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/calculator"
)

const keyPrefix = "splitledger:group:"

// RedisCache shares summaries between server instances.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ BalanceCache = (*RedisCache)(nil)

// NewRedisCache returns a cache whose entries expire after ttl. Version counters never expire.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func versionKey(groupID string) string {
	return keyPrefix + groupID + ":version"
}

func summaryKey(groupID string, version int64) string {
	return fmt.Sprintf("%s%s:summary:%d", keyPrefix, groupID, version)
}

func (c *RedisCache) Version(ctx context.Context, groupID string) (int64, error) {
	v, err := c.client.Get(ctx, versionKey(groupID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache version: %w", err)
	}
	return v, nil
}

func (c *RedisCache) Get(ctx context.Context, groupID string, version int64) (*calculator.Summary, bool, error) {
	raw, err := c.client.Get(ctx, summaryKey(groupID, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached summary: %w", err)
	}

	var summary calculator.Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached summary: %w", err)
	}
	return &summary, true, nil
}

func (c *RedisCache) Set(ctx context.Context, groupID string, version int64, summary *calculator.Summary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := c.client.Set(ctx, summaryKey(groupID, version), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cached summary: %w", err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, groupID string) error {
	if err := c.client.Incr(ctx, versionKey(groupID)).Err(); err != nil {
		return fmt.Errorf("failed to bump cache version: %w", err)
	}
	return nil
}
