package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mindwell/stress-engine/internal/models"
)

// PatternCache keeps the latest pattern snapshot per user in Redis so
// submissions don't hit Postgres for a document that changes rarely.
// All lookups degrade to a miss on failure; the store stays the source
// of truth.
type PatternCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPatternCache connects to Redis and verifies connectivity
func NewPatternCache(address, password string, db int, ttl time.Duration) (*PatternCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &PatternCache{client: client, ttl: ttl}, nil
}

func patternKey(userID string) string {
	return fmt.Sprintf("stress:pattern:%s", userID)
}

// Get returns the cached pattern for a user, or nil on a miss.
// Errors are logged and reported as misses.
func (c *PatternCache) Get(ctx context.Context, userID string) *models.StressPattern {
	data, err := c.client.Get(ctx, patternKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Warn("pattern cache read failed", "user_id", userID, "error", err)
		}
		return nil
	}

	var p models.StressPattern
	if err := json.Unmarshal(data, &p); err != nil {
		slog.Warn("pattern cache entry corrupt", "user_id", userID, "error", err)
		return nil
	}

	return &p
}

// Set stores a pattern snapshot. Failures are logged and swallowed.
func (c *PatternCache) Set(ctx context.Context, p *models.StressPattern) {
	data, err := json.Marshal(p)
	if err != nil {
		slog.Warn("pattern cache marshal failed", "user_id", p.UserID, "error", err)
		return
	}

	if err := c.client.Set(ctx, patternKey(p.UserID), data, c.ttl).Err(); err != nil {
		slog.Warn("pattern cache write failed", "user_id", p.UserID, "error", err)
		// A stale snapshot must not outlive a failed refresh; drop it
		// so readers fall through to the store.
		c.Invalidate(ctx, p.UserID)
	}
}

// Invalidate drops the cached snapshot for a user
func (c *PatternCache) Invalidate(ctx context.Context, userID string) {
	if err := c.client.Del(ctx, patternKey(userID)).Err(); err != nil {
		slog.Warn("pattern cache invalidation failed", "user_id", userID, "error", err)
	}
}

// HealthCheck verifies Redis connectivity
func (c *PatternCache) HealthCheck(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *PatternCache) Close() error {
	return c.client.Close()
}
