// Package cache holds the revealed-plaintext caches. Entries live at most
// until the coupon's window closes; negative results are never stored.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"sealpay/internal/application/coupon/usecases"
	"sealpay/internal/shared/logger"
)

const revealKeyPrefix = "sealpay:reveal:"

// RedisRevealCache shares revealed plaintexts across instances so a repeat
// reveal anywhere skips the threshold network.
type RedisRevealCache struct {
	client *redis.Client
	logger logger.Interface
}

func NewRedisRevealCache(client *redis.Client, logger logger.Interface) *RedisRevealCache {
	return &RedisRevealCache{client: client, logger: logger}
}

var _ usecases.RevealCache = (*RedisRevealCache)(nil)

func (c *RedisRevealCache) Get(ctx context.Context, couponID string) (string, bool) {
	value, err := c.client.Get(ctx, revealKeyPrefix+couponID).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warnw("reveal cache read failed", "coupon_id", couponID, "error", err)
		}
		return "", false
	}
	return value, true
}

func (c *RedisRevealCache) Set(ctx context.Context, couponID, plaintext string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, revealKeyPrefix+couponID, plaintext, ttl).Err(); err != nil {
		c.logger.Warnw("reveal cache write failed", "coupon_id", couponID, "error", err)
	}
}

// MemoryRevealCache is the process-local fallback when redis is disabled.
type MemoryRevealCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	plaintext string
	expiresAt time.Time
}

func NewMemoryRevealCache() *MemoryRevealCache {
	return &MemoryRevealCache{entries: make(map[string]memoryEntry)}
}

var _ usecases.RevealCache = (*MemoryRevealCache)(nil)

func (c *MemoryRevealCache) Get(_ context.Context, couponID string) (string, bool) {
	c.mu.RLock()
	entry, ok := c.entries[couponID]
	c.mu.RUnlock()

	if !ok {
		return "", false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, couponID)
		c.mu.Unlock()
		return "", false
	}
	return entry.plaintext, true
}

func (c *MemoryRevealCache) Set(_ context.Context, couponID, plaintext string, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[couponID] = memoryEntry{
		plaintext: plaintext,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}
