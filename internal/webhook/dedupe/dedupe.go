// Package dedupe suppresses repeated deliveries of the same webhook event.
package dedupe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "callrouter:webhook:"

// RedisDeduper claims keys with SET NX so replicas share one view of which
// events have been processed.
type RedisDeduper struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedis creates a Redis-backed deduper whose claims expire after ttl.
func NewRedis(client redis.Cmdable, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

// Claim reports true the first time key is seen within the TTL.
func (d *RedisDeduper) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := d.client.SetNX(ctx, keyPrefix+key, time.Now().Unix(), d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", key, err)
	}
	return ok, nil
}

// Release forgets a claim so a later delivery is processed again.
func (d *RedisDeduper) Release(ctx context.Context, key string) error {
	if err := d.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	return nil
}

// MemoryDeduper is the single-process fallback used when Redis is not
// configured.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]time.Time
	ttl  time.Duration
	now  func() time.Time
}

// NewMemory creates an in-process deduper.
func NewMemory(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (d *MemoryDeduper) Claim(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	d.evict(now)
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = now.Add(d.ttl)
	return true, nil
}

func (d *MemoryDeduper) Release(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

func (d *MemoryDeduper) evict(now time.Time) {
	for k, exp := range d.seen {
		if !now.Before(exp) {
			delete(d.seen, k)
		}
	}
}
