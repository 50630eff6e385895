package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dronewatch/internal/models"
)

// LiveCache keeps the most recent view of each drone in redis. Entries
// expire after the TTL, so the cache only ever answers with reasonably
// fresh state; the store stays authoritative.
type LiveCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns a redis-backed live cache.
func New(client *redis.Client, ttl time.Duration) *LiveCache {
	return &LiveCache{client: client, ttl: ttl}
}

func (c *LiveCache) key(serial string) string {
	return fmt.Sprintf("drones:live:%s", serial)
}

// SaveView caches the drone view under its serial.
func (c *LiveCache) SaveView(ctx context.Context, view models.DroneView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(view.Serial), data, c.ttl).Err()
}

// GetView returns the cached view, or (nil, nil) on a miss.
func (c *LiveCache) GetView(ctx context.Context, serial string) (*models.DroneView, error) {
	result, err := c.client.Get(ctx, c.key(serial)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var view models.DroneView
	if err := json.Unmarshal([]byte(result), &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// DeleteView removes the cached view.
func (c *LiveCache) DeleteView(ctx context.Context, serial string) error {
	return c.client.Del(ctx, c.key(serial)).Err()
}
