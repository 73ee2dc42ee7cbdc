package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oakyard/oakyard/config"
	"github.com/oakyard/oakyard/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client    *redis.Client
	spacesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, spacesTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:    redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		spacesTTL: spacesTTL,
	}
}

func (c *RedisCache) GetSpaces(ctx context.Context) ([]domain.Space, error) {
	data, err := c.client.Get(ctx, spacesKey()).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var spaces []domain.Space
	if err := json.Unmarshal(data, &spaces); err != nil {
		return nil, err
	}
	return spaces, nil
}

func (c *RedisCache) SetSpaces(ctx context.Context, spaces []domain.Space) error {
	payload, err := json.Marshal(spaces)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, spacesKey(), payload, c.spacesTTL).Err()
}

func (c *RedisCache) InvalidateSpaces(ctx context.Context) error {
	return c.client.Del(ctx, spacesKey()).Err()
}

// AcquireSpaceLock takes the cross-instance hold on a space while its
// conflict-check-then-insert runs. SetNX keeps it exclusive; the TTL keeps a
// crashed holder from wedging the space forever.
func (c *RedisCache) AcquireSpaceLock(ctx context.Context, spaceID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, spaceLockKey(spaceID), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSpaceLock(ctx context.Context, spaceID string) error {
	return c.client.Del(ctx, spaceLockKey(spaceID)).Err()
}

func spacesKey() string {
	return "cache:spaces"
}

func spaceLockKey(spaceID string) string {
	return fmt.Sprintf("lock:space:%s", spaceID)
}
