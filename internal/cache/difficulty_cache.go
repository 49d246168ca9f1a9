package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"flowtune/internal/model"
)

// DifficultyCache publishes the live per-player difficulty read model for
// AI and game-rule consumers
type DifficultyCache interface {
	SetDifficulty(ctx context.Context, playerID string, d *model.DifficultyMetrics) error
	GetDifficulty(ctx context.Context, playerID string) (*model.DifficultyMetrics, error)
	Delete(ctx context.Context, playerID string) error
}

type difficultyCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDifficultyCache creates a new difficulty cache
func NewDifficultyCache(client *redis.Client) DifficultyCache {
	return &difficultyCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *difficultyCache) key(playerID string) string {
	return fmt.Sprintf("player:%s:difficulty", playerID)
}

func (c *difficultyCache) SetDifficulty(ctx context.Context, playerID string, d *model.DifficultyMetrics) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(playerID), data, c.ttl).Err()
}

func (c *difficultyCache) GetDifficulty(ctx context.Context, playerID string) (*model.DifficultyMetrics, error) {
	data, err := c.client.Get(ctx, c.key(playerID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var d model.DifficultyMetrics
	if err := json.Unmarshal([]byte(data), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *difficultyCache) Delete(ctx context.Context, playerID string) error {
	return c.client.Del(ctx, c.key(playerID)).Err()
}
