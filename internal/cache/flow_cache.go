package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"flowtune/internal/model"
)

// FlowCache keeps the recent flow samples per player as a capped Redis list
type FlowCache interface {
	PushSample(ctx context.Context, playerID string, m *model.FlowStateMetrics, limit int) error
	History(ctx context.Context, playerID string, limit int) ([]model.FlowStateMetrics, error)
	Delete(ctx context.Context, playerID string) error
}

type flowCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewFlowCache creates a new flow cache
func NewFlowCache(client *redis.Client) FlowCache {
	return &flowCache{
		client: client,
		ttl:    24 * time.Hour,
	}
}

func (c *flowCache) key(playerID string) string {
	return fmt.Sprintf("player:%s:flow", playerID)
}

func (c *flowCache) PushSample(ctx context.Context, playerID string, m *model.FlowStateMetrics, limit int) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	key := c.key(playerID)
	pipe := c.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, int64(limit-1))
	pipe.Expire(ctx, key, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// History returns samples newest first.
func (c *flowCache) History(ctx context.Context, playerID string, limit int) ([]model.FlowStateMetrics, error) {
	items, err := c.client.LRange(ctx, c.key(playerID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}
	samples := make([]model.FlowStateMetrics, 0, len(items))
	for _, item := range items {
		var m model.FlowStateMetrics
		if err := json.Unmarshal([]byte(item), &m); err != nil {
			continue
		}
		samples = append(samples, m)
	}
	return samples, nil
}

func (c *flowCache) Delete(ctx context.Context, playerID string) error {
	return c.client.Del(ctx, c.key(playerID)).Err()
}
