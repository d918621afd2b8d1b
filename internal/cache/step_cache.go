package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"quizfunnel/internal/model"
	"time"

	"github.com/redis/go-redis/v9"
)

// StepCache keeps each quiz's ordered step catalog in Redis
type StepCache interface {
	Get(ctx context.Context, quizID string) ([]*model.Step, error)
	Set(ctx context.Context, quizID string, steps []*model.Step) error
	Invalidate(ctx context.Context, quizID string) error
}

type stepCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStepCache creates a new step catalog cache
func NewStepCache(client *redis.Client, ttl time.Duration) StepCache {
	return &stepCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *stepCache) key(quizID string) string {
	return fmt.Sprintf("quiz:%s:steps", quizID)
}

// Get returns nil, nil on a cache miss
func (c *stepCache) Get(ctx context.Context, quizID string) ([]*model.Step, error) {
	data, err := c.client.Get(ctx, c.key(quizID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var steps []*model.Step
	if err := json.Unmarshal([]byte(data), &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

func (c *stepCache) Set(ctx context.Context, quizID string, steps []*model.Step) error {
	data, err := json.Marshal(steps)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(quizID), data, c.ttl).Err()
}

func (c *stepCache) Invalidate(ctx context.Context, quizID string) error {
	return c.client.Del(ctx, c.key(quizID)).Err()
}
