package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"timedquiz/internal/model"
)

// ResultCache keeps finalized sessions in Redis for a while after completion
type ResultCache interface {
	SaveResult(ctx context.Context, rec *model.SessionRecord) error
	GetResult(ctx context.Context, token string) (*model.SessionRecord, error)
}

type resultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache creates a new result cache
func NewResultCache(client *redis.Client, ttl time.Duration) ResultCache {
	return &resultCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *resultCache) key(token string) string {
	return fmt.Sprintf("result:%s", token)
}

func (c *resultCache) SaveResult(ctx context.Context, rec *model.SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(rec.Token), data, c.ttl).Err()
}

func (c *resultCache) GetResult(ctx context.Context, token string) (*model.SessionRecord, error) {
	data, err := c.client.Get(ctx, c.key(token)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec model.SessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
