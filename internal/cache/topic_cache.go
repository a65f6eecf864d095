package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TopicTimeCache handles Redis HASH operations for per-topic totals
type TopicTimeCache interface {
	SetTotal(ctx context.Context, userID, topicID string, total int) error
	GetTotal(ctx context.Context, userID, topicID string) (int, bool, error)
}

type topicTimeCache struct {
	client *redis.Client
}

// NewTopicTimeCache creates a new topic time cache
func NewTopicTimeCache(client *redis.Client) TopicTimeCache {
	return &topicTimeCache{
		client: client,
	}
}

func (c *topicTimeCache) key(userID string) string {
	return fmt.Sprintf("user:%s:topics", userID)
}

func (c *topicTimeCache) SetTotal(ctx context.Context, userID, topicID string, total int) error {
	return c.client.HSet(ctx, c.key(userID), topicID, total).Err()
}

func (c *topicTimeCache) GetTotal(ctx context.Context, userID, topicID string) (int, bool, error) {
	total, err := c.client.HGet(ctx, c.key(userID), topicID).Int()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return total, true, nil
}
