package events

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// PayloadField is the stream entry field that holds the JSON event.
const PayloadField = "payload"

// RedisStreamPublisher appends events to a Redis stream named after the topic.
type RedisStreamPublisher struct {
	client redis.UniversalClient
	maxLen int64
}

// NewRedisStreamPublisher trims each stream to roughly maxLen entries; 0 disables trimming.
func NewRedisStreamPublisher(client redis.UniversalClient, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, maxLen: maxLen}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	args := &redis.XAddArgs{
		Stream: topic,
		Values: map[string]any{PayloadField: payload},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to publish to stream %s: %w", topic, err)
	}
	return nil
}
