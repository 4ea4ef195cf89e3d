package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes events on per-person pub/sub channels.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a publisher on the given client.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Channel returns the channel carrying events about personID.
func Channel(personID uint) string {
	return fmt.Sprintf("events:person:%d", personID)
}

// Publish sends the event to the subject's channel.
func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.rdb.Publish(ctx, Channel(event.SubjectID), payload).Err()
}

// Close is a no-op; the client is owned by the caller.
func (p *RedisPublisher) Close() error { return nil }
