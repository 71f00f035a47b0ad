package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/joshdurbin/shortlinks/internal/domain"
)

// RedisPublisher publishes notifications as JSON on a per-owner pub/sub channel
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher connects to Redis at addr and verifies the connection
func NewRedisPublisher(ctx context.Context, addr string) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisPublisher{client: client}, nil
}

// Channel returns the channel notifications for owner are published on
func Channel(owner uuid.UUID) string {
	return RedisChannelPrefix + owner.String()
}

func (p *RedisPublisher) Publish(ctx context.Context, n *domain.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := p.client.Publish(ctx, Channel(n.OwnerID), data).Err(); err != nil {
		return fmt.Errorf("failed to publish to Redis: %w", err)
	}
	return nil
}

func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

var _ Publisher = (*RedisPublisher)(nil)
