package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis publishes events on a Redis channel so other instances (and the
// socket gateway) can relay them.
type Redis struct {
	client  *redis.Client
	channel string
}

func NewRedis(client *redis.Client, channel string) *Redis {
	return &Redis{client: client, channel: channel}
}

func (r *Redis) Publish(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", e.Type, err)
	}
	return nil
}
