package stream

import (
	"context"
	"fmt"

	"herbal-market-backend/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// Topic is the Redis pub/sub channel carrying changed channel ids.
const Topic = "herbal-market:channel-updates"

type pubSubClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// RedisBridge fans change notifications out to every API instance. Each
// instance runs the bridge and re-notifies its own Hub.
type RedisBridge struct {
	client pubSubClient
	hub    *Hub
}

func NewRedisBridge(client *redis.Client, hub *Hub) *RedisBridge {
	return &RedisBridge{client: client, hub: hub}
}

// Publish announces the change on the shared topic. When Redis is unreachable
// local listeners are still notified and the publish error is returned.
func (b *RedisBridge) Publish(ctx context.Context, channelID string) error {
	if err := b.client.Publish(ctx, Topic, channelID).Err(); err != nil {
		_ = b.hub.Notify(ctx, channelID)
		return fmt.Errorf("stream: redis publish: %w", err)
	}
	return nil
}

// Run consumes the topic until ctx is done.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, Topic)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("stream: redis subscribe: %w", err)
	}
	logger.Log.Info("stream bridge subscribed", "topic", Topic)

	updates := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-updates:
			if !ok {
				return nil
			}
			_ = b.hub.Notify(ctx, msg.Payload)
		}
	}
}
