package pubsub

import (
	"context"
	"encoding/json"

	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const eventChannelPrefix = "sync.events."

// RedisEventBus publishes domain events to a per-tenant Redis channel.
// Fire-and-forget, at-least-once: subscribers must tolerate duplicates
// and gaps.
type RedisEventBus struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisEventBus creates a new Redis event bus publisher.
func NewRedisEventBus(client *redis.Client, logger zerolog.Logger) ports.EventBus {
	return &RedisEventBus{client: client, logger: logger}
}

// Emit publishes one domain event. Failures are logged and dropped.
func (b *RedisEventBus) Emit(ctx context.Context, event domain.Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error().Err(err).Str("event", event.Name).Msg("Failed to marshal domain event")
		return
	}

	channel := eventChannelPrefix + event.TenantID
	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		b.logger.Warn().Err(err).
			Str("channel", channel).
			Str("event", event.Name).
			Msg("Failed to publish domain event")
	}
}
