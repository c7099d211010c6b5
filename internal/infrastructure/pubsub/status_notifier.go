// Package pubsub carries best-effort fan-out to Redis: live sync status
// for UI consumption and domain event emission for downstream
// automations. Publish failures are logged and swallowed; nothing in
// here may affect a sync run's outcome.
package pubsub

import (
	"context"
	"encoding/json"

	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const statusChannelPrefix = "sync.status."

// RedisStatusNotifier publishes sync run status to a per-tenant Redis
// channel for live UI subscribers.
type RedisStatusNotifier struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStatusNotifier creates a new Redis status notifier.
func NewRedisStatusNotifier(client *redis.Client, logger zerolog.Logger) ports.StatusNotifier {
	return &RedisStatusNotifier{client: client, logger: logger}
}

// Notify publishes one status notification. Failures are logged and
// dropped.
func (n *RedisStatusNotifier) Notify(ctx context.Context, notification domain.StatusNotification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		n.logger.Error().Err(err).Msg("Failed to marshal status notification")
		return
	}

	channel := statusChannelPrefix + notification.TenantID
	if err := n.client.Publish(ctx, channel, payload).Err(); err != nil {
		n.logger.Warn().Err(err).
			Str("channel", channel).
			Str("phase", string(notification.Phase)).
			Msg("Failed to publish status notification")
	}
}
