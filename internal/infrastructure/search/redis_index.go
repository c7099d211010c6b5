// Package search mirrors entity records into Redis as a lightweight
// search/read index. The index is a best-effort downstream copy of the
// store: writes here never gate the authoritative upsert.
package search

import (
	"context"
	"encoding/json"
	"fmt"

	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisIndex stores one JSON document per (tenant, entity, remoteId)
// under "idx:<tenant>:<entity>:<remoteId>".
type RedisIndex struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisIndex creates a new Redis-backed search index adapter.
func NewRedisIndex(client *redis.Client, logger zerolog.Logger) ports.SearchIndex {
	return &RedisIndex{client: client, logger: logger}
}

func indexKey(entity domain.EntityType, tenantID string, remoteID int64) string {
	return fmt.Sprintf("idx:%s:%s:%d", tenantID, entity, remoteID)
}

// Index writes or replaces a record's index document.
func (i *RedisIndex) Index(ctx context.Context, entity domain.EntityType, tenantID string, remoteID int64, record any) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal index document: %w", err)
	}
	if err := i.client.Set(ctx, indexKey(entity, tenantID, remoteID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to index %s %d: %w", entity, remoteID, err)
	}
	return nil
}

// Delete removes a record's index document. Deleting an absent key is
// not an error.
func (i *RedisIndex) Delete(ctx context.Context, entity domain.EntityType, tenantID string, remoteID int64) error {
	if err := i.client.Del(ctx, indexKey(entity, tenantID, remoteID)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s %d from index: %w", entity, remoteID, err)
	}
	return nil
}
