package ports

import (
	"context"

	"meridian-core-woo-layer/internal/domain"
)

// EventBus receives domain event emissions. Fire-and-forget: no
// acknowledgment, no delivery guarantee beyond at-least-once.
type EventBus interface {
	Emit(ctx context.Context, event domain.Event)
}

// StatusNotifier pushes best-effort live run status to an external
// pub/sub. Implementations log publish failures and swallow them; a
// failed notification must never affect the sync outcome.
type StatusNotifier interface {
	Notify(ctx context.Context, notification domain.StatusNotification)
}

// SearchIndex mirrors entity records into an external search index.
// Index/Delete failures are logged by callers and never fatal.
type SearchIndex interface {
	Index(ctx context.Context, entity domain.EntityType, tenantID string, remoteID int64, record any) error
	Delete(ctx context.Context, entity domain.EntityType, tenantID string, remoteID int64) error
}
