package domain

import "time"

// Domain event names emitted during sync. Emission is fire-and-forget,
// at-least-once; consumers must tolerate duplicates.
const (
	EventOrderSynced    = "order.synced"
	EventOrderCreated   = "order.created"
	EventOrderCompleted = "order.completed"
	EventProductSynced  = "product.synced"
	EventCustomerSynced = "customer.synced"
	EventReviewSynced   = "review.synced"
	EventReviewMatched  = "review.matched"
)

// Event is a domain event published to the external event bus.
type Event struct {
	Name       string     `json:"name"`
	TenantID   string     `json:"tenant_id"`
	Entity     EntityType `json:"entity"`
	RemoteID   int64      `json:"remote_id"`
	Payload    any        `json:"payload,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// SyncPhase is the lifecycle phase carried by a status notification.
type SyncPhase string

const (
	SyncPhaseStarted   SyncPhase = "started"
	SyncPhaseCompleted SyncPhase = "completed"
	SyncPhaseFailed    SyncPhase = "failed"
)

// StatusNotification is the best-effort live status pushed to the
// external pub/sub for UI consumption. Delivery failures never affect
// the sync's own outcome.
type StatusNotification struct {
	TenantID       string     `json:"tenant_id"`
	Entity         EntityType `json:"entity"`
	RunID          string     `json:"run_id"`
	CorrelationID  string     `json:"correlation_id"`
	Phase          SyncPhase  `json:"phase"`
	Incremental    bool       `json:"incremental"`
	ItemsProcessed int        `json:"items_processed,omitempty"`
	ItemsDeleted   int        `json:"items_deleted,omitempty"`
	Error          string     `json:"error,omitempty"`
	At             time.Time  `json:"at"`
}
