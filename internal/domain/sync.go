package domain

import "time"

// SyncStatus is the lifecycle state of one sync execution.
type SyncStatus string

const (
	SyncStatusInProgress SyncStatus = "IN_PROGRESS"
	SyncStatusSuccess    SyncStatus = "SUCCESS"
	SyncStatusFailed     SyncStatus = "FAILED"
)

// String returns the string representation of the sync status.
func (s SyncStatus) String() string {
	return string(s)
}

// SyncState holds the incremental watermark for one (tenant, entity)
// pair. It is created on the first successful run and updated on every
// successful run after that.
type SyncState struct {
	TenantID     string     `json:"tenant_id" bson:"tenantId"`
	Entity       EntityType `json:"entity" bson:"entity"`
	LastSyncedAt time.Time  `json:"last_synced_at" bson:"lastSyncedAt"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updatedAt"`
}

// SyncLog is the append-only audit row for one sync execution. It is
// created IN_PROGRESS at run start and finalized exactly once.
type SyncLog struct {
	ID             string     `json:"id" bson:"_id"`
	TenantID       string     `json:"tenant_id" bson:"tenantId"`
	Entity         EntityType `json:"entity" bson:"entity"`
	Status         SyncStatus `json:"status" bson:"status"`
	Incremental    bool       `json:"incremental" bson:"incremental"`
	CorrelationID  string     `json:"correlation_id" bson:"correlationId"`
	ItemsProcessed int        `json:"items_processed" bson:"itemsProcessed"`
	ItemsSkipped   int        `json:"items_skipped" bson:"itemsSkipped"`
	ItemsDeleted   int        `json:"items_deleted" bson:"itemsDeleted"`
	Error          string     `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt      time.Time  `json:"started_at" bson:"startedAt"`
	FinishedAt     *time.Time `json:"finished_at,omitempty" bson:"finishedAt,omitempty"`
}

// AuditEntry records a write performed against the remote store on
// behalf of a tenant. Consumed externally; never read by the sync path.
type AuditEntry struct {
	TenantID  string     `json:"tenant_id" bson:"tenantId"`
	Actor     string     `json:"actor" bson:"actor"`
	Action    string     `json:"action" bson:"action"`
	Entity    EntityType `json:"entity" bson:"entity"`
	RemoteID  int64      `json:"remote_id" bson:"remoteId"`
	Payload   []byte     `json:"payload" bson:"payload"`
	CreatedAt time.Time  `json:"created_at" bson:"createdAt"`
}

// TenantConfig holds the remote API credentials for one tenant's store.
type TenantConfig struct {
	TenantID       string    `json:"tenant_id" bson:"tenantId"`
	StoreURL       string    `json:"store_url" bson:"storeUrl"`
	ConsumerKey    string    `json:"consumer_key" bson:"consumerKey"`
	ConsumerSecret string    `json:"consumer_secret" bson:"consumerSecret"`
	Enabled        bool      `json:"enabled" bson:"enabled"`
	CreatedAt      time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updatedAt"`
}
