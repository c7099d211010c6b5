package ports

import (
	"context"
	"time"

	"meridian-core-woo-layer/internal/domain"
)

// Store is the persistence interface for mirrored entity records.
// Upserts are keyed by (tenant, remoteId) and must be idempotent;
// batched calls are expected to stay small (the strategies sub-batch)
// so a single call fits inside the platform's transaction ceiling.
type Store interface {
	// Orders
	UpsertOrders(ctx context.Context, tenantID string, orders []*domain.Order) error
	GetOrder(ctx context.Context, tenantID string, remoteID int64) (*domain.Order, error)
	ListOrderIDs(ctx context.Context, tenantID string) ([]int64, error)
	FindOrdersCreatedBetween(ctx context.Context, tenantID string, from, to time.Time) ([]*domain.Order, error)
	DeleteOrders(ctx context.Context, tenantID string, remoteIDs []int64) error
	// AggregateOrderCountsByCustomer groups the tenant's order records by
	// their embedded remote customer id in a single query.
	AggregateOrderCountsByCustomer(ctx context.Context, tenantID string) (map[int64]int, error)

	// Products
	UpsertProducts(ctx context.Context, tenantID string, products []*domain.Product) error
	GetProduct(ctx context.Context, tenantID string, remoteID int64) (*domain.Product, error)
	ListProductIDs(ctx context.Context, tenantID string) ([]int64, error)
	// ListProductIDsByParent returns the remote ids of locally stored
	// variations of the given parent product.
	ListProductIDsByParent(ctx context.Context, tenantID string, parentID int64) ([]int64, error)
	DeleteProducts(ctx context.Context, tenantID string, remoteIDs []int64) error

	// Customers
	UpsertCustomers(ctx context.Context, tenantID string, customers []*domain.Customer) error
	GetCustomer(ctx context.Context, tenantID string, remoteID int64) (*domain.Customer, error)
	FindCustomerByEmail(ctx context.Context, tenantID string, email string) (*domain.Customer, error)
	ListCustomerIDs(ctx context.Context, tenantID string) ([]int64, error)
	DeleteCustomers(ctx context.Context, tenantID string, remoteIDs []int64) error
	BulkUpdateCustomerOrderCounts(ctx context.Context, tenantID string, counts map[int64]int) error

	// Reviews
	UpsertReviews(ctx context.Context, tenantID string, reviews []*domain.Review) error
	ListReviewIDs(ctx context.Context, tenantID string) ([]int64, error)
	DeleteReviews(ctx context.Context, tenantID string, remoteIDs []int64) error
}

// SyncStateRepository persists watermarks and the append-only run log.
type SyncStateRepository interface {
	GetWatermark(ctx context.Context, tenantID string, entity domain.EntityType) (time.Time, error)
	SetWatermark(ctx context.Context, tenantID string, entity domain.EntityType, at time.Time) error

	CreateSyncLog(ctx context.Context, log *domain.SyncLog) error
	// FinalizeSyncLog records the terminal status of a run. Finalized
	// rows are never mutated again.
	FinalizeSyncLog(ctx context.Context, log *domain.SyncLog) error
}

// AuditLog records writes performed against the remote store.
type AuditLog interface {
	Append(ctx context.Context, entry *domain.AuditEntry) error
}

// TenantConfigRepository persists per-tenant remote API credentials.
type TenantConfigRepository interface {
	GetByTenantID(ctx context.Context, tenantID string) (*domain.TenantConfig, error)
	Upsert(ctx context.Context, config *domain.TenantConfig) error
	Delete(ctx context.Context, tenantID string) error
}
