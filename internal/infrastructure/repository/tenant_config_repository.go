package repository

import (
	"context"
	"fmt"
	"time"

	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTenantConfigRepository persists per-tenant remote store
// credentials in MongoDB.
type MongoTenantConfigRepository struct {
	collection *mongo.Collection
}

// NewMongoTenantConfigRepository creates a new MongoDB tenant config repository.
func NewMongoTenantConfigRepository(db *mongo.Database) ports.TenantConfigRepository {
	return &MongoTenantConfigRepository{
		collection: db.Collection("tenant_configs"),
	}
}

// GetByTenantID retrieves the remote credentials for a tenant; nil when
// the tenant has no configured store.
func (r *MongoTenantConfigRepository) GetByTenantID(ctx context.Context, tenantID string) (*domain.TenantConfig, error) {
	var config domain.TenantConfig
	err := r.collection.FindOne(ctx, bson.M{"tenantId": tenantID}).Decode(&config)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant config: %w", err)
	}
	return &config, nil
}

// Upsert saves or updates a tenant's remote credentials.
func (r *MongoTenantConfigRepository) Upsert(ctx context.Context, config *domain.TenantConfig) error {
	config.UpdatedAt = time.Now()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = config.UpdatedAt
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"tenantId": config.TenantID}
	update := bson.M{"$set": config}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save tenant config: %w", err)
	}
	return nil
}

// Delete removes a tenant's remote credentials.
func (r *MongoTenantConfigRepository) Delete(ctx context.Context, tenantID string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"tenantId": tenantID}); err != nil {
		return fmt.Errorf("failed to delete tenant config: %w", err)
	}
	return nil
}
