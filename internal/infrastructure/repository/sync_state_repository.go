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

// MongoSyncStateRepository persists watermarks and the append-only sync
// run log in MongoDB.
type MongoSyncStateRepository struct {
	states *mongo.Collection
	logs   *mongo.Collection
}

// NewMongoSyncStateRepository creates a new MongoDB sync state repository.
func NewMongoSyncStateRepository(db *mongo.Database) ports.SyncStateRepository {
	return &MongoSyncStateRepository{
		states: db.Collection("sync_state"),
		logs:   db.Collection("sync_logs"),
	}
}

// GetWatermark returns the last successful sync time for the pair, or
// the zero time when no run has succeeded yet.
func (r *MongoSyncStateRepository) GetWatermark(ctx context.Context, tenantID string, entity domain.EntityType) (time.Time, error) {
	filter := bson.M{"tenantId": tenantID, "entity": entity.String()}

	var state domain.SyncState
	err := r.states.FindOne(ctx, filter).Decode(&state)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get sync state: %w", err)
	}
	return state.LastSyncedAt, nil
}

// SetWatermark records the watermark for the pair, creating the state
// row on the first successful run.
func (r *MongoSyncStateRepository) SetWatermark(ctx context.Context, tenantID string, entity domain.EntityType, at time.Time) error {
	filter := bson.M{"tenantId": tenantID, "entity": entity.String()}
	update := bson.M{"$set": bson.M{
		"lastSyncedAt": at,
		"updatedAt":    time.Now(),
	}}
	opts := options.Update().SetUpsert(true)

	if _, err := r.states.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to set sync state: %w", err)
	}
	return nil
}

// CreateSyncLog inserts the IN_PROGRESS row for a new run.
func (r *MongoSyncStateRepository) CreateSyncLog(ctx context.Context, log *domain.SyncLog) error {
	if _, err := r.logs.InsertOne(ctx, log); err != nil {
		return fmt.Errorf("failed to create sync log: %w", err)
	}
	return nil
}

// FinalizeSyncLog writes the terminal status of a run. Rows are never
// touched again after this.
func (r *MongoSyncStateRepository) FinalizeSyncLog(ctx context.Context, log *domain.SyncLog) error {
	update := bson.M{"$set": bson.M{
		"status":         log.Status.String(),
		"itemsProcessed": log.ItemsProcessed,
		"itemsSkipped":   log.ItemsSkipped,
		"itemsDeleted":   log.ItemsDeleted,
		"error":          log.Error,
		"finishedAt":     log.FinishedAt,
	}}
	if _, err := r.logs.UpdateOne(ctx, bson.M{"_id": log.ID}, update); err != nil {
		return fmt.Errorf("failed to finalize sync log: %w", err)
	}
	return nil
}

// MongoAuditLog appends remote-write audit entries to MongoDB.
type MongoAuditLog struct {
	collection *mongo.Collection
}

// NewMongoAuditLog creates a new MongoDB audit log.
func NewMongoAuditLog(db *mongo.Database) ports.AuditLog {
	return &MongoAuditLog{collection: db.Collection("audit_logs")}
}

// Append inserts one audit entry.
func (l *MongoAuditLog) Append(ctx context.Context, entry *domain.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if _, err := l.collection.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}
	return nil
}
