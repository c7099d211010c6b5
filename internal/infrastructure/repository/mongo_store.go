package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/infrastructure/repository/entity"
	"meridian-core-woo-layer/internal/ports"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoStore implements the entity record Store using MongoDB. Each
// upsert batch goes through one ordered BulkWrite keyed on
// (tenantId, remoteId); callers keep batches small enough to stay under
// the server's operation ceiling.
type MongoStore struct {
	orders    *mongo.Collection
	products  *mongo.Collection
	customers *mongo.Collection
	reviews   *mongo.Collection
}

// NewMongoStore creates a new MongoDB entity store.
func NewMongoStore(db *mongo.Database) ports.Store {
	return &MongoStore{
		orders:    db.Collection("orders"),
		products:  db.Collection("products"),
		customers: db.Collection("customers"),
		reviews:   db.Collection("reviews"),
	}
}

func recordFilter(tenantID string, remoteID int64) bson.M {
	return bson.M{"tenantId": tenantID, "remoteId": remoteID}
}

func bulkUpsert(ctx context.Context, coll *mongo.Collection, tenantID string, models []mongo.WriteModel) error {
	if len(models) == 0 {
		return nil
	}
	_, err := coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("failed to bulk upsert into %s for tenant %s: %w", coll.Name(), tenantID, err)
	}
	return nil
}

func listRemoteIDs(ctx context.Context, coll *mongo.Collection, filter bson.M) ([]int64, error) {
	opts := options.Find().SetProjection(bson.M{"remoteId": 1})
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var ids []int64
	for cursor.Next(ctx) {
		var doc struct {
			RemoteID int64 `bson:"remoteId"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode %s id: %w", coll.Name(), err)
		}
		ids = append(ids, doc.RemoteID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return ids, nil
}

func deleteRemoteIDs(ctx context.Context, coll *mongo.Collection, tenantID string, remoteIDs []int64) error {
	if len(remoteIDs) == 0 {
		return nil
	}
	filter := bson.M{"tenantId": tenantID, "remoteId": bson.M{"$in": remoteIDs}}
	if _, err := coll.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", coll.Name(), err)
	}
	return nil
}

// Orders

// UpsertOrders saves or updates a batch of orders.
func (s *MongoStore) UpsertOrders(ctx context.Context, tenantID string, orders []*domain.Order) error {
	now := time.Now()
	models := make([]mongo.WriteModel, 0, len(orders))
	for _, order := range orders {
		doc := entity.MongoOrderDocFromDomain(order)
		doc.SyncedAt = now
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(recordFilter(tenantID, order.RemoteID)).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}
	return bulkUpsert(ctx, s.orders, tenantID, models)
}

// GetOrder retrieves one order by remote id; nil if absent.
func (s *MongoStore) GetOrder(ctx context.Context, tenantID string, remoteID int64) (*domain.Order, error) {
	var doc entity.MongoOrderDoc
	err := s.orders.FindOne(ctx, recordFilter(tenantID, remoteID)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return doc.ToDomain(), nil
}

// ListOrderIDs returns every stored remote order id for the tenant.
func (s *MongoStore) ListOrderIDs(ctx context.Context, tenantID string) ([]int64, error) {
	return listRemoteIDs(ctx, s.orders, bson.M{"tenantId": tenantID})
}

// FindOrdersCreatedBetween returns orders created in [from, to].
func (s *MongoStore) FindOrdersCreatedBetween(ctx context.Context, tenantID string, from, to time.Time) ([]*domain.Order, error) {
	filter := bson.M{
		"tenantId":  tenantID,
		"createdAt": bson.M{"$gte": from, "$lte": to},
	}
	cursor, err := s.orders.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}
	defer cursor.Close(ctx)

	var orders []*domain.Order
	for cursor.Next(ctx) {
		var doc entity.MongoOrderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode order: %w", err)
		}
		orders = append(orders, doc.ToDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return orders, nil
}

// DeleteOrders removes the given remote ids for the tenant.
func (s *MongoStore) DeleteOrders(ctx context.Context, tenantID string, remoteIDs []int64) error {
	return deleteRemoteIDs(ctx, s.orders, tenantID, remoteIDs)
}

// AggregateOrderCountsByCustomer groups the tenant's orders by their
// embedded remote customer id in one aggregation pass.
func (s *MongoStore) AggregateOrderCountsByCustomer(ctx context.Context, tenantID string) (map[int64]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"tenantId": tenantID, "customerId": bson.M{"$gt": 0}}}},
		{{Key: "$group", Value: bson.M{"_id": "$customerId", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.orders.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate order counts: %w", err)
	}
	defer cursor.Close(ctx)

	counts := make(map[int64]int)
	for cursor.Next(ctx) {
		var row struct {
			CustomerID int64 `bson:"_id"`
			Count      int   `bson:"count"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, fmt.Errorf("failed to decode aggregate row: %w", err)
		}
		counts[row.CustomerID] = row.Count
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return counts, nil
}

// Products

// UpsertProducts saves or updates a batch of products and variations.
func (s *MongoStore) UpsertProducts(ctx context.Context, tenantID string, products []*domain.Product) error {
	now := time.Now()
	models := make([]mongo.WriteModel, 0, len(products))
	for _, product := range products {
		doc := entity.MongoProductDocFromDomain(product)
		doc.SyncedAt = now
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(recordFilter(tenantID, product.RemoteID)).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}
	return bulkUpsert(ctx, s.products, tenantID, models)
}

// GetProduct retrieves one product by remote id; nil if absent.
func (s *MongoStore) GetProduct(ctx context.Context, tenantID string, remoteID int64) (*domain.Product, error) {
	var doc entity.MongoProductDoc
	err := s.products.FindOne(ctx, recordFilter(tenantID, remoteID)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.ToDomain(), nil
}

// ListProductIDs returns every stored remote product id for the tenant.
func (s *MongoStore) ListProductIDs(ctx context.Context, tenantID string) ([]int64, error) {
	return listRemoteIDs(ctx, s.products, bson.M{"tenantId": tenantID})
}

// ListProductIDsByParent returns the remote ids of stored variations of
// the given parent product.
func (s *MongoStore) ListProductIDsByParent(ctx context.Context, tenantID string, parentID int64) ([]int64, error) {
	return listRemoteIDs(ctx, s.products, bson.M{"tenantId": tenantID, "parentId": parentID})
}

// DeleteProducts removes the given remote ids for the tenant.
func (s *MongoStore) DeleteProducts(ctx context.Context, tenantID string, remoteIDs []int64) error {
	return deleteRemoteIDs(ctx, s.products, tenantID, remoteIDs)
}

// Customers

// UpsertCustomers saves or updates a batch of customers. The stored
// ordersCount is left alone here; the order sync owns that field.
func (s *MongoStore) UpsertCustomers(ctx context.Context, tenantID string, customers []*domain.Customer) error {
	now := time.Now()
	models := make([]mongo.WriteModel, 0, len(customers))
	for _, customer := range customers {
		doc := entity.MongoCustomerDocFromDomain(customer)
		doc.SyncedAt = now
		update := bson.M{"$set": doc}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(recordFilter(tenantID, customer.RemoteID)).
			SetUpdate(update).
			SetUpsert(true))
	}
	return bulkUpsert(ctx, s.customers, tenantID, models)
}

// GetCustomer retrieves one customer by remote id; nil if absent.
func (s *MongoStore) GetCustomer(ctx context.Context, tenantID string, remoteID int64) (*domain.Customer, error) {
	var doc entity.MongoCustomerDoc
	err := s.customers.FindOne(ctx, recordFilter(tenantID, remoteID)).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}
	return doc.ToDomain(), nil
}

// FindCustomerByEmail retrieves one customer by email, compared
// case-insensitively; nil if absent.
func (s *MongoStore) FindCustomerByEmail(ctx context.Context, tenantID string, email string) (*domain.Customer, error) {
	filter := bson.M{
		"tenantId": tenantID,
		"email":    bson.M{"$regex": "^" + regexp.QuoteMeta(email) + "$", "$options": "i"},
	}
	var doc entity.MongoCustomerDoc
	err := s.customers.FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find customer by email: %w", err)
	}
	return doc.ToDomain(), nil
}

// ListCustomerIDs returns every stored remote customer id for the tenant.
func (s *MongoStore) ListCustomerIDs(ctx context.Context, tenantID string) ([]int64, error) {
	return listRemoteIDs(ctx, s.customers, bson.M{"tenantId": tenantID})
}

// DeleteCustomers removes the given remote ids for the tenant.
func (s *MongoStore) DeleteCustomers(ctx context.Context, tenantID string, remoteIDs []int64) error {
	return deleteRemoteIDs(ctx, s.customers, tenantID, remoteIDs)
}

// BulkUpdateCustomerOrderCounts writes every customer's recomputed
// order count in a single bulk operation.
func (s *MongoStore) BulkUpdateCustomerOrderCounts(ctx context.Context, tenantID string, counts map[int64]int) error {
	if len(counts) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(counts))
	for customerID, count := range counts {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(recordFilter(tenantID, customerID)).
			SetUpdate(bson.M{"$set": bson.M{"ordersCount": count}}))
	}
	if _, err := s.customers.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("failed to bulk update customer order counts: %w", err)
	}
	return nil
}

// Reviews

// UpsertReviews saves or updates a batch of reviews.
func (s *MongoStore) UpsertReviews(ctx context.Context, tenantID string, reviews []*domain.Review) error {
	now := time.Now()
	models := make([]mongo.WriteModel, 0, len(reviews))
	for _, review := range reviews {
		doc := entity.MongoReviewDocFromDomain(review)
		doc.SyncedAt = now
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(recordFilter(tenantID, review.RemoteID)).
			SetUpdate(bson.M{"$set": doc}).
			SetUpsert(true))
	}
	return bulkUpsert(ctx, s.reviews, tenantID, models)
}

// ListReviewIDs returns every stored remote review id for the tenant.
func (s *MongoStore) ListReviewIDs(ctx context.Context, tenantID string) ([]int64, error) {
	return listRemoteIDs(ctx, s.reviews, bson.M{"tenantId": tenantID})
}

// DeleteReviews removes the given remote ids for the tenant.
func (s *MongoStore) DeleteReviews(ctx context.Context, tenantID string, remoteIDs []int64) error {
	return deleteRemoteIDs(ctx, s.reviews, tenantID, remoteIDs)
}

