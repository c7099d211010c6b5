package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	gosync "sync"
	"time"

	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"
)

const testTenant = "tenant-1"

const wooTimeLayout = "2006-01-02T15:04:05"

// fakeClient serves canned listing pages keyed by resource path.
type fakeClient struct {
	mu        gosync.Mutex
	pages     map[string][][]json.RawMessage
	listCalls map[string]int
	lastAfter map[string]*time.Time
	listErr   error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		pages:     make(map[string][][]json.RawMessage),
		listCalls: make(map[string]int),
		lastAfter: make(map[string]*time.Time),
	}
}

func (c *fakeClient) List(ctx context.Context, path string, opts ports.ListOptions) (*ports.ListResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listErr != nil {
		return nil, c.listErr
	}

	c.listCalls[path]++
	c.lastAfter[path] = opts.After

	pages := c.pages[path]
	if len(pages) == 0 {
		return &ports.ListResult{TotalPages: 1}, nil
	}
	var items []json.RawMessage
	if idx := opts.Page - 1; idx >= 0 && idx < len(pages) {
		items = pages[idx]
	}
	return &ports.ListResult{Items: items, TotalPages: len(pages)}, nil
}

func (c *fakeClient) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeClient) Update(ctx context.Context, path string, payload json.RawMessage) (json.RawMessage, error) {
	return nil, errors.New("not implemented")
}

// fakeStore is an in-memory ports.Store for one tenant.
type fakeStore struct {
	mu          gosync.Mutex
	orders      map[int64]*domain.Order
	products    map[int64]*domain.Product
	customers   map[int64]*domain.Customer
	reviews     map[int64]*domain.Review
	countsCalls int
	upsertErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:    make(map[int64]*domain.Order),
		products:  make(map[int64]*domain.Product),
		customers: make(map[int64]*domain.Customer),
		reviews:   make(map[int64]*domain.Review),
	}
}

func (s *fakeStore) UpsertOrders(ctx context.Context, tenantID string, orders []*domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	for _, order := range orders {
		copied := *order
		s.orders[order.RemoteID] = &copied
	}
	return nil
}

func (s *fakeStore) GetOrder(ctx context.Context, tenantID string, remoteID int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.orders[remoteID]; ok {
		copied := *order
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) ListOrderIDs(ctx context.Context, tenantID string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id := range s.orders {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) FindOrdersCreatedBetween(ctx context.Context, tenantID string, from, to time.Time) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var orders []*domain.Order
	for _, order := range s.orders {
		if !order.CreatedAt.Before(from) && !order.CreatedAt.After(to) {
			copied := *order
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (s *fakeStore) DeleteOrders(ctx context.Context, tenantID string, remoteIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range remoteIDs {
		delete(s.orders, id)
	}
	return nil
}

func (s *fakeStore) AggregateOrderCountsByCustomer(ctx context.Context, tenantID string) (map[int64]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[int64]int)
	for _, order := range s.orders {
		if order.CustomerID > 0 {
			counts[order.CustomerID]++
		}
	}
	return counts, nil
}

func (s *fakeStore) UpsertProducts(ctx context.Context, tenantID string, products []*domain.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	for _, product := range products {
		copied := *product
		s.products[product.RemoteID] = &copied
	}
	return nil
}

func (s *fakeStore) GetProduct(ctx context.Context, tenantID string, remoteID int64) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if product, ok := s.products[remoteID]; ok {
		copied := *product
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) ListProductIDs(ctx context.Context, tenantID string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id := range s.products {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) ListProductIDsByParent(ctx context.Context, tenantID string, parentID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id, product := range s.products {
		if product.ParentID == parentID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *fakeStore) DeleteProducts(ctx context.Context, tenantID string, remoteIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range remoteIDs {
		delete(s.products, id)
	}
	return nil
}

func (s *fakeStore) UpsertCustomers(ctx context.Context, tenantID string, customers []*domain.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	for _, customer := range customers {
		copied := *customer
		s.customers[customer.RemoteID] = &copied
	}
	return nil
}

func (s *fakeStore) GetCustomer(ctx context.Context, tenantID string, remoteID int64) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if customer, ok := s.customers[remoteID]; ok {
		copied := *customer
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) FindCustomerByEmail(ctx context.Context, tenantID string, email string) (*domain.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, customer := range s.customers {
		if strings.EqualFold(customer.Email, email) {
			copied := *customer
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListCustomerIDs(ctx context.Context, tenantID string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id := range s.customers {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) DeleteCustomers(ctx context.Context, tenantID string, remoteIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range remoteIDs {
		delete(s.customers, id)
	}
	return nil
}

func (s *fakeStore) BulkUpdateCustomerOrderCounts(ctx context.Context, tenantID string, counts map[int64]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.countsCalls++
	for customerID, count := range counts {
		if customer, ok := s.customers[customerID]; ok {
			customer.OrdersCount = count
		}
	}
	return nil
}

func (s *fakeStore) UpsertReviews(ctx context.Context, tenantID string, reviews []*domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	for _, review := range reviews {
		copied := *review
		s.reviews[review.RemoteID] = &copied
	}
	return nil
}

func (s *fakeStore) ListReviewIDs(ctx context.Context, tenantID string) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []int64
	for id := range s.reviews {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *fakeStore) DeleteReviews(ctx context.Context, tenantID string, remoteIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range remoteIDs {
		delete(s.reviews, id)
	}
	return nil
}

// fakeStates keeps watermarks and sync logs in memory.
type fakeStates struct {
	mu         gosync.Mutex
	watermarks map[string]time.Time
	logs       []*domain.SyncLog
}

func newFakeStates() *fakeStates {
	return &fakeStates{watermarks: make(map[string]time.Time)}
}

func stateKey(tenantID string, entity domain.EntityType) string {
	return tenantID + "/" + entity.String()
}

func (s *fakeStates) GetWatermark(ctx context.Context, tenantID string, entity domain.EntityType) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.watermarks[stateKey(tenantID, entity)], nil
}

func (s *fakeStates) SetWatermark(ctx context.Context, tenantID string, entity domain.EntityType, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watermarks[stateKey(tenantID, entity)] = at
	return nil
}

func (s *fakeStates) CreateSyncLog(ctx context.Context, log *domain.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *log
	s.logs = append(s.logs, &copied)
	return nil
}

func (s *fakeStates) FinalizeSyncLog(ctx context.Context, log *domain.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.logs {
		if existing.ID == log.ID {
			copied := *log
			s.logs[i] = &copied
			return nil
		}
	}
	return fmt.Errorf("sync log %s not found", log.ID)
}

// fakeBus collects emitted events.
type fakeBus struct {
	mu     gosync.Mutex
	events []domain.Event
}

func (b *fakeBus) Emit(ctx context.Context, event domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *fakeBus) named(name string) []domain.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.Event
	for _, event := range b.events {
		if event.Name == name {
			out = append(out, event)
		}
	}
	return out
}

// fakeIndex records index writes and deletes; it can be told to fail.
type fakeIndex struct {
	mu       gosync.Mutex
	indexed  map[string]any
	deleted  []string
	indexErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: make(map[string]any)}
}

func idxKey(entity domain.EntityType, tenantID string, remoteID int64) string {
	return fmt.Sprintf("%s/%s/%d", tenantID, entity, remoteID)
}

func (i *fakeIndex) Index(ctx context.Context, entity domain.EntityType, tenantID string, remoteID int64, record any) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.indexErr != nil {
		return i.indexErr
	}
	i.indexed[idxKey(entity, tenantID, remoteID)] = record
	return nil
}

func (i *fakeIndex) Delete(ctx context.Context, entity domain.EntityType, tenantID string, remoteID int64) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.deleted = append(i.deleted, idxKey(entity, tenantID, remoteID))
	return nil
}

// fakeNotifier collects status notifications.
type fakeNotifier struct {
	mu            gosync.Mutex
	notifications []domain.StatusNotification
}

func (n *fakeNotifier) Notify(ctx context.Context, notification domain.StatusNotification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

func (n *fakeNotifier) phases() []domain.SyncPhase {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []domain.SyncPhase
	for _, notification := range n.notifications {
		out = append(out, notification.Phase)
	}
	return out
}

// fakeJob reports progress and optionally goes inactive after a number
// of progress updates.
type fakeJob struct {
	mu          gosync.Mutex
	progress    []int
	cancelAfter int // 0 means never cancel
}

func (j *fakeJob) UpdateProgress(percent int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.progress = append(j.progress, percent)
}

func (j *fakeJob) IsActive() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cancelAfter == 0 || len(j.progress) < j.cancelAfter
}

// JSON payload builders in the remote store's wire shape.

func orderJSON(id int64, status string, created time.Time, customerID int64, email string, productID int64) json.RawMessage {
	return mustJSON(map[string]any{
		"id":            id,
		"number":        fmt.Sprintf("%d", id),
		"status":        status,
		"currency":      "USD",
		"total":         "42.00",
		"customer_id":   customerID,
		"date_created":  created.Format(wooTimeLayout),
		"date_modified": created.Format(wooTimeLayout),
		"billing": map[string]any{
			"email":      email,
			"first_name": "Jo",
			"last_name":  "Doe",
		},
		"line_items": []map[string]any{
			{"product_id": productID, "name": "Widget", "quantity": 1, "total": "42.00"},
		},
	})
}

func productJSON(id int64, name, productType string) json.RawMessage {
	return mustJSON(map[string]any{
		"id":                id,
		"name":              name,
		"type":              productType,
		"status":            "publish",
		"sku":               fmt.Sprintf("SKU-%d", id),
		"price":             "19.00",
		"description":       strings.Repeat("great product ", 10),
		"short_description": "great",
		"images":            []map[string]any{{"src": "https://cdn.example/img.jpg"}},
		"categories":        []map[string]any{{"name": "widgets"}},
		"stock_status":      "instock",
		"date_created":      "2026-01-05T10:00:00",
		"date_modified":     "2026-01-06T10:00:00",
	})
}

func variationJSON(id int64, sku string) json.RawMessage {
	return mustJSON(map[string]any{
		"id":            id,
		"sku":           sku,
		"price":         "21.00",
		"status":        "publish",
		"stock_status":  "instock",
		"date_created":  "2026-01-05T10:00:00",
		"date_modified": "2026-01-06T10:00:00",
	})
}

func customerJSON(id int64, email string) json.RawMessage {
	return mustJSON(map[string]any{
		"id":            id,
		"email":         email,
		"first_name":    "Jo",
		"last_name":     "Doe",
		"username":      fmt.Sprintf("user%d", id),
		"date_created":  "2026-01-02T09:00:00",
		"date_modified": "2026-01-02T09:00:00",
	})
}

func reviewJSON(id, productID int64, reviewer, email string, rating int, created time.Time) json.RawMessage {
	return mustJSON(map[string]any{
		"id":             id,
		"product_id":     productID,
		"reviewer":       reviewer,
		"reviewer_email": email,
		"rating":         rating,
		"review":         "Love it",
		"verified":       true,
		"date_created":   created.Format(wooTimeLayout),
	})
}

func mustJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}
