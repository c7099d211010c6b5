package domain

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// EntityType identifies one of the mirrored remote record kinds.
type EntityType string

const (
	EntityOrder    EntityType = "order"
	EntityProduct  EntityType = "product"
	EntityCustomer EntityType = "customer"
	EntityReview   EntityType = "review"
)

// IsValid returns true if the entity type is one of the mirrored kinds.
func (t EntityType) IsValid() bool {
	switch t {
	case EntityOrder, EntityProduct, EntityCustomer, EntityReview:
		return true
	default:
		return false
	}
}

// String returns the string representation of the entity type.
func (t EntityType) String() string {
	return string(t)
}

// LineItem is a single purchased line inside an order.
type LineItem struct {
	ProductID   int64           `json:"product_id"`
	VariationID int64           `json:"variation_id"`
	Name        string          `json:"name"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// Order is the local mirror of a remote store order. Identity is
// (TenantID, RemoteID); Raw preserves the full remote payload for
// downstream consumers.
type Order struct {
	TenantID         string          `json:"tenant_id"`
	RemoteID         int64           `json:"remote_id"`
	Number           string          `json:"number"`
	Status           string          `json:"status"`
	Currency         string          `json:"currency"`
	Total            decimal.Decimal `json:"total"`
	CustomerID       int64           `json:"customer_id"`
	BillingEmail     string          `json:"billing_email"`
	BillingFirstName string          `json:"billing_first_name"`
	BillingLastName  string          `json:"billing_last_name"`
	LineItems        []LineItem      `json:"line_items"`
	CreatedAt        time.Time       `json:"created_at"`
	ModifiedAt       time.Time       `json:"modified_at"`
	Raw              json.RawMessage `json:"raw"`
}

// IsCompleted returns true if the order has reached its terminal
// fulfilled status on the remote side.
func (o *Order) IsCompleted() bool {
	return o.Status == OrderStatusCompleted
}

// OrderStatusCompleted is the remote status string for fulfilled orders.
const OrderStatusCompleted = "completed"

// Product mirrors a remote catalog product. Variations of a variable
// product are stored as product rows with ParentID set to the parent's
// remote id.
type Product struct {
	TenantID         string          `json:"tenant_id"`
	RemoteID         int64           `json:"remote_id"`
	ParentID         int64           `json:"parent_id"`
	Name             string          `json:"name"`
	Type             string          `json:"type"`
	Status           string          `json:"status"`
	SKU              string          `json:"sku"`
	Price            decimal.Decimal `json:"price"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"short_description"`
	ImageCount       int             `json:"image_count"`
	CategoryCount    int             `json:"category_count"`
	StockStatus      string          `json:"stock_status"`
	SEOScore         int             `json:"seo_score"`
	FeedScore        int             `json:"feed_score"`
	CreatedAt        time.Time       `json:"created_at"`
	ModifiedAt       time.Time       `json:"modified_at"`
	Raw              json.RawMessage `json:"raw"`
}

// ProductTypeVariable is the remote type string for products that carry
// a nested variation listing.
const ProductTypeVariable = "variable"

// IsVariable returns true if the product has remote variations.
func (p *Product) IsVariable() bool {
	return p.Type == ProductTypeVariable
}

// Customer mirrors a remote store customer.
type Customer struct {
	TenantID    string          `json:"tenant_id"`
	RemoteID    int64           `json:"remote_id"`
	Email       string          `json:"email"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	Username    string          `json:"username"`
	OrdersCount int             `json:"orders_count"`
	CreatedAt   time.Time       `json:"created_at"`
	ModifiedAt  time.Time       `json:"modified_at"`
	Raw         json.RawMessage `json:"raw"`
}

// Review mirrors a remote product review. OrderID and CustomerID are
// local attribution links resolved during sync; zero means unlinked.
type Review struct {
	TenantID      string          `json:"tenant_id"`
	RemoteID      int64           `json:"remote_id"`
	ProductID     int64           `json:"product_id"`
	Reviewer      string          `json:"reviewer"`
	ReviewerEmail string          `json:"reviewer_email"`
	Rating        int             `json:"rating"`
	Content       string          `json:"content"`
	Verified      bool            `json:"verified"`
	CustomerID    int64           `json:"customer_id"`
	OrderID       int64           `json:"order_id"`
	MatchScore    int             `json:"match_score"`
	CreatedAt     time.Time       `json:"created_at"`
	Raw           json.RawMessage `json:"raw"`
}
