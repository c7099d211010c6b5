package entity

import (
	"encoding/json"
	"time"

	"meridian-core-woo-layer/internal/domain"

	"github.com/shopspring/decimal"
)

// Money amounts are stored as decimal strings; the driver cannot
// round-trip decimal.Decimal directly.

// MongoLineItemDoc is one order line in MongoDB.
type MongoLineItemDoc struct {
	ProductID   int64  `bson:"productId"`
	VariationID int64  `bson:"variationId"`
	Name        string `bson:"name"`
	Quantity    int    `bson:"quantity"`
	Total       string `bson:"total"`
}

// MongoOrderDoc represents a mirrored order in MongoDB.
type MongoOrderDoc struct {
	TenantID         string             `bson:"tenantId"`
	RemoteID         int64              `bson:"remoteId"`
	Number           string             `bson:"number"`
	Status           string             `bson:"status"`
	Currency         string             `bson:"currency"`
	Total            string             `bson:"total"`
	CustomerID       int64              `bson:"customerId"`
	BillingEmail     string             `bson:"billingEmail"`
	BillingFirstName string             `bson:"billingFirstName"`
	BillingLastName  string             `bson:"billingLastName"`
	LineItems        []MongoLineItemDoc `bson:"lineItems"`
	CreatedAt        time.Time          `bson:"createdAt"`
	ModifiedAt       time.Time          `bson:"modifiedAt"`
	Raw              []byte             `bson:"raw"`
	SyncedAt         time.Time          `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoOrderDoc) ToDomain() *domain.Order {
	order := &domain.Order{
		TenantID:         d.TenantID,
		RemoteID:         d.RemoteID,
		Number:           d.Number,
		Status:           d.Status,
		Currency:         d.Currency,
		Total:            parseStoredDecimal(d.Total),
		CustomerID:       d.CustomerID,
		BillingEmail:     d.BillingEmail,
		BillingFirstName: d.BillingFirstName,
		BillingLastName:  d.BillingLastName,
		CreatedAt:        d.CreatedAt,
		ModifiedAt:       d.ModifiedAt,
		Raw:              json.RawMessage(d.Raw),
	}
	for _, line := range d.LineItems {
		order.LineItems = append(order.LineItems, domain.LineItem{
			ProductID:   line.ProductID,
			VariationID: line.VariationID,
			Name:        line.Name,
			Quantity:    line.Quantity,
			Total:       parseStoredDecimal(line.Total),
		})
	}
	return order
}

// MongoOrderDocFromDomain converts a domain entity to a MongoDB document.
func MongoOrderDocFromDomain(order *domain.Order) *MongoOrderDoc {
	doc := &MongoOrderDoc{
		TenantID:         order.TenantID,
		RemoteID:         order.RemoteID,
		Number:           order.Number,
		Status:           order.Status,
		Currency:         order.Currency,
		Total:            order.Total.String(),
		CustomerID:       order.CustomerID,
		BillingEmail:     order.BillingEmail,
		BillingFirstName: order.BillingFirstName,
		BillingLastName:  order.BillingLastName,
		CreatedAt:        order.CreatedAt,
		ModifiedAt:       order.ModifiedAt,
		Raw:              []byte(order.Raw),
	}
	for _, line := range order.LineItems {
		doc.LineItems = append(doc.LineItems, MongoLineItemDoc{
			ProductID:   line.ProductID,
			VariationID: line.VariationID,
			Name:        line.Name,
			Quantity:    line.Quantity,
			Total:       line.Total.String(),
		})
	}
	return doc
}

// MongoProductDoc represents a mirrored product (or variation) in MongoDB.
type MongoProductDoc struct {
	TenantID         string    `bson:"tenantId"`
	RemoteID         int64     `bson:"remoteId"`
	ParentID         int64     `bson:"parentId"`
	Name             string    `bson:"name"`
	Type             string    `bson:"type"`
	Status           string    `bson:"status"`
	SKU              string    `bson:"sku"`
	Price            string    `bson:"price"`
	Description      string    `bson:"description"`
	ShortDescription string    `bson:"shortDescription"`
	ImageCount       int       `bson:"imageCount"`
	CategoryCount    int       `bson:"categoryCount"`
	StockStatus      string    `bson:"stockStatus"`
	SEOScore         int       `bson:"seoScore"`
	FeedScore        int       `bson:"feedScore"`
	CreatedAt        time.Time `bson:"createdAt"`
	ModifiedAt       time.Time `bson:"modifiedAt"`
	Raw              []byte    `bson:"raw"`
	SyncedAt         time.Time `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoProductDoc) ToDomain() *domain.Product {
	return &domain.Product{
		TenantID:         d.TenantID,
		RemoteID:         d.RemoteID,
		ParentID:         d.ParentID,
		Name:             d.Name,
		Type:             d.Type,
		Status:           d.Status,
		SKU:              d.SKU,
		Price:            parseStoredDecimal(d.Price),
		Description:      d.Description,
		ShortDescription: d.ShortDescription,
		ImageCount:       d.ImageCount,
		CategoryCount:    d.CategoryCount,
		StockStatus:      d.StockStatus,
		SEOScore:         d.SEOScore,
		FeedScore:        d.FeedScore,
		CreatedAt:        d.CreatedAt,
		ModifiedAt:       d.ModifiedAt,
		Raw:              json.RawMessage(d.Raw),
	}
}

// MongoProductDocFromDomain converts a domain entity to a MongoDB document.
func MongoProductDocFromDomain(product *domain.Product) *MongoProductDoc {
	return &MongoProductDoc{
		TenantID:         product.TenantID,
		RemoteID:         product.RemoteID,
		ParentID:         product.ParentID,
		Name:             product.Name,
		Type:             product.Type,
		Status:           product.Status,
		SKU:              product.SKU,
		Price:            product.Price.String(),
		Description:      product.Description,
		ShortDescription: product.ShortDescription,
		ImageCount:       product.ImageCount,
		CategoryCount:    product.CategoryCount,
		StockStatus:      product.StockStatus,
		SEOScore:         product.SEOScore,
		FeedScore:        product.FeedScore,
		CreatedAt:        product.CreatedAt,
		ModifiedAt:       product.ModifiedAt,
		Raw:              []byte(product.Raw),
	}
}

// MongoCustomerDoc represents a mirrored customer in MongoDB.
type MongoCustomerDoc struct {
	TenantID    string    `bson:"tenantId"`
	RemoteID    int64     `bson:"remoteId"`
	Email       string    `bson:"email"`
	FirstName   string    `bson:"firstName"`
	LastName    string    `bson:"lastName"`
	Username    string    `bson:"username"`
	OrdersCount int       `bson:"ordersCount"`
	CreatedAt   time.Time `bson:"createdAt"`
	ModifiedAt  time.Time `bson:"modifiedAt"`
	Raw         []byte    `bson:"raw"`
	SyncedAt    time.Time `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoCustomerDoc) ToDomain() *domain.Customer {
	return &domain.Customer{
		TenantID:    d.TenantID,
		RemoteID:    d.RemoteID,
		Email:       d.Email,
		FirstName:   d.FirstName,
		LastName:    d.LastName,
		Username:    d.Username,
		OrdersCount: d.OrdersCount,
		CreatedAt:   d.CreatedAt,
		ModifiedAt:  d.ModifiedAt,
		Raw:         json.RawMessage(d.Raw),
	}
}

// MongoCustomerDocFromDomain converts a domain entity to a MongoDB document.
func MongoCustomerDocFromDomain(customer *domain.Customer) *MongoCustomerDoc {
	return &MongoCustomerDoc{
		TenantID:    customer.TenantID,
		RemoteID:    customer.RemoteID,
		Email:       customer.Email,
		FirstName:   customer.FirstName,
		LastName:    customer.LastName,
		Username:    customer.Username,
		OrdersCount: customer.OrdersCount,
		CreatedAt:   customer.CreatedAt,
		ModifiedAt:  customer.ModifiedAt,
		Raw:         []byte(customer.Raw),
	}
}

// MongoReviewDoc represents a mirrored review in MongoDB.
type MongoReviewDoc struct {
	TenantID      string    `bson:"tenantId"`
	RemoteID      int64     `bson:"remoteId"`
	ProductID     int64     `bson:"productId"`
	Reviewer      string    `bson:"reviewer"`
	ReviewerEmail string    `bson:"reviewerEmail"`
	Rating        int       `bson:"rating"`
	Content       string    `bson:"content"`
	Verified      bool      `bson:"verified"`
	CustomerID    int64     `bson:"customerId"`
	OrderID       int64     `bson:"orderId"`
	MatchScore    int       `bson:"matchScore"`
	CreatedAt     time.Time `bson:"createdAt"`
	Raw           []byte    `bson:"raw"`
	SyncedAt      time.Time `bson:"syncedAt"`
}

// ToDomain converts the MongoDB document to a domain entity.
func (d *MongoReviewDoc) ToDomain() *domain.Review {
	return &domain.Review{
		TenantID:      d.TenantID,
		RemoteID:      d.RemoteID,
		ProductID:     d.ProductID,
		Reviewer:      d.Reviewer,
		ReviewerEmail: d.ReviewerEmail,
		Rating:        d.Rating,
		Content:       d.Content,
		Verified:      d.Verified,
		CustomerID:    d.CustomerID,
		OrderID:       d.OrderID,
		MatchScore:    d.MatchScore,
		CreatedAt:     d.CreatedAt,
		Raw:           json.RawMessage(d.Raw),
	}
}

// MongoReviewDocFromDomain converts a domain entity to a MongoDB document.
func MongoReviewDocFromDomain(review *domain.Review) *MongoReviewDoc {
	return &MongoReviewDoc{
		TenantID:      review.TenantID,
		RemoteID:      review.RemoteID,
		ProductID:     review.ProductID,
		Reviewer:      review.Reviewer,
		ReviewerEmail: review.ReviewerEmail,
		Rating:        review.Rating,
		Content:       review.Content,
		Verified:      review.Verified,
		CustomerID:    review.CustomerID,
		OrderID:       review.OrderID,
		MatchScore:    review.MatchScore,
		CreatedAt:     review.CreatedAt,
		Raw:           []byte(review.Raw),
	}
}

func parseStoredDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
