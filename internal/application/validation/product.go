package validation

import (
	"encoding/json"

	"meridian-core-woo-layer/internal/domain"
)

type wireProduct struct {
	ID               int64             `json:"id" validate:"required,gt=0"`
	Name             string            `json:"name" validate:"required"`
	Type             string            `json:"type"`
	Status           string            `json:"status"`
	SKU              string            `json:"sku"`
	Price            string            `json:"price"`
	Description      string            `json:"description"`
	ShortDescription string            `json:"short_description"`
	Images           []json.RawMessage `json:"images"`
	Categories       []json.RawMessage `json:"categories"`
	StockStatus      string            `json:"stock_status"`
	DateCreated      string            `json:"date_created"`
	DateModified     string            `json:"date_modified"`
}

// ParseProduct validates one raw remote product record.
func ParseProduct(tenantID string, raw json.RawMessage) (*domain.Product, error) {
	rej := &Rejection{Entity: domain.EntityProduct}

	var w wireProduct
	if err := json.Unmarshal(raw, &w); err != nil {
		rej.add("malformed payload: " + err.Error())
		return nil, rej
	}
	rej.RemoteID = w.ID

	if err := validate.Struct(&w); err != nil {
		rej.addValidatorErrors(err)
	}

	product := &domain.Product{
		TenantID:         tenantID,
		RemoteID:         w.ID,
		Name:             w.Name,
		Type:             w.Type,
		Status:           w.Status,
		SKU:              w.SKU,
		Price:            parseOptionalDecimal(rej, "price", w.Price),
		Description:      w.Description,
		ShortDescription: w.ShortDescription,
		ImageCount:       len(w.Images),
		CategoryCount:    len(w.Categories),
		StockStatus:      w.StockStatus,
		CreatedAt:        parseOptionalTime(rej, "date_created", w.DateCreated),
		ModifiedAt:       parseOptionalTime(rej, "date_modified", w.DateModified),
		Raw:              raw,
	}

	if err := rej.orNil(); err != nil {
		return nil, err
	}
	return product, nil
}

type wireVariation struct {
	ID           int64             `json:"id" validate:"required,gt=0"`
	SKU          string            `json:"sku"`
	Price        string            `json:"price"`
	Status       string            `json:"status"`
	Description  string            `json:"description"`
	Image        json.RawMessage   `json:"image"`
	StockStatus  string            `json:"stock_status"`
	Attributes   []json.RawMessage `json:"attributes"`
	DateCreated  string            `json:"date_created"`
	DateModified string            `json:"date_modified"`
}

// ParseVariation validates one raw variation record from a variable
// product's nested listing. The result is stored as a product row whose
// ParentID points at the parent product.
func ParseVariation(tenantID string, parent *domain.Product, raw json.RawMessage) (*domain.Product, error) {
	rej := &Rejection{Entity: domain.EntityProduct}

	var w wireVariation
	if err := json.Unmarshal(raw, &w); err != nil {
		rej.add("malformed payload: " + err.Error())
		return nil, rej
	}
	rej.RemoteID = w.ID

	if err := validate.Struct(&w); err != nil {
		rej.addValidatorErrors(err)
	}

	name := parent.Name
	if w.SKU != "" {
		name = parent.Name + " – " + w.SKU
	}

	imageCount := 0
	if len(w.Image) > 0 && string(w.Image) != "null" {
		imageCount = 1
	}

	variation := &domain.Product{
		TenantID:    tenantID,
		RemoteID:    w.ID,
		ParentID:    parent.RemoteID,
		Name:        name,
		Type:        "variation",
		Status:      w.Status,
		SKU:         w.SKU,
		Price:       parseOptionalDecimal(rej, "price", w.Price),
		Description: w.Description,
		ImageCount:  imageCount,
		StockStatus: w.StockStatus,
		CreatedAt:   parseOptionalTime(rej, "date_created", w.DateCreated),
		ModifiedAt:  parseOptionalTime(rej, "date_modified", w.DateModified),
		Raw:         raw,
	}

	if err := rej.orNil(); err != nil {
		return nil, err
	}
	return variation, nil
}
