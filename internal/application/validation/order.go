package validation

import (
	"encoding/json"

	"meridian-core-woo-layer/internal/domain"
)

type wireOrderBilling struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type wireOrderLine struct {
	ProductID   int64  `json:"product_id" validate:"required,gt=0"`
	VariationID int64  `json:"variation_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	Total       string `json:"total"`
}

type wireOrder struct {
	ID           int64            `json:"id" validate:"required,gt=0"`
	Number       string           `json:"number"`
	Status       string           `json:"status" validate:"required"`
	Currency     string           `json:"currency"`
	Total        string           `json:"total" validate:"required"`
	CustomerID   int64            `json:"customer_id"`
	DateCreated  string           `json:"date_created"`
	DateModified string           `json:"date_modified"`
	Billing      wireOrderBilling `json:"billing"`
	LineItems    []wireOrderLine  `json:"line_items" validate:"required,min=1,dive"`
}

// ParseOrder validates one raw remote order record and returns its
// typed form. The full raw payload is preserved on the result.
func ParseOrder(tenantID string, raw json.RawMessage) (*domain.Order, error) {
	rej := &Rejection{Entity: domain.EntityOrder}

	var w wireOrder
	if err := json.Unmarshal(raw, &w); err != nil {
		rej.add("malformed payload: " + err.Error())
		return nil, rej
	}
	rej.RemoteID = w.ID

	if err := validate.Struct(&w); err != nil {
		rej.addValidatorErrors(err)
	}

	order := &domain.Order{
		TenantID:         tenantID,
		RemoteID:         w.ID,
		Number:           w.Number,
		Status:           w.Status,
		Currency:         w.Currency,
		Total:            parseRequiredDecimal(rej, "total", w.Total),
		CustomerID:       w.CustomerID,
		BillingEmail:     w.Billing.Email,
		BillingFirstName: w.Billing.FirstName,
		BillingLastName:  w.Billing.LastName,
		CreatedAt:        parseOptionalTime(rej, "date_created", w.DateCreated),
		ModifiedAt:       parseOptionalTime(rej, "date_modified", w.DateModified),
		Raw:              raw,
	}
	for _, line := range w.LineItems {
		order.LineItems = append(order.LineItems, domain.LineItem{
			ProductID:   line.ProductID,
			VariationID: line.VariationID,
			Name:        line.Name,
			Quantity:    line.Quantity,
			Total:       parseOptionalDecimal(rej, "line_items.total", line.Total),
		})
	}

	if err := rej.orNil(); err != nil {
		return nil, err
	}
	return order, nil
}
