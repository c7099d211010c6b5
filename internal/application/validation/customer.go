package validation

import (
	"encoding/json"

	"meridian-core-woo-layer/internal/domain"
)

type wireCustomer struct {
	ID           int64  `json:"id" validate:"required,gt=0"`
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	DateCreated  string `json:"date_created"`
	DateModified string `json:"date_modified"`
}

// ParseCustomer validates one raw remote customer record.
func ParseCustomer(tenantID string, raw json.RawMessage) (*domain.Customer, error) {
	rej := &Rejection{Entity: domain.EntityCustomer}

	var w wireCustomer
	if err := json.Unmarshal(raw, &w); err != nil {
		rej.add("malformed payload: " + err.Error())
		return nil, rej
	}
	rej.RemoteID = w.ID

	if err := validate.Struct(&w); err != nil {
		rej.addValidatorErrors(err)
	}

	customer := &domain.Customer{
		TenantID:   tenantID,
		RemoteID:   w.ID,
		Email:      w.Email,
		FirstName:  w.FirstName,
		LastName:   w.LastName,
		Username:   w.Username,
		CreatedAt:  parseOptionalTime(rej, "date_created", w.DateCreated),
		ModifiedAt: parseOptionalTime(rej, "date_modified", w.DateModified),
		Raw:        raw,
	}

	if err := rej.orNil(); err != nil {
		return nil, err
	}
	return customer, nil
}
