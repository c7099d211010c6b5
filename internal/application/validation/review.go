package validation

import (
	"encoding/json"
	"strings"

	"meridian-core-woo-layer/internal/domain"
)

type wireReview struct {
	ID            int64  `json:"id" validate:"required,gt=0"`
	ProductID     int64  `json:"product_id" validate:"required,gt=0"`
	Reviewer      string `json:"reviewer"`
	ReviewerEmail string `json:"reviewer_email"`
	Rating        int    `json:"rating" validate:"min=1,max=5"`
	Review        string `json:"review"`
	Verified      bool   `json:"verified"`
	DateCreated   string `json:"date_created"`
}

// ParseReview validates one raw remote review record. Rating must be
// in [1,5] and the review text non-empty.
func ParseReview(tenantID string, raw json.RawMessage) (*domain.Review, error) {
	rej := &Rejection{Entity: domain.EntityReview}

	var w wireReview
	if err := json.Unmarshal(raw, &w); err != nil {
		rej.add("malformed payload: " + err.Error())
		return nil, rej
	}
	rej.RemoteID = w.ID

	if err := validate.Struct(&w); err != nil {
		rej.addValidatorErrors(err)
	}
	if strings.TrimSpace(w.Review) == "" {
		rej.add("field review is empty")
	}

	review := &domain.Review{
		TenantID:      tenantID,
		RemoteID:      w.ID,
		ProductID:     w.ProductID,
		Reviewer:      w.Reviewer,
		ReviewerEmail: w.ReviewerEmail,
		Rating:        w.Rating,
		Content:       w.Review,
		Verified:      w.Verified,
		CreatedAt:     parseOptionalTime(rej, "date_created", w.DateCreated),
		Raw:           raw,
	}

	if err := rej.orNil(); err != nil {
		return nil, err
	}
	return review, nil
}
