// Package attribution links product reviews back to the local order
// that most likely generated them. Remote reviews rarely carry a direct
// order reference, so the matcher scores candidate orders with a tiered
// identity heuristic and falls back to purchase-to-review timing.
package attribution

import (
	"context"
	"strings"
	"time"

	"meridian-core-woo-layer/internal/domain"

	"github.com/rs/zerolog"
)

// Scores assigned per tier. For a given candidate the first matching
// tier wins; lower tiers are not evaluated.
const (
	ScoreCustomerID    = 100
	ScoreCustomerEmail = 90
	ScoreReviewerEmail = 80
	ScoreReviewerName  = 60
	ScoreDateWindow    = 40
)

const (
	// CandidateWindow is how far back from the review date orders are
	// considered at all.
	CandidateWindow = 180 * 24 * time.Hour

	// The weak fallback tier only fires when the review lands within
	// the typical purchase-to-review lag after the order.
	fallbackMinLag = 7 * 24 * time.Hour
	fallbackMaxLag = 60 * 24 * time.Hour
)

// VariationResolver reports the parent product id of a tenant's
// variation, or 0 when the id is not a known variation.
type VariationResolver func(ctx context.Context, tenantID string, variationID int64) (int64, error)

// Match is a scored attribution result.
type Match struct {
	Order *domain.Order
	Score int
}

// Matcher scores candidate orders against incoming reviews.
type Matcher struct {
	resolveParent VariationResolver
	logger        zerolog.Logger
}

// NewMatcher creates a matcher. resolveParent may be nil, in which case
// variation line items only match on their own product id.
func NewMatcher(resolveParent VariationResolver, logger zerolog.Logger) *Matcher {
	return &Matcher{resolveParent: resolveParent, logger: logger}
}

// Match returns the best-scoring candidate order for the review, or nil
// when no candidate scores above zero. An unlinked review is expected,
// not an error. customer is the review's linked local customer record
// and may be nil.
func (m *Matcher) Match(ctx context.Context, review *domain.Review, customer *domain.Customer, candidates []*domain.Order) (*Match, error) {
	var (
		best        *domain.Order
		bestScore   int
		bestDayDiff int
	)

	windowStart := review.CreatedAt.Add(-CandidateWindow)

	for _, order := range candidates {
		if order.CreatedAt.Before(windowStart) || order.CreatedAt.After(review.CreatedAt) {
			continue
		}

		ok, err := m.orderContainsProduct(ctx, order, review.ProductID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		score := scoreCandidate(review, customer, order)
		if score == 0 {
			continue
		}

		dayDiff := absDays(review.CreatedAt.Sub(order.CreatedAt))
		if score > bestScore || (score == bestScore && dayDiff < bestDayDiff) {
			best = order
			bestScore = score
			bestDayDiff = dayDiff
		}
	}

	if best == nil {
		return nil, nil
	}

	m.logger.Debug().
		Str("tenantId", review.TenantID).
		Int64("reviewId", review.RemoteID).
		Int64("orderId", best.RemoteID).
		Int("score", bestScore).
		Msg("Attributed review to order")

	return &Match{Order: best, Score: bestScore}, nil
}

// orderContainsProduct reports whether any line item references the
// reviewed product, either directly or through a variation of it.
func (m *Matcher) orderContainsProduct(ctx context.Context, order *domain.Order, productID int64) (bool, error) {
	for _, line := range order.LineItems {
		if line.ProductID == productID {
			return true, nil
		}
		if line.VariationID != 0 && m.resolveParent != nil {
			parentID, err := m.resolveParent(ctx, order.TenantID, line.VariationID)
			if err != nil {
				return false, err
			}
			if parentID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func scoreCandidate(review *domain.Review, customer *domain.Customer, order *domain.Order) int {
	billingEmail := NormalizeEmail(order.BillingEmail)

	if customer != nil {
		if order.CustomerID != 0 && order.CustomerID == customer.RemoteID {
			return ScoreCustomerID
		}
		if billingEmail != "" && billingEmail == NormalizeEmail(customer.Email) {
			return ScoreCustomerEmail
		}
	}

	if billingEmail != "" && billingEmail == NormalizeEmail(review.ReviewerEmail) {
		return ScoreReviewerEmail
	}

	if reviewerNameMatches(review.Reviewer, order.BillingFirstName, order.BillingLastName) {
		return ScoreReviewerName
	}

	lag := review.CreatedAt.Sub(order.CreatedAt)
	if lag >= fallbackMinLag && lag <= fallbackMaxLag {
		return ScoreDateWindow
	}

	return 0
}

// reviewerNameMatches compares the review's free-text reviewer name
// with the order's billing name: exact full-name match, both name parts
// present as substrings, or the reviewer's last token equal to the
// billing last name.
func reviewerNameMatches(reviewer, firstName, lastName string) bool {
	reviewer = strings.ToLower(strings.TrimSpace(reviewer))
	firstName = strings.ToLower(strings.TrimSpace(firstName))
	lastName = strings.ToLower(strings.TrimSpace(lastName))

	if reviewer == "" || (firstName == "" && lastName == "") {
		return false
	}

	if full := strings.TrimSpace(firstName + " " + lastName); reviewer == full {
		return true
	}

	if firstName != "" && lastName != "" &&
		strings.Contains(reviewer, firstName) && strings.Contains(reviewer, lastName) {
		return true
	}

	if lastName != "" {
		tokens := strings.Fields(reviewer)
		if len(tokens) > 0 && tokens[len(tokens)-1] == lastName {
			return true
		}
	}

	return false
}

// NormalizeEmail lowercases, trims, and strips "+tag" local-part
// addressing so common alias variants still compare equal:
// "User+promo@x.com " -> "user@x.com".
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return email
	}
	local, domainPart := email[:at], email[at:]
	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}
	return local + domainPart
}

func absDays(d time.Duration) int {
	if d < 0 {
		d = -d
	}
	return int(d / (24 * time.Hour))
}
