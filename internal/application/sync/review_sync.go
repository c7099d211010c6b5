package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"meridian-core-woo-layer/internal/application/attribution"
	"meridian-core-woo-layer/internal/application/validation"
	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ReviewSync mirrors remote product reviews and attributes each one to
// the local order that most likely generated it.
type ReviewSync struct {
	core
	matcher *attribution.Matcher
}

// NewReviewSync creates the review strategy with an injected matcher.
func NewReviewSync(store ports.Store, states ports.SyncStateRepository, bus ports.EventBus, index ports.SearchIndex, matcher *attribution.Matcher, logger zerolog.Logger) *ReviewSync {
	return &ReviewSync{
		core:    newCore(store, states, bus, index, logger),
		matcher: matcher,
	}
}

// Entity returns the entity type this strategy owns.
func (s *ReviewSync) Entity() domain.EntityType {
	return domain.EntityReview
}

// Sync runs one review synchronization pass.
func (s *ReviewSync) Sync(ctx context.Context, client ports.RemoteClient, tenantID string, incremental bool, job ports.JobHandle) (*Result, error) {
	after, err := s.incrementalCursor(ctx, tenantID, domain.EntityReview, incremental)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	seen := make(map[int64]struct{})

	err = s.forEachPage(ctx, client, "reviews", after, job, func(items []json.RawMessage) error {
		var valid []*domain.Review
		for _, raw := range items {
			review, err := validation.ParseReview(tenantID, raw)
			if err != nil {
				result.ItemsSkipped++
				s.logSkip(tenantID, domain.EntityReview, err)
				markObserved(seen, err)
				continue
			}
			if err := s.attribute(ctx, review); err != nil {
				return err
			}
			valid = append(valid, review)
		}

		for _, batch := range chunk(valid, upsertBatchSize) {
			if err := s.store.UpsertReviews(ctx, tenantID, batch); err != nil {
				return fmt.Errorf("failed to upsert reviews: %w", err)
			}
			for _, review := range batch {
				seen[review.RemoteID] = struct{}{}
				result.ItemsProcessed++
				s.emit(ctx, domain.EventReviewSynced, tenantID, domain.EntityReview, review.RemoteID, review)
				if review.OrderID != 0 {
					s.emit(ctx, domain.EventReviewMatched, tenantID, domain.EntityReview, review.RemoteID, map[string]any{
						"order_id": review.OrderID,
						"score":    review.MatchScore,
					})
				}
				s.indexRecord(ctx, domain.EntityReview, tenantID, review.RemoteID, review)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	deleted, err := s.reconcile(ctx, tenantID, domain.EntityReview, incremental, seen, s.store.ListReviewIDs, s.store.DeleteReviews)
	if err != nil {
		return nil, err
	}
	result.ItemsDeleted = deleted

	return result, nil
}

// attribute links the review to a locally known customer by email and
// to its most likely originating order via the matcher. A review that
// resolves to neither stays unlinked; that is the expected outcome for
// gift purchases and guest checkouts.
func (s *ReviewSync) attribute(ctx context.Context, review *domain.Review) error {
	var customer *domain.Customer
	if email := strings.ToLower(strings.TrimSpace(review.ReviewerEmail)); email != "" {
		found, err := s.store.FindCustomerByEmail(ctx, review.TenantID, email)
		if err != nil {
			return fmt.Errorf("failed to look up customer for review %d: %w", review.RemoteID, err)
		}
		customer = found
	}
	if customer != nil {
		review.CustomerID = customer.RemoteID
	}

	windowStart := review.CreatedAt.Add(-attribution.CandidateWindow)
	candidates, err := s.store.FindOrdersCreatedBetween(ctx, review.TenantID, windowStart, review.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to load candidate orders for review %d: %w", review.RemoteID, err)
	}

	match, err := s.matcher.Match(ctx, review, customer, candidates)
	if err != nil {
		return fmt.Errorf("failed to match review %d: %w", review.RemoteID, err)
	}
	if match != nil {
		review.OrderID = match.Order.RemoteID
		review.MatchScore = match.Score
	}
	return nil
}
