package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"meridian-core-woo-layer/internal/application/validation"
	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ProductSync mirrors remote catalog products. Variable products get
// their nested variation listing pulled as well, stored as product rows
// keyed to the parent; derived SEO and feed-compliance scores are
// recomputed on every pass.
type ProductSync struct {
	core
}

// NewProductSync creates the product strategy.
func NewProductSync(store ports.Store, states ports.SyncStateRepository, bus ports.EventBus, index ports.SearchIndex, logger zerolog.Logger) *ProductSync {
	return &ProductSync{core: newCore(store, states, bus, index, logger)}
}

// Entity returns the entity type this strategy owns.
func (s *ProductSync) Entity() domain.EntityType {
	return domain.EntityProduct
}

// Sync runs one product synchronization pass.
func (s *ProductSync) Sync(ctx context.Context, client ports.RemoteClient, tenantID string, incremental bool, job ports.JobHandle) (*Result, error) {
	after, err := s.incrementalCursor(ctx, tenantID, domain.EntityProduct, incremental)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	seen := make(map[int64]struct{})

	err = s.forEachPage(ctx, client, "products", after, job, func(items []json.RawMessage) error {
		var valid []*domain.Product
		for _, raw := range items {
			product, err := validation.ParseProduct(tenantID, raw)
			if err != nil {
				result.ItemsSkipped++
				s.logSkip(tenantID, domain.EntityProduct, err)
				if id, ok := markObserved(seen, err); ok {
					// The rejected record may be a variable parent whose
					// nested listing will not be fetched this run; its
					// stored variations are not orphans either.
					childIDs, err := s.store.ListProductIDsByParent(ctx, tenantID, id)
					if err != nil {
						return fmt.Errorf("failed to list variations of rejected product %d: %w", id, err)
					}
					for _, childID := range childIDs {
						seen[childID] = struct{}{}
					}
				}
				continue
			}
			product.SEOScore = seoScore(product)
			product.FeedScore = feedScore(product)
			valid = append(valid, product)

			if product.IsVariable() {
				variations, skipped, err := s.syncVariations(ctx, client, tenantID, product, seen)
				if err != nil {
					return err
				}
				result.ItemsSkipped += skipped
				valid = append(valid, variations...)
			}
		}

		for _, batch := range chunk(valid, upsertBatchSize) {
			if err := s.store.UpsertProducts(ctx, tenantID, batch); err != nil {
				return fmt.Errorf("failed to upsert products: %w", err)
			}
			for _, product := range batch {
				seen[product.RemoteID] = struct{}{}
				result.ItemsProcessed++
				s.emit(ctx, domain.EventProductSynced, tenantID, domain.EntityProduct, product.RemoteID, product)
				s.indexRecord(ctx, domain.EntityProduct, tenantID, product.RemoteID, product)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	deleted, err := s.reconcile(ctx, tenantID, domain.EntityProduct, incremental, seen, s.store.ListProductIDs, s.store.DeleteProducts)
	if err != nil {
		return nil, err
	}
	result.ItemsDeleted = deleted

	return result, nil
}

// syncVariations pulls the full nested variation listing for one
// variable product. Variations are always listed unfiltered: the nested
// listings are small and the parent's modification date does not track
// variation edits reliably.
func (s *ProductSync) syncVariations(ctx context.Context, client ports.RemoteClient, tenantID string, parent *domain.Product, seen map[int64]struct{}) ([]*domain.Product, int, error) {
	path := fmt.Sprintf("products/%d/variations", parent.RemoteID)

	var (
		variations []*domain.Product
		skipped    int
	)
	err := s.forEachPage(ctx, client, path, nil, nil, func(items []json.RawMessage) error {
		for _, raw := range items {
			variation, err := validation.ParseVariation(tenantID, parent, raw)
			if err != nil {
				skipped++
				s.logSkip(tenantID, domain.EntityProduct, err)
				markObserved(seen, err)
				continue
			}
			variation.SEOScore = seoScore(variation)
			variation.FeedScore = feedScore(variation)
			variations = append(variations, variation)
		}
		return nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to sync variations of product %d: %w", parent.RemoteID, err)
	}
	return variations, skipped, nil
}

// seoScore rates listing completeness for search visibility, 0-100.
func seoScore(p *domain.Product) int {
	score := 0
	if p.Name != "" {
		score += 20
	}
	switch {
	case len(p.Description) >= 100:
		score += 25
	case p.Description != "":
		score += 10
	}
	if p.ShortDescription != "" {
		score += 15
	}
	if p.ImageCount > 0 {
		score += 20
	}
	if p.CategoryCount > 0 {
		score += 20
	}
	return score
}

// feedScore rates merchant-feed compliance, 0-100. A feed-ready record
// needs an SKU, a positive price, imagery, a description and a known
// stock state.
func feedScore(p *domain.Product) int {
	score := 0
	if p.SKU != "" {
		score += 25
	}
	if p.Price.IsPositive() {
		score += 25
	}
	if p.ImageCount > 0 {
		score += 20
	}
	if p.Description != "" {
		score += 15
	}
	if p.StockStatus != "" {
		score += 15
	}
	return score
}
