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

// OrderSync mirrors remote orders. On top of the common strategy shape
// it detects order lifecycle transitions for downstream automations and
// recomputes per-customer order counts with one aggregate query.
type OrderSync struct {
	core
}

// NewOrderSync creates the order strategy.
func NewOrderSync(store ports.Store, states ports.SyncStateRepository, bus ports.EventBus, index ports.SearchIndex, logger zerolog.Logger) *OrderSync {
	return &OrderSync{core: newCore(store, states, bus, index, logger)}
}

// Entity returns the entity type this strategy owns.
func (s *OrderSync) Entity() domain.EntityType {
	return domain.EntityOrder
}

// orderOutcome pairs an upserted order with the lifecycle facts
// detected against its prior local state.
type orderOutcome struct {
	order     *domain.Order
	created   bool
	completed bool
}

// Sync runs one order synchronization pass.
func (s *OrderSync) Sync(ctx context.Context, client ports.RemoteClient, tenantID string, incremental bool, job ports.JobHandle) (*Result, error) {
	after, err := s.incrementalCursor(ctx, tenantID, domain.EntityOrder, incremental)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	seen := make(map[int64]struct{})

	err = s.forEachPage(ctx, client, "orders", after, job, func(items []json.RawMessage) error {
		var valid []*domain.Order
		for _, raw := range items {
			order, err := validation.ParseOrder(tenantID, raw)
			if err != nil {
				result.ItemsSkipped++
				s.logSkip(tenantID, domain.EntityOrder, err)
				markObserved(seen, err)
				continue
			}
			valid = append(valid, order)
		}

		for _, batch := range chunk(valid, upsertBatchSize) {
			outcomes := make([]orderOutcome, 0, len(batch))
			for _, order := range batch {
				prior, err := s.store.GetOrder(ctx, tenantID, order.RemoteID)
				if err != nil {
					return fmt.Errorf("failed to load prior order %d: %w", order.RemoteID, err)
				}
				outcomes = append(outcomes, orderOutcome{
					order:     order,
					created:   prior == nil,
					completed: prior != nil && !prior.IsCompleted() && order.IsCompleted(),
				})
			}

			if err := s.store.UpsertOrders(ctx, tenantID, batch); err != nil {
				return fmt.Errorf("failed to upsert orders: %w", err)
			}

			for _, outcome := range outcomes {
				order := outcome.order
				seen[order.RemoteID] = struct{}{}
				result.ItemsProcessed++

				s.emit(ctx, domain.EventOrderSynced, tenantID, domain.EntityOrder, order.RemoteID, order)
				if recent := s.now().Sub(order.CreatedAt) <= recentOrderWindow; recent {
					if outcome.created {
						s.emit(ctx, domain.EventOrderCreated, tenantID, domain.EntityOrder, order.RemoteID, order)
					}
					if outcome.completed {
						s.emit(ctx, domain.EventOrderCompleted, tenantID, domain.EntityOrder, order.RemoteID, order)
					}
				}
				s.indexRecord(ctx, domain.EntityOrder, tenantID, order.RemoteID, order)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	deleted, err := s.reconcile(ctx, tenantID, domain.EntityOrder, incremental, seen, s.store.ListOrderIDs, s.store.DeleteOrders)
	if err != nil {
		return nil, err
	}
	result.ItemsDeleted = deleted

	// Counts are recomputed after reconciliation so just-deleted orphans
	// are not included in the stored totals.
	if err := s.refreshCustomerOrderCounts(ctx, tenantID); err != nil {
		return nil, err
	}

	return result, nil
}

// refreshCustomerOrderCounts recomputes every customer's order count
// with a single grouped aggregate and one bulk update, instead of one
// query per customer.
func (s *OrderSync) refreshCustomerOrderCounts(ctx context.Context, tenantID string) error {
	counts, err := s.store.AggregateOrderCountsByCustomer(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to aggregate customer order counts: %w", err)
	}
	if len(counts) == 0 {
		return nil
	}
	if err := s.store.BulkUpdateCustomerOrderCounts(ctx, tenantID, counts); err != nil {
		return fmt.Errorf("failed to bulk update customer order counts: %w", err)
	}
	s.logger.Debug().
		Str("tenantId", tenantID).
		Int("customers", len(counts)).
		Msg("Refreshed customer order counts")
	return nil
}
