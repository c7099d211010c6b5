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

// CustomerSync mirrors remote store customers.
type CustomerSync struct {
	core
}

// NewCustomerSync creates the customer strategy.
func NewCustomerSync(store ports.Store, states ports.SyncStateRepository, bus ports.EventBus, index ports.SearchIndex, logger zerolog.Logger) *CustomerSync {
	return &CustomerSync{core: newCore(store, states, bus, index, logger)}
}

// Entity returns the entity type this strategy owns.
func (s *CustomerSync) Entity() domain.EntityType {
	return domain.EntityCustomer
}

// Sync runs one customer synchronization pass. Order counts are not
// touched here; the order strategy owns that aggregate.
func (s *CustomerSync) Sync(ctx context.Context, client ports.RemoteClient, tenantID string, incremental bool, job ports.JobHandle) (*Result, error) {
	after, err := s.incrementalCursor(ctx, tenantID, domain.EntityCustomer, incremental)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	seen := make(map[int64]struct{})

	err = s.forEachPage(ctx, client, "customers", after, job, func(items []json.RawMessage) error {
		var valid []*domain.Customer
		for _, raw := range items {
			customer, err := validation.ParseCustomer(tenantID, raw)
			if err != nil {
				result.ItemsSkipped++
				s.logSkip(tenantID, domain.EntityCustomer, err)
				markObserved(seen, err)
				continue
			}
			valid = append(valid, customer)
		}

		for _, batch := range chunk(valid, upsertBatchSize) {
			if err := s.store.UpsertCustomers(ctx, tenantID, batch); err != nil {
				return fmt.Errorf("failed to upsert customers: %w", err)
			}
			for _, customer := range batch {
				seen[customer.RemoteID] = struct{}{}
				result.ItemsProcessed++
				s.emit(ctx, domain.EventCustomerSynced, tenantID, domain.EntityCustomer, customer.RemoteID, customer)
				s.indexRecord(ctx, domain.EntityCustomer, tenantID, customer.RemoteID, customer)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	deleted, err := s.reconcile(ctx, tenantID, domain.EntityCustomer, incremental, seen, s.store.ListCustomerIDs, s.store.DeleteCustomers)
	if err != nil {
		return nil, err
	}
	result.ItemsDeleted = deleted

	return result, nil
}
