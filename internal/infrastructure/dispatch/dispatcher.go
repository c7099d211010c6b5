package dispatch

import (
	"context"
	"fmt"
	gosync "sync"

	syncapp "meridian-core-woo-layer/internal/application/sync"
	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"

	"github.com/rs/zerolog"
)

// ClientFactory builds a remote client from a tenant's stored
// credentials.
type ClientFactory func(config *domain.TenantConfig) ports.RemoteClient

// Dispatcher resolves tenant credentials, builds the remote client and
// hands a run to the orchestrator. It enforces that at most one run per
// (tenant, entity) pair is in flight: the orchestrator's log and state
// writes are not designed for concurrent writers on the same key.
type Dispatcher struct {
	runner     *syncapp.Runner
	strategies map[domain.EntityType]syncapp.Strategy
	configs    ports.TenantConfigRepository
	newClient  ClientFactory
	logger     zerolog.Logger

	mu      gosync.Mutex
	running map[string]*Handle
}

// NewDispatcher creates a dispatcher over the given strategies.
func NewDispatcher(runner *syncapp.Runner, strategies []syncapp.Strategy, configs ports.TenantConfigRepository, newClient ClientFactory, logger zerolog.Logger) *Dispatcher {
	byEntity := make(map[domain.EntityType]syncapp.Strategy, len(strategies))
	for _, strategy := range strategies {
		byEntity[strategy.Entity()] = strategy
	}
	return &Dispatcher{
		runner:     runner,
		strategies: byEntity,
		configs:    configs,
		newClient:  newClient,
		logger:     logger,
		running:    make(map[string]*Handle),
	}
}

func runKey(tenantID string, entity domain.EntityType) string {
	return tenantID + "/" + entity.String()
}

// Dispatch executes one sync run synchronously. It returns an error
// without starting anything when a run for the same (tenant, entity)
// pair is already in flight or the tenant has no enabled store.
func (d *Dispatcher) Dispatch(ctx context.Context, tenantID string, entity domain.EntityType, incremental bool) (*syncapp.Result, error) {
	strategy, ok := d.strategies[entity]
	if !ok {
		return nil, fmt.Errorf("no sync strategy registered for entity %q", entity)
	}

	config, err := d.configs.GetByTenantID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant config: %w", err)
	}
	if config == nil || !config.Enabled {
		return nil, fmt.Errorf("%w: %s", domain.ErrTenantNotConfigured, tenantID)
	}

	key := runKey(tenantID, entity)
	handle := NewHandle()

	d.mu.Lock()
	if _, busy := d.running[key]; busy {
		d.mu.Unlock()
		return nil, fmt.Errorf("sync already in flight for %s", key)
	}
	d.running[key] = handle
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		delete(d.running, key)
		d.mu.Unlock()
	}()

	client := d.newClient(config)
	return d.runner.Run(ctx, strategy, client, tenantID, incremental, handle)
}

// DispatchAll runs every registered entity strategy for the tenant in a
// fixed order. A failed entity does not stop the remaining ones; the
// first error is returned after all entities have been attempted.
func (d *Dispatcher) DispatchAll(ctx context.Context, tenantID string, incremental bool) error {
	order := []domain.EntityType{
		domain.EntityProduct,
		domain.EntityCustomer,
		domain.EntityOrder,
		domain.EntityReview,
	}

	var firstErr error
	for _, entity := range order {
		if _, ok := d.strategies[entity]; !ok {
			continue
		}
		if _, err := d.Dispatch(ctx, tenantID, entity, incremental); err != nil {
			d.logger.Error().Err(err).
				Str("tenantId", tenantID).
				Str("entity", entity.String()).
				Msg("Entity sync failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Cancel flips the cancellation flag of an in-flight run. Returns false
// when nothing is running for the pair.
func (d *Dispatcher) Cancel(tenantID string, entity domain.EntityType) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	handle, ok := d.running[runKey(tenantID, entity)]
	if !ok {
		return false
	}
	handle.Cancel()
	return true
}
