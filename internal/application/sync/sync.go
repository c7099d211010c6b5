// Package sync contains the synchronization and reconciliation engine:
// one strategy per mirrored entity type, shared pagination/batching/
// reconciliation plumbing, and the orchestrator that wraps a strategy
// run with logging, state tracking and status notifications.
package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"meridian-core-woo-layer/internal/application/validation"
	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"

	"github.com/rs/zerolog"
)

const (
	defaultPerPage  = 50
	upsertBatchSize = 10

	// watermarkSafetyBuffer is subtracted from the stored watermark to
	// tolerate clock skew and the remote store's write-to-visibility
	// delay on filtered listings.
	watermarkSafetyBuffer = 5 * time.Minute

	// recentOrderWindow gates order lifecycle events during resyncs so
	// a full historical run does not flood downstream automations.
	recentOrderWindow = 24 * time.Hour
)

// Result summarizes one strategy invocation.
type Result struct {
	ItemsProcessed int
	ItemsSkipped   int
	ItemsDeleted   int
}

// Strategy drives pagination, validation, batched persistence,
// reconciliation and event emission for one entity type. Implementations
// must be safe for sequential reuse across runs but are never invoked
// concurrently for the same (tenant, entity) pair.
type Strategy interface {
	Entity() domain.EntityType
	Sync(ctx context.Context, client ports.RemoteClient, tenantID string, incremental bool, job ports.JobHandle) (*Result, error)
}

// core carries the collaborators and tunables shared by all strategies.
type core struct {
	store   ports.Store
	states  ports.SyncStateRepository
	bus     ports.EventBus
	index   ports.SearchIndex
	logger  zerolog.Logger
	perPage int
	now     func() time.Time
}

func newCore(store ports.Store, states ports.SyncStateRepository, bus ports.EventBus, index ports.SearchIndex, logger zerolog.Logger) core {
	return core{
		store:   store,
		states:  states,
		bus:     bus,
		index:   index,
		logger:  logger,
		perPage: defaultPerPage,
		now:     time.Now,
	}
}

// incrementalCursor computes the "after" cursor for a run: the stored
// watermark minus the safety buffer, or nil for full runs and for the
// first incremental run of a pair.
func (c *core) incrementalCursor(ctx context.Context, tenantID string, entity domain.EntityType, incremental bool) (*time.Time, error) {
	if !incremental {
		return nil, nil
	}
	watermark, err := c.states.GetWatermark(ctx, tenantID, entity)
	if err != nil {
		return nil, fmt.Errorf("failed to load watermark for %s/%s: %w", tenantID, entity, err)
	}
	if watermark.IsZero() {
		return nil, nil
	}
	cursor := watermark.Add(-watermarkSafetyBuffer)
	return &cursor, nil
}

// forEachPage walks a remote listing strictly in page order. The loop
// terminates on the API-reported total page count, never on a short or
// empty page: once validation can drop items, page length says nothing
// about whether more data exists. After each page it reports fractional
// progress and polls the cancellation flag. job may be nil.
func (c *core) forEachPage(ctx context.Context, client ports.RemoteClient, path string, after *time.Time, job ports.JobHandle, handle func(items []json.RawMessage) error) error {
	for page := 1; ; page++ {
		result, err := client.List(ctx, path, ports.ListOptions{
			Page:    page,
			PerPage: c.perPage,
			After:   after,
		})
		if err != nil {
			return fmt.Errorf("failed to list %s page %d: %w", path, page, err)
		}

		if err := handle(result.Items); err != nil {
			return err
		}

		totalPages := result.TotalPages
		if totalPages < 1 {
			totalPages = 1
		}
		if job != nil {
			job.UpdateProgress(int(math.Round(float64(page) / float64(totalPages) * 100)))
			if !job.IsActive() {
				return domain.ErrSyncCancelled
			}
		}

		if page >= totalPages {
			return nil
		}
	}
}

// reconcile removes local orphans after a full run: any locally stored
// remote id not observed in this run's pages no longer exists remotely.
// Skipped on incremental runs (a filtered listing is not a complete
// universe) and when zero ids were observed (guards against mass
// deletion from an empty or broken listing).
func (c *core) reconcile(
	ctx context.Context,
	tenantID string,
	entity domain.EntityType,
	incremental bool,
	seen map[int64]struct{},
	listIDs func(context.Context, string) ([]int64, error),
	deleteIDs func(context.Context, string, []int64) error,
) (int, error) {
	if incremental || len(seen) == 0 {
		return 0, nil
	}

	localIDs, err := listIDs(ctx, tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to list local %s ids: %w", entity, err)
	}

	var orphans []int64
	for _, id := range localIDs {
		if _, ok := seen[id]; !ok {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) == 0 {
		return 0, nil
	}

	if err := deleteIDs(ctx, tenantID, orphans); err != nil {
		return 0, fmt.Errorf("failed to delete orphaned %s records: %w", entity, err)
	}
	for _, id := range orphans {
		if err := c.index.Delete(ctx, entity, tenantID, id); err != nil {
			c.logger.Warn().Err(err).
				Str("tenantId", tenantID).
				Str("entity", entity.String()).
				Int64("remoteId", id).
				Msg("Failed to remove orphan from search index")
		}
	}

	c.logger.Info().
		Str("tenantId", tenantID).
		Str("entity", entity.String()).
		Int("orphans", len(orphans)).
		Msg("Reconciliation removed orphaned records")

	return len(orphans), nil
}

// indexRecord mirrors a record into the search index. Best-effort: a
// failure is logged and never fatal to the sync.
func (c *core) indexRecord(ctx context.Context, entity domain.EntityType, tenantID string, remoteID int64, record any) {
	if err := c.index.Index(ctx, entity, tenantID, remoteID, record); err != nil {
		c.logger.Warn().Err(err).
			Str("tenantId", tenantID).
			Str("entity", entity.String()).
			Int64("remoteId", remoteID).
			Msg("Failed to index record")
	}
}

func (c *core) emit(ctx context.Context, name string, tenantID string, entity domain.EntityType, remoteID int64, payload any) {
	c.bus.Emit(ctx, domain.Event{
		Name:       name,
		TenantID:   tenantID,
		Entity:     entity,
		RemoteID:   remoteID,
		Payload:    payload,
		OccurredAt: c.now().UTC(),
	})
}

// markObserved records a rejected record's remote id in the seen set.
// The record still exists remotely even though this run could not parse
// it, so reconciliation must not treat its local mirror as an orphan.
func markObserved(seen map[int64]struct{}, err error) (int64, bool) {
	var rej *validation.Rejection
	if errors.As(err, &rej) && rej.RemoteID > 0 {
		seen[rej.RemoteID] = struct{}{}
		return rej.RemoteID, true
	}
	return 0, false
}

func (c *core) logSkip(tenantID string, entity domain.EntityType, err error) {
	c.logger.Warn().Err(err).
		Str("tenantId", tenantID).
		Str("entity", entity.String()).
		Msg("Skipping invalid remote record")
}

// chunk splits items into sub-batches so each persistence call stays
// under the platform's transaction timeout even with downstream
// triggers running inline.
func chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
