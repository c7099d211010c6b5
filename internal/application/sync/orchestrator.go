package sync

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"meridian-core-woo-layer/internal/domain"
	"meridian-core-woo-layer/internal/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Metrics receives run-level observations. The orchestrator accepts a
// nil Metrics and degrades to no-op recording.
type Metrics interface {
	ObserveRun(entity domain.EntityType, status domain.SyncStatus, duration time.Duration)
	AddRecords(entity domain.EntityType, processed, skipped, deleted int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveRun(domain.EntityType, domain.SyncStatus, time.Duration) {}
func (nopMetrics) AddRecords(domain.EntityType, int, int, int)                    {}

// Runner wraps any entity strategy with the fixed run template: log row
// creation, status notifications, watermark advancement and error
// propagation. Runs for the same (tenant, entity) pair must not be
// invoked concurrently; the caller owns that exclusion.
type Runner struct {
	states   ports.SyncStateRepository
	notifier ports.StatusNotifier
	metrics  Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRunner creates the orchestrator. metrics may be nil.
func NewRunner(states ports.SyncStateRepository, notifier ports.StatusNotifier, metrics Metrics, logger zerolog.Logger) *Runner {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &Runner{
		states:   states,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one sync for the given strategy and tenant. On success
// the run log is finalized SUCCESS and the watermark advanced to now;
// on any strategy error the log is finalized FAILED with the error
// message and the error re-raised so the external job runner owns retry
// scheduling. Status notifications are best-effort on both paths.
func (r *Runner) Run(ctx context.Context, strategy Strategy, client ports.RemoteClient, tenantID string, incremental bool, job ports.JobHandle) (*Result, error) {
	entity := strategy.Entity()
	correlationID := newCorrelationID()
	logger := r.logger.With().
		Str("correlationId", correlationID).
		Str("tenantId", tenantID).
		Str("entity", entity.String()).
		Bool("incremental", incremental).
		Logger()

	startedAt := r.now().UTC()
	runLog := &domain.SyncLog{
		ID:            uuid.NewString(),
		TenantID:      tenantID,
		Entity:        entity,
		Status:        domain.SyncStatusInProgress,
		Incremental:   incremental,
		CorrelationID: correlationID,
		StartedAt:     startedAt,
	}
	if err := r.states.CreateSyncLog(ctx, runLog); err != nil {
		return nil, fmt.Errorf("failed to create sync log: %w", err)
	}

	logger.Info().Msg("Sync run started")
	r.notifier.Notify(ctx, domain.StatusNotification{
		TenantID:      tenantID,
		Entity:        entity,
		RunID:         runLog.ID,
		CorrelationID: correlationID,
		Phase:         domain.SyncPhaseStarted,
		Incremental:   incremental,
		At:            startedAt,
	})

	result, runErr := strategy.Sync(ctx, client, tenantID, incremental, job)
	finishedAt := r.now().UTC()
	duration := finishedAt.Sub(startedAt)

	if runErr != nil {
		runLog.Status = domain.SyncStatusFailed
		runLog.Error = runErr.Error()
		runLog.FinishedAt = &finishedAt
		if err := r.states.FinalizeSyncLog(ctx, runLog); err != nil {
			logger.Error().Err(err).Msg("Failed to finalize sync log after run failure")
		}

		event := logger.Error()
		if errors.Is(runErr, domain.ErrSyncCancelled) {
			event = logger.Warn()
		}
		event.Err(runErr).Dur("duration", duration).Msg("Sync run failed")

		r.notifier.Notify(ctx, domain.StatusNotification{
			TenantID:      tenantID,
			Entity:        entity,
			RunID:         runLog.ID,
			CorrelationID: correlationID,
			Phase:         domain.SyncPhaseFailed,
			Incremental:   incremental,
			Error:         runErr.Error(),
			At:            finishedAt,
		})
		r.metrics.ObserveRun(entity, domain.SyncStatusFailed, duration)
		return nil, runErr
	}

	runLog.Status = domain.SyncStatusSuccess
	runLog.ItemsProcessed = result.ItemsProcessed
	runLog.ItemsSkipped = result.ItemsSkipped
	runLog.ItemsDeleted = result.ItemsDeleted
	runLog.FinishedAt = &finishedAt
	if err := r.states.FinalizeSyncLog(ctx, runLog); err != nil {
		return nil, fmt.Errorf("failed to finalize sync log: %w", err)
	}
	if err := r.states.SetWatermark(ctx, tenantID, entity, finishedAt); err != nil {
		return nil, fmt.Errorf("failed to advance watermark: %w", err)
	}

	logger.Info().
		Int("processed", result.ItemsProcessed).
		Int("skipped", result.ItemsSkipped).
		Int("deleted", result.ItemsDeleted).
		Dur("duration", duration).
		Msg("Sync run completed")

	r.notifier.Notify(ctx, domain.StatusNotification{
		TenantID:       tenantID,
		Entity:         entity,
		RunID:          runLog.ID,
		CorrelationID:  correlationID,
		Phase:          domain.SyncPhaseCompleted,
		Incremental:    incremental,
		ItemsProcessed: result.ItemsProcessed,
		ItemsDeleted:   result.ItemsDeleted,
		At:             finishedAt,
	})
	r.metrics.ObserveRun(entity, domain.SyncStatusSuccess, duration)
	r.metrics.AddRecords(entity, result.ItemsProcessed, result.ItemsSkipped, result.ItemsDeleted)

	return result, nil
}

// newCorrelationID returns a short random hex id for log correlation.
func newCorrelationID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(buf)
}
