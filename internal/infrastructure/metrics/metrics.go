// Package metrics exposes Prometheus collectors for the sync engine.
package metrics

import (
	"time"

	"meridian-core-woo-layer/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics implements the orchestrator's Metrics interface with
// Prometheus collectors.
type SyncMetrics struct {
	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	recordsTotal *prometheus.CounterVec
	skippedTotal *prometheus.CounterVec
	deletedTotal *prometheus.CounterVec
	retriesTotal *prometheus.CounterVec
}

// NewSyncMetrics creates and registers the sync collectors.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	m := &SyncMetrics{
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Sync runs by entity and terminal status.",
		}, []string{"entity", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "End-to-end sync run duration.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		}, []string{"entity"}),
		recordsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_records_processed_total",
			Help: "Records upserted by entity.",
		}, []string{"entity"}),
		skippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_records_skipped_total",
			Help: "Records rejected by validation, by entity.",
		}, []string{"entity"}),
		deletedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_records_deleted_total",
			Help: "Orphans removed during reconciliation, by entity.",
		}, []string{"entity"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sync_throttle_retries_total",
			Help: "Backoff retries caused by remote throttling, by tenant.",
		}, []string{"tenant"}),
	}
	reg.MustRegister(m.runsTotal, m.runDuration, m.recordsTotal, m.skippedTotal, m.deletedTotal, m.retriesTotal)
	return m
}

// ObserveRun records one finished run.
func (m *SyncMetrics) ObserveRun(entity domain.EntityType, status domain.SyncStatus, duration time.Duration) {
	m.runsTotal.WithLabelValues(entity.String(), status.String()).Inc()
	m.runDuration.WithLabelValues(entity.String()).Observe(duration.Seconds())
}

// AddThrottleRetry records one throttled-request backoff retry.
func (m *SyncMetrics) AddThrottleRetry(tenantID string) {
	m.retriesTotal.WithLabelValues(tenantID).Inc()
}

// AddRecords records one successful run's item counts.
func (m *SyncMetrics) AddRecords(entity domain.EntityType, processed, skipped, deleted int) {
	m.recordsTotal.WithLabelValues(entity.String()).Add(float64(processed))
	m.skippedTotal.WithLabelValues(entity.String()).Add(float64(skipped))
	m.deletedTotal.WithLabelValues(entity.String()).Add(float64(deleted))
}
