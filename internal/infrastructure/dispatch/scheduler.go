package dispatch

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler drives periodic sync runs for the configured tenants:
// frequent incremental passes plus a nightly full pass, which is the
// only run type that reconciles orphans.
type Scheduler struct {
	cron       *cron.Cron
	dispatcher *Dispatcher
	tenants    []string
	logger     zerolog.Logger
}

// NewScheduler creates a scheduler over the dispatcher. incrementalSpec
// and fullSpec are standard cron expressions.
func NewScheduler(dispatcher *Dispatcher, tenants []string, incrementalSpec, fullSpec string, logger zerolog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:       cron.New(),
		dispatcher: dispatcher,
		tenants:    tenants,
		logger:     logger,
	}

	if _, err := s.cron.AddFunc(incrementalSpec, func() { s.runAll(true) }); err != nil {
		return nil, fmt.Errorf("failed to schedule incremental sync: %w", err)
	}
	if _, err := s.cron.AddFunc(fullSpec, func() { s.runAll(false) }); err != nil {
		return nil, fmt.Errorf("failed to schedule full sync: %w", err)
	}

	return s, nil
}

// Start begins firing scheduled runs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().
		Int("tenants", len(s.tenants)).
		Msg("Sync scheduler started")
}

// Stop halts the schedule and waits for in-flight callbacks.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Sync scheduler stopped")
}

// runAll processes tenants sequentially; the dispatcher's per-key
// exclusion keeps an overlapping tick from doubling up on a tenant.
func (s *Scheduler) runAll(incremental bool) {
	ctx := context.Background()
	for _, tenantID := range s.tenants {
		if err := s.dispatcher.DispatchAll(ctx, tenantID, incremental); err != nil {
			s.logger.Error().Err(err).
				Str("tenantId", tenantID).
				Bool("incremental", incremental).
				Msg("Scheduled sync finished with errors")
		}
	}
}
