// Package dispatch runs sync jobs in-process: it owns the job handles
// the strategies poll, enforces the one-run-per-(tenant, entity) rule,
// and hosts the cron schedule that enqueues periodic runs.
package dispatch

import "sync/atomic"

// Handle is the in-process implementation of the job runner contract:
// progress reporting plus a cooperative cancellation flag.
type Handle struct {
	progress atomic.Int64
	active   atomic.Bool
}

// NewHandle creates an active job handle.
func NewHandle() *Handle {
	h := &Handle{}
	h.active.Store(true)
	return h
}

// UpdateProgress records fractional completion in percent.
func (h *Handle) UpdateProgress(percent int) {
	h.progress.Store(int64(percent))
}

// Progress returns the last reported completion percentage.
func (h *Handle) Progress() int {
	return int(h.progress.Load())
}

// IsActive reports whether the run should keep going.
func (h *Handle) IsActive() bool {
	return h.active.Load()
}

// Cancel flips the active flag; the running strategy notices after the
// page it is currently processing.
func (h *Handle) Cancel() {
	h.active.Store(false)
}
