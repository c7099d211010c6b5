package domain

import "errors"

var (
	// ErrRateLimited is returned by the remote client once its retry
	// budget for 429 responses is exhausted.
	ErrRateLimited = errors.New("sync: remote rate limit retries exhausted")

	// ErrRemoteAuth indicates the remote store rejected the tenant's
	// credentials. Never retried locally.
	ErrRemoteAuth = errors.New("sync: remote authentication failed")

	// ErrRemoteUnavailable indicates a remote 5xx or transport failure.
	ErrRemoteUnavailable = errors.New("sync: remote store unavailable")

	// ErrSyncCancelled is raised by a strategy when the externally
	// supplied job handle reports the run is no longer active. The run
	// is recorded FAILED, but callers should treat it as a deliberate
	// stop rather than an incident.
	ErrSyncCancelled = errors.New("sync: cancelled by job handle")

	// ErrTenantNotConfigured indicates no remote credentials exist for
	// the requested tenant.
	ErrTenantNotConfigured = errors.New("sync: tenant not configured")
)
