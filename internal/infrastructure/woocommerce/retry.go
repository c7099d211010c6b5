package woocommerce

import "time"

// RetryConfig bounds the client's backoff loop for throttled requests.
type RetryConfig struct {
	// MaxAttempts is the total number of tries for a throttled request,
	// the initial attempt included.
	MaxAttempts int
	// BaseDelay is the wait before the first retry; each subsequent
	// retry doubles it.
	BaseDelay time.Duration
	// OnThrottle, when set, is invoked once per backoff retry with the
	// tenant whose request was throttled.
	OnThrottle func(tenantID string)
}

// DefaultRetryConfig returns the standard backoff settings: five
// attempts starting at two seconds (2s, 4s, 8s, 16s).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
	}
}

// delayFor returns the backoff wait preceding the given retry (the
// first retry is retry 0).
func (c RetryConfig) delayFor(retry int) time.Duration {
	return c.BaseDelay << retry
}
