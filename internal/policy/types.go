package policy

import "time"

// Policy represents a generic policy interface
type Policy interface {
	// Enabled returns whether the policy is enabled
	Enabled() bool
	// Name returns the policy name for identification
	Name() string
}

// RateLimitingPolicy limits how often a keyed caller may act
type RateLimitingPolicy interface {
	Policy
	// AllowRequest consumes a token for key if one is available at requestTime
	AllowRequest(key string, requestTime time.Time) bool
	// GetRemainingQuota returns the tokens left for key at now, or -1 when unlimited
	GetRemainingQuota(key string, now time.Time) int
	// Forget drops the bucket for key
	Forget(key string)
}

// RetryPolicy handles retry logic for failed deliveries
type RetryPolicy interface {
	Policy
	// ShouldRetry determines if an attempt should be retried
	ShouldRetry(attempt int, err error) bool
	// GetBackoffDuration calculates the backoff duration for a retry attempt
	GetBackoffDuration(attempt int) time.Duration
	// GetMaxRetries returns the maximum number of retries allowed
	GetMaxRetries() int
}
