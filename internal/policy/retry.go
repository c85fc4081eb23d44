package policy

import (
	"math"
	"time"

	"github.com/GoSim-25-26J-441/gansim/pkg/config"
)

// retryPolicy implements RetryPolicy
type retryPolicy struct {
	enabled    bool
	maxRetries int
	backoff    string // exponential, linear, constant
	baseMs     int
}

// NewRetryPolicyFromConfig creates the callback retry policy from config.
// Zero retries disables retrying.
func NewRetryPolicyFromConfig(cfg *config.Notify) RetryPolicy {
	return &retryPolicy{
		enabled:    cfg.MaxRetries > 0,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		baseMs:     cfg.BaseMs,
	}
}

// NewRetryPolicy creates a retry policy with explicit parameters
func NewRetryPolicy(enabled bool, maxRetries int, backoff string, baseMs int) RetryPolicy {
	return &retryPolicy{
		enabled:    enabled,
		maxRetries: maxRetries,
		backoff:    backoff,
		baseMs:     baseMs,
	}
}

func (p *retryPolicy) Enabled() bool {
	return p.enabled
}

func (p *retryPolicy) Name() string {
	return "retry"
}

func (p *retryPolicy) ShouldRetry(attempt int, err error) bool {
	if !p.enabled || err == nil {
		return false
	}
	return attempt < p.maxRetries
}

func (p *retryPolicy) GetBackoffDuration(attempt int) time.Duration {
	if !p.enabled || attempt <= 0 {
		return 0
	}

	var durationMs int
	switch p.backoff {
	case "linear":
		durationMs = p.baseMs * attempt
	case "constant":
		durationMs = p.baseMs
	default:
		// baseMs * 2^(attempt-1)
		durationMs = p.baseMs * int(math.Pow(2, float64(attempt-1)))
	}
	return time.Duration(durationMs) * time.Millisecond
}

func (p *retryPolicy) GetMaxRetries() int {
	if !p.enabled {
		return 0
	}
	return p.maxRetries
}
