package policy

import (
	"sync"
	"time"
)

// rateLimitingPolicy implements RateLimitingPolicy using token bucket algorithm
type rateLimitingPolicy struct {
	enabled bool
	// perSecond is both the bucket capacity and its refill rate
	perSecond int
	buckets   map[string]*tokenBucket
	mu        sync.RWMutex
}

// tokenBucket implements a simple token bucket for rate limiting
type tokenBucket struct {
	capacity   int       // Maximum tokens
	tokens     int       // Current tokens
	refillRate int       // Tokens per second
	lastRefill time.Time // Last time tokens were refilled
	mu         sync.Mutex
}

// NewRateLimitingPolicy creates a policy allowing perSecond actions per key.
// A perSecond <= 0 disables limiting.
func NewRateLimitingPolicy(perSecond int) RateLimitingPolicy {
	return &rateLimitingPolicy{
		enabled:   perSecond > 0,
		perSecond: perSecond,
		buckets:   make(map[string]*tokenBucket),
	}
}

func (p *rateLimitingPolicy) Enabled() bool {
	return p.enabled
}

func (p *rateLimitingPolicy) Name() string {
	return "rate_limiting"
}

func (p *rateLimitingPolicy) bucket(key string, now time.Time) *tokenBucket {
	p.mu.RLock()
	b, exists := p.buckets[key]
	p.mu.RUnlock()
	if exists {
		return b
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Double-check after acquiring write lock
	if b, exists = p.buckets[key]; !exists {
		b = &tokenBucket{
			capacity:   p.perSecond,
			tokens:     p.perSecond,
			refillRate: p.perSecond,
			lastRefill: now,
		}
		p.buckets[key] = b
	}
	return b
}

// refill must be called with b.mu held
func (b *tokenBucket) refill(now time.Time) {
	elapsed := now.Sub(b.lastRefill)
	tokensToAdd := int(elapsed.Seconds() * float64(b.refillRate))
	if tokensToAdd > 0 {
		b.tokens = min(b.capacity, b.tokens+tokensToAdd)
		b.lastRefill = now
	}
}

func (p *rateLimitingPolicy) AllowRequest(key string, requestTime time.Time) bool {
	if !p.enabled {
		return true
	}

	b := p.bucket(key, requestTime)
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(requestTime)
	if b.tokens > 0 {
		b.tokens--
		return true
	}
	return false
}

func (p *rateLimitingPolicy) GetRemainingQuota(key string, now time.Time) int {
	if !p.enabled {
		return -1 // Unlimited
	}

	p.mu.RLock()
	b, exists := p.buckets[key]
	p.mu.RUnlock()
	if !exists {
		return p.perSecond
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.refill(now)
	return b.tokens
}

func (p *rateLimitingPolicy) Forget(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.buckets, key)
}
