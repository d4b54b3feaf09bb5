package worker

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// localKey groups every document without a URL host
const localKey = "local"

// Limiter implements per-host rate limiting for document loads
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  limit,
		defaultBurst: burst,
	}
}

// Wait waits for rate limit clearance for the given location
func (l *Limiter) Wait(ctx context.Context, location string) error {
	host, err := extractHost(location)
	if err != nil {
		return err
	}

	return l.getLimiter(host).Wait(ctx)
}

// Allow checks if a load is allowed without waiting
func (l *Limiter) Allow(location string) bool {
	host, err := extractHost(location)
	if err != nil {
		return false
	}

	return l.getLimiter(host).Allow()
}

// getLimiter returns the rate limiter for a host
func (l *Limiter) getLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter

	return limiter
}

// extractHost returns the host of a URL, or localKey for plain paths and file URLs
func extractHost(location string) (string, error) {
	if !strings.Contains(location, "://") {
		return localKey, nil
	}

	parsed, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	if parsed.Host == "" {
		return localKey, nil
	}
	return parsed.Host, nil
}

// IsRemote reports whether a location names a document on another host
func IsRemote(location string) bool {
	host, err := extractHost(location)
	return err == nil && host != localKey
}
