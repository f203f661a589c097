package checker

import (
	"context"
	"net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// HostLimiter spaces out requests per host. The engine fetches two pages
// per record, often against the same handful of hosts, so the spacing is
// what keeps a large batch rate-limit-friendly.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	delay    time.Duration
}

// NewHostLimiter creates a limiter enforcing defaultDelay between requests
// to the same host.
func NewHostLimiter(defaultDelay time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		delay:    defaultDelay,
	}
}

// Wait blocks until a request to the given URL's host may proceed.
func (l *HostLimiter) Wait(ctx context.Context, urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return err
	}
	return l.getLimiter(parsed.Host).Wait(ctx)
}

// SetHostDelay overrides the delay for a specific host.
func (l *HostLimiter) SetHostDelay(host string, delay time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if delay <= 0 {
		delay = l.delay
	}
	l.limiters[host] = rate.NewLimiter(rate.Every(delay), 1)
}

func (l *HostLimiter) getLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[host]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Check again in case another goroutine created it
	if limiter, exists := l.limiters[host]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Every(l.delay), 1)
	l.limiters[host] = limiter
	return limiter
}
