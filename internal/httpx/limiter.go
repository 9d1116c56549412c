package httpx

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per host so a slow public endpoint
// (Wikidata, DBpedia) cannot be hammered by concurrent requests.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	limit    rate.Limit
	burst    int
}

// NewHostLimiter returns a limiter allowing perSecond requests per host.
// A non-positive rate disables limiting.
func NewHostLimiter(perSecond float64, burst int) *HostLimiter {
	if burst <= 0 {
		burst = 5
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return l.get(u.Host).Wait(ctx)
}

func (l *HostLimiter) get(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[host]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, ok := l.limiters[host]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(l.limit, l.burst)
	l.limiters[host] = limiter
	return limiter
}
