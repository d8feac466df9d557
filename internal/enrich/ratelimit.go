package enrich

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Rogue-Bear-Innovations/bookmarker/internal/config"
)

// limiterIdleTTL is how long an unused host keeps its bucket. It is far
// longer than any bucket takes to refill, so a dropped bucket would have
// been full anyway.
const limiterIdleTTL = 10 * time.Minute

type hostBucket struct {
	limiter  *rate.Limiter
	lastUsed time.Time
}

// HostLimiter hands out one token bucket per remote host so a burst of
// bookmarks for one site does not hammer it. Buckets idle for longer than
// limiterIdleTTL are dropped.
type HostLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*hostBucket
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

func NewHostLimiter(cfg *config.Config) *HostLimiter {
	return &HostLimiter{
		buckets: make(map[string]*hostBucket),
		limit:   rate.Limit(cfg.FetchRPS),
		burst:   cfg.FetchBurst,
		now:     time.Now,
	}
}

// Wait blocks until host may be contacted or ctx is done.
func (h *HostLimiter) Wait(ctx context.Context, host string) error {
	return h.get(host).Wait(ctx)
}

func (h *HostLimiter) get(host string) *rate.Limiter {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := h.now()
	if now.Sub(h.lastSweep) >= limiterIdleTTL {
		h.sweep(now)
	}

	b, ok := h.buckets[host]
	if !ok {
		b = &hostBucket{limiter: rate.NewLimiter(h.limit, h.burst)}
		h.buckets[host] = b
	}
	b.lastUsed = now
	return b.limiter
}

// sweep must be called with mu held.
func (h *HostLimiter) sweep(now time.Time) {
	for host, b := range h.buckets {
		if now.Sub(b.lastUsed) >= limiterIdleTTL {
			delete(h.buckets, host)
		}
	}
	h.lastSweep = now
}

func (h *HostLimiter) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.buckets)
}
