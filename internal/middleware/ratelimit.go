package middleware

import (
	"context"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	appErrors "github.com/noah-isme/sma-appointments-api/pkg/errors"
	"github.com/noah-isme/sma-appointments-api/pkg/response"
)

const defaultBurst = 5

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter throttles requests per client IP with a token bucket.
type RateLimiter struct {
	limiters sync.Map
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

// NewRateLimiter builds a limiter allowing rps sustained requests per client
// with the given burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst <= 0 {
		burst = defaultBurst
	}
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &RateLimiter{limit: limit, burst: burst, idleTTL: 10 * time.Minute, now: time.Now}
}

func (l *RateLimiter) get(key string) *rate.Limiter {
	now := l.now()
	if v, ok := l.limiters.Load(key); ok {
		if entry, ok := v.(*clientLimiter); ok {
			entry.lastSeen.Store(now.UnixNano())
			return entry.limiter
		}
	}
	entry := &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
	entry.lastSeen.Store(now.UnixNano())
	actual, loaded := l.limiters.LoadOrStore(key, entry)
	if loaded {
		if existing, ok := actual.(*clientLimiter); ok {
			existing.lastSeen.Store(now.UnixNano())
			return existing.limiter
		}
	}
	return entry.limiter
}

// Allow consumes a token for key.
func (l *RateLimiter) Allow(key string) bool {
	return l.get(key).AllowN(l.now(), 1)
}

// Sweep drops limiters idle for longer than the idle TTL.
func (l *RateLimiter) Sweep() int {
	cutoff := l.now().Add(-l.idleTTL).UnixNano()
	removed := 0
	l.limiters.Range(func(key, value interface{}) bool {
		if entry, ok := value.(*clientLimiter); ok && entry.lastSeen.Load() < cutoff {
			l.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// Run sweeps idle limiters until ctx is done.
func (l *RateLimiter) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}

// RateLimit rejects requests over the per-client budget with 429 {message}.
func RateLimit(l *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || l.limit == rate.Inf {
			c.Next()
			return
		}
		if !l.Allow(c.ClientIP()) {
			retry := 1
			if l.limit > 0 {
				retry = int(math.Ceil(1 / float64(l.limit)))
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			response.ErrorMessage(c, appErrors.ErrRateLimited)
			c.Abort()
			return
		}
		c.Next()
	}
}
