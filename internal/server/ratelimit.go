package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/KAOS-CODM/KaosSub/internal/api"
)

// ipThrottle keeps a token bucket per client IP. Buckets idle past
// their ttl are dropped so the map stays bounded.
type ipThrottle struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
}

type bucket struct {
	limiter *rate.Limiter
	touched time.Time
}

func newIPThrottle(rps float64, burst int, ttl time.Duration) *ipThrottle {
	t := &ipThrottle{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(rps),
		burst:   burst,
		ttl:     ttl,
	}
	go t.evictLoop()
	return t
}

func (t *ipThrottle) evictLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		t.mu.Lock()
		for ip, b := range t.buckets {
			if time.Since(b.touched) > t.ttl {
				delete(t.buckets, ip)
			}
		}
		t.mu.Unlock()
	}
}

func (t *ipThrottle) allow(ip string) bool {
	t.mu.Lock()
	b, ok := t.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.buckets[ip] = b
	}
	b.touched = time.Now()
	t.mu.Unlock()

	return b.limiter.Allow()
}

// RateLimitMiddleware throttles requests per client IP. rps refills the
// bucket, burst caps it.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	throttle := newIPThrottle(rps, burst, 3*time.Minute)

	return func(c *gin.Context) {
		if !throttle.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, api.ErrorResponse{Error: "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
