package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/diewo77/go-crm/httpx"
	"github.com/diewo77/go-crm/internal/logging"
)

// idleVisitor is how long an unused per-client bucket is kept.
const idleVisitor = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	rps   rate.Limit
	burst int

	proxies *TrustedProxies

	mu       sync.Mutex
	visitors map[string]*visitor
	swept    time.Time
	now      func() time.Time
}

func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

// TrustProxies lets the listed proxies report the client address.
func (l *RateLimiter) TrustProxies(p *TrustedProxies) *RateLimiter {
	l.proxies = p
	return l
}

// Allow consumes a token from key's bucket.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) > idleVisitor {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > idleVisitor {
				delete(l.visitors, k)
			}
		}
		l.swept = now
	}
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Handler answers 429 once the client's bucket is empty.
func (l *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := l.proxies.ClientIP(r)
		if !l.Allow(ip) {
			logging.FromContext(r.Context()).
				WithField("path", r.URL.Path).
				WithField("remote", ip).
				Warn("rate limit exceeded")
			w.Header().Set("Retry-After", l.retryAfter())
			httpx.JSONError(w, http.StatusTooManyRequests, "rate_limited", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// retryAfter is the refill time of one token, in whole seconds.
func (l *RateLimiter) retryAfter() string {
	return strconv.Itoa(int(math.Ceil(1 / float64(l.rps))))
}
