package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/kbukum/vidscribe/errors"
	"github.com/kbukum/vidscribe/resilience"
)

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	// Limit is the token bucket applied to each key.
	Limit resilience.RateLimiterConfig
	// KeyFunc extracts the limiter key. Defaults to the client IP.
	KeyFunc func(*http.Request) string
	// IdleTTL drops buckets of keys not seen for this long. Defaults to 10m.
	IdleTTL time.Duration
}

// RateLimit rejects requests beyond the per-key token bucket with 429 and a
// Retry-After header. A disabled Limit passes everything through.
func RateLimit(cfg RateLimitConfig) Middleware {
	if !cfg.Limit.Enabled() {
		return func(next http.Handler) http.Handler { return next }
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ClientIP
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	buckets := &bucketSet{cfg: cfg.Limit, ttl: cfg.IdleTTL, entries: make(map[string]*bucket)}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rl := buckets.get(cfg.KeyFunc(r), time.Now())
			if !rl.Allow() {
				secs := int(math.Ceil(rl.RetryAfter().Seconds()))
				w.Header().Set("Retry-After", strconv.Itoa(max(1, secs)))
				writeError(w, apperrors.RateLimited())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the host part of the request's remote address.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type bucket struct {
	limiter  *resilience.RateLimiter
	lastSeen time.Time
}

type bucketSet struct {
	cfg       resilience.RateLimiterConfig
	ttl       time.Duration
	mu        sync.Mutex
	entries   map[string]*bucket
	lastSweep time.Time
}

func (s *bucketSet) get(key string, now time.Time) *resilience.RateLimiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) > s.ttl {
		for k, b := range s.entries {
			if now.Sub(b.lastSeen) > s.ttl {
				delete(s.entries, k)
			}
		}
		s.lastSweep = now
	}

	b, ok := s.entries[key]
	if !ok {
		b = &bucket{limiter: resilience.NewRateLimiter(s.cfg)}
		s.entries[key] = b
	}
	b.lastSeen = now
	return b.limiter
}
