package api

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/RennanRnz/rfv-project/pkg/logger"
	"github.com/RennanRnz/rfv-project/pkg/redis"
)

// UploadLimiter throttles the analyze endpoint per client IP.
// With Redis enabled the budget is shared by every replica; otherwise a
// token bucket per IP is kept in process.
type UploadLimiter struct {
	mu         sync.Mutex
	buckets    map[string]*rate.Limiter
	ratePerSec float64
	burst      int
	shared     *redis.RateLimiter
	logger     *logger.Logger
}

// NewUploadLimiter creates a limiter of ratePerSec requests with the given burst.
// shared may be nil.
func NewUploadLimiter(ratePerSec float64, burst int, shared *redis.RateLimiter, log *logger.Logger) *UploadLimiter {
	return &UploadLimiter{
		buckets:    make(map[string]*rate.Limiter),
		ratePerSec: ratePerSec,
		burst:      burst,
		shared:     shared,
		logger:     log,
	}
}

// Allow reports whether client may upload now
func (l *UploadLimiter) Allow(r *http.Request, client string) bool {
	if l.shared != nil {
		allowed, _, err := l.shared.Allow(r.Context(), redis.UploadLimit(client, l.ratePerSec, l.burst))
		if err == nil {
			return allowed
		}
		l.logger.WithError(err).Warn("Shared rate limit unavailable, using local limiter")
	}

	l.mu.Lock()
	bucket, ok := l.buckets[client]
	if !ok {
		bucket = rate.NewLimiter(rate.Limit(l.ratePerSec), l.burst)
		l.buckets[client] = bucket
	}
	l.mu.Unlock()

	return bucket.Allow()
}

// Middleware rejects throttled requests with 429
func (l *UploadLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r, clientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{
				"error":   "rate_limited",
				"message": "Too many uploads, retry shortly",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
