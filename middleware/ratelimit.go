package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/upb/hotel-booking-api/services"
	"github.com/upb/hotel-booking-api/utils"
)

// RateLimiter limits requests per client IP with a token bucket per key.
// Each client may burst up to maxRequests and refills at maxRequests per window.
type RateLimiter struct {
	limit       rate.Limit
	burst       int
	window      time.Duration
	logger      *zap.Logger
	now         func() time.Time
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	lastCleanup time.Time
}

// NewRateLimiter creates a per-IP rate limiter
func NewRateLimiter(maxRequests int, window time.Duration, logger *zap.Logger) *RateLimiter {
	if maxRequests <= 0 {
		maxRequests = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		limit:       rate.Limit(float64(maxRequests) / window.Seconds()),
		burst:       maxRequests,
		window:      window,
		logger:      logger,
		now:         time.Now,
		limiters:    make(map[string]*rate.Limiter),
		lastCleanup: time.Now(),
	}
}

// Allow reports whether a request from key may proceed now
func (rl *RateLimiter) Allow(key string) bool {
	now := rl.now()

	rl.mu.Lock()
	rl.cleanup(now)
	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[key] = limiter
	}
	rl.mu.Unlock()

	return limiter.AllowN(now, 1)
}

// cleanup drops limiters whose buckets have refilled; caller holds mu
func (rl *RateLimiter) cleanup(now time.Time) {
	if now.Sub(rl.lastCleanup) < rl.window {
		return
	}
	rl.lastCleanup = now
	for key, limiter := range rl.limiters {
		if limiter.TokensAt(now) >= float64(rl.burst) {
			delete(rl.limiters, key)
		}
	}
}

// Limit is the HTTP middleware form of the limiter
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)
		if rl.Allow(key) {
			next.ServeHTTP(w, r)
			return
		}

		rl.logger.Warn("rate limit exceeded",
			zap.String("request_id", GetRequestIDFromContext(r.Context())),
			zap.String("client_ip", key),
			zap.String("path", r.URL.Path))

		w.Header().Set("Retry-After", strconv.Itoa(max(int(rl.window.Seconds()), 1)))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		if err := utils.WriteServiceError(w, services.ErrRateLimitExceeded); err != nil {
			rl.logger.Error("failed to write rate limit response", zap.Error(err))
		}
	})
}

// clientIP returns the host part of RemoteAddr, which chi's RealIP
// middleware has already rewritten for proxied requests.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
