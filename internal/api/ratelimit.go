package api

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/isdelr/codeshot-be/internal/api/handlers"
	"github.com/isdelr/codeshot-be/internal/apperrors"
	"github.com/isdelr/codeshot-be/internal/auth"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// Counter is satisfied by prometheus.Counter.
type Counter interface {
	Inc()
}

// RateLimiter keeps one token bucket per caller key.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	every    time.Duration
	burst    int
	rejected Counter
}

// NewRateLimiter allows perMinute requests per key per minute, with bursts
// of up to burst requests. rejected, if set, counts refused requests.
func NewRateLimiter(perMinute, burst int, rejected Counter) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		every:    time.Minute / time.Duration(perMinute),
		burst:    burst,
		rejected: rejected,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(rl.every), rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// allow reports whether key may proceed and answers 429 when it may not.
func (rl *RateLimiter) allow(w http.ResponseWriter, r *http.Request, key string) bool {
	if rl.getLimiter(key).Allow() {
		return true
	}
	log.Warn().Str("key", key).Str("path", r.URL.Path).Msg("Rate limit exceeded")
	if rl.rejected != nil {
		rl.rejected.Inc()
	}
	w.Header().Set("Retry-After", "60")
	handlers.WriteError(w, r, apperrors.New(apperrors.ErrRateLimited, "Rate limit exceeded"))
	return false
}

// PerUser limits authenticated callers by username. It must run after
// auth.Middleware.
func (rl *RateLimiter) PerUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := auth.UserFromContext(r.Context())
		if !ok {
			auth.Unauthorized(w, "Not authenticated")
			return
		}
		if rl.allow(w, r, "user:"+user.Username) {
			next.ServeHTTP(w, r)
		}
	})
}

// PerIP limits anonymous callers by client address. Behind a proxy it relies
// on middleware.RealIP having rewritten RemoteAddr.
func (rl *RateLimiter) PerIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.allow(w, r, "ip:"+clientIP(r)) {
			next.ServeHTTP(w, r)
		}
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
