package api

import (
	"net/http"
	"time"

	"github.com/tastebookapp/tastebook-server/internal/http/response"
	"github.com/tastebookapp/tastebook-server/internal/ratelimit"
)

// RateLimiter limits requests per client key.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a rate limiter allowing ratePerInterval requests per
// interval with the given burst.
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	rps := float64(ratePerInterval) / interval.Seconds()
	return ratelimit.New(rps, burst)
}

// RateLimitMiddleware rate limits requests by client IP, returning 429 when
// the limit is exceeded.
func RateLimitMiddleware(limiter *RateLimiter, logger interface{ Warn(msg string, args ...any) }) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)

			if !limiter.Allow(key) {
				if logger != nil {
					logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
				}
				response.TooManyRequests(w, "too many requests, try again later", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP, preferring proxy headers over
// RemoteAddr.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the client.
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	for i := len(ip) - 1; i >= 0; i-- {
		if ip[i] == ':' {
			return ip[:i]
		}
	}
	return ip
}
