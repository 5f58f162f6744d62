package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/kevinaaaquil/yamdb/apperr"
)

// Limiter counts a hit for key and reports whether it is within quota.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// RateLimit throttles requests per client IP under scope. A nil limiter disables it.
func RateLimit(limiter Limiter, scope string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(r.Context(), scope+":"+clientIP(r)) {
				w.Header().Set("Retry-After", "60")
				WriteError(w, r, apperr.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP is the socket peer, or the forwarded address when chi's RealIP ran first.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
