package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/fleetrent/fleetrent-backend/internal/http/response"
	"github.com/fleetrent/fleetrent-backend/internal/repo/postgres"
	"github.com/fleetrent/fleetrent-backend/pkg/logger"
)

// RateLimitConfig defines rate limiting parameters
type RateLimitConfig struct {
	Requests int           // Max requests per window
	Window   time.Duration // Time window duration
	KeyFunc  func(r *http.Request) []string
}

type RateLimiter struct {
	repo   postgres.RateLimitRepository
	config RateLimitConfig
}

func NewRateLimiter(repo postgres.RateLimitRepository, config RateLimitConfig) *RateLimiter {
	if config.KeyFunc == nil {
		config.KeyFunc = func(r *http.Request) []string {
			return []string{ClientIP(r)}
		}
	}
	return &RateLimiter{repo: repo, config: config}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, key := range rl.config.KeyFunc(r) {
				ok, err := rl.repo.CheckRateLimit(r.Context(), key, rl.config.Requests, rl.config.Window)
				if err != nil {
					logger.WarnContext(r.Context(), "Rate limit check failed", "error", err)
					continue
				}
				if !ok {
					response.RateLimit(w, "Too many requests. Try again later.")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP strips the port from RemoteAddr, falling back to the raw value.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
