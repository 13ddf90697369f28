// ABOUTME: HTTP router assembly for the API server
// ABOUTME: Mounts the route table behind CORS, logging, metrics, and rate limits

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sqlnova/migration-planner/config"
	"github.com/sqlnova/migration-planner/middleware"
)

// NewRouter mounts every API route behind the middleware chain.
// Order: CORS, logging, metrics, then the route's rate limit tier.
func NewRouter(cfg *config.Config, h *Handler) *http.ServeMux {
	var writeLimiter, defaultLimiter *middleware.RateLimiter
	if cfg.RateLimitEnabled {
		writeLimiter = middleware.NewRateLimiter(cfg.RateLimitWrite, time.Minute)
		defaultLimiter = middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute)
		slog.Info("Rate limiting enabled", "write_per_min", cfg.RateLimitWrite, "default_per_min", cfg.RateLimitDefault)
	} else {
		slog.Warn("Rate limiting disabled")
	}

	mux := http.NewServeMux()
	cors := middleware.CORSWithConfig(cfg.CORSAllowedOrigins)

	for _, route := range h.Routes() {
		limiter := defaultLimiter
		if route.Write {
			limiter = writeLimiter
		}
		mux.HandleFunc(route.Pattern(), middleware.Chain(route.Handler,
			cors,
			middleware.LogRequest,
			middleware.Instrument(route.Pattern()),
			middleware.RateLimit(limiter, middleware.ClientIP),
		))
	}

	// Preflight requests must reach CORS even though routes are method-scoped
	mux.HandleFunc("OPTIONS /api/v1/", cors(func(w http.ResponseWriter, r *http.Request) {}))

	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
