package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "tennis-market-cache/internal/docs"
	"tennis-market-cache/internal/domain/classification"
	"tennis-market-cache/internal/infrastructure/config"
	"tennis-market-cache/internal/infrastructure/metrics"
	"tennis-market-cache/internal/infrastructure/ratelimit"
	"tennis-market-cache/internal/infrastructure/web/handlers"
	"tennis-market-cache/internal/infrastructure/web/middleware"
)

// RouterConfig holds what the HTTP surface needs. Refresher is nil for a
// static cache handle. Checks are reported by /ready under their names.
type RouterConfig struct {
	Store     handlers.SnapshotReader
	Refresher handlers.Refresher
	Policy    classification.BufferPolicy
	Checks    map[string]handlers.DependencyCheck
	Auth      config.AuthConfig
	RateLimit config.RateLimitConfig
}

// NewRouter builds the routes and wraps them with the middleware chain:
// tracing, metrics, logging and auth, outermost first. Only the refresh
// endpoint is rate limited.
func NewRouter(cfg RouterConfig) http.Handler {
	health := handlers.NewHealthHandler(cfg.Store, cfg.Refresher, cfg.Checks)
	tokens := handlers.NewTokenHandler(cfg.Store, cfg.Refresher, cfg.Policy)
	limiter := ratelimit.NewRateLimitMiddleware(cfg.RateLimit)

	r := mux.NewRouter()

	r.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	r.HandleFunc("/ready", health.Ready).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	r.PathPrefix("/swagger/").Handler(httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.HandleFunc("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/", http.StatusMovedPermanently)
	})

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/tokens/{tokenID}", tokens.GetToken).Methods(http.MethodGet)
	api.HandleFunc("/snapshot", tokens.GetSnapshot).Methods(http.MethodGet)
	api.Handle("/refresh", limiter.Handler(http.HandlerFunc(tokens.Refresh))).Methods(http.MethodPost)

	var h http.Handler = r
	h = middleware.NewAuthMiddleware(cfg.Auth).Handler(h)
	h = middleware.LoggingMiddleware(h)
	h = metrics.HTTPMetricsMiddleware(h)
	h = middleware.RequestTracingMiddleware(h)

	return h
}
