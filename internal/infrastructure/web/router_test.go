package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tennis-market-cache/internal/application/dto"
	"tennis-market-cache/internal/application/services"
	"tennis-market-cache/internal/domain/classification"
	"tennis-market-cache/internal/domain/entities"
	"tennis-market-cache/internal/infrastructure/config"
	"tennis-market-cache/internal/infrastructure/repositories/cache"
	"tennis-market-cache/internal/infrastructure/web/handlers"
)

// fakeRefresher instala un snapshot fijo en cada refresh
type fakeRefresher struct {
	store *cache.SnapshotStore
	calls int
}

func (f *fakeRefresher) RefreshNow(ctx context.Context) (*services.RefreshResult, error) {
	f.calls++
	f.store.Swap(classification.NewSnapshot("fresh", "fake", map[string]entities.Category{
		"111": entities.CategoryTennis,
		"333": entities.CategoryTennis,
	}))
	return &services.RefreshResult{CycleID: "fresh", Source: "fake", Installed: true, Size: 2, TennisTokens: 2}, nil
}

func (f *fakeRefresher) Status() services.RefreshStatus {
	return services.RefreshStatus{Running: true, Source: "fake"}
}

func newTestRouter(t *testing.T, mutate func(*RouterConfig)) (http.Handler, *fakeRefresher) {
	t.Helper()

	store := cache.NewSnapshotStoreWith(classification.NewSnapshot("c1", "fake", map[string]entities.Category{
		"111": entities.CategoryTennis,
		"222": entities.CategoryUnclassified,
	}))
	refresher := &fakeRefresher{store: store}

	cfg := RouterConfig{
		Store:     store,
		Refresher: refresher,
		Policy:    classification.DefaultBufferPolicy(),
		Auth: config.AuthConfig{
			Enabled:     true,
			APIKey:      "secret",
			HeaderName:  "X-API-Key",
			UnauthPaths: config.GetDefaultConfig().Auth.UnauthPaths,
		},
		RateLimit: config.RateLimitConfig{Enabled: true, Capacity: 5, RefillRate: 1},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	return NewRouter(cfg), refresher
}

func do(t *testing.T, h http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_PublicEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantBody   string
	}{
		{"health", http.MethodGet, "/health", http.StatusOK, `"healthy"`},
		{"ready", http.MethodGet, "/ready", http.StatusOK, `"ready"`},
		{"tennis token", http.MethodGet, "/api/v1/tokens/111", http.StatusOK, `"is_tennis":true`},
		{"unknown token", http.MethodGet, "/api/v1/tokens/nope", http.StatusOK, `"buffer":"0"`},
		{"snapshot", http.MethodGet, "/api/v1/snapshot", http.StatusOK, `"size":2`},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "tennis_cache_"},
		{"swagger doc", http.MethodGet, "/swagger/doc.json", http.StatusOK, "Tennis Market Cache API"},
		{"docs redirect", http.MethodGet, "/docs", http.StatusMovedPermanently, ""},
		{"token lookup is GET only", http.MethodPost, "/api/v1/tokens/111", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, router, tt.method, tt.target, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestRouter_RefreshRequiresAPIKey(t *testing.T) {
	router, refresher := newTestRouter(t, nil)

	w := do(t, router, http.MethodPost, "/api/v1/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, refresher.calls)

	w = do(t, router, http.MethodPost, "/api/v1/refresh", map[string]string{"X-API-Key": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, refresher.calls)

	var resp dto.RefreshResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Installed)

	// El snapshot nuevo es visible en el lookup siguiente
	w = do(t, router, http.MethodGet, "/api/v1/tokens/333", nil)
	assert.True(t, strings.Contains(w.Body.String(), `"is_tennis":true`))

	w = do(t, router, http.MethodGet, "/api/v1/refresh", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRouter_RefreshIsRateLimited(t *testing.T) {
	router, refresher := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.Auth.Enabled = false
		cfg.RateLimit = config.RateLimitConfig{Enabled: true, Capacity: 2, RefillRate: 1}
	})

	headers := map[string]string{"X-Forwarded-For": "10.1.1.1"}
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/v1/refresh", headers).Code)
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/v1/refresh", headers).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, router, http.MethodPost, "/api/v1/refresh", headers).Code)
	assert.Equal(t, 2, refresher.calls)

	// Otro cliente tiene su propio bucket y las lecturas no se limitan
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/v1/refresh", map[string]string{"X-Forwarded-For": "10.2.2.2"}).Code)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, do(t, router, http.MethodGet, "/api/v1/tokens/111", headers).Code)
	}
}

func TestRouter_StaticHandleRefreshUnavailable(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.Refresher = nil
		cfg.Auth.Enabled = false
	})

	w := do(t, router, http.MethodPost, "/api/v1/refresh", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, router, http.MethodGet, "/ready", nil)
	assert.Contains(t, w.Body.String(), `"static"`)
}

func TestRouter_ReadyReportsDependencyChecks(t *testing.T) {
	router, _ := newTestRouter(t, func(cfg *RouterConfig) {
		cfg.Checks = map[string]handlers.DependencyCheck{
			"source": func(context.Context) error { return nil },
			"stream": func(context.Context) error { return errors.New("market stream not connected") },
		}
	})

	w := do(t, router, http.MethodGet, "/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ready", resp.Services["source"])
	assert.Equal(t, "error: market stream not connected", resp.Services["stream"])
}
