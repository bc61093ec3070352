package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tennis-market-cache/internal/infrastructure/config"
	"tennis-market-cache/internal/infrastructure/logging"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestAuthMiddleware(t *testing.T) {
	cfg := config.AuthConfig{
		Enabled:     true,
		APIKey:      "secret",
		HeaderName:  "X-API-Key",
		UnauthPaths: []string{"/health", "/api/v1/tokens/"},
	}

	tests := []struct {
		name       string
		cfg        config.AuthConfig
		path       string
		key        string
		wantStatus int
		wantCode   string
	}{
		{"valid key", cfg, "/api/v1/refresh", "secret", http.StatusOK, ""},
		{"missing key", cfg, "/api/v1/refresh", "", http.StatusUnauthorized, "API_KEY_MISSING"},
		{"wrong key", cfg, "/api/v1/refresh", "nope", http.StatusUnauthorized, "API_KEY_INVALID"},
		{"exact unauth path", cfg, "/health", "", http.StatusOK, ""},
		{"unauth path is not a prefix", cfg, "/healthz", "", http.StatusUnauthorized, "API_KEY_MISSING"},
		{"prefix unauth path", cfg, "/api/v1/tokens/123", "", http.StatusOK, ""},
		{"disabled", config.AuthConfig{Enabled: false}, "/api/v1/refresh", "", http.StatusOK, ""},
		{"empty configured key rejects", config.AuthConfig{Enabled: true}, "/api/v1/refresh", "x", http.StatusUnauthorized, "API_KEY_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAuthMiddleware(tt.cfg).Handler(okHandler)

			req := httptest.NewRequest(http.MethodPost, tt.path, nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				var resp AuthResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantCode, resp.Code)
				assert.NotEmpty(t, w.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequestTracingMiddleware(t *testing.T) {
	var seen string
	handler := RequestTracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetRequestID(r.Context())
		_, _ = w.Write([]byte("ok"))
	}))

	t.Run("generates request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		id := w.Header().Get(RequestIDHeader)
		assert.NotEmpty(t, id)
		assert.Equal(t, id, seen)
	})

	t.Run("keeps incoming request id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "upstream-id")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
		assert.Equal(t, "upstream-id", seen)
	})
}

func TestSuspiciousReason(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   string
	}{
		{"normal lookup", "/api/v1/tokens/123", ""},
		{"path traversal", "/api/v1/tokens/../../etc/passwd", "unusual_request_pattern"},
		{"script in query", "/api/v1/snapshot?q=%3Cscript%3E", ""},
		{"sql in query", "/api/v1/snapshot?q=union%20select", ""},
		{"raw script in query", "/api/v1/snapshot?q=<script>", "unusual_request_pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.URL.Path, req.URL.RawQuery, _ = strings.Cut(tt.target, "?")
			assert.Equal(t, tt.want, suspiciousReason(req))
		})
	}
}

func TestGetRemoteIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1:5555", getRemoteIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", getRemoteIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", getRemoteIP(req))
}
