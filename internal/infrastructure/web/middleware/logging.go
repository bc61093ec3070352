package middleware

import (
	"net/http"
	"strings"

	"tennis-market-cache/internal/infrastructure/logging"
)

// Patrones comunes de ataques, comparados en mayúsculas
var suspiciousPatterns = []string{
	"../",
	"<SCRIPT",
	"SELECT ",
	"UNION ",
	"DROP ",
	"EXEC(",
	"EVAL(",
}

// LoggingMiddleware logs request details with the domain loggers.
// RequestTracingMiddleware handles the completion log line.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		remoteIP := getRemoteIP(r)

		logging.HTTP().RequestReceived(ctx, r.Method, r.URL.Path, r.UserAgent(), remoteIP)

		logging.Debug(ctx, "Processing HTTP request", logging.Fields{
			"headers":        extractImportantHeaders(r),
			"query":          r.URL.RawQuery,
			"content_length": r.ContentLength,
		})

		if reason := suspiciousReason(r); reason != "" {
			logging.Security().Warn(ctx, "Suspicious request pattern", logging.Fields{
				logging.FieldClientIP: remoteIP,
				logging.FieldHTTPPath: r.URL.Path,
				"reason":              reason,
			})
		}

		next.ServeHTTP(w, r)
	})
}

// extractImportantHeaders extracts relevant headers for logging
func extractImportantHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string)

	// Nunca loguear el header de la API key
	importantHeaders := []string{
		"Content-Type",
		"Accept",
		"X-Forwarded-For",
		"X-Real-IP",
	}

	for _, header := range importantHeaders {
		if value := r.Header.Get(header); value != "" {
			headers[header] = value
		}
	}

	return headers
}

// suspiciousReason detecta patrones sospechosos en la request
func suspiciousReason(r *http.Request) string {
	path := strings.ToUpper(r.URL.Path)
	query := strings.ToUpper(r.URL.RawQuery)

	for _, pattern := range suspiciousPatterns {
		if strings.Contains(path, pattern) || strings.Contains(query, pattern) {
			return "unusual_request_pattern"
		}
	}

	// Content-Length inusualmente grande
	if r.ContentLength > 1024*1024 {
		return "large_body"
	}

	return ""
}
