package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the tennis market cache
var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_cache_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tennis_cache_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPResponseSizeBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tennis_cache_http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		},
		[]string{"method", "path"},
	)

	// Refresh Metrics
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_cache_refresh_total",
			Help: "Total number of refresh cycles by result",
		},
		[]string{"result"}, // result: success/fetch_error/validation_error
	)

	RefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tennis_cache_refresh_duration_seconds",
			Help:    "Duration of a full refresh cycle (fetch, classify, validate, swap)",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
	)

	SnapshotTokens = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tennis_cache_snapshot_tokens",
			Help: "Number of tokens in the installed snapshot by category",
		},
		[]string{"category"},
	)

	SnapshotSwapsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tennis_cache_snapshot_swaps_total",
			Help: "Total number of snapshots installed",
		},
	)

	RefreshConsecutiveFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_cache_refresh_consecutive_failures",
			Help: "Refresh cycles failed in a row since the last success",
		},
	)

	RefreshEscalated = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_cache_refresh_escalated",
			Help: "1 while consecutive refresh failures are at or above the escalation threshold",
		},
	)

	LastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_cache_last_success_timestamp_seconds",
			Help: "Unix time of the last successful refresh",
		},
	)

	SourceRecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_cache_source_records_skipped_total",
			Help: "Upstream records dropped before classification, by stage (decode or invalid)",
		},
		[]string{"source", "stage"},
	)

	// External API Metrics
	ExternalAPIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_cache_external_api_requests_total",
			Help: "Total number of external API requests",
		},
		[]string{"service", "endpoint", "status_code"},
	)

	ExternalAPIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tennis_cache_external_api_request_duration_seconds",
			Help:    "External API request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0},
		},
		[]string{"service", "endpoint"},
	)

	ExternalAPIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_cache_external_api_retries_total",
			Help: "Total number of external API retry attempts",
		},
		[]string{"service", "endpoint", "attempt"},
	)

	// Stream Metrics
	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_cache_stream_events_total",
			Help: "Lifecycle events received from the market stream",
		},
		[]string{"event_type", "action"}, // action: triggered/throttled/ignored
	)

	StreamConnectionStatus = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tennis_cache_stream_connection_status",
			Help: "Market stream connection status (1=connected, 0=disconnected)",
		},
	)

	StreamReconnectionAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_cache_stream_reconnection_attempts_total",
			Help: "Total number of market stream reconnection attempts",
		},
		[]string{"reason"},
	)

	// Rate Limiting Metrics
	RateLimitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tennis_cache_rate_limit_requests_total",
			Help: "Total number of requests processed by rate limiter",
		},
		[]string{"result"}, // result: allowed/blocked
	)

	// Application Metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tennis_cache_application_info",
			Help: "Application information",
		},
		[]string{"version", "source"},
	)
)

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path string, statusCode int, duration float64, responseSize int64) {
	HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)

	if responseSize > 0 {
		HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}

// RecordRefresh records the outcome of one refresh cycle
func RecordRefresh(result string, duration time.Duration) {
	RefreshTotal.WithLabelValues(result).Inc()
	RefreshDuration.Observe(duration.Seconds())
}

// RecordSnapshotInstalled updates the snapshot gauges after a swap
func RecordSnapshotInstalled(countsByCategory map[string]int, at time.Time) {
	SnapshotSwapsTotal.Inc()
	for category, n := range countsByCategory {
		SnapshotTokens.WithLabelValues(category).Set(float64(n))
	}
	LastSuccessTimestamp.Set(float64(at.Unix()))
}

// UpdateRefreshFailures sets the consecutive failure gauge
func UpdateRefreshFailures(consecutive int) {
	RefreshConsecutiveFailures.Set(float64(consecutive))
}

// SetRefreshEscalated flips the escalation gauge
func SetRefreshEscalated(escalated bool) {
	v := 0.0
	if escalated {
		v = 1.0
	}
	RefreshEscalated.Set(v)
}

// Stages for tennis_cache_source_records_skipped_total
const (
	SkipStageDecode  = "decode"
	SkipStageInvalid = "invalid"
)

// RecordSkippedRecords counts upstream records dropped at stage. decode is
// reported by the source adapters, invalid by the refresh cycle.
func RecordSkippedRecords(source, stage string, n int) {
	if n <= 0 {
		return
	}
	SourceRecordsSkipped.WithLabelValues(source, stage).Add(float64(n))
}

// RecordExternalAPICall records external API call metrics
func RecordExternalAPICall(service, endpoint string, statusCode int, duration float64) {
	ExternalAPIRequestsTotal.WithLabelValues(service, endpoint, strconv.Itoa(statusCode)).Inc()
	ExternalAPIRequestDuration.WithLabelValues(service, endpoint).Observe(duration)
}

// RecordExternalAPIRetry records external API retry attempts
func RecordExternalAPIRetry(service, endpoint string, attempt int) {
	ExternalAPIRetries.WithLabelValues(service, endpoint, strconv.Itoa(attempt)).Inc()
}

// RecordStreamEvent cuenta eventos del stream por tipo y acción tomada
func RecordStreamEvent(eventType, action string) {
	StreamEventsTotal.WithLabelValues(eventType, action).Inc()
}

// UpdateStreamConnectionStatus updates the stream connection gauge
func UpdateStreamConnectionStatus(connected bool) {
	status := 0.0
	if connected {
		status = 1.0
	}
	StreamConnectionStatus.Set(status)
}

// RecordStreamReconnectionAttempt records stream reconnection attempts
func RecordStreamReconnectionAttempt(reason string) {
	StreamReconnectionAttempts.WithLabelValues(reason).Inc()
}

// RecordRateLimitResult records rate limiting results
func RecordRateLimitResult(allowed bool) {
	result := "blocked"
	if allowed {
		result = "allowed"
	}
	RateLimitRequestsTotal.WithLabelValues(result).Inc()
}

// SetApplicationInfo sets application information
func SetApplicationInfo(version, source string) {
	ApplicationInfo.WithLabelValues(version, source).Set(1)
}
