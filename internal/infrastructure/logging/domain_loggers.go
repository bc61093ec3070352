package logging

import (
	"context"
	"time"
)

// BaseDomainLogger implementa funcionalidad común para loggers de dominio
type BaseDomainLogger struct {
	Logger
	domain string
}

// Domain retorna el dominio del logger
func (dl *BaseDomainLogger) Domain() string {
	return dl.domain
}

// logWithDomain agrega el campo de dominio a los logs
func (dl *BaseDomainLogger) logWithDomain(ctx context.Context, level LogLevel, message string, fields Fields) {
	if fields == nil {
		fields = make(Fields)
	}
	fields[FieldDomain] = dl.domain

	switch level {
	case LevelDebug:
		dl.Logger.Debug(ctx, message, fields)
	case LevelInfo:
		dl.Logger.Info(ctx, message, fields)
	case LevelWarn:
		dl.Logger.Warn(ctx, message, fields)
	case LevelError:
		dl.Logger.Error(ctx, message, fields)
	}
}

func (dl *BaseDomainLogger) Debug(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelDebug, message, fields)
}

func (dl *BaseDomainLogger) Info(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelInfo, message, fields)
}

func (dl *BaseDomainLogger) Warn(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelWarn, message, fields)
}

func (dl *BaseDomainLogger) Error(ctx context.Context, message string, fields Fields) {
	dl.logWithDomain(ctx, LevelError, message, fields)
}

func (dl *BaseDomainLogger) WarnWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.logWithDomain(ctx, LevelWarn, message, withError(fields, err))
}

func (dl *BaseDomainLogger) ErrorWithError(ctx context.Context, message string, err error, fields Fields) {
	dl.logWithDomain(ctx, LevelError, message, withError(fields, err))
}

func newBase(baseLogger Logger, domain string) *BaseDomainLogger {
	return &BaseDomainLogger{Logger: baseLogger, domain: domain}
}

// statusLevel picks a level from an HTTP status code
func statusLevel(statusCode int) LogLevel {
	switch {
	case statusCode >= 500:
		return LevelError
	case statusCode >= 400:
		return LevelWarn
	default:
		return LevelInfo
	}
}

// HTTPDomainLogger especializado para logs HTTP
type HTTPDomainLogger struct {
	*BaseDomainLogger
}

// NewHTTPLogger crea un nuevo logger HTTP
func NewHTTPLogger(baseLogger Logger) HTTPLogger {
	return &HTTPDomainLogger{BaseDomainLogger: newBase(baseLogger, "http")}
}

func (hl *HTTPDomainLogger) RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, 0).
		WithUserAgent(userAgent).
		WithRemoteIP(remoteIP).
		Build()

	hl.Debug(ctx, "HTTP request received", fields)
}

func (hl *HTTPDomainLogger) RequestCompleted(ctx context.Context, method, path string, statusCode int, duration float64) {
	fields := NewFieldBuilder().
		WithHTTPInfo(method, path, statusCode).
		WithCustomField(FieldDuration, duration).
		Build()

	hl.logWithDomain(ctx, statusLevel(statusCode), "HTTP request completed", fields)
}

// ExternalAPIDomainLogger especializado para APIs externas
type ExternalAPIDomainLogger struct {
	*BaseDomainLogger
}

// NewExternalAPILogger crea un nuevo logger para APIs externas
func NewExternalAPILogger(baseLogger Logger) ExternalAPILogger {
	return &ExternalAPIDomainLogger{BaseDomainLogger: newBase(baseLogger, "external_api")}
}

func (el *ExternalAPIDomainLogger) RequestStarted(ctx context.Context, service, endpoint, method string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalMethod, method).
		Build()

	el.Debug(ctx, "External API request started", fields)
}

func (el *ExternalAPIDomainLogger) RequestCompleted(ctx context.Context, service, endpoint string, statusCode int, duration float64) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalStatus, statusCode).
		WithCustomField(FieldExternalDuration, duration).
		Build()

	level := statusLevel(statusCode)
	if level == LevelInfo {
		level = LevelDebug
	}
	el.logWithDomain(ctx, level, "External API request completed", fields)
}

func (el *ExternalAPIDomainLogger) RequestFailed(ctx context.Context, service, endpoint string, statusCode int, err error, duration float64) {
	fields := NewFieldBuilder().
		WithCustomField(FieldExternalService, service).
		WithCustomField(FieldExternalEndpoint, endpoint).
		WithCustomField(FieldExternalStatus, statusCode).
		WithCustomField(FieldExternalDuration, duration).
		Build()

	el.WarnWithError(ctx, "External API request failed", err, fields)
}

// RefreshDomainLogger logs classification refresh cycles
type RefreshDomainLogger struct {
	*BaseDomainLogger
}

// NewRefreshLogger creates a logger for the refresh domain
func NewRefreshLogger(baseLogger Logger) RefreshLogger {
	return &RefreshDomainLogger{BaseDomainLogger: newBase(baseLogger, "refresh")}
}

func (rl *RefreshDomainLogger) CycleStarted(ctx context.Context, source, trigger string) {
	rl.Debug(ctx, "Classification refresh started", Fields{
		FieldSource:  source,
		FieldTrigger: trigger,
	})
}

func (rl *RefreshDomainLogger) CycleSucceeded(ctx context.Context, source string, records, size, tennis int, duration time.Duration) {
	fields := NewFieldBuilder().
		WithCustomField(FieldSource, source).
		WithCustomField(FieldRecords, records).
		WithSnapshot(size, tennis).
		WithDuration(duration).
		Build()

	rl.Info(ctx, "Classification snapshot installed", fields)
}

func (rl *RefreshDomainLogger) CycleRejected(ctx context.Context, source string, err error, size, previous int) {
	rl.WarnWithError(ctx, "Classification snapshot rejected, keeping previous", err, Fields{
		FieldSource:       source,
		FieldSnapshotSize: size,
		FieldPreviousSize: previous,
	})
}

func (rl *RefreshDomainLogger) CycleFailed(ctx context.Context, source string, err error, consecutive int) {
	rl.WarnWithError(ctx, "Classification refresh failed, keeping previous snapshot", err, Fields{
		FieldSource:              source,
		FieldConsecutiveFailures: consecutive,
	})
}

func (rl *RefreshDomainLogger) FailuresEscalated(ctx context.Context, source string, err error, consecutive int) {
	rl.ErrorWithError(ctx, "Classification refresh failing repeatedly, serving stale snapshot", err, Fields{
		FieldSource:              source,
		FieldConsecutiveFailures: consecutive,
	})
}

func (rl *RefreshDomainLogger) Recovered(ctx context.Context, source string, afterFailures int) {
	rl.Info(ctx, "Classification refresh recovered", Fields{
		FieldSource:              source,
		FieldConsecutiveFailures: afterFailures,
	})
}

// SecurityDomainLogger especializado para seguridad
type SecurityDomainLogger struct {
	*BaseDomainLogger
}

// NewSecurityLogger crea un nuevo logger de seguridad
func NewSecurityLogger(baseLogger Logger) SecurityLogger {
	return &SecurityDomainLogger{BaseDomainLogger: newBase(baseLogger, "security")}
}

func (sl *SecurityDomainLogger) RateLimitExceeded(ctx context.Context, clientIP string, endpoint string) {
	fields := NewFieldBuilder().
		WithCustomField(FieldClientIP, clientIP).
		WithCustomField("endpoint", endpoint).
		WithCustomField(FieldRateLimit, "exceeded").
		Build()

	sl.Warn(ctx, "Rate limit exceeded", fields)
}

func (sl *SecurityDomainLogger) AuthenticationFailed(ctx context.Context, clientIP, path, reason string) {
	sl.Warn(ctx, "API key authentication failed", Fields{
		FieldClientIP: clientIP,
		FieldHTTPPath: path,
		"reason":      reason,
	})
}
