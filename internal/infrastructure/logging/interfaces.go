package logging

import (
	"context"
	"time"
)

// Logger define la interfaz principal para logging estructurado
type Logger interface {
	Debug(ctx context.Context, message string, fields Fields)
	Info(ctx context.Context, message string, fields Fields)
	Warn(ctx context.Context, message string, fields Fields)
	Error(ctx context.Context, message string, fields Fields)

	InfoWithError(ctx context.Context, message string, err error, fields Fields)
	WarnWithError(ctx context.Context, message string, err error, fields Fields)
	ErrorWithError(ctx context.Context, message string, err error, fields Fields)

	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// DomainLogger representa loggers especializados por dominio
type DomainLogger interface {
	Logger

	Domain() string
}

// HTTPLogger especializado para logs relacionados con HTTP
type HTTPLogger interface {
	DomainLogger

	RequestReceived(ctx context.Context, method, path, userAgent, remoteIP string)
	RequestCompleted(ctx context.Context, method, path string, statusCode int, duration float64)
}

// ExternalAPILogger covers calls to upstream market data sources
type ExternalAPILogger interface {
	DomainLogger

	RequestStarted(ctx context.Context, service, endpoint, method string)
	RequestCompleted(ctx context.Context, service, endpoint string, statusCode int, duration float64)
	RequestFailed(ctx context.Context, service, endpoint string, statusCode int, err error, duration float64)
}

// RefreshLogger covers the classification refresh lifecycle
type RefreshLogger interface {
	DomainLogger

	CycleStarted(ctx context.Context, source, trigger string)
	CycleSucceeded(ctx context.Context, source string, records, size, tennis int, duration time.Duration)
	CycleRejected(ctx context.Context, source string, err error, size, previous int)
	CycleFailed(ctx context.Context, source string, err error, consecutive int)
	FailuresEscalated(ctx context.Context, source string, err error, consecutive int)
	Recovered(ctx context.Context, source string, afterFailures int)
}

// SecurityLogger especializado para logs relacionados con seguridad
type SecurityLogger interface {
	DomainLogger

	RateLimitExceeded(ctx context.Context, clientIP string, endpoint string)
	AuthenticationFailed(ctx context.Context, clientIP, path, reason string)
}
