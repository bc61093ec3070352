package services

import (
	"context"

	"tennis-market-cache/internal/infrastructure/logging"
	"tennis-market-cache/internal/infrastructure/metrics"
)

// FailureObserver is notified when refresh failures pile up past the
// configured threshold, and again once a cycle succeeds after that.
type FailureObserver interface {
	FailuresEscalated(ctx context.Context, source string, err error, consecutive int)
	Recovered(ctx context.Context, source string, afterFailures int)
}

// AlertingObserver escalates through the refresh logger and the
// tennis_cache_refresh_escalated gauge.
type AlertingObserver struct {
	logger logging.RefreshLogger
}

// NewAlertingObserver crea el observer por defecto. Un logger nil usa el global.
func NewAlertingObserver(logger logging.RefreshLogger) *AlertingObserver {
	if logger == nil {
		logger = logging.Refresh()
	}
	return &AlertingObserver{logger: logger}
}

func (o *AlertingObserver) FailuresEscalated(ctx context.Context, source string, err error, consecutive int) {
	metrics.SetRefreshEscalated(true)
	o.logger.FailuresEscalated(ctx, source, err, consecutive)
}

func (o *AlertingObserver) Recovered(ctx context.Context, source string, afterFailures int) {
	metrics.SetRefreshEscalated(false)
	o.logger.Recovered(ctx, source, afterFailures)
}
