package tennis

import (
	"context"
	"fmt"

	"tennis-market-cache/internal/application/services"
	"tennis-market-cache/internal/domain/classification"
	"tennis-market-cache/internal/infrastructure/config"
	"tennis-market-cache/internal/infrastructure/marketdata"
	"tennis-market-cache/internal/infrastructure/repositories/cache"
)

// FactoryFromConfig returns a HandleFactory that wires the market source,
// classifier and scheduler described by cfg.
func FactoryFromConfig(cfg *config.Config) HandleFactory {
	return func() (*Handle, error) {
		source, err := marketdata.NewSourceFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("building market source: %w", err)
		}

		store := cache.NewSnapshotStore()
		classifier := classification.NewClassifier(cfg.Classification.ExtraTennisTags...)
		scheduler := services.NewRefreshScheduler(source, store, classifier, RefreshConfigFrom(cfg.Refresh))

		h := NewHandle(store, classification.DefaultBufferPolicy(), scheduler)
		if _, ok := source.(marketdata.Pinger); ok {
			h.AddCheck("source", func(ctx context.Context) error {
				return marketdata.Ping(ctx, source)
			})
		}
		h.OnShutdown(func() error {
			return marketdata.Close(source)
		})
		return h, nil
	}
}

// RefreshConfigFrom maps the config section onto the scheduler settings
func RefreshConfigFrom(cfg config.RefreshConfig) services.RefreshConfig {
	return services.RefreshConfig{
		Interval:          cfg.Interval,
		FetchTimeout:      cfg.FetchTimeout,
		MinSnapshotSize:   cfg.MinSnapshotSize,
		MinRetainRatio:    cfg.MinRetainRatio,
		FailureThreshold:  cfg.FailureThreshold,
		ShrinkAcceptAfter: cfg.ShrinkAcceptAfter,
	}
}
