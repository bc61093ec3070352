package marketdata

import (
	"context"
	"fmt"
	"io"
	"strings"

	"tennis-market-cache/internal/domain/interfaces"
	"tennis-market-cache/internal/infrastructure/config"
	"tennis-market-cache/internal/infrastructure/logging"
	"tennis-market-cache/internal/infrastructure/marketdata/gamma"
)

// Backend names accepted in source.backend
const (
	BackendHTTP  = "http"
	BackendRedis = "redis"
	BackendMock  = "mock"
)

// NewSourceFromConfig builds the configured MarketSource. development.mock_mode
// always wins.
func NewSourceFromConfig(cfg *config.Config) (interfaces.MarketSource, error) {
	backend := strings.ToLower(cfg.Source.Backend)
	if cfg.Development.MockMode {
		backend = BackendMock
	}

	var source interfaces.MarketSource
	switch backend {
	case BackendHTTP:
		source = gamma.NewRestClientWithConfig(cfg.Source.HTTP)
	case BackendRedis:
		source = NewRedisSource(cfg.Source.Redis)
	case BackendMock:
		source = NewMockSourceWithDefaults()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Source.Backend)
	}

	logging.Info(context.Background(), "Market source created", logging.Fields{
		logging.FieldSource: source.Name(),
		"backend":           backend,
	})

	return source, nil
}

// Pinger is implemented by sources with a connection worth health-checking.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks source connectivity when the source supports it.
func Ping(ctx context.Context, source interfaces.MarketSource) error {
	if p, ok := source.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases source resources when the source holds any.
func Close(source interfaces.MarketSource) error {
	if c, ok := source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
