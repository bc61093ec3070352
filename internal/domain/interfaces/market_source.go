package interfaces

import (
	"context"

	"tennis-market-cache/internal/domain/entities"
)

// MarketSource supplies the raw market universe that classification snapshots
// are built from. Implementations must honour ctx cancellation; the caller
// bounds every fetch with a timeout.
type MarketSource interface {
	// Name identifies the source in logs and metrics (e.g. "gamma", "redis").
	Name() string

	// FetchMarkets returns one record per tradable token.
	FetchMarkets(ctx context.Context) ([]*entities.MarketRecord, error)
}
