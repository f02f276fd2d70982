package domain

import (
	"context"
	"time"
)

// Execution defines the contract for order execution systems.
// The simulated engine is the only implementation; a broker adapter would be another.
type Execution interface {
	// Execute submits an order at the given simulation time.
	Execute(order *Order, now time.Time) error

	// OnTick marks the portfolio to market with a new tick.
	OnTick(tick MarketDataPoint)
}

// TickRepository defines how recorded market data is persisted and replayed.
type TickRepository interface {
	SaveTicks(ctx context.Context, ticks []MarketDataPoint) error
	LoadTicks(ctx context.Context, symbols ...string) ([]MarketDataPoint, error)
	CountTicks(ctx context.Context) (int64, error)
}
