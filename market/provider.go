package market

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrProviderUnavailable marks a price or sentiment source that failed
	// or timed out.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrStaleData marks a value served from a previous snapshot because a
	// refresh failed.
	ErrStaleData = errors.New("stale data")
)

// PriceProvider supplies market data for a symbol.
type PriceProvider interface {
	CurrentPrice(ctx context.Context, symbol string) (float64, error)

	// HistoricalBars returns up to window bars at the given interval,
	// oldest first. An empty slice means no data is available.
	HistoricalBars(ctx context.Context, symbol string, window int, interval time.Duration) ([]Bar, error)
}
