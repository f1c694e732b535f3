package market

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/papertrader/internal/guard"
)

// Guarded wraps a PriceProvider so every call is bounded by g. Failures
// surface as ErrProviderUnavailable.
func Guarded(p PriceProvider, g *guard.Guard) PriceProvider {
	return &guardedProvider{inner: p, guard: g}
}

type guardedProvider struct {
	inner PriceProvider
	guard *guard.Guard
}

func (p *guardedProvider) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var price float64
	err := p.guard.Do(ctx, func(ctx context.Context) error {
		v, err := p.inner.CurrentPrice(ctx, symbol)
		if err != nil {
			return err
		}
		price = v
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: price %s: %v", ErrProviderUnavailable, symbol, err)
	}
	return price, nil
}

func (p *guardedProvider) HistoricalBars(ctx context.Context, symbol string, window int, interval time.Duration) ([]Bar, error) {
	var bars []Bar
	err := p.guard.Do(ctx, func(ctx context.Context) error {
		v, err := p.inner.HistoricalBars(ctx, symbol, window, interval)
		if err != nil {
			return err
		}
		bars = v
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: bars %s: %v", ErrProviderUnavailable, symbol, err)
	}
	return bars, nil
}
