package sentiment

import (
	"context"
	"fmt"

	"github.com/rustyeddy/papertrader/internal/guard"
	"github.com/rustyeddy/papertrader/market"
)

// Guarded bounds every fetch with g. Failures surface as
// market.ErrProviderUnavailable.
func Guarded(p Provider, g *guard.Guard) Provider {
	return ProviderFunc(func(ctx context.Context, symbol string, src Source) (Reading, error) {
		var r Reading
		err := g.Do(ctx, func(ctx context.Context) error {
			v, err := p.Fetch(ctx, symbol, src)
			if err != nil {
				return err
			}
			r = v
			return nil
		})
		if err != nil {
			return Reading{}, fmt.Errorf("%w: sentiment %s/%s: %v", market.ErrProviderUnavailable, symbol, src, err)
		}
		return r, nil
	})
}
