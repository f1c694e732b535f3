package sentiment

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rustyeddy/papertrader/internal/guard"
	"github.com/rustyeddy/papertrader/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardedFailureIsUnavailable(t *testing.T) {
	t.Parallel()

	g := guard.New("sentiment", guard.DefaultSettings(), zerolog.Nop())
	p := Guarded(ProviderFunc(func(context.Context, string, Source) (Reading, error) {
		return Reading{}, errors.New("timeout talking to feed")
	}), g)

	_, err := p.Fetch(context.Background(), "AAPL", Social)
	assert.ErrorIs(t, err, market.ErrProviderUnavailable)

	// Collect still produces a snapshot from nothing.
	snap, err := Collect(context.Background(), p, "AAPL", now)
	assert.ErrorIs(t, err, ErrNoSources)
	assert.Equal(t, 0.0, snap.Overall)
}

func TestGuardedPassesReading(t *testing.T) {
	t.Parallel()

	g := guard.New("sentiment", guard.DefaultSettings(), zerolog.Nop())
	p := Guarded(ProviderFunc(func(context.Context, string, Source) (Reading, error) {
		return Reading{Score: 0.3, Count: 2}, nil
	}), g)

	r, err := p.Fetch(context.Background(), "AAPL", News)
	require.NoError(t, err)
	assert.Equal(t, Reading{Score: 0.3, Count: 2}, r)
}
