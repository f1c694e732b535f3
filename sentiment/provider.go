package sentiment

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNoSources is joined into Collect's error when every source failed.
var ErrNoSources = errors.New("no sentiment source available")

// Provider fetches the current reading for one symbol from one source.
type Provider interface {
	Fetch(ctx context.Context, symbol string, src Source) (Reading, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, symbol string, src Source) (Reading, error)

func (f ProviderFunc) Fetch(ctx context.Context, symbol string, src Source) (Reading, error) {
	return f(ctx, symbol, src)
}

// Collect fetches every source and aggregates them. A failing source is
// counted as {0, 0}, which drops it from the weighted sum; its error is
// returned alongside the still-valid snapshot.
func Collect(ctx context.Context, p Provider, symbol string, now time.Time) (Snapshot, error) {
	readings := make(map[Source]Reading, len(Sources))
	var errs []error
	for _, src := range Sources {
		r, err := p.Fetch(ctx, symbol, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s/%s: %w", symbol, src, err))
			continue
		}
		readings[src] = clamp(r)
	}
	if len(errs) == len(Sources) {
		errs = append(errs, ErrNoSources)
	}
	return Aggregate(readings, now), errors.Join(errs...)
}

func clamp(r Reading) Reading {
	r.Score = max(-1, min(1, r.Score))
	if r.Count < 0 {
		r.Count = 0
	}
	return r
}
