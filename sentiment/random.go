package sentiment

import (
	"context"
	"math/rand"
	"sync"
)

// RandomProvider returns uniformly random readings. It stands in for the
// forum, news and social feeds during paper trading.
type RandomProvider struct {
	mu  sync.Mutex
	rng *rand.Rand

	// MaxSamples bounds the sample count; a zero count is produced about
	// one time in MaxSamples+1.
	MaxSamples int
}

func NewRandomProvider(seed int64) *RandomProvider {
	return &RandomProvider{
		rng:        rand.New(rand.NewSource(seed)),
		MaxSamples: 25,
	}
}

func (p *RandomProvider) Fetch(ctx context.Context, _ string, _ Source) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return Reading{
		Score: p.rng.Float64()*2 - 1,
		Count: p.rng.Intn(p.MaxSamples + 1),
	}, nil
}
