package market

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// RandomWalk is a PriceProvider that moves every symbol by a uniform random
// fraction on each CurrentPrice call. It keeps its own bar history so the
// indicators have something to chew on.
type RandomWalk struct {
	mu       sync.Mutex
	rng      *rand.Rand
	step     float64
	interval time.Duration
	maxBars  int
	warmup   int
	now      func() time.Time
	bars     map[string][]Bar
}

type WalkOption func(*RandomWalk)

// WithStep sets the maximum fractional move per step (default 0.02).
func WithStep(step float64) WalkOption {
	return func(w *RandomWalk) { w.step = step }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) WalkOption {
	return func(w *RandomWalk) { w.now = now }
}

// WithWarmup backfills n bars per symbol ending at the opening price.
func WithWarmup(n int) WalkOption {
	return func(w *RandomWalk) { w.warmup = n }
}

func NewRandomWalk(initial map[string]float64, seed int64, opts ...WalkOption) *RandomWalk {
	w := &RandomWalk{
		rng:      rand.New(rand.NewSource(seed)),
		step:     0.02,
		interval: 2 * time.Second,
		maxBars:  500,
		now:      time.Now,
		bars:     make(map[string][]Bar, len(initial)),
	}
	for _, sym := range Symbols(initial) {
		w.bars[sym] = []Bar{{Close: RoundCents(initial[sym])}}
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, sym := range Symbols(initial) {
		w.backfill(sym, w.warmup)
	}
	return w
}

func (w *RandomWalk) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	bars, ok := w.bars[symbol]
	if !ok {
		return 0, fmt.Errorf("%w: unknown symbol %q", ErrProviderUnavailable, symbol)
	}

	last := bars[len(bars)-1].Close
	next := RoundCents(last * (1 + w.move()))
	if next <= 0 {
		next = last
	}
	bars = append(bars, Bar{Time: w.now(), Close: next, Volume: w.volume()})
	if len(bars) > w.maxBars {
		bars = bars[len(bars)-w.maxBars:]
	}
	w.bars[symbol] = bars
	return next, nil
}

func (w *RandomWalk) HistoricalBars(ctx context.Context, symbol string, window int, _ time.Duration) ([]Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	bars, ok := w.bars[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: unknown symbol %q", ErrProviderUnavailable, symbol)
	}
	if window > 0 && len(bars) > window {
		bars = bars[len(bars)-window:]
	}
	out := make([]Bar, len(bars))
	copy(out, bars)
	return out, nil
}

func (w *RandomWalk) move() float64 {
	return (w.rng.Float64()*2 - 1) * w.step
}

func (w *RandomWalk) volume() float64 {
	return float64(100_000 + w.rng.Intn(900_000))
}

// backfill walks backwards from the current first bar, so the opening
// price stays the most recent close.
func (w *RandomWalk) backfill(symbol string, n int) {
	bars := w.bars[symbol]
	end := w.now()
	head := bars[0].Close
	past := make([]Bar, n)
	for i := n - 1; i >= 0; i-- {
		head = RoundCents(head / (1 + w.move()))
		past[i] = Bar{
			Time:   end.Add(-time.Duration(n-i) * w.interval),
			Close:  head,
			Volume: w.volume(),
		}
	}
	bars[0].Time = end
	bars[0].Volume = w.volume()
	w.bars[symbol] = append(past, bars...)
}
