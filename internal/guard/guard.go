// Package guard bounds calls to external providers with a timeout, a token
// bucket and a circuit breaker.
package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

type Settings struct {
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
	RatePerSecond float64       `yaml:"rate_per_second" json:"rate_per_second"`
	Burst         int           `yaml:"burst" json:"burst"`
	MaxFailures   uint32        `yaml:"max_failures" json:"max_failures"`
	OpenFor       time.Duration `yaml:"open_for" json:"open_for"`
}

func DefaultSettings() Settings {
	return Settings{
		Timeout:       2 * time.Second,
		RatePerSecond: 20,
		Burst:         10,
		MaxFailures:   5,
		OpenFor:       30 * time.Second,
	}
}

type Guard struct {
	name    string
	timeout time.Duration
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// New builds a guard. A zero RatePerSecond disables rate limiting.
func New(name string, s Settings, log zerolog.Logger) *Guard {
	if s.Timeout <= 0 {
		s.Timeout = DefaultSettings().Timeout
	}
	if s.MaxFailures == 0 {
		s.MaxFailures = DefaultSettings().MaxFailures
	}

	g := &Guard{name: name, timeout: s.Timeout}
	if s.RatePerSecond > 0 {
		burst := s.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(s.RatePerSecond), burst)
	}

	maxFailures := s.MaxFailures
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     s.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("guard", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("provider circuit changed state")
		},
	})
	return g
}

func (g *Guard) Name() string { return g.name }

// State reports the breaker state: "closed", "half-open" or "open".
func (g *Guard) State() string { return g.breaker.State().String() }

// Do runs fn under the guard. fn receives a context carrying the call
// deadline; Do returns once the deadline passes even if fn has not.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate limit: %w", g.name, err)
		}
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		done := make(chan error, 1)
		go func() { done <- fn(ctx) }()
		select {
		case err := <-done:
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	if err != nil {
		return fmt.Errorf("%s: %w", g.name, err)
	}
	return nil
}
