// Package bot drives the trading loop: on every tick it refreshes prices,
// indicators and sentiment for each symbol, runs the decision cascade and
// executes the result against the ledger.
package bot

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/rustyeddy/papertrader/chart"
	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/sentiment"
	"github.com/rustyeddy/papertrader/strategies"
)

type Settings struct {
	Interval        time.Duration   `yaml:"interval" json:"interval"`
	ProviderTimeout time.Duration   `yaml:"provider_timeout" json:"provider_timeout"`
	IndicatorMaxAge time.Duration   `yaml:"indicator_max_age" json:"indicator_max_age"`
	SentimentMaxAge time.Duration   `yaml:"sentiment_max_age" json:"sentiment_max_age"`
	HistoryCap      int             `yaml:"history_cap" json:"history_cap"`
	BarWindow       int             `yaml:"bar_window" json:"bar_window"`
	BarInterval     time.Duration   `yaml:"bar_interval" json:"bar_interval"`
	ChartBuckets    time.Duration   `yaml:"chart_granularity" json:"chart_granularity"`
	RecentTrades    int             `yaml:"recent_trades" json:"recent_trades"`
	Risk            strategies.Risk `yaml:"risk" json:"risk"`
}

func DefaultSettings() Settings {
	return Settings{
		Interval:        2 * time.Second,
		ProviderTimeout: 2 * time.Second,
		IndicatorMaxAge: 5 * time.Minute,
		SentimentMaxAge: 15 * time.Minute,
		HistoryCap:      market.DefaultHistoryCap,
		BarWindow:       50,
		BarInterval:     time.Minute,
		ChartBuckets:    chart.DefaultGranularity,
		RecentTrades:    10,
		Risk:            strategies.DefaultRisk(),
	}
}

// withDefaults fills zero fields from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.Interval <= 0 {
		s.Interval = d.Interval
	}
	if s.ProviderTimeout <= 0 {
		s.ProviderTimeout = d.ProviderTimeout
	}
	if s.IndicatorMaxAge <= 0 {
		s.IndicatorMaxAge = d.IndicatorMaxAge
	}
	if s.SentimentMaxAge <= 0 {
		s.SentimentMaxAge = d.SentimentMaxAge
	}
	if s.HistoryCap <= 0 {
		s.HistoryCap = d.HistoryCap
	}
	if s.BarWindow <= 0 {
		s.BarWindow = d.BarWindow
	}
	if s.BarInterval <= 0 {
		s.BarInterval = d.BarInterval
	}
	if s.ChartBuckets <= 0 {
		s.ChartBuckets = d.ChartBuckets
	}
	if s.RecentTrades <= 0 {
		s.RecentTrades = d.RecentTrades
	}
	if s.Risk == (strategies.Risk{}) {
		s.Risk = d.Risk
	}
	return s
}

// symbolState is owned by the tick loop. Snapshots are replaced whole.
type symbolState struct {
	history    *market.History
	indicators indicators.Snapshot
	sentiment  sentiment.Snapshot
}

type Bot struct {
	ledger    *ledger.Ledger
	prices    market.PriceProvider
	sentiment sentiment.Provider
	cascade   *strategies.Cascade
	settings  Settings

	symbols []string

	// tickMu serializes ticks; mu guards the per-symbol snapshots.
	tickMu  sync.Mutex
	mu      sync.RWMutex
	states  map[string]*symbolState
	running atomic.Bool

	metrics *metrics.Registry
	log     zerolog.Logger
	now     func() time.Time
}

type Option func(*Bot)

func WithLogger(log zerolog.Logger) Option {
	return func(b *Bot) { b.log = log }
}

func WithMetrics(m *metrics.Registry) Option {
	return func(b *Bot) { b.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(b *Bot) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a stopped bot trading symbols. Every symbol must already have
// a price in l's price book for manual trades to succeed before the first
// tick.
func New(l *ledger.Ledger, prices market.PriceProvider, sent sentiment.Provider, symbols []string, s Settings, opts ...Option) *Bot {
	s = s.withDefaults()
	b := &Bot{
		ledger:    l,
		prices:    prices,
		sentiment: sent,
		cascade:   strategies.NewCascade(s.Risk),
		settings:  s,
		states:    make(map[string]*symbolState, len(symbols)),
		log:       zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}

	for _, sym := range symbols {
		if _, dup := b.states[sym]; dup || sym == "" {
			continue
		}
		b.symbols = append(b.symbols, sym)
		b.states[sym] = &symbolState{history: market.NewHistory(s.HistoryCap)}
	}
	sort.Strings(b.symbols)
	return b
}

func (b *Bot) Symbols() []string {
	return append([]string(nil), b.symbols...)
}

func (b *Bot) Ledger() *ledger.Ledger { return b.ledger }

func (b *Bot) Running() bool { return b.running.Load() }

// SetRunning enables or disables automated trading. A tick already in
// progress completes; the change applies from the next tick.
func (b *Bot) SetRunning(on bool) {
	b.running.Store(on)
	b.metrics.SetRunning(on)
	b.log.Info().Bool("running", on).Msg("bot state changed")
}

// Toggle flips the running flag and returns the new value.
func (b *Bot) Toggle() bool {
	for {
		cur := b.running.Load()
		if b.running.CompareAndSwap(cur, !cur) {
			b.metrics.SetRunning(!cur)
			b.log.Info().Bool("running", !cur).Msg("bot state changed")
			return !cur
		}
	}
}

// Run ticks every Settings.Interval until ctx is done. Ticks while the bot
// is stopped are skipped.
func (b *Bot) Run(ctx context.Context) error {
	ticker := time.NewTicker(b.settings.Interval)
	defer ticker.Stop()

	b.log.Info().
		Strs("symbols", b.symbols).
		Dur("interval", b.settings.Interval).
		Msg("bot loop started")

	for {
		select {
		case <-ctx.Done():
			b.log.Info().Msg("bot loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if !b.Running() {
				continue
			}
			b.Tick(ctx)
		}
	}
}
