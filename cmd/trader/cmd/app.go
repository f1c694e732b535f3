package cmd

import (
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/papertrader/bot"
	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/internal/guard"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/metrics"
	"github.com/rustyeddy/papertrader/sentiment"
)

// app is the wired set of components one command runs against.
type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	journal journal.Journal
	ledger  *ledger.Ledger
	bot     *bot.Bot
	metrics *metrics.Registry
	guards  []*guard.Guard
	redis   *redis.Client
}

func newApp(cfg *config.Config, log zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log, metrics: metrics.New()}

	j, err := journal.Open(cfg.Journal.Type, cfg.Journal.Path, cfg.Journal.DSN)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	a.journal = j

	a.ledger = ledger.New(cfg.Account.Balance,
		ledger.WithJournal(j),
		ledger.WithLogger(log.With().Str("component", "ledger").Logger()),
	)
	for sym, p := range cfg.Symbols {
		a.ledger.SetPrice(sym, p)
	}

	walk := market.NewRandomWalk(cfg.Symbols, cfg.Market.Seed,
		market.WithStep(cfg.Market.Step),
		market.WithWarmup(cfg.Market.Warmup),
	)
	priceGuard := guard.New("price", cfg.Guard, log)
	a.guards = append(a.guards, priceGuard)
	prices := market.Guarded(walk, priceGuard)

	var sent sentiment.Provider
	if cfg.Sentiment.Provider == "random" {
		sent = sentiment.NewRandomProvider(cfg.Sentiment.Seed)
		if cfg.Sentiment.RedisAddr != "" {
			a.redis = redis.NewClient(&redis.Options{
				Addr: cfg.Sentiment.RedisAddr,
				DB:   cfg.Sentiment.RedisDB,
			})
			sent = sentiment.NewRedisCache(a.redis, sent, cfg.Sentiment.CacheTTL, log)
		}
		sentGuard := guard.New("sentiment", cfg.Guard, log)
		a.guards = append(a.guards, sentGuard)
		sent = sentiment.Guarded(sent, sentGuard)
	}

	a.bot = bot.New(a.ledger, prices, sent, market.Symbols(cfg.Symbols), cfg.Bot,
		bot.WithLogger(log.With().Str("component", "bot").Logger()),
		bot.WithMetrics(a.metrics),
	)
	if cfg.Autostart {
		a.bot.SetRunning(true)
	}
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.journal != nil {
		errs = append(errs, a.journal.Close())
	}
	return errors.Join(errs...)
}
