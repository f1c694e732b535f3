package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/sentiment"
	"github.com/rustyeddy/papertrader/strategies"
)

// SymbolResult is the outcome of one tick for one symbol. Err collects
// every failure recovered while evaluating it.
type SymbolResult struct {
	Symbol   string              `json:"symbol"`
	Price    float64             `json:"price"`
	Stale    bool                `json:"stale"`
	Decision strategies.Decision `json:"decision"`
	Fill     *ledger.Fill        `json:"fill,omitempty"`
	Err      error               `json:"-"`
}

// Tick evaluates every symbol once, in sorted order. One symbol's failure
// never stops the others.
func (b *Bot) Tick(ctx context.Context) []SymbolResult {
	b.tickMu.Lock()
	defer b.tickMu.Unlock()

	start := b.now()
	results := make([]SymbolResult, 0, len(b.symbols))
	for _, sym := range b.symbols {
		res := b.evaluate(ctx, sym)
		if res.Err != nil {
			b.metrics.SymbolError(sym)
			b.log.Warn().Err(res.Err).Str("symbol", sym).Msg("symbol evaluation degraded")
		}
		results = append(results, res)
	}

	b.metrics.ObserveTick(b.now().Sub(start))
	b.metrics.SetAccount(b.ledger.Balance(), b.ledger.TotalValue())
	return results
}

func (b *Bot) evaluate(ctx context.Context, sym string) SymbolResult {
	res := SymbolResult{Symbol: sym}
	now := b.now()

	b.mu.RLock()
	st := b.states[sym]
	prevInd, prevSent := st.indicators, st.sentiment
	b.mu.RUnlock()

	price, err := b.currentPrice(ctx, sym)
	if err != nil {
		b.metrics.ProviderError("price")
		res.Stale = true
		res.Err = fmt.Errorf("%w: %w", market.ErrStaleData, err)
		if last, ok := st.history.Last(); ok {
			res.Price = last.Price
		}
		return res
	}
	res.Price = price
	st.history.Append(now, price)
	b.ledger.SetPrice(sym, price)

	var errs []error
	ind := prevInd
	if ind.Stale(now, b.settings.IndicatorMaxAge) {
		next, err := b.refreshIndicators(ctx, sym, prevInd, now)
		if err != nil {
			b.metrics.ProviderError("bars")
			errs = append(errs, err)
			res.Stale = true
		}
		ind = next
	}

	sent := prevSent
	if sent.Stale(now, b.settings.SentimentMaxAge) {
		next, err := b.refreshSentiment(ctx, sym, prevSent, now)
		if err != nil {
			b.metrics.ProviderError("sentiment")
			errs = append(errs, err)
		}
		sent = next
	}

	b.mu.Lock()
	st.indicators = ind
	st.sentiment = sent
	b.mu.Unlock()

	b.log.Debug().
		Str("symbol", sym).
		Float64("price", price).
		Float64("sma20", ind.SMA20).
		Float64("rsi", ind.RSI).
		Float64("sentiment", sent.Overall).
		Msg("symbol refreshed")

	if !b.Running() {
		res.Err = errors.Join(errs...)
		return res
	}

	res.Decision = b.cascade.Decide(b.inputs(sym, price, st, ind, sent))
	if res.Decision.Fired() {
		b.metrics.RuleFired(res.Decision.Rule)
		fill, err := strategies.Execute(b.ledger, res.Decision, b.log)
		if err != nil {
			b.metrics.TradeRejected(res.Decision.Action.String(), rejectReason(err))
			errs = append(errs, err)
		} else {
			b.metrics.TradeExecuted(res.Decision.Action.String(), "auto")
			res.Fill = &fill
		}
	}
	res.Err = errors.Join(errs...)
	return res
}

func (b *Bot) currentPrice(ctx context.Context, sym string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.settings.ProviderTimeout)
	defer cancel()

	price, err := b.prices.CurrentPrice(ctx, sym)
	if err != nil {
		return 0, err
	}
	if price <= 0 {
		return 0, fmt.Errorf("%w: non-positive price %v for %s", market.ErrProviderUnavailable, price, sym)
	}
	return price, nil
}

// refreshIndicators keeps prev when bars cannot be fetched.
func (b *Bot) refreshIndicators(ctx context.Context, sym string, prev indicators.Snapshot, now time.Time) (indicators.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, b.settings.ProviderTimeout)
	defer cancel()

	bars, err := b.prices.HistoricalBars(ctx, sym, b.settings.BarWindow, b.settings.BarInterval)
	if err != nil {
		return prev, fmt.Errorf("%w: indicators %s: %w", market.ErrStaleData, sym, err)
	}
	next, ok := indicators.Compute(bars, prev, now)
	if !ok {
		return prev, fmt.Errorf("%w: no bars for %s", market.ErrStaleData, sym)
	}
	return next, nil
}

// refreshSentiment keeps prev only when every source failed. A partial
// failure still yields a fresh snapshot from the sources that answered.
func (b *Bot) refreshSentiment(ctx context.Context, sym string, prev sentiment.Snapshot, now time.Time) (sentiment.Snapshot, error) {
	if b.sentiment == nil {
		return prev, nil
	}
	ctx, cancel := context.WithTimeout(ctx, b.settings.ProviderTimeout)
	defer cancel()

	next, err := sentiment.Collect(ctx, b.sentiment, sym, now)
	if errors.Is(err, sentiment.ErrNoSources) {
		return prev, fmt.Errorf("%w: %w", market.ErrStaleData, err)
	}
	return next, err
}

func (b *Bot) inputs(sym string, price float64, st *symbolState, ind indicators.Snapshot, sent sentiment.Snapshot) strategies.Inputs {
	points := st.history.Points()
	in := strategies.Inputs{
		Symbol:        sym,
		Price:         price,
		History:       points,
		Indicators:    ind,
		Sentiment:     sent.Signal(),
		Account:       b.ledger.Snapshot(),
		HoldingsValue: b.ledger.PortfolioValue(b.ledger.Prices()),
	}
	if n := len(points); n >= 2 {
		in.Prev = points[n-2]
	}
	in.AverageCost, in.HasCost = b.ledger.AverageCost(sym)
	return in
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ledger.ErrInsufficientShares):
		return "insufficient_shares"
	case errors.Is(err, ledger.ErrInvalidSymbol):
		return "invalid_symbol"
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return "invalid_quantity"
	default:
		return "other"
	}
}
