package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/papertrader/chart"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/sentiment"
)

// ErrInvalidAction is returned for a manual trade that is neither buy nor
// sell.
var ErrInvalidAction = errors.New("invalid action")

// Status is the account overview served to clients.
type Status struct {
	Balance        float64                        `json:"balance"`
	Portfolio      map[string]int                 `json:"portfolio"`
	PortfolioValue float64                        `json:"portfolio_value"`
	TotalValue     float64                        `json:"total_value"`
	Prices         map[string]float64             `json:"prices"`
	PriceHistory   map[string][]market.PricePoint `json:"price_history"`
	TradingHistory []journal.TradeRecord          `json:"trading_history"`
	IsRunning      bool                           `json:"is_running"`
}

func (b *Bot) Status() Status {
	acct := b.ledger.Snapshot()
	prices := b.ledger.Prices()
	pv := b.ledger.PortfolioValue(prices)

	hist := make(map[string][]market.PricePoint, len(b.symbols))
	for _, sym := range b.symbols {
		hist[sym] = b.states[sym].history.Points()
	}

	return Status{
		Balance:        market.RoundCents(acct.Balance),
		Portfolio:      acct.Holdings,
		PortfolioValue: market.RoundCents(pv),
		TotalValue:     market.RoundCents(acct.Balance + pv),
		Prices:         prices,
		PriceHistory:   hist,
		TradingHistory: b.RecentTrades(b.settings.RecentTrades),
		IsRunning:      b.Running(),
	}
}

// RecentTrades returns the last n trades, oldest first.
func (b *Bot) RecentTrades(n int) []journal.TradeRecord {
	return b.ledger.Recent(n)
}

// ManualTrade executes a user-requested trade through the same ledger path
// as automated trades. action is "buy" or "sell", case-insensitive.
func (b *Bot) ManualTrade(action, symbol string, qty int) (ledger.Fill, error) {
	var (
		fill ledger.Fill
		err  error
	)
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "buy":
		fill, err = b.ledger.Buy(symbol, qty, "manual")
	case "sell":
		fill, err = b.ledger.Sell(symbol, qty, "manual")
	default:
		return ledger.Fill{}, ErrInvalidAction
	}

	act := strings.ToUpper(action)
	if err != nil {
		b.metrics.TradeRejected(act, rejectReason(err))
		b.log.Warn().Err(err).Str("symbol", symbol).Str("action", act).Int("quantity", qty).Msg("manual trade rejected")
		return ledger.Fill{}, err
	}
	b.metrics.TradeExecuted(act, "manual")
	b.metrics.SetAccount(b.ledger.Balance(), b.ledger.TotalValue())
	return fill, nil
}

func (b *Bot) state(symbol string) (*symbolState, error) {
	st, ok := b.states[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ledger.ErrInvalidSymbol, symbol)
	}
	return st, nil
}

// Chart builds the chart series for symbol. With no buckets the price
// history's own clock labels are used as the axis.
func (b *Bot) Chart(symbol string, buckets []string) (chart.Series, error) {
	st, err := b.state(symbol)
	if err != nil {
		return chart.Series{}, err
	}

	b.mu.RLock()
	ind := st.indicators
	b.mu.RUnlock()

	trades := b.ledger.TradesFor(symbol)
	s, err := chart.BuildSeries(symbol, st.history.Points(), ind, trades, b.settings.ChartBuckets)
	if err != nil {
		return chart.Series{}, err
	}
	if len(buckets) > 0 {
		markers, err := chart.Align(trades, buckets, b.settings.ChartBuckets)
		if err != nil {
			return chart.Series{}, err
		}
		s.Labels = buckets
		s.Markers = markers
	}
	return s, nil
}

// Sentiment returns the latest sentiment snapshot for symbol, collecting
// one on demand if none has been computed yet.
func (b *Bot) Sentiment(ctx context.Context, symbol string) (sentiment.Snapshot, error) {
	st, err := b.state(symbol)
	if err != nil {
		return sentiment.Snapshot{}, err
	}

	b.mu.RLock()
	snap := st.sentiment
	b.mu.RUnlock()
	if !snap.Time.IsZero() {
		return snap, nil
	}

	next, err := b.refreshSentiment(ctx, symbol, snap, b.now())
	if err != nil {
		b.metrics.ProviderError("sentiment")
		if errors.Is(err, market.ErrStaleData) {
			return snap, err
		}
		b.log.Warn().Err(err).Str("symbol", symbol).Msg("sentiment partially degraded")
	}

	b.mu.Lock()
	if st.sentiment.Time.IsZero() {
		st.sentiment = next
	}
	snap = st.sentiment
	b.mu.Unlock()
	return snap, nil
}
