// Package ledger owns the simulated account: cash, share holdings, the
// latest price per symbol and the full trade history. Every mutation goes
// through one mutex so readers only ever see pre- or post-trade state.
package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/internal/id"
	"github.com/rustyeddy/papertrader/journal"
)

var (
	ErrInvalidSymbol      = errors.New("invalid symbol")
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Account is a point-in-time copy of the ledger's cash and holdings.
type Account struct {
	Balance  float64        `json:"balance"`
	Holdings map[string]int `json:"portfolio"`
}

// Fill describes an executed trade.
type Fill struct {
	TradeID      string         `json:"trade_id"`
	Action       journal.Action `json:"action"`
	Symbol       string         `json:"symbol"`
	Quantity     int            `json:"quantity"`
	Price        float64        `json:"price"`
	Total        float64        `json:"total"`
	BalanceAfter float64        `json:"balance_after"`
	Message      string         `json:"message"`
}

type Ledger struct {
	mu       sync.Mutex
	balance  decimal.Decimal
	holdings map[string]int
	prices   map[string]float64
	history  []journal.TradeRecord

	// outbox holds records not yet handed to the journal, in trade order.
	// journalMu is always taken before mu, never while holding it.
	outbox    []journal.TradeRecord
	journalMu sync.Mutex
	journal   journal.Journal
	log     zerolog.Logger
	now     func() time.Time
}

type Option func(*Ledger)

// WithJournal forwards every executed trade to j.
func WithJournal(j journal.Journal) Option {
	return func(l *Ledger) {
		if j != nil {
			l.journal = j
		}
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithClock overrides the trade timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

func New(balance float64, opts ...Option) *Ledger {
	l := &Ledger{
		balance:  decimal.NewFromFloat(balance),
		holdings: make(map[string]int),
		prices:   make(map[string]float64),
		journal:  journal.Nop{},
		log:      zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetPrice records the latest observed price for symbol. Non-positive prices
// are ignored.
func (l *Ledger) SetPrice(symbol string, price float64) {
	if symbol == "" || price <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prices[symbol] = price
}

func (l *Ledger) Price(symbol string) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.prices[symbol]
	return p, ok
}

// Prices returns a copy of the price book.
func (l *Ledger) Prices() map[string]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]float64, len(l.prices))
	for s, p := range l.prices {
		out[s] = p
	}
	return out
}

// Buy purchases qty shares of symbol at the current book price.
func (l *Ledger) Buy(symbol string, qty int, reason string) (Fill, error) {
	if qty <= 0 {
		return Fill{}, fmt.Errorf("buy %s: %w: %d", symbol, ErrInvalidQuantity, qty)
	}

	l.mu.Lock()
	fill, err := l.buyLocked(symbol, qty, reason)
	l.mu.Unlock()
	if err != nil {
		return Fill{}, err
	}
	l.flushJournal()
	return fill, nil
}

func (l *Ledger) buyLocked(symbol string, qty int, reason string) (Fill, error) {
	price, err := l.priceLocked(symbol)
	if err != nil {
		return Fill{}, fmt.Errorf("buy %s: %w", symbol, err)
	}

	cost := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty)))
	if cost.GreaterThan(l.balance) {
		return Fill{}, fmt.Errorf("buy %d %s: %w: cost $%s, balance $%s",
			qty, symbol, ErrInsufficientFunds, cost.StringFixed(2), l.balance.StringFixed(2))
	}

	l.balance = l.balance.Sub(cost)
	l.holdings[symbol] += qty

	rec := l.appendLocked(journal.Buy, symbol, qty, price, cost, reason)
	fill := fillFrom(rec, fmt.Sprintf("Bought %d shares of %s at $%.2f", qty, symbol, price))
	l.log.Info().
		Str("trade_id", rec.ID).
		Str("symbol", symbol).
		Int("quantity", qty).
		Float64("price", price).
		Float64("balance", rec.BalanceAfter).
		Str("reason", reason).
		Msg("buy executed")
	return fill, nil
}

// Sell disposes of qty held shares of symbol at the current book price.
func (l *Ledger) Sell(symbol string, qty int, reason string) (Fill, error) {
	if qty <= 0 {
		return Fill{}, fmt.Errorf("sell %s: %w: %d", symbol, ErrInvalidQuantity, qty)
	}

	l.mu.Lock()
	fill, err := l.sellLocked(symbol, qty, reason)
	l.mu.Unlock()
	if err != nil {
		return Fill{}, err
	}
	l.flushJournal()
	return fill, nil
}

func (l *Ledger) sellLocked(symbol string, qty int, reason string) (Fill, error) {
	if held := l.holdings[symbol]; held < qty {
		return Fill{}, fmt.Errorf("sell %d %s: %w: holding %d", qty, symbol, ErrInsufficientShares, held)
	}
	price, err := l.priceLocked(symbol)
	if err != nil {
		return Fill{}, fmt.Errorf("sell %s: %w", symbol, err)
	}

	proceeds := decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(qty)))
	l.balance = l.balance.Add(proceeds)
	l.holdings[symbol] -= qty
	if l.holdings[symbol] == 0 {
		delete(l.holdings, symbol)
	}

	rec := l.appendLocked(journal.Sell, symbol, qty, price, proceeds, reason)
	fill := fillFrom(rec, fmt.Sprintf("Sold %d shares of %s at $%.2f", qty, symbol, price))
	l.log.Info().
		Str("trade_id", rec.ID).
		Str("symbol", symbol).
		Int("quantity", qty).
		Float64("price", price).
		Float64("balance", rec.BalanceAfter).
		Str("reason", reason).
		Msg("sell executed")
	return fill, nil
}

func (l *Ledger) priceLocked(symbol string) (float64, error) {
	if symbol == "" {
		return 0, ErrInvalidSymbol
	}
	p, ok := l.prices[symbol]
	if !ok || p <= 0 {
		return 0, fmt.Errorf("%w: no price for %q", ErrInvalidSymbol, symbol)
	}
	return p, nil
}

func (l *Ledger) appendLocked(action journal.Action, symbol string, qty int, price float64, total decimal.Decimal, reason string) journal.TradeRecord {
	ts := l.now()
	rec := journal.TradeRecord{
		ID:           id.At(ts),
		Time:         ts,
		Action:       action,
		Symbol:       symbol,
		Quantity:     qty,
		Price:        price,
		Total:        total.InexactFloat64(),
		BalanceAfter: l.balance.InexactFloat64(),
		Reason:       reason,
	}
	l.history = append(l.history, rec)
	l.outbox = append(l.outbox, rec)
	return rec
}

// flushJournal writes pending records outside l.mu, so a slow journal
// delays only the trading caller and never a reader. A failed write is
// logged; the trade stands.
func (l *Ledger) flushJournal() {
	l.journalMu.Lock()
	defer l.journalMu.Unlock()

	l.mu.Lock()
	pending := l.outbox
	l.outbox = nil
	l.mu.Unlock()

	for _, rec := range pending {
		if err := l.journal.RecordTrade(rec); err != nil {
			l.log.Warn().Err(err).Str("trade_id", rec.ID).Msg("journal write failed")
		}
	}
}

func fillFrom(rec journal.TradeRecord, msg string) Fill {
	return Fill{
		TradeID:      rec.ID,
		Action:       rec.Action,
		Symbol:       rec.Symbol,
		Quantity:     rec.Quantity,
		Price:        rec.Price,
		Total:        rec.Total,
		BalanceAfter: rec.BalanceAfter,
		Message:      msg,
	}
}

// Balance returns the current cash balance.
func (l *Ledger) Balance() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance.InexactFloat64()
}

func (l *Ledger) Holding(symbol string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holdings[symbol]
}

func (l *Ledger) Snapshot() Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Account{
		Balance:  l.balance.InexactFloat64(),
		Holdings: l.holdingsLocked(),
	}
}

func (l *Ledger) holdingsLocked() map[string]int {
	out := make(map[string]int, len(l.holdings))
	for s, q := range l.holdings {
		out[s] = q
	}
	return out
}

// PortfolioValue marks current holdings to prices. Symbols without a price
// contribute nothing.
func (l *Ledger) PortfolioValue(prices map[string]float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return valueOf(l.holdings, prices).InexactFloat64()
}

// TotalValue is cash plus holdings marked to the ledger's own price book.
func (l *Ledger) TotalValue() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance.Add(valueOf(l.holdings, l.prices)).InexactFloat64()
}

func valueOf(holdings map[string]int, prices map[string]float64) decimal.Decimal {
	sum := decimal.Zero
	for s, q := range holdings {
		p, ok := prices[s]
		if !ok {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(p).Mul(decimal.NewFromInt(int64(q))))
	}
	return sum
}

// AverageCost is the lifetime average BUY price of symbol: the sum of all
// buy totals over the sum of all bought shares. Sells do not change it.
// The second result is false when symbol was never bought.
func (l *Ledger) AverageCost(symbol string) (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := decimal.Zero
	shares := int64(0)
	for _, rec := range l.history {
		if rec.Symbol != symbol || rec.Action != journal.Buy {
			continue
		}
		total = total.Add(decimal.NewFromFloat(rec.Price).Mul(decimal.NewFromInt(int64(rec.Quantity))))
		shares += int64(rec.Quantity)
	}
	if shares == 0 {
		return 0, false
	}
	return total.Div(decimal.NewFromInt(shares)).InexactFloat64(), true
}

// History returns every trade, oldest first.
func (l *Ledger) History() []journal.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]journal.TradeRecord(nil), l.history...)
}

// Recent returns the last n trades, oldest first. n <= 0 returns all.
func (l *Ledger) Recent(n int) []journal.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := 0
	if n > 0 && n < len(l.history) {
		start = len(l.history) - n
	}
	return append([]journal.TradeRecord(nil), l.history[start:]...)
}

func (l *Ledger) TradesFor(symbol string) []journal.TradeRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []journal.TradeRecord
	for _, rec := range l.history {
		if rec.Symbol == symbol {
			out = append(out, rec)
		}
	}
	return out
}

// Symbols returns the held symbols in sorted order.
func (a Account) Symbols() []string {
	out := make([]string, 0, len(a.Holdings))
	for s := range a.Holdings {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
